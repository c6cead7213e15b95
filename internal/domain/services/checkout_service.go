package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rzv1310/seo-doctor-sub000/internal/apperrors"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/repositories"
)

// CheckoutLocker serializes checkout submissions per user so a double
// click cannot start two overlapping batches.
type CheckoutLocker interface {
	AcquireCheckoutLock(ctx context.Context, userID int64) (bool, error)
	ReleaseCheckoutLock(ctx context.Context, userID int64) error
}

type CheckoutRequest struct {
	Items           []models.CartItem
	PaymentMethodID string
	Coupon          string
}

type CheckoutResult struct {
	Outcome models.CheckoutOutcome      `json:"outcome"`
	Items   []models.CheckoutItemResult `json:"items"`
}

// ItemError attributes a batch failure to the cart item whose purchase
// failed. Items processed before it have already succeeded remotely and
// are not rolled back.
type ItemError struct {
	ServiceName string
	Err         error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %s", e.ServiceName, e.Err.Error())
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID int64, req *CheckoutRequest) (*CheckoutResult, error)
}

type checkoutService struct {
	subs   SubscriptionService
	users  repositories.UserRepository
	locks  CheckoutLocker
	logger *slog.Logger
}

func NewCheckoutService(subs SubscriptionService, users repositories.UserRepository, locks CheckoutLocker, logger *slog.Logger) CheckoutService {
	return &checkoutService{
		subs:   subs,
		users:  users,
		locks:  locks,
		logger: logger,
	}
}

// Checkout purchases the cart items as independent subscriptions, strictly
// in order and one at a time. The first failure aborts the remaining items;
// subscriptions already created in the batch stay as they are. The returned
// result always carries the items processed so far, even on error.
func (s *checkoutService) Checkout(ctx context.Context, userID int64, req *CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "cart is empty")
	}
	if req.PaymentMethodID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "no payment method selected")
	}

	user, err := s.users.GetUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load user", err)
	}
	if !user.BillingComplete() {
		return nil, apperrors.New(apperrors.KindValidation, "billing details are incomplete")
	}

	acquired, err := s.locks.AcquireCheckoutLock(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to acquire checkout lock", err)
	}
	if !acquired {
		return nil, apperrors.New(apperrors.KindValidation, "a checkout is already in progress")
	}
	defer func() {
		if err := s.locks.ReleaseCheckoutLock(ctx, userID); err != nil {
			s.logger.Warn("failed to release checkout lock", "user_id", userID, "error", err)
		}
	}()

	result := &CheckoutResult{}
	for _, item := range req.Items {
		var itemResult *SubscriptionResult
		var itemErr error

		if item.IsPendingPayment {
			itemResult, itemErr = s.subs.RetryPayment(ctx, userID, item.PendingSubscriptionID, req.PaymentMethodID)
		} else {
			itemResult, itemErr = s.subs.CreateSubscription(ctx, userID, &CreateSubscriptionRequest{
				ServiceID:       item.ServiceID,
				PaymentMethodID: req.PaymentMethodID,
				Coupon:          req.Coupon,
			})
		}

		if itemErr != nil {
			result.Outcome = models.ClassifyCheckout(result.Items)
			return result, &ItemError{ServiceName: item.Name, Err: itemErr}
		}

		result.Items = append(result.Items, models.CheckoutItemResult{
			ServiceID:           item.ServiceID,
			ServiceName:         item.Name,
			SubscriptionID:      itemResult.SubscriptionID,
			LocalSubscriptionID: itemResult.LocalSubscriptionID,
			Status:              itemResult.Status,
			RequiresAction:      itemResult.RequiresAction,
			ClientSecret:        itemResult.ClientSecret,
		})
	}

	result.Outcome = models.ClassifyCheckout(result.Items)
	return result, nil
}
