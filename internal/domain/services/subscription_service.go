package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rzv1310/seo-doctor-sub000/internal/apperrors"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/billing"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/repositories"
)

// StatusPublisher fans out local subscription status transitions.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, userID int64, event models.SubscriptionEvent) error
}

type CreateSubscriptionRequest struct {
	ServiceID       int64
	PaymentMethodID string
	Coupon          string
}

// SubscriptionResult is the transient outcome of a create or retry. When
// RequiresAction is set the client must drive a step-up confirmation with
// ClientSecret before the subscription becomes active.
type SubscriptionResult struct {
	SubscriptionID      string                    `json:"subscriptionId"`
	Status              models.SubscriptionStatus `json:"status"`
	LocalSubscriptionID string                    `json:"localSubscriptionId"`
	RequiresAction      bool                      `json:"requiresAction"`
	ClientSecret        string                    `json:"clientSecret,omitempty"`
}

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, userID int64, req *CreateSubscriptionRequest) (*SubscriptionResult, error)
	// RetryPayment resumes a pending_payment subscription. It deliberately
	// takes no coupon: discounts apply to fresh subscriptions only.
	RetryPayment(ctx context.Context, userID int64, localSubscriptionID, paymentMethodID string) (*SubscriptionResult, error)
	VerifySubscription(ctx context.Context, userID int64, localSubscriptionID string) (*models.Subscription, error)
	MarkActive(ctx context.Context, userID int64, localSubscriptionID string) error
	ListSubscriptions(ctx context.Context, userID int64) ([]*models.Subscription, error)
}

type subscriptionService struct {
	provider  billing.Provider
	subs      repositories.SubscriptionRepository
	users     repositories.UserRepository
	services  repositories.ServiceRepository
	coupons   CouponService
	publisher StatusPublisher
	logger    *slog.Logger
}

func NewSubscriptionService(
	provider billing.Provider,
	subs repositories.SubscriptionRepository,
	users repositories.UserRepository,
	services repositories.ServiceRepository,
	coupons CouponService,
	publisher StatusPublisher,
	logger *slog.Logger,
) SubscriptionService {
	return &subscriptionService{
		provider:  provider,
		subs:      subs,
		users:     users,
		services:  services,
		coupons:   coupons,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, userID int64, req *CreateSubscriptionRequest) (*SubscriptionResult, error) {
	if req.ServiceID <= 0 {
		return nil, apperrors.New(apperrors.KindValidation, "service_id is required")
	}
	if req.Coupon != "" {
		if err := ValidateCouponFormat(req.Coupon); err != nil {
			return nil, err
		}
	}

	svc, err := s.services.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.Newf(apperrors.KindValidation, "unknown service %d", req.ServiceID)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to resolve service", err)
	}

	user, err := s.users.GetUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load user", err)
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "no billing customer on file")
	}
	customerID := *user.StripeCustomerID

	// Billing sync is not essential-path: a failure here must not block the
	// purchase, but it is surfaced as a structured warning.
	if err := s.provider.UpdateCustomerBilling(ctx, customerID, billing.BillingDetails{
		Name:       user.BillingName,
		Email:      user.Email,
		Phone:      user.BillingPhone,
		Address:    user.BillingAddress,
		City:       user.BillingCity,
		PostalCode: user.BillingPostal,
		Country:    user.BillingCountry,
	}); err != nil {
		s.logger.Warn("billing details sync failed, continuing with subscription creation",
			"user_id", userID, "error", err)
	}

	if req.PaymentMethodID != "" {
		if err := s.provider.AttachPaymentMethod(ctx, req.PaymentMethodID, customerID); err != nil {
			if !errors.Is(err, billing.ErrPaymentMethodAttached) {
				return nil, err
			}
		}
		if err := s.provider.SetDefaultPaymentMethod(ctx, customerID, req.PaymentMethodID); err != nil {
			return nil, err
		}
	}

	if existing, err := s.subs.GetOccupyingByUserAndService(ctx, userID, req.ServiceID); err == nil && existing != nil {
		return nil, apperrors.Newf(apperrors.KindDuplicate, "an active subscription for %s already exists", svc.Name)
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to check existing subscriptions", err)
	}

	var promotionCodeID string
	if req.Coupon != "" {
		coupon, err := s.coupons.Validate(ctx, req.Coupon)
		if err != nil {
			return nil, err
		}
		if !coupon.Valid {
			return nil, apperrors.Newf(apperrors.KindValidation, "coupon %s is not valid", req.Coupon)
		}
		promotionCodeID = coupon.PromotionCodeID
	}

	remote, err := s.provider.CreateSubscription(ctx, billing.CreateSubscriptionParams{
		CustomerID:      customerID,
		PriceID:         svc.StripePriceID,
		PaymentMethodID: req.PaymentMethodID,
		PromotionCodeID: promotionCodeID,
		Metadata: map[string]string{
			"user_id":    strconv.FormatInt(userID, 10),
			"service_id": strconv.FormatInt(req.ServiceID, 10),
		},
	})
	if err != nil {
		return nil, err
	}

	requiresAction, clientSecret := inspectIntent(remote)

	local := s.mirrorSubscription(userID, svc, remote, requiresAction)
	if err := s.subs.Create(ctx, local); err != nil {
		if errors.Is(err, repositories.ErrDuplicateActive) {
			return nil, apperrors.Newf(apperrors.KindDuplicate, "an active subscription for %s already exists", svc.Name)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to save subscription", err)
	}

	s.publishStatus(ctx, userID, local)

	return &SubscriptionResult{
		SubscriptionID:      remote.ID,
		Status:              local.Status,
		LocalSubscriptionID: local.ID.String(),
		RequiresAction:      requiresAction,
		ClientSecret:        clientSecret,
	}, nil
}

func (s *subscriptionService) RetryPayment(ctx context.Context, userID int64, localSubscriptionID, paymentMethodID string) (*SubscriptionResult, error) {
	local, err := s.loadOwned(ctx, userID, localSubscriptionID)
	if err != nil {
		return nil, err
	}
	if local.Status != models.StatusPendingPayment {
		return nil, apperrors.New(apperrors.KindValidation, "subscription is not awaiting payment")
	}
	if local.StripeSubscriptionID == nil {
		return nil, apperrors.New(apperrors.KindInternal, "subscription has no processor record")
	}

	remote, err := s.provider.GetSubscription(ctx, *local.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}
	if remote.LatestInvoice == nil || remote.LatestInvoice.PaymentIntent == nil {
		return nil, apperrors.New(apperrors.KindUpstream, "no pending payment found for subscription")
	}

	intent := remote.LatestInvoice.PaymentIntent
	if intent.Status != billing.IntentSucceeded {
		intent, err = s.provider.ConfirmPaymentIntent(ctx, intent.ID, paymentMethodID)
		if err != nil {
			return nil, err
		}
	}

	if intent.NeedsAction() {
		return &SubscriptionResult{
			SubscriptionID:      remote.ID,
			Status:              local.Status,
			LocalSubscriptionID: local.ID.String(),
			RequiresAction:      true,
			ClientSecret:        intent.ClientSecret,
		}, nil
	}

	updated, err := s.VerifySubscription(ctx, userID, localSubscriptionID)
	if err != nil {
		return nil, err
	}

	return &SubscriptionResult{
		SubscriptionID:      remote.ID,
		Status:              updated.Status,
		LocalSubscriptionID: updated.ID.String(),
		RequiresAction:      false,
	}, nil
}

// VerifySubscription reconciles the local mirror against processor-side
// truth and publishes the resulting status.
func (s *subscriptionService) VerifySubscription(ctx context.Context, userID int64, localSubscriptionID string) (*models.Subscription, error) {
	local, err := s.loadOwned(ctx, userID, localSubscriptionID)
	if err != nil {
		return nil, err
	}
	if local.StripeSubscriptionID == nil {
		return local, nil
	}

	remote, err := s.provider.GetSubscription(ctx, *local.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}

	local.Status = models.StatusFromProcessor(remote.Status)
	if remote.CurrentPeriodStart > 0 {
		local.StartDate = time.Unix(remote.CurrentPeriodStart, 0)
	}
	if remote.CurrentPeriodEnd > 0 {
		end := time.Unix(remote.CurrentPeriodEnd, 0)
		local.EndDate = &end
		local.RenewalDate = &end
	}

	if err := s.subs.Update(ctx, local); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update subscription", err)
	}

	s.publishStatus(ctx, userID, local)

	return local, nil
}

// MarkActive is the optimistic local transition applied after a successful
// client-side payment confirmation, ahead of server verification.
func (s *subscriptionService) MarkActive(ctx context.Context, userID int64, localSubscriptionID string) error {
	local, err := s.loadOwned(ctx, userID, localSubscriptionID)
	if err != nil {
		return err
	}

	if err := s.subs.UpdateStatus(ctx, local.ID, models.StatusActive); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to mark subscription active", err)
	}

	local.Status = models.StatusActive
	s.publishStatus(ctx, userID, local)
	return nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	subs, err := s.subs.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list subscriptions", err)
	}
	return subs, nil
}

func (s *subscriptionService) loadOwned(ctx context.Context, userID int64, localSubscriptionID string) (*models.Subscription, error) {
	id, err := uuid.Parse(localSubscriptionID)
	if err != nil {
		return nil, apperrors.New(apperrors.KindValidation, "invalid subscription id")
	}

	local, err := s.subs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "subscription not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load subscription", err)
	}
	if local.UserID != userID {
		return nil, apperrors.New(apperrors.KindNotFound, "subscription not found")
	}

	return local, nil
}

func (s *subscriptionService) mirrorSubscription(userID int64, svc *models.Service, remote *billing.Subscription, requiresAction bool) *models.Subscription {
	status := models.StatusFromProcessor(remote.Status)
	if requiresAction {
		// The retry path resumes these; see RetryPayment.
		status = models.StatusPendingPayment
	}

	local := &models.Subscription{
		ID:                   uuid.New(),
		UserID:               userID,
		ServiceID:            svc.ID,
		StripeSubscriptionID: &remote.ID,
		Status:               status,
		PriceCents:           svc.PriceCents,
		StartDate:            time.Now(),
	}

	if remote.CurrentPeriodStart > 0 {
		local.StartDate = time.Unix(remote.CurrentPeriodStart, 0)
	}
	if remote.CurrentPeriodEnd > 0 {
		end := time.Unix(remote.CurrentPeriodEnd, 0)
		local.EndDate = &end
		local.RenewalDate = &end
	}

	meta := fmt.Sprintf(`{"stripe_price_id":%q}`, svc.StripePriceID)
	local.Metadata = &meta

	return local
}

func inspectIntent(remote *billing.Subscription) (bool, string) {
	if remote.LatestInvoice == nil {
		return false, ""
	}
	intent := remote.LatestInvoice.PaymentIntent
	if intent.NeedsAction() {
		return true, intent.ClientSecret
	}
	return false, ""
}

func (s *subscriptionService) publishStatus(ctx context.Context, userID int64, sub *models.Subscription) {
	if s.publisher == nil {
		return
	}
	event := models.SubscriptionEvent{
		LocalSubscriptionID: sub.ID.String(),
		ServiceID:           sub.ServiceID,
		Status:              sub.Status,
	}
	if err := s.publisher.PublishStatus(ctx, userID, event); err != nil {
		s.logger.Warn("failed to publish subscription status event",
			"user_id", userID, "subscription_id", sub.ID.String(), "error", err)
	}
}
