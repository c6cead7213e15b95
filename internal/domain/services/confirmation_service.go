package services

import (
	"context"
	"log/slog"

	"github.com/rzv1310/seo-doctor-sub000/internal/apperrors"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/billing"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
)

// PendingConfirmation identifies one subscription waiting on a step-up
// authentication challenge.
type PendingConfirmation struct {
	LocalSubscriptionID string `json:"local_subscription_id" binding:"required"`
	ClientSecret        string `json:"client_secret" binding:"required"`
	ServiceName         string `json:"service_name"`
}

type ConfirmationService interface {
	ConfirmPending(ctx context.Context, userID int64, pending []PendingConfirmation) ([]*models.Subscription, error)
}

type confirmationService struct {
	provider billing.Provider
	subs     SubscriptionService
	logger   *slog.Logger
}

func NewConfirmationService(provider billing.Provider, subs SubscriptionService, logger *slog.Logger) ConfirmationService {
	return &confirmationService{
		provider: provider,
		subs:     subs,
		logger:   logger,
	}
}

// ConfirmPending completes the step-up challenge for each subscription in
// order. The first failure aborts the remaining confirmations with the
// processor's message. Each success is marked active optimistically; a
// server-side verification pass afterwards reconciles against processor
// truth, since client-reported success can run ahead of it.
func (s *confirmationService) ConfirmPending(ctx context.Context, userID int64, pending []PendingConfirmation) ([]*models.Subscription, error) {
	if len(pending) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "nothing to confirm")
	}

	for _, p := range pending {
		intentID, err := billing.IntentIDFromClientSecret(p.ClientSecret)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindValidation, "invalid client secret", err)
		}

		intent, err := s.provider.ConfirmPaymentIntent(ctx, intentID, "")
		if err != nil {
			return nil, &ItemError{ServiceName: p.ServiceName, Err: err}
		}
		if intent.Status != billing.IntentSucceeded {
			return nil, &ItemError{
				ServiceName: p.ServiceName,
				Err:         apperrors.Newf(apperrors.KindPaymentDeclined, "payment confirmation did not complete (status %s)", intent.Status),
			}
		}

		if err := s.subs.MarkActive(ctx, userID, p.LocalSubscriptionID); err != nil {
			s.logger.Warn("failed to mark subscription active after confirmation",
				"user_id", userID, "subscription_id", p.LocalSubscriptionID, "error", err)
		}
	}

	verified := make([]*models.Subscription, 0, len(pending))
	for _, p := range pending {
		sub, err := s.subs.VerifySubscription(ctx, userID, p.LocalSubscriptionID)
		if err != nil {
			return verified, &ItemError{ServiceName: p.ServiceName, Err: err}
		}
		verified = append(verified, sub)
	}

	return verified, nil
}
