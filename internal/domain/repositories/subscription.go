package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateActive surfaces the (user_id, service_id) partial unique
	// index on active/trial subscriptions.
	ErrDuplicateActive = errors.New("active subscription already exists for this service")
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Subscription, error)
	// GetOccupyingByUserAndService returns the active or trial subscription
	// for the pair, or ErrNotFound.
	GetOccupyingByUserAndService(ctx context.Context, userID, serviceID int64) (*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus) error
}
