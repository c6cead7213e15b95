package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/repositories"
)

const pqUniqueViolation = "23505"

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) repositories.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	query := `
		INSERT INTO subscriptions (id, user_id, service_id, stripe_subscription_id,
		                          status, price_cents, start_date, end_date, renewal_date, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, sub.ID, sub.UserID, sub.ServiceID,
		sub.StripeSubscriptionID, sub.Status, sub.PriceCents, sub.StartDate,
		sub.EndDate, sub.RenewalDate, sub.Metadata).Scan(&sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return repositories.ErrDuplicateActive
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	query := `
		SELECT id, user_id, service_id, stripe_subscription_id, status, price_cents,
		       start_date, end_date, renewal_date, metadata, created_at, updated_at
		FROM subscriptions
		WHERE id = $1`

	err := r.db.GetContext(ctx, &sub, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	query := `
		SELECT id, user_id, service_id, stripe_subscription_id, status, price_cents,
		       start_date, end_date, renewal_date, metadata, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subs, nil
}

func (r *subscriptionRepository) GetOccupyingByUserAndService(ctx context.Context, userID, serviceID int64) (*models.Subscription, error) {
	var sub models.Subscription
	query := `
		SELECT id, user_id, service_id, stripe_subscription_id, status, price_cents,
		       start_date, end_date, renewal_date, metadata, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1 AND service_id = $2 AND status IN ('active', 'trial')
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &sub, query, userID, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription for user %d service %d: %w", userID, serviceID, err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	query := `
		UPDATE subscriptions
		SET stripe_subscription_id = $2, status = $3, price_cents = $4,
		    start_date = $5, end_date = $6, renewal_date = $7, metadata = $8,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, sub.ID, sub.StripeSubscriptionID,
		sub.Status, sub.PriceCents, sub.StartDate, sub.EndDate, sub.RenewalDate,
		sub.Metadata).Scan(&sub.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repositories.ErrNotFound
		}
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
