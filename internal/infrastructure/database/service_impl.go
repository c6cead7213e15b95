package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/repositories"
)

type serviceRepository struct {
	db *PostgresDB
}

func NewServiceRepository(db *PostgresDB) repositories.ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) GetServiceByID(ctx context.Context, id int64) (*models.Service, error) {
	var svc models.Service
	query := `SELECT id, name, description, stripe_price_id, price_cents, currency,
              is_active, created_at, updated_at
              FROM services WHERE id = $1 AND is_active = true`

	err := r.db.GetContext(ctx, &svc, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service by id: %w", err)
	}
	return &svc, nil
}

func (r *serviceRepository) ListServices(ctx context.Context) ([]*models.Service, error) {
	var services []*models.Service
	query := `SELECT id, name, description, stripe_price_id, price_cents, currency,
              is_active, created_at, updated_at
              FROM services WHERE is_active = true ORDER BY id`

	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}
