package repositories

import (
	"context"

	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
)

type ServiceRepository interface {
	GetServiceByID(ctx context.Context, id int64) (*models.Service, error)
	ListServices(ctx context.Context) ([]*models.Service, error)
}
