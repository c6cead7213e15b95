package repositories

import (
	"context"

	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error
}
