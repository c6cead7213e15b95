package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/repositories"
)

const userColumns = `id, name, email, password, stripe_customer_id, billing_name,
              billing_company, billing_address, billing_city, billing_postal,
              billing_country, billing_phone, created_at, updated_at`

type userRepository struct {
	db *PostgresDB
}

func NewUserRepository(db *PostgresDB) repositories.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (name, email, password)
              VALUES ($1, $2, $3)
              RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(
		ctx, query,
		user.Name,
		user.Email,
		user.Password,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetUserID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET name = $2, email = $3, billing_name = $4,
              billing_company = $5, billing_address = $6, billing_city = $7,
              billing_postal = $8, billing_country = $9, billing_phone = $10,
              updated_at = CURRENT_TIMESTAMP
              WHERE id = $1`

	result, err := r.db.ExecContext(
		ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.BillingName,
		user.BillingCompany,
		user.BillingAddress,
		user.BillingCity,
		user.BillingPostal,
		user.BillingCountry,
		user.BillingPhone,
	)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
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

func (r *userRepository) SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error {
	query := `UPDATE users SET stripe_customer_id = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, customerID)
	if err != nil {
		return fmt.Errorf("failed to set stripe customer id: %w", err)
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
