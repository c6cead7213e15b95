package models

import (
	"time"
)

// Service is a catalog entry for a purchasable service (e.g. "GMB MAX").
type Service struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	StripePriceID string    `json:"stripe_price_id" db:"stripe_price_id"`
	PriceCents    int64     `json:"price_cents" db:"price_cents"`
	Currency      string    `json:"currency" db:"currency"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
