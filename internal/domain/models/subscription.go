package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	StatusActive         SubscriptionStatus = "active"
	StatusTrial          SubscriptionStatus = "trial"
	StatusInactive       SubscriptionStatus = "inactive"
	StatusCancelled      SubscriptionStatus = "cancelled"
	StatusPendingPayment SubscriptionStatus = "pending_payment"
)

// StatusFromProcessor maps a processor-side subscription status onto the
// local enum. Every processor status maps to one of active, trial or
// inactive; pending_payment and cancelled are assigned by local flows only.
func StatusFromProcessor(processorStatus string) SubscriptionStatus {
	switch processorStatus {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrial
	default:
		return StatusInactive
	}
}

// IsOccupying reports whether a subscription in this status counts against
// the one-active-subscription-per-service rule.
func (s SubscriptionStatus) IsOccupying() bool {
	return s == StatusActive || s == StatusTrial
}

type Subscription struct {
	ID                   uuid.UUID          `json:"id" db:"id"`
	UserID               int64              `json:"user_id" db:"user_id"`
	ServiceID            int64              `json:"service_id" db:"service_id"`
	StripeSubscriptionID *string            `json:"stripe_subscription_id" db:"stripe_subscription_id"`
	Status               SubscriptionStatus `json:"status" db:"status"`
	PriceCents           int64              `json:"price_cents" db:"price_cents"`
	StartDate            time.Time          `json:"start_date" db:"start_date"`
	EndDate              *time.Time         `json:"end_date" db:"end_date"`
	RenewalDate          *time.Time         `json:"renewal_date" db:"renewal_date"`
	Metadata             *string            `json:"metadata,omitempty" db:"metadata"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`
}
