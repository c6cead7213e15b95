package models

import (
	"time"
)

// SubscriptionEvent is published whenever a subscription's local status
// changes, so the dashboard can update without polling.
type SubscriptionEvent struct {
	LocalSubscriptionID string             `json:"local_subscription_id"`
	ServiceID           int64              `json:"service_id"`
	Status              SubscriptionStatus `json:"status"`
	Timestamp           time.Time          `json:"timestamp"`
}
