package models

// CartItem is one entry of a checkout submission. A pending-payment item
// resumes a previously created subscription instead of creating a new one.
type CartItem struct {
	ServiceID             int64  `json:"serviceId"`
	Name                  string `json:"name"`
	PriceCents            int64  `json:"price"`
	IsPendingPayment      bool   `json:"isPendingPayment,omitempty"`
	PendingSubscriptionID string `json:"pendingSubscriptionId,omitempty"`
}

type CheckoutOutcome string

const (
	// CheckoutComplete: every item ended up active or trial.
	CheckoutComplete CheckoutOutcome = "complete"
	// CheckoutRequiresAction: at least one item needs step-up authentication.
	CheckoutRequiresAction CheckoutOutcome = "requires_action"
	// CheckoutIncomplete: no action required but not everything is active.
	CheckoutIncomplete CheckoutOutcome = "incomplete"
)

type CheckoutItemResult struct {
	ServiceID           int64              `json:"serviceId"`
	ServiceName         string             `json:"serviceName"`
	SubscriptionID      string             `json:"subscriptionId"`
	LocalSubscriptionID string             `json:"localSubscriptionId"`
	Status              SubscriptionStatus `json:"status"`
	RequiresAction      bool               `json:"requiresAction"`
	ClientSecret        string             `json:"clientSecret,omitempty"`
}

// ClassifyCheckout folds per-item results into the batch outcome.
func ClassifyCheckout(items []CheckoutItemResult) CheckoutOutcome {
	allOccupying := true
	for _, it := range items {
		if it.RequiresAction {
			return CheckoutRequiresAction
		}
		if !it.Status.IsOccupying() {
			allOccupying = false
		}
	}
	if len(items) > 0 && allOccupying {
		return CheckoutComplete
	}
	return CheckoutIncomplete
}
