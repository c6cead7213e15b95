package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrPaymentMethodAttached is returned by AttachPaymentMethod when the
// payment method is already attached to the customer. Callers treat it as
// success.
var ErrPaymentMethodAttached = errors.New("payment method already attached")

// Payment intent statuses the checkout flow cares about. Anything in the
// requires_* family means the client must complete a step-up challenge.
const (
	IntentRequiresAction       = "requires_action"
	IntentRequiresConfirmation = "requires_confirmation"
	IntentSucceeded            = "succeeded"
)

type PaymentIntent struct {
	ID           string
	Status       string
	ClientSecret string
}

// NeedsAction reports whether the intent is waiting on a client-side
// step-up confirmation.
func (pi *PaymentIntent) NeedsAction() bool {
	return pi != nil && (pi.Status == IntentRequiresAction || pi.Status == IntentRequiresConfirmation)
}

type Invoice struct {
	ID            string
	Status        string
	PaymentIntent *PaymentIntent
}

type Subscription struct {
	ID                 string
	Status             string
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	LatestInvoice      *Invoice
}

type PromotionCode struct {
	ID         string
	Code       string
	Active     bool
	PercentOff float64
	AmountOff  int64
	Currency   string
}

type BillingDetails struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Country    string
}

type CreateSubscriptionParams struct {
	CustomerID      string
	PriceID         string
	PaymentMethodID string
	PromotionCodeID string
	Metadata        map[string]string
}

// Provider is the payment-processor boundary. Implementations translate
// processor payloads into the typed structures above before they reach the
// rest of the system, and classify processor errors into the apperrors
// taxonomy.
type Provider interface {
	CreateCustomer(ctx context.Context, name, email string) (string, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	UpdateCustomerBilling(ctx context.Context, customerID string, details BillingDetails) error
	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	ConfirmPaymentIntent(ctx context.Context, intentID, paymentMethodID string) (*PaymentIntent, error)
	FindPromotionCode(ctx context.Context, code string) (*PromotionCode, error)
}

// IntentIDFromClientSecret recovers the payment intent id from an opaque
// client secret of the form "pi_xxx_secret_yyy".
func IntentIDFromClientSecret(clientSecret string) (string, error) {
	idx := strings.Index(clientSecret, "_secret")
	if idx <= 0 || !strings.HasPrefix(clientSecret, "pi_") {
		return "", fmt.Errorf("malformed client secret")
	}
	return clientSecret[:idx], nil
}
