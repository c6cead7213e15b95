// Package payments implements the billing.Provider boundary on top of the
// Stripe SDK. Processor payloads are converted into provider-neutral
// structures and processor errors are classified into the apperrors
// taxonomy before anything leaves this package.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/paymentmethod"
	"github.com/stripe/stripe-go/v79/promotioncode"
	"github.com/stripe/stripe-go/v79/subscription"

	"github.com/rzv1310/seo-doctor-sub000/internal/apperrors"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/billing"
)

type StripeProvider struct {
	logger *slog.Logger
}

func NewStripeProvider(apiKey string, logger *slog.Logger) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{logger: logger}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return "", classify("failed to create customer", err)
	}
	return cust.ID, nil
}

func (p *StripeProvider) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	if _, err := paymentmethod.Attach(paymentMethodID, params); err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && strings.Contains(stripeErr.Msg, "already been attached") {
			return billing.ErrPaymentMethodAttached
		}
		return classify("failed to attach payment method", err)
	}

	return nil
}

func (p *StripeProvider) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	if _, err := customer.Update(customerID, params); err != nil {
		return classify("failed to set default payment method", err)
	}
	return nil
}

func (p *StripeProvider) UpdateCustomerBilling(ctx context.Context, customerID string, details billing.BillingDetails) error {
	params := &stripe.CustomerParams{
		Name: stripe.String(details.Name),
		Address: &stripe.AddressParams{
			Line1:      stripe.String(details.Address),
			City:       stripe.String(details.City),
			PostalCode: stripe.String(details.PostalCode),
			Country:    stripe.String(details.Country),
		},
	}
	if details.Email != "" {
		params.Email = stripe.String(details.Email)
	}
	if details.Phone != "" {
		params.Phone = stripe.String(details.Phone)
	}
	params.Context = ctx

	if _, err := customer.Update(customerID, params); err != nil {
		return classify("failed to update customer billing details", err)
	}
	return nil
}

func (p *StripeProvider) CreateSubscription(ctx context.Context, createParams billing.CreateSubscriptionParams) (*billing.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(createParams.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(createParams.PriceID)},
		},
		PaymentBehavior: stripe.String("allow_incomplete"),
	}
	if createParams.PaymentMethodID != "" {
		params.DefaultPaymentMethod = stripe.String(createParams.PaymentMethodID)
	}
	if createParams.PromotionCodeID != "" {
		params.PromotionCode = stripe.String(createParams.PromotionCodeID)
	}
	for k, v := range createParams.Metadata {
		params.AddMetadata(k, v)
	}
	params.AddExpand("latest_invoice.payment_intent")
	params.Context = ctx

	sub, err := subscription.New(params)
	if err != nil {
		return nil, classify("failed to create subscription", err)
	}

	return convertSubscription(sub), nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.AddExpand("latest_invoice.payment_intent")
	params.Context = ctx

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, classify("failed to get subscription", err)
	}

	return convertSubscription(sub), nil
}

func (p *StripeProvider) ConfirmPaymentIntent(ctx context.Context, intentID, paymentMethodID string) (*billing.PaymentIntent, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	if paymentMethodID != "" {
		params.PaymentMethod = stripe.String(paymentMethodID)
	}
	params.Context = ctx

	pi, err := paymentintent.Confirm(intentID, params)
	if err != nil {
		return nil, classify("failed to confirm payment", err)
	}

	return convertPaymentIntent(pi), nil
}

func (p *StripeProvider) FindPromotionCode(ctx context.Context, code string) (*billing.PromotionCode, error) {
	params := &stripe.PromotionCodeListParams{
		Code:   stripe.String(code),
		Active: stripe.Bool(true),
	}
	params.Context = ctx

	iter := promotioncode.List(params)
	for iter.Next() {
		pc := iter.PromotionCode()
		result := &billing.PromotionCode{
			ID:     pc.ID,
			Code:   pc.Code,
			Active: pc.Active,
		}
		if pc.Coupon != nil {
			result.PercentOff = pc.Coupon.PercentOff
			result.AmountOff = pc.Coupon.AmountOff
			result.Currency = string(pc.Coupon.Currency)
		}
		return result, nil
	}
	if err := iter.Err(); err != nil {
		return nil, classify("failed to look up promotion code", err)
	}

	return nil, nil
}

func convertSubscription(sub *stripe.Subscription) *billing.Subscription {
	out := &billing.Subscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
	}

	if sub.LatestInvoice != nil {
		out.LatestInvoice = &billing.Invoice{
			ID:            sub.LatestInvoice.ID,
			Status:        string(sub.LatestInvoice.Status),
			PaymentIntent: convertPaymentIntent(sub.LatestInvoice.PaymentIntent),
		}
	}

	return out
}

func convertPaymentIntent(pi *stripe.PaymentIntent) *billing.PaymentIntent {
	if pi == nil {
		return nil
	}
	return &billing.PaymentIntent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
	}
}

// classify sorts processor failures into retryable (rate limit, transient
// server or network faults) and terminal ones (card declined, bad request).
func classify(msg string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.HTTPStatusCode >= http.StatusInternalServerError:
			return apperrors.Wrap(apperrors.KindUpstream, fmt.Sprintf("%s: %s", msg, stripeErr.Msg), err)
		case stripeErr.Type == stripe.ErrorTypeCard:
			return apperrors.Wrap(apperrors.KindPaymentDeclined, stripeErr.Msg, err)
		default:
			return apperrors.Wrap(apperrors.KindValidation, fmt.Sprintf("%s: %s", msg, stripeErr.Msg), err)
		}
	}

	return apperrors.Wrap(apperrors.KindUpstream, msg, err)
}
