package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromProcessor(t *testing.T) {
	tests := []struct {
		processor string
		want      SubscriptionStatus
	}{
		{"active", StatusActive},
		{"trialing", StatusTrial},
		{"incomplete", StatusInactive},
		{"incomplete_expired", StatusInactive},
		{"past_due", StatusInactive},
		{"canceled", StatusInactive},
		{"unpaid", StatusInactive},
		{"paused", StatusInactive},
		{"", StatusInactive},
		{"something_new", StatusInactive},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFromProcessor(tt.processor), tt.processor)
	}
}

func TestIsOccupying(t *testing.T) {
	assert.True(t, StatusActive.IsOccupying())
	assert.True(t, StatusTrial.IsOccupying())
	assert.False(t, StatusInactive.IsOccupying())
	assert.False(t, StatusCancelled.IsOccupying())
	assert.False(t, StatusPendingPayment.IsOccupying())
}

func TestClassifyCheckout(t *testing.T) {
	tests := []struct {
		name  string
		items []CheckoutItemResult
		want  CheckoutOutcome
	}{
		{
			"all active",
			[]CheckoutItemResult{{Status: StatusActive}, {Status: StatusTrial}},
			CheckoutComplete,
		},
		{
			"one needs action",
			[]CheckoutItemResult{{Status: StatusActive}, {Status: StatusPendingPayment, RequiresAction: true}},
			CheckoutRequiresAction,
		},
		{
			"inactive without action",
			[]CheckoutItemResult{{Status: StatusActive}, {Status: StatusInactive}},
			CheckoutIncomplete,
		},
		{
			"no items",
			nil,
			CheckoutIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCheckout(tt.items))
		})
	}
}

func TestBillingComplete(t *testing.T) {
	u := &User{
		BillingName:    "Test User",
		BillingAddress: "Str. Exemplu 1",
		BillingCity:    "Bucharest",
		BillingCountry: "RO",
	}
	assert.True(t, u.BillingComplete())

	missing := *u
	missing.BillingCountry = ""
	assert.False(t, missing.BillingComplete())

	// Company and phone are optional.
	optional := *u
	optional.BillingCompany = ""
	optional.BillingPhone = ""
	assert.True(t, optional.BillingComplete())
}
