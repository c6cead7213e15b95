package models

import (
	"time"
)

type User struct {
	ID               int64     `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Email            string    `json:"email" db:"email"`
	Password         string    `json:"-" db:"password"`
	StripeCustomerID *string   `json:"stripe_customer_id" db:"stripe_customer_id"`
	BillingName      string    `json:"billing_name" db:"billing_name"`
	BillingCompany   string    `json:"billing_company" db:"billing_company"`
	BillingAddress   string    `json:"billing_address" db:"billing_address"`
	BillingCity      string    `json:"billing_city" db:"billing_city"`
	BillingPostal    string    `json:"billing_postal" db:"billing_postal"`
	BillingCountry   string    `json:"billing_country" db:"billing_country"`
	BillingPhone     string    `json:"billing_phone" db:"billing_phone"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// BillingComplete reports whether the user has filled in the billing
// details required before checkout may start.
func (u *User) BillingComplete() bool {
	return u.BillingName != "" && u.BillingAddress != "" && u.BillingCity != "" && u.BillingCountry != ""
}
