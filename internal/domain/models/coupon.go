package models

// CouponValidationResult is the transient outcome of validating a coupon
// code against the payment processor. It is fetched per checkout attempt
// and never persisted.
type CouponValidationResult struct {
	Valid           bool    `json:"valid"`
	PercentOff      float64 `json:"percent_off,omitempty"`
	AmountOff       int64   `json:"amount_off,omitempty"`
	Currency        string  `json:"currency,omitempty"`
	PromotionCodeID string  `json:"promotion_code_id,omitempty"`
}
