package model

import "time"

// Payment records one confirmed payment event from Stripe. Payments are only
// ever created as a result of a verified payment-confirmation webhook — never
// speculatively when checkout is initiated.
//
// AccountID is a pointer because a payment can arrive for a Stripe customer
// we cannot resolve to an account (the "orphaned payment" case). We still
// acknowledge the webhook; whether to persist an unresolved payment is the
// caller's decision, so the model allows it.
//
// Amount is in minor currency units (cents). The Founding Flinger membership
// is a fixed 9900 ($99.00).
type Payment struct {
	ID              int64     `json:"id"`
	AccountID       *int64    `json:"accountId,omitempty"`
	StripePaymentID string    `json:"stripePaymentId"`
	Amount          int64     `json:"amount"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}
