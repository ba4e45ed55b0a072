// Package model defines the record kinds stored by the site: accounts,
// email signups, contact messages, and payments.
package model

import "time"

// Account represents a registered identity — someone who either created an
// account directly or hit the checkout flow with an email we hadn't seen.
//
// WHY PayingMember bool AND StripeCustomerID string?
// The two fields track different stages of the same journey:
//   - StripeCustomerID is attached when checkout is initiated (a Stripe
//     customer object now exists for this person)
//   - PayingMember flips to true only when a confirmed payment webhook
//     arrives for that customer
// An account with a customer ID but PayingMember=false is someone who
// started checkout and abandoned it. That state is fine — it dead-ends
// harmlessly and the next checkout attempt reuses the account.
//
// PayingMember is monotonic: no code path ever resets it to false.
//
// PasswordHash is the bcrypt hash of the optional credential. It is empty
// for accounts created implicitly by the checkout flow and is never
// serialized to JSON (json:"-").
type Account struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	PayingMember     bool      `json:"payingMember"`
	StripeCustomerID string    `json:"stripeCustomerId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
