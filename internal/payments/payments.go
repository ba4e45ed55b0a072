// Package payments isolates all interaction with Stripe behind a small
// adapter, the way internal/repository isolates SQL. The service layer
// depends on the Gateway interface; tests inject a mock and never touch the
// network.
package payments

import "context"

// MembershipPriceCents is the fixed one-time price of the Founding Flinger
// membership: $99.00 in minor currency units.
const MembershipPriceCents int64 = 9900

// NoticeKind classifies an interpreted Stripe notification.
type NoticeKind string

const (
	KindCheckoutCompleted NoticeKind = "checkout_completed"
	KindPaymentSucceeded  NoticeKind = "payment_succeeded"
	// KindUnknown covers every event type we don't handle. Not an error —
	// the webhook is acknowledged and nothing else happens.
	KindUnknown NoticeKind = "unknown"
)

// Notice is the normalized result of interpreting a Stripe event. Only the
// two payment-confirmation kinds the site understands produce Succeeded=true.
type Notice struct {
	Kind       NoticeKind
	Succeeded  bool
	CustomerID string // Stripe customer reference, resolves to an Account
	PaymentID  string // Stripe payment intent id
	Amount     int64  // minor units; 0 if the event omitted it
}

// CheckoutSession is the hosted checkout page Stripe created for a single
// pending payment attempt. URL is where the browser must be sent.
type CheckoutSession struct {
	ID  string
	URL string
}

// Gateway is the subset of the adapter the checkout workflow needs.
type Gateway interface {
	// CreateCustomer creates a Stripe customer and returns its id.
	CreateCustomer(ctx context.Context, name, email string) (string, error)
	// CreateCheckoutSession creates a hosted checkout page for the fixed
	// one-time membership price.
	CreateCheckoutSession(ctx context.Context, customerEmail, successURL, cancelURL string) (*CheckoutSession, error)
}
