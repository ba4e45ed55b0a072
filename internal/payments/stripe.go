package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/sakif/flinger-site/internal/apperror"
)

// Compile-time check that the Stripe adapter satisfies the Gateway interface.
var _ Gateway = (*StripeGateway)(nil)

// StripeGateway talks to the Stripe API.
//
// PRICE CONFIGURATION:
// If a pre-provisioned price id (price_...) is configured, checkout sessions
// reference it verbatim; otherwise the session carries inline price data for
// the fixed $99.00 membership. This is a deployment-time choice — callers
// never observe the difference.
type StripeGateway struct {
	client        *client.API
	priceID       string
	webhookSecret string
	logger        *slog.Logger
}

// NewStripeGateway builds the adapter. webhookSecret may be empty in local
// development, in which case ParseNotification skips signature verification
// (the caller logs a loud warning at startup).
func NewStripeGateway(secretKey, priceID, webhookSecret string, logger *slog.Logger) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{
		client:        sc,
		priceID:       priceID,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// CreateCustomer creates a Stripe customer record for the given identity.
// Errors propagate untouched — the caller decides whether to fail the
// request (it does: no Payment or Account mutation happens on failure).
func (g *StripeGateway) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	params.Context = ctx

	cust, err := g.client.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("payments: creating stripe customer: %w", err)
	}

	g.logger.Info("stripe customer created",
		slog.String("customer_id", cust.ID),
		slog.String("email", email),
	)
	return cust.ID, nil
}

// CreateCheckoutSession requests a hosted checkout page for a single
// one-time payment of the membership price.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, customerEmail, successURL, cancelURL string) (*CheckoutSession, error) {
	lineItem := &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(1),
	}
	if g.priceID != "" {
		lineItem.Price = stripe.String(g.priceID)
	} else {
		lineItem.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(string(stripe.CurrencyUSD)),
			UnitAmount: stripe.Int64(MembershipPriceCents),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name:        stripe.String("Founding Flinger Membership"),
				Description: stripe.String("One-time lifetime membership for the first 250 Flinger owners"),
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(customerEmail),
		LineItems:     []*stripe.CheckoutSessionLineItemParams{lineItem},
		SuccessURL:    stripe.String(successURL),
		CancelURL:     stripe.String(cancelURL),
	}
	params.Context = ctx

	sess, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("payments: creating checkout session: %w", err)
	}

	g.logger.Info("checkout session created",
		slog.String("session_id", sess.ID),
		slog.String("email", customerEmail),
	)
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseNotification verifies and interprets a raw Stripe webhook delivery.
//
// When a webhook signing secret is configured, verification failure is a
// hard rejection (apperror.ErrValidation → 400): Stripe signs every delivery
// and an unverifiable payload is not from Stripe. Without a configured
// secret the payload is parsed unverified — a local-development posture
// only, warned about at startup.
func (g *StripeGateway) ParseNotification(payload []byte, sigHeader string) (*Notice, error) {
	var event stripe.Event

	if g.webhookSecret != "" {
		if sigHeader == "" {
			return nil, apperror.ValidationFailed("signature", "missing Stripe signature")
		}
		verified, err := webhook.ConstructEventWithOptions(payload, sigHeader, g.webhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return nil, apperror.ValidationFailed("signature", "invalid Stripe signature")
		}
		event = verified
	} else {
		g.logger.Warn("accepting unverified stripe event; STRIPE_WEBHOOK_SECRET is not set")
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, apperror.ValidationFailed("body", "malformed Stripe event")
		}
	}

	return interpretEvent(&event)
}

// interpretEvent maps the two event types the site understands into a
// Notice. Everything else is KindUnknown — acknowledged, never acted on.
func interpretEvent(event *stripe.Event) (*Notice, error) {
	switch string(event.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("payments: decoding checkout session event: %w", err)
		}
		n := &Notice{
			Kind:      KindCheckoutCompleted,
			Succeeded: true,
			Amount:    sess.AmountTotal,
		}
		if sess.Customer != nil {
			n.CustomerID = sess.Customer.ID
		}
		if sess.PaymentIntent != nil {
			n.PaymentID = sess.PaymentIntent.ID
		}
		return n, nil

	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("payments: decoding payment intent event: %w", err)
		}
		n := &Notice{
			Kind:      KindPaymentSucceeded,
			Succeeded: true,
			PaymentID: intent.ID,
			Amount:    intent.Amount,
		}
		if intent.Customer != nil {
			n.CustomerID = intent.Customer.ID
		}
		return n, nil

	default:
		return &Notice{Kind: KindUnknown}, nil
	}
}
