// Package relay receives inbound form-submission webhooks from trusted third
// parties (the form host, debugging relays), authenticates them with a shared
// secret, normalizes their heterogeneous payloads into one Submission shape,
// persists the useful parts, and fans the submission out to the configured
// downstream sinks.
//
// THE ONE RULE OF THE RELAY:
// once authentication has passed, the inbound request always succeeds.
// Persistence failures and sink failures are logged and swallowed — the
// senders (Stripe, the form host) retry aggressively on non-2xx, and
// duplicate retries cost more than a dropped spreadsheet row. The only
// rejections are a bad/missing secret and a payload with no resolvable
// email, both genuine client errors the sender should not blindly retry.
package relay

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/model"
	"github.com/sakif/flinger-site/internal/repository"
)

// Form types a submission can declare. Unspecified defaults to email_signup.
const (
	FormTypeEmailSignup = "email_signup"
	FormTypeContactForm = "contact_form"
)

// secretHeaders are the header names checked for the shared secret, in
// order; the first non-empty one wins. Different senders use different
// conventions and we've accumulated all of them.
var secretHeaders = []string{"X-Webhook-Secret", "X-Webhook-Token", "X-Secret"}

// sinkTimeout bounds each downstream delivery. A slow sink counts as a
// failed sink; it never stalls the inbound request indefinitely.
const sinkTimeout = 10 * time.Second

// Submission is the canonical shape every inbound payload is normalized
// into. Email is the only hard-required field.
type Submission struct {
	DeliveryID string    `json:"deliveryId"` // xid assigned on receipt, for log correlation
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message,omitempty"`
	FormType   string    `json:"formType"`
	Source     string    `json:"source"` // which inbound endpoint received it
	ReceivedAt time.Time `json:"receivedAt"`
}

// Relay is the inbound-notification pipeline: authenticate → normalize →
// persist → fan out.
type Relay struct {
	secret   string
	signups  repository.SignupRepository
	contacts repository.ContactRepository
	sinks    []Sink
	logger   *slog.Logger
}

func New(secret string, signups repository.SignupRepository, contacts repository.ContactRepository, sinks []Sink, logger *slog.Logger) *Relay {
	return &Relay{
		secret:   secret,
		signups:  signups,
		contacts: contacts,
		sinks:    sinks,
		logger:   logger,
	}
}

// Authorize checks the shared secret against the known header names.
// getHeader is typically http.Request.Header.Get.
//
// FAIL-OPEN: if no secret is configured at all, every request is accepted
// with a logged warning. That is a local-development default; deployed
// configurations set WEBHOOK_SECRET.
func (r *Relay) Authorize(getHeader func(string) string) error {
	if r.secret == "" {
		r.logger.Warn("webhook secret not configured; accepting inbound notification unauthenticated")
		return nil
	}

	for _, h := range secretHeaders {
		if v := getHeader(h); v != "" {
			// Constant-time compare, same as the admin credential check.
			if subtle.ConstantTimeCompare([]byte(v), []byte(r.secret)) == 1 {
				return nil
			}
			return apperror.Forbidden("invalid webhook secret")
		}
	}
	return apperror.Forbidden("missing webhook secret")
}

// Process normalizes, persists, and fans out one authenticated payload.
// The returned error is only ever a validation error (no resolvable email);
// everything downstream of normalization is best-effort.
func (r *Relay) Process(ctx context.Context, payload map[string]any, source string) (*Submission, error) {
	sub := normalize(payload, source)
	if sub.Email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	r.logger.Info("inbound submission received",
		slog.String("delivery_id", sub.DeliveryID),
		slog.String("source", sub.Source),
		slog.String("form_type", sub.FormType),
		slog.String("email", sub.Email),
	)

	r.persist(ctx, sub)
	r.fanOut(ctx, sub)

	return sub, nil
}

// persist stores the submission as a signup or contact message. Failures
// are logged, never returned — the notification is acknowledged regardless.
func (r *Relay) persist(ctx context.Context, sub *Submission) {
	switch sub.FormType {
	case FormTypeContactForm:
		if sub.Message == "" {
			r.logger.Warn("contact_form submission without a message; skipping persistence",
				slog.String("delivery_id", sub.DeliveryID))
			return
		}
		msg := &model.ContactMessage{Name: sub.Name, Email: sub.Email, Message: sub.Message}
		if err := r.contacts.CreateContact(ctx, msg); err != nil {
			r.logger.Error("failed to persist contact message",
				slog.String("delivery_id", sub.DeliveryID),
				slog.String("error", err.Error()),
			)
		}

	default: // email_signup
		signup := &model.EmailSignup{Name: sub.Name, Email: sub.Email}
		err := r.signups.CreateSignup(ctx, signup)
		switch {
		case err == nil:
		case errors.Is(err, apperror.ErrDuplicate):
			// Already subscribed. Expected from retrying senders; not an error.
			r.logger.Info("duplicate email signup ignored",
				slog.String("delivery_id", sub.DeliveryID),
				slog.String("email", sub.Email),
			)
		default:
			r.logger.Error("failed to persist email signup",
				slog.String("delivery_id", sub.DeliveryID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// fanOut delivers the submission to every configured sink. Sinks are
// independent: one failing does not block or roll back the others, and no
// ordering is guaranteed between them.
func (r *Relay) fanOut(ctx context.Context, sub *Submission) {
	for _, sink := range r.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := sink.Deliver(sinkCtx, sub)
		cancel()
		if err != nil {
			r.logger.Error("sink delivery failed",
				slog.String("delivery_id", sub.DeliveryID),
				slog.String("sink", sink.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		r.logger.Info("sink delivery ok",
			slog.String("delivery_id", sub.DeliveryID),
			slog.String("sink", sink.Name()),
		)
	}
}

// normalize maps the varying field names different senders use onto the
// canonical Submission shape.
func normalize(payload map[string]any, source string) *Submission {
	formType := firstString(payload, "form_type", "formType", "type")
	if formType == "" {
		formType = FormTypeEmailSignup
	}

	return &Submission{
		DeliveryID: xid.New().String(),
		Name:       firstString(payload, "name", "full_name", "fullName", "Name"),
		Email:      strings.ToLower(strings.TrimSpace(firstString(payload, "email", "email_address", "Email"))),
		Message:    firstString(payload, "message", "body", "Message"),
		FormType:   formType,
		Source:     source,
		ReceivedAt: time.Now().UTC(),
	}
}

// firstString returns the first present non-empty string value among keys.
func firstString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
