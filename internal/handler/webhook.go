package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/payments"
	"github.com/sakif/flinger-site/internal/service"
)

// maxWebhookBody caps how much of a notification body we'll read. Stripe
// events are a few KB; 1 MiB is generous.
const maxWebhookBody = 1 << 20

// NotificationParser turns a raw webhook body plus signature header into
// an interpreted Notice. Satisfied by payments.StripeGateway.
type NotificationParser interface {
	ParseNotification(payload []byte, sigHeader string) (*payments.Notice, error)
}

// StripeWebhookHandler receives asynchronous payment notifications.
type StripeWebhookHandler struct {
	parser   NotificationParser
	checkout *service.CheckoutService
	logger   *slog.Logger
}

func NewStripeWebhookHandler(parser NotificationParser, checkout *service.CheckoutService, logger *slog.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{parser: parser, checkout: checkout, logger: logger}
}

type webhookAck struct {
	Received bool `json:"received"`
}

// Handle processes POST /api/webhook.
//
// A failed signature check is a hard 400 — Stripe will retry, and a forged
// request gets nothing. Once verified, unresolvable notices (unknown kind,
// unknown customer) are acknowledged with 200 so Stripe stops retrying
// notifications that can never apply.
func (h *StripeWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, apperror.ValidationFailed("body", "unreadable request body"))
		return
	}

	notice, err := h.parser.ParseNotification(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.checkout.ApplyPaymentNotice(r.Context(), notice); err != nil {
		h.logger.Error("failed to apply payment notice",
			slog.String("kind", string(notice.Kind)),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, webhookAck{Received: true})
}
