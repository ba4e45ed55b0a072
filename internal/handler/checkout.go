package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/service"
)

// CheckoutHandler serves checkout initiation, the public spot counter,
// and the admin payment listing.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	logger   *slog.Logger
}

func NewCheckoutHandler(checkout *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

type checkoutRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateSession handles POST /api/create-checkout-session: JSON in, the
// hosted payment page URL out.
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	url, err := h.checkout.InitiateCheckout(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
}

// RedirectSession handles GET /api/create-checkout-session?name=..&email=..
// for plain link-driven checkouts: it 303s straight to the hosted page.
func (h *CheckoutHandler) RedirectSession(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	email := r.URL.Query().Get("email")

	url, err := h.checkout.InitiateCheckout(r.Context(), name, email)
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// FoundingCount handles GET /api/founding-flinger-count.
func (h *CheckoutHandler) FoundingCount(w http.ResponseWriter, r *http.Request) {
	spots, err := h.checkout.RemainingSpots(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spots)
}

// ListAccountPayments handles GET /api/accounts/{id}/payments (admin).
func (h *CheckoutHandler) ListAccountPayments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperror.ValidationFailed("id", "account id must be an integer"))
		return
	}

	payments, err := h.checkout.ListPaymentsForAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
