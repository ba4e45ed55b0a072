package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/flinger-site/internal/relay"
)

// RelayHandler receives third-party form notifications on the /webhook/*
// routes and hands them to the relay pipeline.
type RelayHandler struct {
	relay  *relay.Relay
	logger *slog.Logger
}

func NewRelayHandler(r *relay.Relay, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{relay: r, logger: logger}
}

type relayResponse struct {
	Status     string `json:"status"`
	DeliveryID string `json:"deliveryId"`
}

// Handle processes an inbound relay notification.
//
// Auth failures are the only rejection after which nothing happens; once
// the secret checks out, the pipeline itself decides what is an error
// (bad payload) and what is merely logged (duplicate, sink failure).
func (h *RelayHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if err := h.relay.Authorize(r.Header.Get); err != nil {
		writeError(w, err)
		return
	}

	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.relay.Process(r.Context(), payload, r.URL.Path)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, relayResponse{Status: "ok", DeliveryID: sub.DeliveryID})
}
