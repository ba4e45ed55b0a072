package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sink is a downstream system that receives a copy of each normalized
// submission. Deliveries are best-effort: the relay logs a sink error and
// moves on.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, sub *Submission) error
}

// sinkClient is shared by all sinks. The relay already bounds each delivery
// with a context timeout; the client timeout is a backstop.
var sinkClient = &http.Client{Timeout: 15 * time.Second}

// postJSON sends a JSON body and treats any non-2xx status as an error.
func postJSON(ctx context.Context, url string, body any, header http.Header) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := sinkClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// ForwardSink relays the raw normalized submission to a generic HTTP
// endpoint — typically a webhook.site URL used to eyeball traffic while
// debugging integrations.
type ForwardSink struct {
	URL string
}

func (s *ForwardSink) Name() string { return "forward" }

func (s *ForwardSink) Deliver(ctx context.Context, sub *Submission) error {
	return postJSON(ctx, s.URL, sub, nil)
}

// SheetSink appends a row to a spreadsheet via an Apps Script web-app URL.
// The script expects a flat object; it maps fields to columns itself.
type SheetSink struct {
	URL string
}

func (s *SheetSink) Name() string { return "sheet" }

func (s *SheetSink) Deliver(ctx context.Context, sub *Submission) error {
	row := map[string]string{
		"timestamp": sub.ReceivedAt.Format(time.RFC3339),
		"name":      sub.Name,
		"email":     sub.Email,
		"message":   sub.Message,
		"form_type": sub.FormType,
		"source":    sub.Source,
	}
	return postJSON(ctx, s.URL, row, nil)
}

// BrevoSink upserts the submitter as a CRM contact in Brevo.
// updateEnabled makes the call idempotent: an existing contact is updated
// rather than rejected as a duplicate.
type BrevoSink struct {
	APIKey  string
	BaseURL string // override in tests; defaults to the public API
}

const brevoDefaultBaseURL = "https://api.brevo.com"

func (s *BrevoSink) Name() string { return "brevo" }

func (s *BrevoSink) Deliver(ctx context.Context, sub *Submission) error {
	base := s.BaseURL
	if base == "" {
		base = brevoDefaultBaseURL
	}

	body := map[string]any{
		"email":         sub.Email,
		"updateEnabled": true,
		"attributes": map[string]string{
			"FIRSTNAME": sub.Name,
		},
	}

	header := http.Header{}
	header.Set("api-key", s.APIKey)

	return postJSON(ctx, base+"/v3/contacts", body, header)
}
