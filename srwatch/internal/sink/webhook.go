package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/hazyhaar/srkit/idgen"
	"github.com/hazyhaar/srkit/srwatch/segment"
)

// Webhook POSTs records as JSON and resources as multipart forms, with retry
// and exponential backoff.
type Webhook struct {
	url         string
	resourceURL string
	client      *http.Client
	maxRetries  int
	backoff     time.Duration
	logger      *slog.Logger
}

// WebhookOption configures a Webhook sink.
type WebhookOption func(*Webhook)

// WithWebhookRetries sets the maximum number of retries. Default: 3.
func WithWebhookRetries(n int) WebhookOption {
	return func(w *Webhook) { w.maxRetries = n }
}

// WithWebhookBackoff sets the first retry delay, doubled on each retry.
// Default: 1s.
func WithWebhookBackoff(d time.Duration) WebhookOption {
	return func(w *Webhook) { w.backoff = d }
}

// WithWebhookResourceURL sends resources to a different URL than records.
func WithWebhookResourceURL(u string) WebhookOption {
	return func(w *Webhook) { w.resourceURL = u }
}

// WithWebhookLogger sets a custom logger.
func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(w *Webhook) { w.logger = l }
}

// NewWebhook creates a Webhook sink targeting the given URL.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		backoff:    time.Second,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(w)
	}
	if w.resourceURL == "" {
		w.resourceURL = w.url
	}
	return w
}

func (w *Webhook) WriteRecord(ctx context.Context, rec segment.EnrichedRecord) error {
	body, err := json.Marshal(envelope{Type: "record", Data: rec})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}
	return w.post(ctx, w.url, "application/json", body)
}

// WriteResource sends a multipart form with an "event" part holding the
// JSON metadata and an "image" part holding the raw bytes.
func (w *Webhook) WriteResource(ctx context.Context, res segment.EnrichedResource) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="event"; filename="blob"`)
	h.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("webhook: multipart: %w", err)
	}
	if _, err := part.Write(res.AsBinaryMetadata()); err != nil {
		return fmt.Errorf("webhook: multipart: %w", err)
	}

	part, err = mw.CreateFormFile("image", res.Filename)
	if err != nil {
		return fmt.Errorf("webhook: multipart: %w", err)
	}
	if _, err := part.Write(res.Resource); err != nil {
		return fmt.Errorf("webhook: multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("webhook: multipart: %w", err)
	}
	return w.post(ctx, w.resourceURL, mw.FormDataContentType(), buf.Bytes())
}

func (w *Webhook) Close() error { return nil }

// post sends body with one Idempotency-Key shared by all attempts.
func (w *Webhook) post(ctx context.Context, url, contentType string, body []byte) error {
	key := idgen.New()
	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := w.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webhook: new request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Idempotency-Key", key)

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = err
			w.logger.Warn("webhook: request failed", "attempt", attempt+1, "error", err)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook: status %d", resp.StatusCode)
		w.logger.Warn("webhook: bad status", "attempt", attempt+1, "status", resp.StatusCode)
	}
	return fmt.Errorf("webhook: all retries exhausted: %w", lastErr)
}
