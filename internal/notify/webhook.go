package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook posts JSON documents to a single endpoint.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook returns nil when url is empty.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{url: url, client: &http.Client{Timeout: timeout}}
}

// Post sends payload and treats any non-2xx answer as a failure. A nil Webhook is a no-op.
func (w *Webhook) Post(ctx context.Context, payload any) error {
	if w == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
