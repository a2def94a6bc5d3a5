package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookClient posts trigger payloads to a fixed webhook URL with a bounded
// timeout. A non-2xx response is an error; the caller decides whether that is
// fatal (it never is for submission, which fires and forgets).
type WebhookClient struct {
	URL     string
	Timeout time.Duration
	HTTP    *http.Client
}

// NewWebhookClient constructs a WebhookClient.
func NewWebhookClient(url string, timeout time.Duration) *WebhookClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookClient{
		URL:     url,
		Timeout: timeout,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// TriggerGeneration posts the payload to the webhook.
func (c *WebhookClient) TriggerGeneration(ctx context.Context, p TriggerPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("engine webhook returned status %d", resp.StatusCode)
	}
	return nil
}

var _ Trigger = (*WebhookClient)(nil)
