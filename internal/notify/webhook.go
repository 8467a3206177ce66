// Package notify implements the best-effort side channels fired after a
// successful upload: a JSON webhook POST and a transactional email.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golfmax/fitting-edge/internal/domain/model"
)

// webhookEventType tags webhook payloads so receivers can route them.
const webhookEventType = "golfmax_remote_fitting_upload"

// Webhook posts submission receipts to a configured URL.
type Webhook struct {
	url        string
	httpClient *http.Client
}

// NewWebhook creates a webhook channel. An empty url disables it.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a webhook URL is configured.
func (w *Webhook) Enabled() bool {
	return w.url != ""
}

// Send posts the receipt as JSON. The payload spreads the submission
// fields at the top level next to the storage keys, matching what intake
// automations already consume.
func (w *Webhook) Send(ctx context.Context, receipt model.SubmissionReceipt) error {
	if !w.Enabled() {
		return nil
	}

	body, err := json.Marshal(webhookPayload(receipt))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// webhookPayload flattens a receipt into the wire shape.
func webhookPayload(receipt model.SubmissionReceipt) map[string]any {
	payload := map[string]any{
		"type":        webhookEventType,
		"objectKey":   receipt.ObjectKey,
		"metadataKey": receipt.MetadataKey,
		"size":        receipt.SizeBytes,
		"contentType": receipt.ContentType,
	}
	for k, v := range receipt.Fields {
		if _, taken := payload[k]; !taken {
			payload[k] = v
		}
	}
	if receipt.SignedVideoURL != "" {
		payload["signedVideoUrl"] = receipt.SignedVideoURL
	}
	if receipt.SignedMetaURL != "" {
		payload["signedMetadataUrl"] = receipt.SignedMetaURL
	}
	if !receipt.SignedExpiresAt.IsZero() {
		payload["signedUrlExpiresAt"] = receipt.SignedExpiresAt.UTC().Format(time.RFC3339)
		payload["signedUrlTtlSeconds"] = receipt.SignedTTLSeconds
	}
	return payload
}
