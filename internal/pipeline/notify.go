package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotifyConfig configures where to send completion notifications.
type NotifyConfig struct {
	WebhookURL string // if empty, no notifications
}

// completionPayload is the JSON body posted to the webhook endpoint.
type completionPayload struct {
	Target         string   `json:"target"`
	ScanID         string   `json:"scan_id"`
	ScanDir        string   `json:"scan_dir"`
	Status         string   `json:"status"`
	Processed      int      `json:"processed"`
	Skipped        int      `json:"skipped"`
	Errors         int      `json:"errors"`
	Available      []string `json:"available"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
}

// SendCompletion posts a JSON payload to the webhook URL with scan results.
// Returns nil if WebhookURL is empty (no-op). Non-fatal: errors are returned
// but callers should treat them as warnings.
func (n *NotifyConfig) SendCompletion(ctx context.Context, result *RunResult) error {
	if n == nil || n.WebhookURL == "" || result == nil {
		return nil
	}

	available := result.State.AvailableDomains
	if available == nil {
		available = []string{}
	}
	payload := completionPayload{
		Target:         result.Target,
		ScanID:         result.ScanID,
		ScanDir:        result.ScanDir,
		Status:         string(result.Status),
		Processed:      result.State.Processed,
		Skipped:        result.State.Skipped,
		Errors:         result.State.Errors,
		Available:      available,
		ElapsedSeconds: result.Elapsed.Seconds(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: posting to %s: %w", n.WebhookURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned non-2xx status %d", resp.StatusCode)
	}

	return nil
}
