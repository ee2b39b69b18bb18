package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Endpoint posts to a serverless email function co-located with the deployed
// site. Request and response shapes follow the /api/send-email contract:
// {to, name, subject, message} in, {success, error?} out.
type Endpoint struct {
	url  string
	http *http.Client
}

// NewEndpoint returns nil when no endpoint URL is configured.
func NewEndpoint(url string, timeout time.Duration) *Endpoint {
	if url == "" {
		return nil
	}
	return &Endpoint{url: url, http: &http.Client{Timeout: timeout}}
}

func (e *Endpoint) Name() string { return "endpoint" }

func (e *Endpoint) Send(ctx context.Context, msg Message) error {
	body, _ := json.Marshal(map[string]string{
		"to":      msg.ToEmail,
		"name":    msg.ToName,
		"subject": msg.Subject,
		"message": msg.Body,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("mail endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail endpoint error %s: %s", resp.Status, string(raw))
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("mail endpoint rejected message: %s", out.Error)
	}
	return nil
}
