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

// Public form-to-email services used as a last-ditch fallback. Each has its
// own request schema; the only shared contract is "did it succeed". These are
// best-effort placeholders, not production transports.

// FormSubmit posts to formsubmit.co's AJAX API, addressed to a fixed inbox.
type FormSubmit struct {
	inbox string
	http  *http.Client
}

// NewFormSubmit returns nil when no inbox is configured.
func NewFormSubmit(inbox string, timeout time.Duration) *FormSubmit {
	if inbox == "" {
		return nil
	}
	return &FormSubmit{inbox: inbox, http: &http.Client{Timeout: timeout}}
}

func (f *FormSubmit) Name() string { return "formsubmit" }

func (f *FormSubmit) Send(ctx context.Context, msg Message) error {
	payload := map[string]string{
		"name":     msg.ToName,
		"email":    msg.ToEmail,
		"_subject": msg.Subject,
		"message":  msg.Body,
	}
	var out struct {
		Success string `json:"success"`
	}
	if err := postJSON(ctx, f.http, "https://formsubmit.co/ajax/"+f.inbox, payload, &out); err != nil {
		return err
	}
	if out.Success != "true" {
		return fmt.Errorf("formsubmit rejected message")
	}
	return nil
}

// Web3Forms posts to api.web3forms.com with an access key.
type Web3Forms struct {
	key  string
	http *http.Client
}

// NewWeb3Forms returns nil when no access key is configured.
func NewWeb3Forms(key string, timeout time.Duration) *Web3Forms {
	if key == "" {
		return nil
	}
	return &Web3Forms{key: key, http: &http.Client{Timeout: timeout}}
}

func (w *Web3Forms) Name() string { return "web3forms" }

func (w *Web3Forms) Send(ctx context.Context, msg Message) error {
	payload := map[string]string{
		"access_key": w.key,
		"name":       msg.ToName,
		"email":      msg.ToEmail,
		"subject":    msg.Subject,
		"message":    msg.Body,
	}
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := postJSON(ctx, w.http, "https://api.web3forms.com/submit", payload, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("web3forms rejected message: %s", out.Message)
	}
	return nil
}

// SubmitForm posts to submit-form.com using a form id; any 2xx counts as
// delivered since the service returns no structured body.
type SubmitForm struct {
	formID string
	http   *http.Client
}

// NewSubmitForm returns nil when no form id is configured.
func NewSubmitForm(formID string, timeout time.Duration) *SubmitForm {
	if formID == "" {
		return nil
	}
	return &SubmitForm{formID: formID, http: &http.Client{Timeout: timeout}}
}

func (s *SubmitForm) Name() string { return "submitform" }

func (s *SubmitForm) Send(ctx context.Context, msg Message) error {
	payload := map[string]string{
		"name":    msg.ToName,
		"email":   msg.ToEmail,
		"subject": msg.Subject,
		"message": msg.Body,
	}
	return postJSON(ctx, s.http, "https://submit-form.com/"+s.formID, payload, nil)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any, out any) error {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("provider error %s: %s", resp.Status, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
