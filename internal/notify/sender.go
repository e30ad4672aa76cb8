package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"teeshop/internal/domain"
)

var (
	ErrNotConfigured = errors.New("email provider credentials are not configured")
)

// Sender delivers one plain-text email
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SettingsProvider returns the current settings row
type SettingsProvider interface {
	Current(ctx context.Context) (*domain.Settings, error)
}

// APISender posts messages to a transactional email HTTP API. Credentials
// are read from the settings on every call.
type APISender struct {
	url      string
	client   *http.Client
	settings SettingsProvider
}

// NewAPISender creates an APISender for the provider endpoint at url
func NewAPISender(url string, timeout time.Duration, settings SettingsProvider) *APISender {
	return &APISender{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		settings: settings,
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendRequest struct {
	Sender      address   `json:"sender"`
	To          []address `json:"to"`
	Subject     string    `json:"subject"`
	TextContent string    `json:"textContent"`
}

func (s *APISender) Send(ctx context.Context, to, subject, body string) error {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to load email settings: %w", err)
	}
	if settings.EmailAPIKey == "" || settings.EmailSender == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(sendRequest{
		Sender:      address{Email: settings.EmailSender, Name: settings.PaymentName},
		To:          []address{{Email: to}},
		Subject:     subject,
		TextContent: body,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", settings.EmailAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
