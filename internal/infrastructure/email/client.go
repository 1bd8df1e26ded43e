package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
)

// Compile-time interface check.
var _ domain.Mailer = (*Client)(nil)

// Client sends transactional email through a Resend-compatible HTTP API.
type Client struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a new email client
func NewClient(apiURL, apiKey, from string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers msg. A missing API key is a configuration error, not a no-op.
func (c *Client) Send(ctx context.Context, msg domain.EmailMessage) error {
	if c.apiKey == "" {
		return fmt.Errorf("email api key not configured")
	}
	body, err := json.Marshal(sendRequest{From: c.from, To: []string{msg.To}, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email API error (status %d): %s", resp.StatusCode, string(raw))
	}

	c.logger.Info("email sent", slog.String("subject", msg.Subject))
	return nil
}
