package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caldera-ai/concierge/internal/provider"
)

// Client is a JSON-over-HTTP client for the transactional mail service.
type Client struct {
	baseURL    string
	apiKey     string
	fromAddr   string
	httpClient *http.Client
}

// Compile-time interface check.
var _ provider.Mailer = (*Client)(nil) //nolint:gochecknoglobals // compile-time check

func New(baseURL, apiKey, fromAddr string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		fromAddr: fromAddr,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Send(ctx context.Context, to, subject, body string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"from":    c.fromAddr,
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return "", fmt.Errorf("mailer.Client.Send: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("mailer.Client.Send: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mailer.Client.Send: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("mailer.Client.Send: mail service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("mailer.Client.Send: decode response: %w", err)
	}

	return out.MessageID, nil
}
