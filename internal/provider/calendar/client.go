package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/caldera-ai/concierge/internal/provider"
)

// Client is a JSON-over-HTTP client for the external booking service.
// Tenant identity travels in a header; the service keys its calendars on it.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time interface check.
var _ provider.Calendar = (*Client)(nil) //nolint:gochecknoglobals // compile-time check

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) CreateBooking(ctx context.Context, tenantID uuid.UUID, req provider.BookingRequest) (*provider.Booking, error) {
	var booking provider.Booking
	if err := c.do(ctx, tenantID, http.MethodPost, "/v1/bookings", req, &booking); err != nil {
		return nil, fmt.Errorf("calendar.Client.CreateBooking: %w", err)
	}

	return &booking, nil
}

func (c *Client) CancelBooking(ctx context.Context, tenantID uuid.UUID, bookingID, reason string) error {
	body := map[string]string{"reason": reason}
	if err := c.do(ctx, tenantID, http.MethodPost, "/v1/bookings/"+bookingID+"/cancel", body, nil); err != nil {
		return fmt.Errorf("calendar.Client.CancelBooking: %w", err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, tenantID uuid.UUID, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Tenant-ID", tenantID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("booking service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
