// Package provider defines the narrow interfaces through which the
// dispatcher talks to external integrations. Providers own their network
// concerns (retries, timeouts) and return errors rather than panicking for
// expected failure modes; the dispatcher treats any returned error as a
// plain action failure.
package provider

import (
	"context"

	"github.com/google/uuid"
)

// Booking is the result of a calendar booking operation.
type Booking struct {
	ID        string `json:"booking_id"`
	Date      string `json:"date"`
	Time      string `json:"time,omitempty"`
	PartySize int    `json:"party_size,omitempty"`
	Status    string `json:"status"`
}

// BookingRequest holds the forward parameters for CreateBooking.
type BookingRequest struct {
	Date      string `json:"date"`
	Time      string `json:"time,omitempty"`
	PartySize int    `json:"party_size,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Document is one knowledge-base search hit.
type Document struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Calendar is the external booking service.
type Calendar interface {
	CreateBooking(ctx context.Context, tenantID uuid.UUID, req BookingRequest) (*Booking, error)
	CancelBooking(ctx context.Context, tenantID uuid.UUID, bookingID, reason string) error
}

// Mailer sends email through the tenant's mail service.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) (messageID string, err error)
}

// Messenger posts messages to a chat workspace (Slack in production).
type Messenger interface {
	SendMessage(ctx context.Context, channel, text string) (messageID string, err error)
}

// Transcriber converts a voice recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// Vision describes image contents.
type Vision interface {
	Analyze(ctx context.Context, imageURL, prompt string) (string, error)
}

// Knowledge searches the tenant's knowledge base.
type Knowledge interface {
	Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]Document, error)
}
