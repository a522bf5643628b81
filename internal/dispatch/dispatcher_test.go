package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldera-ai/concierge/internal/dispatch"
	"github.com/caldera-ai/concierge/internal/domain"
	"github.com/caldera-ai/concierge/internal/ledger"
	"github.com/caldera-ai/concierge/internal/provider"
	"github.com/caldera-ai/concierge/internal/tool"
)

// --- mocks ---

// recordingRepo captures every ledger write so tests can assert on the audit
// trail a dispatch leaves behind.
type recordingRepo struct {
	inserted  []*domain.AuditEntry
	insertErr error

	successes []markSuccessCall
	failures  []markFailedCall
}

type markSuccessCall struct {
	tenantID           uuid.UUID
	id                 uuid.UUID
	result             map[string]any
	compensationParams map[string]any
	durationMS         int64
}

type markFailedCall struct {
	tenantID     uuid.UUID
	id           uuid.UUID
	errorMessage string
	durationMS   int64
}

func (r *recordingRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

func (r *recordingRepo) MarkSuccess(_ context.Context, tenantID, id uuid.UUID, result, compensationParams map[string]any, durationMS int64) (bool, error) {
	r.successes = append(r.successes, markSuccessCall{tenantID: tenantID, id: id, result: result, compensationParams: compensationParams, durationMS: durationMS})
	return true, nil
}

func (r *recordingRepo) MarkFailed(_ context.Context, tenantID, id uuid.UUID, errorMessage string, durationMS int64) (bool, error) {
	r.failures = append(r.failures, markFailedCall{tenantID: tenantID, id: id, errorMessage: errorMessage, durationMS: durationMS})
	return true, nil
}

func (r *recordingRepo) MarkCompensated(context.Context, uuid.UUID, uuid.UUID, string) (bool, error) {
	return true, nil
}

func (r *recordingRepo) GetByID(context.Context, uuid.UUID, uuid.UUID) (*domain.AuditEntry, error) {
	return nil, domain.ErrNotFound
}

func (r *recordingRepo) ListByUser(context.Context, uuid.UUID, string, int) ([]*domain.AuditEntry, error) {
	return nil, nil
}

func (r *recordingRepo) ListByType(context.Context, uuid.UUID, domain.ActionType, int) ([]*domain.AuditEntry, error) {
	return nil, nil
}

func (r *recordingRepo) PurgeOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type mockCalendar struct {
	createBookingFunc func(ctx context.Context, tenantID uuid.UUID, req provider.BookingRequest) (*provider.Booking, error)
	cancelBookingFunc func(ctx context.Context, tenantID uuid.UUID, bookingID, reason string) error
}

func (m *mockCalendar) CreateBooking(ctx context.Context, tenantID uuid.UUID, req provider.BookingRequest) (*provider.Booking, error) {
	return m.createBookingFunc(ctx, tenantID, req)
}

func (m *mockCalendar) CancelBooking(ctx context.Context, tenantID uuid.UUID, bookingID, reason string) error {
	return m.cancelBookingFunc(ctx, tenantID, bookingID, reason)
}

type mockMailer struct {
	sendFunc func(ctx context.Context, to, subject, body string) (string, error)
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) (string, error) {
	return m.sendFunc(ctx, to, subject, body)
}

type mockKnowledge struct {
	searchFunc func(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]provider.Document, error)
}

func (m *mockKnowledge) Search(ctx context.Context, tenantID uuid.UUID, query string, limit int) ([]provider.Document, error) {
	return m.searchFunc(ctx, tenantID, query, limit)
}

// --- fixtures ---

func builtinRegistry(t *testing.T) *tool.Registry {
	t.Helper()

	registry := tool.NewRegistry()
	for _, def := range tool.Builtin() {
		registry.MustRegister(def)
	}
	return registry
}

func newDispatcher(t *testing.T, repo *recordingRepo, p dispatch.Providers) *dispatch.Dispatcher {
	t.Helper()
	return dispatch.New(builtinRegistry(t), ledger.New(repo, nil), p)
}

// --- ExecuteTool ---

func TestExecuteTool_UnknownTool(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	d := newDispatcher(t, repo, dispatch.Providers{})

	res := d.ExecuteTool(t.Context(), dispatch.Request{
		TenantID: uuid.New(),
		UserID:   "user-1",
		Tool:     "calendar.delete_everything",
	})

	assert.False(t, res.Success)
	assert.Equal(t, "unknown tool: calendar.delete_everything", res.Error)
	assert.Empty(t, res.AuditID)
	assert.Empty(t, repo.inserted, "unknown tools must not touch the ledger")
}

func TestExecuteTool_RegisteredButUnwired(t *testing.T) {
	t.Parallel()

	// No providers configured: every builtin is registered but none has an
	// adapter behind it.
	repo := &recordingRepo{}
	d := newDispatcher(t, repo, dispatch.Providers{})

	res := d.ExecuteTool(t.Context(), dispatch.Request{
		TenantID: uuid.New(),
		UserID:   "user-1",
		Tool:     "calendar.create_booking",
		Params:   map[string]any{"date": "2026-09-01"},
	})

	assert.False(t, res.Success)
	assert.Equal(t, "unknown tool: calendar.create_booking", res.Error)
	assert.Empty(t, repo.inserted)
}

func TestExecuteTool_MissingRequiredParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params map[string]any
	}{
		{name: "absent", params: map[string]any{}},
		{name: "nil value", params: map[string]any{"date": nil}},
		{name: "empty string", params: map[string]any{"date": ""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &recordingRepo{}
			cal := &mockCalendar{
				createBookingFunc: func(context.Context, uuid.UUID, provider.BookingRequest) (*provider.Booking, error) {
					t.Fatal("provider must not be called with invalid params")
					return nil, nil
				},
			}
			d := newDispatcher(t, repo, dispatch.Providers{Calendar: cal})

			res := d.ExecuteTool(t.Context(), dispatch.Request{
				TenantID: uuid.New(),
				UserID:   "user-1",
				Tool:     "calendar.create_booking",
				Params:   tc.params,
			})

			assert.False(t, res.Success)
			assert.Equal(t, `missing required parameter "date"`, res.Error)
			assert.Empty(t, repo.inserted, "validation failures precede audit logging")
		})
	}
}

func TestExecuteTool_AuditedSuccess(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	repo := &recordingRepo{}
	cal := &mockCalendar{
		createBookingFunc: func(_ context.Context, tid uuid.UUID, req provider.BookingRequest) (*provider.Booking, error) {
			assert.Equal(t, tenantID, tid)
			assert.Equal(t, "2026-09-01", req.Date)
			assert.Equal(t, 4, req.PartySize)
			return &provider.Booking{ID: "evt_1", Date: req.Date, Time: req.Time, Status: "confirmed"}, nil
		},
	}
	d := newDispatcher(t, repo, dispatch.Providers{Calendar: cal})

	res := d.ExecuteTool(t.Context(), dispatch.Request{
		TenantID:       tenantID,
		UserID:         "user-1",
		AgentName:      "booking-agent",
		ConversationID: "conv-9",
		Tool:           "calendar.create_booking",
		Params:         map[string]any{"date": "2026-09-01", "time": "19:00", "party_size": 4},
		Tags:           []string{"saga:booking_flow"},
	})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "evt_1", res.Data["booking_id"])
	require.NotEmpty(t, res.AuditID)

	// One pending entry, written before the provider call.
	require.Len(t, repo.inserted, 1)
	entry := repo.inserted[0]
	assert.Equal(t, res.AuditID, entry.ID.String())
	assert.Equal(t, tenantID, entry.TenantID)
	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, "booking-agent", entry.AgentName)
	assert.Equal(t, domain.ActionBooking, entry.ActionType)
	assert.Equal(t, "calendar.create_booking", entry.ActionName)
	assert.Equal(t, domain.StatusPending, entry.Status)
	assert.True(t, entry.Compensable)
	assert.Equal(t, "calendar.cancel_booking", entry.CompensationAction)
	assert.Equal(t, "2026-09-01", entry.InputParams["date"])
	assert.Equal(t, []string{"saga:booking_flow"}, entry.Tags)

	// Settled with the provider result and post-hoc rollback params.
	require.Len(t, repo.successes, 1)
	settled := repo.successes[0]
	assert.Equal(t, entry.ID, settled.id)
	assert.Equal(t, "evt_1", settled.result["booking_id"])
	require.NotNil(t, settled.compensationParams)
	assert.Equal(t, "evt_1", settled.compensationParams["booking_id"])
	assert.GreaterOrEqual(t, settled.durationMS, int64(0))
	assert.Empty(t, repo.failures)
}

func TestExecuteTool_ProviderError(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	repo := &recordingRepo{}
	mail := &mockMailer{
		sendFunc: func(context.Context, string, string, string) (string, error) {
			return "", errors.New("smtp timeout")
		},
	}
	d := newDispatcher(t, repo, dispatch.Providers{Mailer: mail})

	res := d.ExecuteTool(t.Context(), dispatch.Request{
		TenantID: tenantID,
		UserID:   "user-1",
		Tool:     "email.send",
		Params:   map[string]any{"to": "a@b.co", "subject": "hi", "body": "hello"},
	})

	assert.False(t, res.Success)
	assert.Equal(t, "smtp timeout", res.Error)
	assert.NotEmpty(t, res.AuditID, "failed calls keep their audit id")

	require.Len(t, repo.inserted, 1)
	require.Len(t, repo.failures, 1)
	assert.Equal(t, repo.inserted[0].ID, repo.failures[0].id)
	assert.Equal(t, "smtp timeout", repo.failures[0].errorMessage)
	assert.Empty(t, repo.successes)
}

func TestExecuteTool_UnauditedSkipsLedger(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	kb := &mockKnowledge{
		searchFunc: func(context.Context, uuid.UUID, string, int) ([]provider.Document, error) {
			return []provider.Document{{ID: "doc-1", Title: "Opening hours", Score: 0.9}}, nil
		},
	}
	d := newDispatcher(t, repo, dispatch.Providers{Knowledge: kb})

	// Empty UserID: the read is not worth an audit row.
	res := d.ExecuteTool(t.Context(), dispatch.Request{
		TenantID: uuid.New(),
		Tool:     "knowledge.search",
		Params:   map[string]any{"query": "opening hours"},
	})

	require.True(t, res.Success, res.Error)
	assert.Empty(t, res.AuditID)
	assert.Empty(t, repo.inserted)
	assert.Empty(t, repo.successes)
	assert.Empty(t, repo.failures)
}

func TestExecuteTool_ProviderPanicContained(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	cal := &mockCalendar{
		createBookingFunc: func(context.Context, uuid.UUID, provider.BookingRequest) (*provider.Booking, error) {
			panic("nil map write")
		},
	}
	d := newDispatcher(t, repo, dispatch.Providers{Calendar: cal})

	res := d.ExecuteTool(t.Context(), dispatch.Request{
		TenantID: uuid.New(),
		UserID:   "user-1",
		Tool:     "calendar.create_booking",
		Params:   map[string]any{"date": "2026-09-01"},
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "provider panic")
	assert.Contains(t, res.Error, "nil map write")

	require.Len(t, repo.failures, 1)
	assert.Contains(t, repo.failures[0].errorMessage, "provider panic")
}

func TestExecuteTool_BookkeepingFailureDoesNotBlockAction(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{insertErr: errors.New("connection refused")}
	mail := &mockMailer{
		sendFunc: func(context.Context, string, string, string) (string, error) {
			return "msg-1", nil
		},
	}
	d := newDispatcher(t, repo, dispatch.Providers{Mailer: mail})

	res := d.ExecuteTool(t.Context(), dispatch.Request{
		TenantID: uuid.New(),
		UserID:   "user-1",
		Tool:     "email.send",
		Params:   map[string]any{"to": "a@b.co", "subject": "hi", "body": "hello"},
	})

	require.True(t, res.Success, "ledger outage must not fail the action")
	assert.Equal(t, "msg-1", res.Data["message_id"])
	assert.NotEmpty(t, res.AuditID)
}

func TestExecuteTool_TicketRoutesToHelpdesk(t *testing.T) {
	t.Parallel()

	var gotTo string
	repo := &recordingRepo{}
	mail := &mockMailer{
		sendFunc: func(_ context.Context, to, _, _ string) (string, error) {
			gotTo = to
			return "msg-9", nil
		},
	}
	d := newDispatcher(t, repo, dispatch.Providers{Mailer: mail, HelpdeskAddr: "helpdesk@acme.co"})

	res := d.ExecuteTool(t.Context(), dispatch.Request{
		TenantID: uuid.New(),
		UserID:   "user-1",
		Tool:     "ticket.open",
		Params:   map[string]any{"subject": "broken door", "body": "the door is broken"},
	})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "helpdesk@acme.co", gotTo)
	assert.Equal(t, "msg-9", res.Data["ticket_ref"])

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, domain.ActionTicket, repo.inserted[0].ActionType)
}

func TestExecuteTool_KnowledgeSearchLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params map[string]any
		want   int
	}{
		{name: "defaults to 5", params: map[string]any{"query": "hours"}, want: 5},
		{name: "json number decodes as float64", params: map[string]any{"query": "hours", "limit": float64(3)}, want: 3},
		{name: "plain int", params: map[string]any{"query": "hours", "limit": 12}, want: 12},
		{name: "non-positive falls back", params: map[string]any{"query": "hours", "limit": 0}, want: 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var gotLimit int
			kb := &mockKnowledge{
				searchFunc: func(_ context.Context, _ uuid.UUID, _ string, limit int) ([]provider.Document, error) {
					gotLimit = limit
					return nil, nil
				},
			}
			d := newDispatcher(t, &recordingRepo{}, dispatch.Providers{Knowledge: kb})

			res := d.ExecuteTool(t.Context(), dispatch.Request{
				TenantID: uuid.New(),
				Tool:     "knowledge.search",
				Params:   tc.params,
			})

			require.True(t, res.Success, res.Error)
			assert.Equal(t, tc.want, gotLimit)
			assert.Equal(t, 0, res.Data["count"])
		})
	}
}
