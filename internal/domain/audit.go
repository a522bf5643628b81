package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActionType classifies what kind of side effect an audit entry records.
type ActionType string

const (
	ActionBooking      ActionType = "booking"
	ActionNotification ActionType = "notification"
	ActionTicket       ActionType = "ticket"
	ActionSearch       ActionType = "search"
	ActionAPICall      ActionType = "api_call"
)

// ActionStatus is the lifecycle state of an audit entry.
// Entries are created pending, transition exactly once to success or failed,
// and only successful compensable entries may become compensated.
type ActionStatus string

const (
	StatusPending     ActionStatus = "pending"
	StatusSuccess     ActionStatus = "success"
	StatusFailed      ActionStatus = "failed"
	StatusCompensated ActionStatus = "compensated"
)

// AuditEntry is one record per dispatched action. Once an entry leaves
// pending it is immutable history; compensation of the underlying action is
// recorded both by flipping this entry to compensated and by a new entry for
// the compensating call itself.
type AuditEntry struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       uuid.UUID      `json:"tenant_id"`
	UserID         string         `json:"user_id"`
	ConversationID string         `json:"conversation_id,omitempty"`
	ActionType     ActionType     `json:"action_type"`
	ActionName     string         `json:"action_name"`
	AgentName      string         `json:"agent_name,omitempty"`
	InputParams    map[string]any `json:"input_params"`
	Result         map[string]any `json:"result,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`

	Compensable        bool           `json:"compensable"`
	CompensationAction string         `json:"compensation_action,omitempty"`
	CompensationParams map[string]any `json:"compensation_params,omitempty"`
	CompensatedReason  string         `json:"compensated_reason,omitempty"`

	Status     ActionStatus `json:"status"`
	Tags       []string     `json:"tags,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	DurationMS int64        `json:"duration_ms"`
}

// AuditRepository persists audit entries. Every read and write is scoped by
// tenant; implementations must never match rows across tenants.
//
// The Mark* methods apply a status transition conditionally and report
// whether a row actually changed, so concurrent callers cannot double-apply
// a transition.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	// MarkSuccess also completes compensation_params when compensationParams
	// is non-nil: rollback arguments often contain values only known after
	// success, such as a created resource's identifier.
	MarkSuccess(ctx context.Context, tenantID, id uuid.UUID, result, compensationParams map[string]any, durationMS int64) (bool, error)
	MarkFailed(ctx context.Context, tenantID, id uuid.UUID, errorMessage string, durationMS int64) (bool, error)
	MarkCompensated(ctx context.Context, tenantID, id uuid.UUID, reason string) (bool, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*AuditEntry, error)
	ListByUser(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]*AuditEntry, error)
	ListByType(ctx context.Context, tenantID uuid.UUID, actionType ActionType, limit int) ([]*AuditEntry, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
