// Package ledger is the audit trail for every dispatched action. Entries are
// written before the underlying provider call and settled after it, so the
// trail records intent even when the process dies mid-call.
//
// Bookkeeping is best-effort by contract: a ledger-store outage must never
// block or fail the business action it records. Store failures surface as
// ErrBookkeeping (or a warning log on the mark paths) and execution
// continues.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/caldera-ai/concierge/internal/domain"
	redisstore "github.com/caldera-ai/concierge/internal/store/redis"
)

// ErrBookkeeping marks audit-write failures so callers can tell "the booking
// failed" apart from "the booking succeeded but wasn't recorded".
var ErrBookkeeping = errors.New("ledger: bookkeeping write failed") //nolint:gochecknoglobals // sentinel error

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 200
)

// EventSink receives audit lifecycle events for the live ops feed.
// *redisstore.PubSub satisfies this interface.
type EventSink interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Ledger records every dispatched action and its outcome.
type Ledger struct {
	repo   domain.AuditRepository
	events EventSink // nil disables the event feed
}

func New(repo domain.AuditRepository, events EventSink) *Ledger {
	return &Ledger{repo: repo, events: events}
}

// LogRequest describes the intent record written before an action runs.
type LogRequest struct {
	TenantID           uuid.UUID
	UserID             string
	ConversationID     string
	ActionType         domain.ActionType
	ActionName         string
	AgentName          string
	InputParams        map[string]any
	Compensable        bool
	CompensationAction string
	CompensationParams map[string]any
	Tags               []string
}

// LogAction creates a pending entry with a locally generated ID, so
// concurrent dispatches never contend on the store for identity. If the
// store write fails the entry is still returned, with an ErrBookkeeping
// error the caller may log and ignore.
func (l *Ledger) LogAction(ctx context.Context, req LogRequest) (*domain.AuditEntry, error) {
	entry := &domain.AuditEntry{
		ID:                 uuid.New(),
		TenantID:           req.TenantID,
		UserID:             req.UserID,
		ConversationID:     req.ConversationID,
		ActionType:         req.ActionType,
		ActionName:         req.ActionName,
		AgentName:          req.AgentName,
		InputParams:        req.InputParams,
		Compensable:        req.Compensable,
		CompensationAction: req.CompensationAction,
		CompensationParams: req.CompensationParams,
		Status:             domain.StatusPending,
		Tags:               req.Tags,
		CreatedAt:          time.Now().UTC(),
	}

	if err := l.repo.Insert(ctx, entry); err != nil {
		log.Warn().Err(err).
			Str("audit_id", entry.ID.String()).
			Str("action_name", entry.ActionName).
			Msg("ledger: failed to persist pending entry")
		return entry, fmt.Errorf("ledger.Ledger.LogAction: %w: %w", ErrBookkeeping, err)
	}

	l.publish(ctx, entry.TenantID, entry.ID, entry.ActionName, domain.StatusPending)

	return entry, nil
}

// MarkSuccess transitions pending -> success. Missing entries and repeat
// calls are warnings, not errors: this is a bookkeeping path and must never
// throw back into the caller's business flow. compensationParams, when
// non-nil, completes the rollback arguments with values only known after
// success (e.g. the created booking's ID).
func (l *Ledger) MarkSuccess(ctx context.Context, tenantID, auditID uuid.UUID, result, compensationParams map[string]any, duration time.Duration) {
	applied, err := l.repo.MarkSuccess(ctx, tenantID, auditID, result, compensationParams, duration.Milliseconds())
	if err != nil {
		log.Warn().Err(err).Str("audit_id", auditID.String()).Msg("ledger: mark_success write failed")
		return
	}
	if !applied {
		log.Warn().Str("audit_id", auditID.String()).Msg("ledger: mark_success on missing or non-pending entry")
		return
	}

	l.publish(ctx, tenantID, auditID, "", domain.StatusSuccess)
}

// MarkFailed transitions pending -> failed.
func (l *Ledger) MarkFailed(ctx context.Context, tenantID, auditID uuid.UUID, errorMessage string, duration time.Duration) {
	applied, err := l.repo.MarkFailed(ctx, tenantID, auditID, errorMessage, duration.Milliseconds())
	if err != nil {
		log.Warn().Err(err).Str("audit_id", auditID.String()).Msg("ledger: mark_failed write failed")
		return
	}
	if !applied {
		log.Warn().Str("audit_id", auditID.String()).Msg("ledger: mark_failed on missing or non-pending entry")
		return
	}

	l.publish(ctx, tenantID, auditID, "", domain.StatusFailed)
}

// Compensate transitions success -> compensated. Returns false without
// mutating anything when the entry is missing, not compensable, or not
// currently successful.
func (l *Ledger) Compensate(ctx context.Context, tenantID, auditID uuid.UUID, reason string) bool {
	applied, err := l.repo.MarkCompensated(ctx, tenantID, auditID, reason)
	if err != nil {
		log.Warn().Err(err).Str("audit_id", auditID.String()).Msg("ledger: compensate write failed")
		return false
	}
	if !applied {
		return false
	}

	l.publish(ctx, tenantID, auditID, "", domain.StatusCompensated)

	return true
}

// GetEntry returns one entry, tenant-scoped.
func (l *Ledger) GetEntry(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.AuditEntry, error) {
	entry, err := l.repo.GetByID(ctx, tenantID, auditID)
	if err != nil {
		return nil, fmt.Errorf("ledger.Ledger.GetEntry: %w", err)
	}

	return entry, nil
}

// GetUserActions returns a user's entries, most recent first.
func (l *Ledger) GetUserActions(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]*domain.AuditEntry, error) {
	entries, err := l.repo.ListByUser(ctx, tenantID, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("ledger.Ledger.GetUserActions: %w", err)
	}

	return entries, nil
}

// GetActionsByType returns entries of one action type, most recent first.
func (l *Ledger) GetActionsByType(ctx context.Context, tenantID uuid.UUID, actionType domain.ActionType, limit int) ([]*domain.AuditEntry, error) {
	entries, err := l.repo.ListByType(ctx, tenantID, actionType, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("ledger.Ledger.GetActionsByType: %w", err)
	}

	return entries, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultQueryLimit
	}
	if limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}

// auditEvent is the wire shape published on the tenant audit channel.
type auditEvent struct {
	AuditID    string              `json:"audit_id"`
	ActionName string              `json:"action_name,omitempty"`
	Status     domain.ActionStatus `json:"status"`
	At         time.Time           `json:"at"`
}

func (l *Ledger) publish(ctx context.Context, tenantID, auditID uuid.UUID, actionName string, status domain.ActionStatus) {
	if l.events == nil {
		return
	}

	payload, err := json.Marshal(auditEvent{
		AuditID:    auditID.String(),
		ActionName: actionName,
		Status:     status,
		At:         time.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("ledger: marshal audit event")
		return
	}

	if err := l.events.Publish(ctx, redisstore.AuditChannel(tenantID), payload); err != nil {
		log.Warn().Err(err).Str("audit_id", auditID.String()).Msg("ledger: publish audit event")
	}
}
