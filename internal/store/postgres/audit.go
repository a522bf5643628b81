package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caldera-ai/concierge/internal/domain"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

const auditColumns = `id, tenant_id, user_id, conversation_id, action_type, action_name, agent_name,
	input_params, result, error_message, compensable, compensation_action, compensation_params,
	compensated_reason, status, tags, created_at, duration_ms`

func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	inputParams, err := json.Marshal(e.InputParams)
	if err != nil {
		return fmt.Errorf("auditRepo.Insert: marshal input_params: %w", err)
	}

	compParams, err := json.Marshal(e.CompensationParams)
	if err != nil {
		return fmt.Errorf("auditRepo.Insert: marshal compensation_params: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, tenant_id, user_id, conversation_id, action_type, action_name, agent_name,
		 input_params, error_message, compensable, compensation_action, compensation_params, status, tags, created_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		e.ID, e.TenantID, e.UserID, e.ConversationID, e.ActionType, e.ActionName, e.AgentName,
		inputParams, e.ErrorMessage, e.Compensable, e.CompensationAction, compParams,
		e.Status, e.Tags, e.CreatedAt, e.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Insert: %w", err)
	}

	return nil
}

// MarkSuccess flips pending -> success. The WHERE clause carries the expected
// status so a second marker finds zero rows instead of rewriting history.
// A non-nil compensationParams replaces the provisional rollback arguments
// recorded at log time.
func (r *AuditRepo) MarkSuccess(ctx context.Context, tenantID, id uuid.UUID, result, compensationParams map[string]any, durationMS int64) (bool, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("auditRepo.MarkSuccess: marshal result: %w", err)
	}

	var compJSON []byte
	if compensationParams != nil {
		compJSON, err = json.Marshal(compensationParams)
		if err != nil {
			return false, fmt.Errorf("auditRepo.MarkSuccess: marshal compensation_params: %w", err)
		}
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE audit_log SET status = $1, result = $2, duration_ms = $3,
		        compensation_params = COALESCE($4, compensation_params)
		 WHERE tenant_id = $5 AND id = $6 AND status = $7`,
		domain.StatusSuccess, resultJSON, durationMS, compJSON, tenantID, id, domain.StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("auditRepo.MarkSuccess: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkFailed flips pending -> failed.
func (r *AuditRepo) MarkFailed(ctx context.Context, tenantID, id uuid.UUID, errorMessage string, durationMS int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE audit_log SET status = $1, error_message = $2, duration_ms = $3
		 WHERE tenant_id = $4 AND id = $5 AND status = $6`,
		domain.StatusFailed, errorMessage, durationMS, tenantID, id, domain.StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("auditRepo.MarkFailed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkCompensated flips success -> compensated for compensable entries only.
func (r *AuditRepo) MarkCompensated(ctx context.Context, tenantID, id uuid.UUID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE audit_log SET status = $1, compensated_reason = $2
		 WHERE tenant_id = $3 AND id = $4 AND status = $5 AND compensable`,
		domain.StatusCompensated, reason, tenantID, id, domain.StatusSuccess,
	)
	if err != nil {
		return false, fmt.Errorf("auditRepo.MarkCompensated: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *AuditRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_log WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.GetByID: %w", err)
	}
	defer rows.Close()

	entries, err := scanAuditEntries(rows, "auditRepo.GetByID")
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("auditRepo.GetByID: %w", domain.ErrNotFound)
	}

	return entries[0], nil
}

func (r *AuditRepo) ListByUser(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]*domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_log
		 WHERE tenant_id = $1 AND user_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		tenantID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows, "auditRepo.ListByUser")
}

func (r *AuditRepo) ListByType(ctx context.Context, tenantID uuid.UUID, actionType domain.ActionType, limit int) ([]*domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_log
		 WHERE tenant_id = $1 AND action_type = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		tenantID, actionType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByType: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows, "auditRepo.ListByType")
}

// PurgeOlderThan deletes entries past the retention window across all
// tenants. Retention is cleanup, not a correctness invariant.
func (r *AuditRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("auditRepo.PurgeOlderThan: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanAuditEntries(rows pgx.Rows, caller string) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var inputParams, result, compParams []byte

		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.UserID, &e.ConversationID, &e.ActionType, &e.ActionName, &e.AgentName,
			&inputParams, &result, &e.ErrorMessage, &e.Compensable, &e.CompensationAction, &compParams,
			&e.CompensatedReason, &e.Status, &e.Tags, &e.CreatedAt, &e.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}

		if err := unmarshalInto(inputParams, &e.InputParams); err != nil {
			return nil, fmt.Errorf("%s: unmarshal input_params: %w", caller, err)
		}
		if err := unmarshalInto(result, &e.Result); err != nil {
			return nil, fmt.Errorf("%s: unmarshal result: %w", caller, err)
		}
		if err := unmarshalInto(compParams, &e.CompensationParams); err != nil {
			return nil, fmt.Errorf("%s: unmarshal compensation_params: %w", caller, err)
		}

		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}

func unmarshalInto(raw []byte, dst *map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
