// Package saga sequences multiple dispatched actions into one named
// transaction. Steps run strictly in order; on the first failure the
// coordinator invokes the compensators of previously succeeded steps in
// reverse order. Execution and audit logging stay with the dispatcher and
// ledger; the coordinator only sequences calls and handles control flow.
package saga

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/caldera-ai/concierge/internal/domain"
	"github.com/caldera-ai/concierge/internal/ledger"
)

// Status is the saga lifecycle state.
type Status string

const (
	StatusBuilding     Status = "building"
	StatusRunning      Status = "running"
	StatusSuccess      Status = "success"
	StatusCompensating Status = "compensating"
	StatusCompensated  Status = "compensated"
)

// StepResult carries a step's forward outcome. AuditID is set whenever the
// step was dispatched through the audited path, success or not.
type StepResult struct {
	Data    map[string]any
	AuditID string
}

// Executor performs a step's forward action.
type Executor func(ctx context.Context) (StepResult, error)

// Compensator undoes a previously successful step, given that step's own
// forward result. Compensators never receive data from other steps; that
// constraint is structural, not documented-only.
type Compensator func(ctx context.Context, result map[string]any) error

// Step is one unit of work inside a saga. A nil Compensator marks the step
// irreversible: once applied it stays applied even if a later step fails.
type Step struct {
	ActionType domain.ActionType
	ActionName string
	Execute    Executor
	Compensate Compensator

	// Filled in during execution.
	AuditID   string
	result    map[string]any
	succeeded bool
}

// Instance is one multi-step transaction. It exists only for the duration
// of execution; step history survives in the audit ledger.
type Instance struct {
	ID             uuid.UUID `json:"saga_id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"saga_name"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Status         Status    `json:"status"`

	steps []*Step
}

// Result is the saga outcome shape returned to the routing layer.
type Result struct {
	SagaID             string `json:"saga_id"`
	Success            bool   `json:"success"`
	ActionsExecuted    int    `json:"actions_executed"`
	ActionsCompensated int    `json:"actions_compensated"`
	Error              string `json:"error,omitempty"`
}

// Coordinator owns in-flight saga instances. Each saga executes
// synchronously within the turn that triggered it; concurrency only arises
// from independent turns building independent sagas.
type Coordinator struct {
	mu       sync.Mutex
	inflight map[uuid.UUID]*Instance
	ledger   *ledger.Ledger // marks forward entries compensated; may be nil
}

func NewCoordinator(led *ledger.Ledger) *Coordinator {
	return &Coordinator{
		inflight: make(map[uuid.UUID]*Instance),
		ledger:   led,
	}
}

// CreateSaga opens a new saga in building state.
func (c *Coordinator) CreateSaga(tenantID uuid.UUID, userID, name, conversationID string) *Instance {
	inst := &Instance{
		ID:             uuid.New(),
		TenantID:       tenantID,
		UserID:         userID,
		Name:           name,
		ConversationID: conversationID,
		Status:         StatusBuilding,
	}

	c.mu.Lock()
	c.inflight[inst.ID] = inst
	c.mu.Unlock()

	return inst
}

// AddAction appends a step. Legal only while the saga is building; anything
// else is API misuse and surfaces as a hard error.
func (c *Coordinator) AddAction(sagaID uuid.UUID, actionType domain.ActionType, actionName string, execute Executor, compensate Compensator) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.inflight[sagaID]
	if !ok {
		return fmt.Errorf("saga.Coordinator.AddAction(%s): %w", sagaID, domain.ErrNotFound)
	}
	if inst.Status != StatusBuilding {
		return fmt.Errorf("saga.Coordinator.AddAction(%s): status %s: %w", sagaID, inst.Status, domain.ErrSagaState)
	}

	inst.steps = append(inst.steps, &Step{
		ActionType: actionType,
		ActionName: actionName,
		Execute:    execute,
		Compensate: compensate,
	})

	return nil
}

// ExecuteSaga runs the saga to a terminal state and returns a structured
// result. Step failures never propagate as errors past this method; only
// misuse (unknown saga, wrong state) does.
func (c *Coordinator) ExecuteSaga(ctx context.Context, sagaID uuid.UUID) (Result, error) {
	c.mu.Lock()
	inst, ok := c.inflight[sagaID]
	if !ok {
		c.mu.Unlock()
		return Result{}, fmt.Errorf("saga.Coordinator.ExecuteSaga(%s): %w", sagaID, domain.ErrNotFound)
	}
	if inst.Status != StatusBuilding {
		c.mu.Unlock()
		return Result{}, fmt.Errorf("saga.Coordinator.ExecuteSaga(%s): status %s: %w", sagaID, inst.Status, domain.ErrSagaState)
	}
	inst.Status = StatusRunning
	c.mu.Unlock()

	log.Info().
		Str("saga_id", inst.ID.String()).
		Str("saga_name", inst.Name).
		Int("steps", len(inst.steps)).
		Msg("saga: executing")

	result := Result{SagaID: inst.ID.String()}

	failedAt := -1
	var failErr error
	for i, step := range inst.steps {
		out, err := step.Execute(ctx)
		step.AuditID = out.AuditID
		if err != nil {
			failedAt = i
			failErr = err
			break
		}

		step.result = out.Data
		step.succeeded = true
		result.ActionsExecuted++
	}

	if failedAt < 0 {
		inst.Status = StatusSuccess
		result.Success = true
		c.finish(inst)
		return result, nil
	}

	result.Error = fmt.Sprintf("step %q failed: %v", inst.steps[failedAt].ActionName, failErr)
	log.Warn().
		Str("saga_id", inst.ID.String()).
		Str("saga_name", inst.Name).
		Str("step", inst.steps[failedAt].ActionName).
		Err(failErr).
		Msg("saga: step failed, compensating")

	inst.Status = StatusCompensating
	result.ActionsCompensated = c.compensate(ctx, inst, failedAt)
	inst.Status = StatusCompensated

	c.finish(inst)
	return result, nil
}

// compensate walks succeeded steps in reverse (LIFO) from the step before
// the failure. Every compensable prior step gets exactly one attempt; a
// failed compensation is logged and the loop keeps going.
func (c *Coordinator) compensate(ctx context.Context, inst *Instance, failedAt int) int {
	attempted := 0
	for i := failedAt - 1; i >= 0; i-- {
		step := inst.steps[i]
		if !step.succeeded || step.Compensate == nil {
			continue
		}

		attempted++
		if err := step.Compensate(ctx, step.result); err != nil {
			log.Error().
				Str("saga_id", inst.ID.String()).
				Str("step", step.ActionName).
				Err(err).
				Msg("saga: compensation failed")
			continue
		}

		c.markCompensated(ctx, inst, step)
	}

	return attempted
}

// markCompensated flips the step's forward audit entry to compensated.
// Bookkeeping only; any failure is already logged by the ledger.
func (c *Coordinator) markCompensated(ctx context.Context, inst *Instance, step *Step) {
	if c.ledger == nil || step.AuditID == "" {
		return
	}

	auditID, err := uuid.Parse(step.AuditID)
	if err != nil {
		log.Warn().Str("audit_id", step.AuditID).Msg("saga: unparseable audit id on compensated step")
		return
	}

	c.ledger.Compensate(ctx, inst.TenantID, auditID, "saga rollback: "+inst.Name)
}

// finish drops a terminal instance from the in-flight map. The audit ledger
// holds the durable history.
func (c *Coordinator) finish(inst *Instance) {
	log.Info().
		Str("saga_id", inst.ID.String()).
		Str("saga_name", inst.Name).
		Str("status", string(inst.Status)).
		Msg("saga: finished")

	c.mu.Lock()
	delete(c.inflight, inst.ID)
	c.mu.Unlock()
}
