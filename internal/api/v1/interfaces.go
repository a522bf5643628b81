package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/caldera-ai/concierge/internal/dispatch"
	"github.com/caldera-ai/concierge/internal/domain"
	"github.com/caldera-ai/concierge/internal/saga"
)

// LedgerReader abstracts audit ledger queries for handler testing.
// *ledger.Ledger satisfies this interface.
type LedgerReader interface {
	GetEntry(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.AuditEntry, error)
	GetUserActions(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]*domain.AuditEntry, error)
	GetActionsByType(ctx context.Context, tenantID uuid.UUID, actionType domain.ActionType, limit int) ([]*domain.AuditEntry, error)
}

// ToolDispatcher abstracts single-action dispatch for handler testing.
// *dispatch.Dispatcher satisfies this interface.
type ToolDispatcher interface {
	ExecuteTool(ctx context.Context, req dispatch.Request) dispatch.Result
}

// FlowRunner abstracts canned saga flows for handler testing.
// *saga.Flows satisfies this interface.
type FlowRunner interface {
	RunBookingFlow(ctx context.Context, req saga.BookingFlowRequest) (saga.Result, error)
}

// ToolCatalog abstracts the tool registry for handler testing.
// *tool.Registry satisfies this interface.
type ToolCatalog interface {
	List() []domain.ToolDefinition
}
