package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/caldera-ai/concierge/internal/dispatch"
	"github.com/caldera-ai/concierge/internal/domain"
	"github.com/caldera-ai/concierge/internal/saga"
	"github.com/caldera-ai/concierge/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject tenant/user into context for GetCtx/PostCtx
// ---------------------------------------------------------------------------

func tenantCtx(tenantID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyTenantID, tenantID)
}

func userCtx(tenantID uuid.UUID, userID string) context.Context {
	return context.WithValue(tenantCtx(tenantID), middleware.ContextKeyUserID, userID)
}

// ---------------------------------------------------------------------------
// Mock LedgerReader
// ---------------------------------------------------------------------------

type mockLedger struct {
	getEntryFunc         func(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.AuditEntry, error)
	getUserActionsFunc   func(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]*domain.AuditEntry, error)
	getActionsByTypeFunc func(ctx context.Context, tenantID uuid.UUID, actionType domain.ActionType, limit int) ([]*domain.AuditEntry, error)
}

func (m *mockLedger) GetEntry(ctx context.Context, tenantID, auditID uuid.UUID) (*domain.AuditEntry, error) {
	return m.getEntryFunc(ctx, tenantID, auditID)
}

func (m *mockLedger) GetUserActions(ctx context.Context, tenantID uuid.UUID, userID string, limit int) ([]*domain.AuditEntry, error) {
	return m.getUserActionsFunc(ctx, tenantID, userID, limit)
}

func (m *mockLedger) GetActionsByType(ctx context.Context, tenantID uuid.UUID, actionType domain.ActionType, limit int) ([]*domain.AuditEntry, error) {
	return m.getActionsByTypeFunc(ctx, tenantID, actionType, limit)
}

// ---------------------------------------------------------------------------
// Mock ToolDispatcher / FlowRunner / ToolCatalog
// ---------------------------------------------------------------------------

type mockDispatcher struct {
	requests    []dispatch.Request
	executeFunc func(ctx context.Context, req dispatch.Request) dispatch.Result
}

func (m *mockDispatcher) ExecuteTool(ctx context.Context, req dispatch.Request) dispatch.Result {
	m.requests = append(m.requests, req)
	return m.executeFunc(ctx, req)
}

type mockFlows struct {
	requests []saga.BookingFlowRequest
	runFunc  func(ctx context.Context, req saga.BookingFlowRequest) (saga.Result, error)
}

func (m *mockFlows) RunBookingFlow(ctx context.Context, req saga.BookingFlowRequest) (saga.Result, error) {
	m.requests = append(m.requests, req)
	return m.runFunc(ctx, req)
}

type mockCatalog struct {
	defs []domain.ToolDefinition
}

func (m *mockCatalog) List() []domain.ToolDefinition { return m.defs }
