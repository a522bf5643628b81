package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/caldera-ai/concierge/internal/domain"
	"github.com/caldera-ai/concierge/internal/server/middleware"
)

type ListActionsInput struct {
	UserID string `query:"user_id" doc:"User to query; defaults to the caller"`
	Limit  int    `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
}

type ListActionsOutput struct {
	Body []*domain.AuditEntry
}

type ListActionsByTypeInput struct {
	Type  string `query:"type" enum:"booking,notification,ticket,search,api_call" doc:"Action type"`
	Limit int    `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
}

type GetActionInput struct {
	AuditID string `path:"auditID" format:"uuid" doc:"Audit entry ID"`
}

type GetActionOutput struct {
	Body *domain.AuditEntry
}

type ListToolsOutput struct {
	Body []domain.ToolDefinition
}

// RegisterActionRoutes wires the ledger query endpoints used by operational
// dashboards. Everything is scoped to the caller's tenant.
func RegisterActionRoutes(api huma.API, led LedgerReader, catalog ToolCatalog) {
	huma.Register(api, huma.Operation{
		OperationID: "list-actions",
		Method:      http.MethodGet,
		Path:        "/actions",
		Summary:     "List a user's dispatched actions, most recent first",
		Tags:        []string{"Actions"},
	}, func(ctx context.Context, input *ListActionsInput) (*ListActionsOutput, error) {
		tenantID, _ := middleware.TenantIDFromContext(ctx)

		userID := input.UserID
		if userID == "" {
			userID, _ = middleware.UserIDFromContext(ctx)
		}

		entries, err := led.GetUserActions(ctx, tenantID, userID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list actions", err)
		}

		return &ListActionsOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-actions-by-type",
		Method:      http.MethodGet,
		Path:        "/actions/by-type",
		Summary:     "List dispatched actions of one type, most recent first",
		Tags:        []string{"Actions"},
	}, func(ctx context.Context, input *ListActionsByTypeInput) (*ListActionsOutput, error) {
		tenantID, _ := middleware.TenantIDFromContext(ctx)

		entries, err := led.GetActionsByType(ctx, tenantID, domain.ActionType(input.Type), input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list actions", err)
		}

		return &ListActionsOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-action",
		Method:      http.MethodGet,
		Path:        "/actions/{auditID}",
		Summary:     "Fetch one audit entry",
		Tags:        []string{"Actions"},
	}, func(ctx context.Context, input *GetActionInput) (*GetActionOutput, error) {
		tenantID, _ := middleware.TenantIDFromContext(ctx)

		auditID, err := uuid.Parse(input.AuditID)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid audit id")
		}

		entry, err := led.GetEntry(ctx, tenantID, auditID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("audit entry not found")
			}
			return nil, huma.Error500InternalServerError("failed to fetch audit entry", err)
		}

		return &GetActionOutput{Body: entry}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tools",
		Method:      http.MethodGet,
		Path:        "/tools",
		Summary:     "List registered tool definitions",
		Tags:        []string{"Tools"},
	}, func(_ context.Context, _ *struct{}) (*ListToolsOutput, error) {
		return &ListToolsOutput{Body: catalog.List()}, nil
	})
}
