package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/caldera-ai/concierge/internal/dispatch"
	"github.com/caldera-ai/concierge/internal/saga"
	"github.com/caldera-ai/concierge/internal/server/middleware"
)

type DispatchInput struct {
	Body struct {
		Tool           string         `json:"tool" minLength:"1" doc:"Registered tool name"`
		Params         map[string]any `json:"params" doc:"Tool parameters"`
		ConversationID string         `json:"conversation_id,omitempty" doc:"Conversation that triggered the action"`
		AgentName      string         `json:"agent_name,omitempty" doc:"Agent that triggered the action"`
		Unaudited      bool           `json:"unaudited,omitempty" doc:"Skip audit wrapping; only for idempotent reads"`
	}
}

type DispatchOutput struct {
	Body dispatch.Result
}

type BookingFlowInput struct {
	Body struct {
		Date           string `json:"date" minLength:"1" doc:"Booking date, YYYY-MM-DD"`
		Time           string `json:"time,omitempty" doc:"Booking time, HH:MM"`
		PartySize      int    `json:"party_size,omitempty" minimum:"0"`
		Notes          string `json:"notes,omitempty"`
		ConfirmEmail   string `json:"confirm_email" format:"email" doc:"Confirmation recipient"`
		ConversationID string `json:"conversation_id,omitempty"`
		AgentName      string `json:"agent_name,omitempty"`
	}
}

type BookingFlowOutput struct {
	Body saga.Result
}

// RegisterDispatchRoutes wires the action execution endpoints consumed by
// the routing layer.
func RegisterDispatchRoutes(api huma.API, dispatcher ToolDispatcher, flows FlowRunner) {
	huma.Register(api, huma.Operation{
		OperationID: "dispatch-tool",
		Method:      http.MethodPost,
		Path:        "/dispatch",
		Summary:     "Execute a single registered tool",
		Tags:        []string{"Dispatch"},
	}, func(ctx context.Context, input *DispatchInput) (*DispatchOutput, error) {
		tenantID, _ := middleware.TenantIDFromContext(ctx)
		userID, _ := middleware.UserIDFromContext(ctx)

		req := dispatch.Request{
			TenantID:       tenantID,
			UserID:         userID,
			ConversationID: input.Body.ConversationID,
			AgentName:      input.Body.AgentName,
			Tool:           input.Body.Tool,
			Params:         input.Body.Params,
		}
		if input.Body.Unaudited {
			req.UserID = ""
		}

		return &DispatchOutput{Body: dispatcher.ExecuteTool(ctx, req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "run-booking-flow",
		Method:      http.MethodPost,
		Path:        "/flows/booking",
		Summary:     "Run the booking saga: create booking, then confirm by email",
		Tags:        []string{"Dispatch"},
	}, func(ctx context.Context, input *BookingFlowInput) (*BookingFlowOutput, error) {
		tenantID, _ := middleware.TenantIDFromContext(ctx)
		userID, _ := middleware.UserIDFromContext(ctx)

		result, err := flows.RunBookingFlow(ctx, saga.BookingFlowRequest{
			TenantID:       tenantID,
			UserID:         userID,
			ConversationID: input.Body.ConversationID,
			AgentName:      input.Body.AgentName,
			Date:           input.Body.Date,
			Time:           input.Body.Time,
			PartySize:      input.Body.PartySize,
			Notes:          input.Body.Notes,
			ConfirmEmail:   input.Body.ConfirmEmail,
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to run booking flow", err)
		}

		return &BookingFlowOutput{Body: result}, nil
	})
}
