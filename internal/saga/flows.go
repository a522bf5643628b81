package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/caldera-ai/concierge/internal/dispatch"
	"github.com/caldera-ai/concierge/internal/domain"
)

// ToolExecutor abstracts the dispatcher for flow construction and testing.
// *dispatch.Dispatcher satisfies this interface.
type ToolExecutor interface {
	ExecuteTool(ctx context.Context, req dispatch.Request) dispatch.Result
}

// BookingFlowRequest holds everything the canned booking flow needs.
type BookingFlowRequest struct {
	TenantID       uuid.UUID
	UserID         string
	ConversationID string
	AgentName      string

	Date         string
	Time         string
	PartySize    int
	Notes        string
	ConfirmEmail string
}

// BuildBookingFlow assembles the standard two-step booking saga: create the
// calendar booking, then send the confirmation email. If the email fails,
// the booking is cancelled; the email itself is irreversible and carries no
// compensator. Returns the saga ID ready for ExecuteSaga.
func BuildBookingFlow(c *Coordinator, exec ToolExecutor, req BookingFlowRequest) (uuid.UUID, error) {
	inst := c.CreateSaga(req.TenantID, req.UserID, "booking_flow", req.ConversationID)

	base := dispatch.Request{
		TenantID:       req.TenantID,
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		AgentName:      req.AgentName,
		Tags:           []string{"saga:booking_flow"},
	}

	bookingStep := base
	bookingStep.Tool = "calendar.create_booking"
	bookingStep.Params = map[string]any{
		"date":       req.Date,
		"time":       req.Time,
		"party_size": req.PartySize,
		"notes":      req.Notes,
	}

	err := c.AddAction(inst.ID, domain.ActionBooking, "calendar.create_booking",
		executorFor(exec, bookingStep),
		func(ctx context.Context, result map[string]any) error {
			cancel := base
			cancel.Tool = "calendar.cancel_booking"
			cancel.Params = map[string]any{
				"booking_id": result["booking_id"],
				"reason":     "booking flow rolled back",
			}

			res := exec.ExecuteTool(ctx, cancel)
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("saga.BuildBookingFlow: %w", err)
	}

	emailStep := base
	emailStep.Tool = "email.send"
	emailStep.Params = map[string]any{
		"to":      req.ConfirmEmail,
		"subject": "Your booking is confirmed",
		"body":    fmt.Sprintf("Your booking for %s %s is confirmed.", req.Date, req.Time),
	}

	// No compensator: a sent confirmation cannot be unsent.
	err = c.AddAction(inst.ID, domain.ActionNotification, "email.send", executorFor(exec, emailStep), nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("saga.BuildBookingFlow: %w", err)
	}

	return inst.ID, nil
}

// Flows bundles the coordinator with a dispatcher so callers can run canned
// multi-step transactions without hand-wiring closures.
type Flows struct {
	coordinator *Coordinator
	exec        ToolExecutor
}

func NewFlows(c *Coordinator, exec ToolExecutor) *Flows {
	return &Flows{coordinator: c, exec: exec}
}

// RunBookingFlow builds and executes the standard booking saga.
func (f *Flows) RunBookingFlow(ctx context.Context, req BookingFlowRequest) (Result, error) {
	sagaID, err := BuildBookingFlow(f.coordinator, f.exec, req)
	if err != nil {
		return Result{}, fmt.Errorf("saga.Flows.RunBookingFlow: %w", err)
	}

	return f.coordinator.ExecuteSaga(ctx, sagaID)
}

// executorFor wraps one dispatcher call as a saga executor. The closure
// captures only the request data it needs.
func executorFor(exec ToolExecutor, req dispatch.Request) Executor {
	return func(ctx context.Context) (StepResult, error) {
		res := exec.ExecuteTool(ctx, req)
		out := StepResult{Data: res.Data, AuditID: res.AuditID}
		if !res.Success {
			return out, errors.New(res.Error)
		}
		return out, nil
	}
}
