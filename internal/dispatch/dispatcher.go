// Package dispatch is the single call path through which every
// side-effecting action is invoked. The dispatcher is a routing table plus
// audit wrapper: it resolves a tool against the registry, delegates to the
// concrete provider adapter, and brackets the call with ledger bookkeeping.
// It holds no business logic beyond parameter shape validation.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/caldera-ai/concierge/internal/domain"
	"github.com/caldera-ai/concierge/internal/ledger"
	"github.com/caldera-ai/concierge/internal/provider"
	"github.com/caldera-ai/concierge/internal/tool"
)

// Request identifies one tool invocation. An empty UserID skips audit
// wrapping; that path is reserved for non-critical idempotent reads, every
// state-mutating call must carry the user.
type Request struct {
	TenantID       uuid.UUID
	UserID         string
	AgentName      string
	ConversationID string
	Tool           string
	Params         map[string]any
	Tags           []string
}

// Result is the four-field dispatch result shape consumed by the routing
// layer.
type Result struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	AuditID string         `json:"audit_id,omitempty"`
}

// Providers bundles the concrete integrations the adapters call.
type Providers struct {
	Calendar     provider.Calendar
	Mailer       provider.Mailer
	Messenger    provider.Messenger
	Transcriber  provider.Transcriber
	Vision       provider.Vision
	Knowledge    provider.Knowledge
	HelpdeskAddr string // destination inbox for ticket.open
}

// invoker performs one provider call for one tool.
type invoker func(ctx context.Context, tenantID uuid.UUID, params map[string]any) (map[string]any, error)

// adapter binds a tool name to its invoker and, for compensable tools, the
// derivation of rollback arguments from the forward result.
type adapter struct {
	invoke invoker
	// compensationParams is nil for irreversible tools.
	compensationParams func(result map[string]any) map[string]any
}

// Dispatcher routes tool invocations to provider adapters. The adapter
// table is a closed set built once at construction; there is no runtime
// extension.
type Dispatcher struct {
	registry *tool.Registry
	ledger   *ledger.Ledger
	adapters map[string]adapter
}

func New(registry *tool.Registry, led *ledger.Ledger, p Providers) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		ledger:   led,
	}
	d.adapters = buildAdapters(p)

	return d
}

// ExecuteTool resolves, validates, audits and invokes one tool. Provider
// errors and panics are converted into a structured failure result; nothing
// escapes as a fault, because a failed call inside a saga must surface as a
// normal step failure.
func (d *Dispatcher) ExecuteTool(ctx context.Context, req Request) Result {
	def, ok := d.registry.Get(req.Tool)
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
	}

	ad, ok := d.adapters[def.Name]
	if !ok {
		// Registered but not wired: a startup configuration gap, treated as
		// unknown so the caller gets a structured failure, not a crash.
		log.Error().Str("tool", def.Name).Msg("dispatch: tool registered without provider adapter")
		return Result{Success: false, Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
	}

	if err := validateParams(def, req.Params); err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	var entry *domain.AuditEntry
	audited := req.UserID != ""
	if audited {
		var logErr error
		entry, logErr = d.ledger.LogAction(ctx, ledger.LogRequest{
			TenantID:           req.TenantID,
			UserID:             req.UserID,
			ConversationID:     req.ConversationID,
			ActionType:         def.Category.ActionType(),
			ActionName:         def.Name,
			AgentName:          req.AgentName,
			InputParams:        req.Params,
			Compensable:        def.Compensable,
			CompensationAction: def.CompensationTool,
			Tags:               req.Tags,
		})
		if logErr != nil && !errors.Is(logErr, ledger.ErrBookkeeping) {
			log.Error().Err(logErr).Str("tool", def.Name).Msg("dispatch: unexpected ledger error")
		}
	}

	// Duration brackets the provider call only, not ledger overhead.
	start := time.Now()
	data, err := d.safeInvoke(ctx, ad.invoke, req.TenantID, req.Params)
	elapsed := time.Since(start)

	result := Result{}
	if audited {
		result.AuditID = entry.ID.String()
	}

	if err != nil {
		if audited {
			d.ledger.MarkFailed(ctx, req.TenantID, entry.ID, err.Error(), elapsed)
		}
		result.Error = err.Error()
		return result
	}

	if audited {
		var compParams map[string]any
		if ad.compensationParams != nil {
			compParams = ad.compensationParams(data)
		}
		d.ledger.MarkSuccess(ctx, req.TenantID, entry.ID, data, compParams, elapsed)
	}

	result.Success = true
	result.Data = data

	return result
}

// safeInvoke calls the adapter with panic containment: a misbehaving
// provider client must surface as an error result, never crash a saga loop.
func (d *Dispatcher) safeInvoke(ctx context.Context, inv invoker, tenantID uuid.UUID, params map[string]any) (data map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("dispatch: provider adapter panicked")
			data = nil
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	return inv(ctx, tenantID, params)
}

// validateParams checks the declared required parameters are present.
func validateParams(def domain.ToolDefinition, params map[string]any) error {
	for name, spec := range def.Parameters {
		if !spec.Required {
			continue
		}
		v, ok := params[name]
		if !ok || v == nil {
			return fmt.Errorf("missing required parameter %q", name)
		}
		if s, isString := v.(string); isString && s == "" {
			return fmt.Errorf("missing required parameter %q", name)
		}
	}

	return nil
}
