package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/caldera-ai/concierge/internal/api/v1"
	"github.com/caldera-ai/concierge/internal/api/ws"
	"github.com/caldera-ai/concierge/internal/dispatch"
	"github.com/caldera-ai/concierge/internal/ledger"
	"github.com/caldera-ai/concierge/internal/saga"
	"github.com/caldera-ai/concierge/internal/tool"
)

func registerAPIRoutes(api huma.API, led *ledger.Ledger, dispatcher *dispatch.Dispatcher, flows *saga.Flows, registry *tool.Registry) {
	v1.RegisterActionRoutes(api, led, registry)
	v1.RegisterDispatchRoutes(api, dispatcher, flows)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/audit", hub.ServeAuditFeed)
}
