package http

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/dominggo/multi-account-multi-platform/config"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure/http/server"
	"github.com/dominggo/multi-account-multi-platform/internal/relay"
	"github.com/dominggo/multi-account-multi-platform/internal/usecase"
)

// Module provides HTTP delivery components for fx DI
var Module = fx.Module("delivery",
	fx.Provide(
		NewHandler,
		NewWSHandlerFx,
		NewHealthHandlerFx,
		NewRouter,
	),
	fx.Invoke(registerRoutes),
)

// NewWSHandlerFx creates the WebSocket handler from service configuration
func NewWSHandlerFx(rel *relay.Relay, cfg *config.ServiceConfig, logger zerolog.Logger) *WSHandler {
	return NewWSHandler(rel, cfg.AllowedOrigins, logger)
}

// NewHealthHandlerFx creates the health handler from service configuration
func NewHealthHandlerFx(cfg *config.ServiceConfig, sessions *usecase.SessionUseCase, logger zerolog.Logger) *HealthHandler {
	return NewHealthHandler(cfg.Name, sessions, logger)
}

// registerRoutes registers HTTP routes on the server
func registerRoutes(srv *server.Server, router *Router) {
	router.RegisterRoutes(srv.Router)
}
