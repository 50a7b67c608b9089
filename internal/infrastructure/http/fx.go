package http

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/dominggo/multi-account-multi-platform/config"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure/http/server"
)

// Module provides HTTP server for fx DI
var Module = fx.Module("http",
	fx.Provide(NewServerFx),
)

// NewServerFx creates HTTP server with lifecycle hooks for fx DI
func NewServerFx(
	lc fx.Lifecycle,
	serviceCfg *config.ServiceConfig,
	logger zerolog.Logger,
) *server.Server {
	srv := server.NewServer(serviceCfg.Name, serviceCfg.Port, serviceCfg.AllowedOrigins, logger)

	// Register Prometheus metrics endpoint
	srv.RegisterMetrics()

	// Shutdown is sequenced explicitly in cmd/app: the server must stop
	// accepting requests before the session registry is torn down.
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
	})

	return srv
}
