package main

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/dominggo/multi-account-multi-platform/config"
	"github.com/dominggo/multi-account-multi-platform/internal/app"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure/http/server"
	"github.com/dominggo/multi-account-multi-platform/internal/registry"
)

func main() {
	fx.New(
		app.CreateApp(),
		fx.Invoke(run),
	).Run()
}

// serverStopper and sessionCloser narrow the shutdown dependencies so the
// stop sequence can be exercised in tests.
type serverStopper interface {
	Shutdown(ctx context.Context) error
}

type sessionCloser interface {
	Shutdown(ctx context.Context) int
}

func run(
	lc fx.Lifecycle,
	cfg *config.Config,
	srv *server.Server,
	reg *registry.Registry,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info().
				Str("service", cfg.Service.Name).
				Str("port", cfg.Service.Port).
				Str("session_store", string(cfg.Store.Backend)).
				Msg("Starting telegram backend")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Shutting down telegram backend...")

			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Service.ShutdownTimeout)
			defer cancel()

			disconnected := stopService(shutdownCtx, srv, reg, logger)
			logger.Info().
				Int("disconnected", disconnected).
				Msg("Telegram backend stopped")
			return nil
		},
	})
}

// stopService stops the HTTP server before tearing down the session registry,
// so no request can create a session after teardown has begun. Returns the
// number of sessions that disconnected cleanly.
func stopService(ctx context.Context, srv serverStopper, reg sessionCloser, logger zerolog.Logger) int {
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("error stopping HTTP server")
	}
	return reg.Shutdown(ctx)
}
