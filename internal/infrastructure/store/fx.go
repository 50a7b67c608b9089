package store

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/dominggo/multi-account-multi-platform/config"
	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

// Module provides the session store for fx DI
var Module = fx.Module("store",
	fx.Provide(NewSessionStoreFx),
)

// NewSessionStoreFx creates the session store selected by configuration and
// registers its shutdown hook.
func NewSessionStoreFx(
	lc fx.Lifecycle,
	cfg *config.StoreConfig,
	logger zerolog.Logger,
) (domain.SessionStore, error) {
	switch cfg.Backend {
	case config.StoreBackendRedis:
		s, err := NewRedisStore(context.Background(), cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Using redis session store")
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return s.Close()
			},
		})
		return s, nil
	case config.StoreBackendPostgres:
		s, err := NewPostgresStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("Using postgres session store")
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return s.Close()
			},
		})
		return s, nil
	default:
		s, err := NewFileStore(cfg.SessionDir)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("dir", cfg.SessionDir).Msg("Using file session store")
		return s, nil
	}
}
