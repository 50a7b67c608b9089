package infrastructure

import (
	"go.uber.org/fx"

	httpfx "github.com/dominggo/multi-account-multi-platform/internal/infrastructure/http"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure/logger"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure/metrics"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure/store"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure/telegram"
)

// Module aggregates all infrastructure modules
var Module = fx.Module("infrastructure",
	logger.Module,
	metrics.Module,
	store.Module, // Must be before telegram (telegram depends on the session store)
	telegram.Module,
	httpfx.Module,
)
