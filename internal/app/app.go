package app

import (
	"go.uber.org/fx"

	"github.com/dominggo/multi-account-multi-platform/config"
	deliveryhttp "github.com/dominggo/multi-account-multi-platform/internal/delivery/http"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure"
	"github.com/dominggo/multi-account-multi-platform/internal/registry"
	"github.com/dominggo/multi-account-multi-platform/internal/relay"
	"github.com/dominggo/multi-account-multi-platform/internal/usecase"
)

// CreateApp creates the fx application options
func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(
			config.Out,
		),
		infrastructure.Module,
		registry.Module,
		relay.Module,
		usecase.Module,
		deliveryhttp.Module,
	)
}
