package registry

import "go.uber.org/fx"

// Module provides the session registry for fx DI
var Module = fx.Module("registry",
	fx.Provide(New),
)
