package relay

import "go.uber.org/fx"

// Module provides the event relay for fx DI
var Module = fx.Module("relay",
	fx.Provide(New),
)
