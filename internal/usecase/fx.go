package usecase

import "go.uber.org/fx"

// Module provides use cases for fx DI
var Module = fx.Module("usecase",
	fx.Provide(
		NewSessionUseCase,
		NewMessagingUseCase,
	),
)
