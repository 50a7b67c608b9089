package telegram

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/dominggo/multi-account-multi-platform/config"
	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

// Module provides the Telegram client factory for fx DI
var Module = fx.Module("telegram",
	fx.Provide(NewClientFactory),
)

// NewClientFactory creates a factory producing one MTProto client per
// phone number, all backed by the configured session store.
func NewClientFactory(cfg *config.TelegramConfig, store domain.SessionStore, logger zerolog.Logger) domain.ClientFactory {
	return func(phoneNumber string) (domain.TelegramClient, error) {
		return NewMTProtoClient(MTProtoClientConfig{
			APIID:       cfg.APIID,
			APIHash:     cfg.APIHash,
			PhoneNumber: phoneNumber,
			Store:       store,
			Logger:      logger,
		})
	}
}
