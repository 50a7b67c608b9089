package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure/metrics"
	"github.com/dominggo/multi-account-multi-platform/internal/registry"
)

const defaultChatLimit = 20

// MessagingUseCase exposes per-account messaging operations on top of the
// registry. All operations require an authenticated session.
type MessagingUseCase struct {
	registry *registry.Registry
	logger   zerolog.Logger
}

// NewMessagingUseCase creates a messaging use case.
func NewMessagingUseCase(reg *registry.Registry, logger zerolog.Logger) *MessagingUseCase {
	return &MessagingUseCase{
		registry: reg,
		logger:   logger.With().Str("usecase", "messaging").Logger(),
	}
}

// SendMessage sends a text message from the account to a chat. Transport
// errors are surfaced verbatim; there is no automatic retry.
func (uc *MessagingUseCase) SendMessage(ctx context.Context, phoneNumber, chatID, text string) (*domain.SentMessage, error) {
	client, err := uc.authenticatedClient(phoneNumber)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sent, err := client.SendMessage(ctx, chatID, text)
	if err != nil {
		metrics.DefaultMetrics.RecordSendError()
		uc.logger.Error().
			Err(err).
			Str("phone", registry.MaskPhone(phoneNumber)).
			Str("chat_id", chatID).
			Msg("failed to send message")
		return nil, err
	}

	metrics.DefaultMetrics.RecordMessageSent(time.Since(start).Seconds())
	uc.logger.Info().
		Str("phone", registry.MaskPhone(phoneNumber)).
		Str("chat_id", chatID).
		Int("message_id", sent.MessageID).
		Msg("message sent")
	return sent, nil
}

// ListRecentChats fetches up to limit recent dialogs in Telegram's order.
func (uc *MessagingUseCase) ListRecentChats(ctx context.Context, phoneNumber string, limit int) ([]domain.ChatSummary, error) {
	client, err := uc.authenticatedClient(phoneNumber)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultChatLimit
	}

	chats, err := client.Dialogs(ctx, limit)
	if err != nil {
		uc.logger.Error().
			Err(err).
			Str("phone", registry.MaskPhone(phoneNumber)).
			Msg("failed to fetch dialogs")
		return nil, err
	}
	return chats, nil
}

// authenticatedClient resolves the account's client handle, rejecting
// accounts that are not authenticated before any collaborator call is made.
func (uc *MessagingUseCase) authenticatedClient(phoneNumber string) (domain.TelegramClient, error) {
	s, ok := uc.registry.Get(phoneNumber)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	state, _, _, client := s.Snapshot()
	if state != domain.StateAuthenticated || client == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return client, nil
}
