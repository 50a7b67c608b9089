package telegram

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

// MTProtoClient implements domain.TelegramClient using the gotd/td library.
type MTProtoClient struct {
	client *telegram.Client

	apiID   int
	apiHash string

	sessionStorage *sessionStorage
	phoneNumber    string

	connected     bool
	disconnecting bool
	mu            sync.RWMutex
	cancelFunc    context.CancelFunc
	runDone       chan struct{} // Signals when client.Run() completes

	// Inbound message callback; registering replaces the previous one.
	handlerMu sync.RWMutex
	onMessage func(domain.MessageEvent)

	logger zerolog.Logger

	api *tg.Client

	rateLimiter *rate.Limiter
}

// MTProtoClientConfig holds configuration for MTProtoClient
type MTProtoClientConfig struct {
	APIID       int
	APIHash     string
	PhoneNumber string
	Store       domain.SessionStore
	Logger      zerolog.Logger
}

// NewMTProtoClient creates a new MTProto client instance
func NewMTProtoClient(cfg MTProtoClientConfig) (*MTProtoClient, error) {
	if cfg.APIID == 0 {
		return nil, fmt.Errorf("APIID is required")
	}
	if cfg.APIHash == "" {
		return nil, fmt.Errorf("APIHash is required")
	}
	if cfg.PhoneNumber == "" {
		return nil, fmt.Errorf("PhoneNumber is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("Store is required")
	}

	maskedPhone := maskPhoneNumber(cfg.PhoneNumber)

	client := &MTProtoClient{
		apiID:          cfg.APIID,
		apiHash:        cfg.APIHash,
		phoneNumber:    cfg.PhoneNumber,
		sessionStorage: newSessionStorage(cfg.Store, cfg.PhoneNumber),
		logger:         cfg.Logger.With().Str("component", "mtproto_client").Str("phone", maskedPhone).Logger(),
		rateLimiter:    rate.NewLimiter(rate.Every(time.Second), 10), // 10 requests per second
	}

	return client, nil
}

// maskPhoneNumber masks phone number for logging (keeps first 2 and last 2 digits)
func maskPhoneNumber(phone string) string {
	if len(phone) < 4 {
		return "***"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}

// Connect connects to Telegram using MTProto. A session blob previously
// persisted through the store is restored automatically; authentication
// itself is driven by the caller through SendCode/SignIn.
func (c *MTProtoClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		c.logger.Debug().Msg("already connected")
		return nil
	}
	if c.disconnecting {
		c.mu.Unlock()
		return fmt.Errorf("disconnect in progress, cannot connect")
	}
	// Keep the lock to prevent concurrent connection attempts
	defer c.mu.Unlock()

	c.logger.Info().Msg("connecting to Telegram")

	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
		c.dispatchMessage(update.Message)
		return nil
	})
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, update *tg.UpdateNewChannelMessage) error {
		c.dispatchMessage(update.Message)
		return nil
	})

	c.client = telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: c.sessionStorage,
		UpdateHandler:  dispatcher,
	})

	// Create cancellable context for client lifecycle
	clientCtx, cancel := context.WithCancel(context.Background())
	c.cancelFunc = cancel

	readyChan := make(chan struct{})
	errChan := make(chan error, 1)
	started := make(chan struct{})
	c.runDone = make(chan struct{})

	go func() {
		defer close(c.runDone) // Signal when Run() completes
		close(started)
		err := c.client.Run(clientCtx, func(ctx context.Context) error {
			c.api = c.client.API()
			c.connected = true
			c.logger.Info().Msg("connected to Telegram")

			close(readyChan)

			// Keep connection alive
			<-ctx.Done()
			return ctx.Err()
		})
		select {
		case errChan <- err:
		default:
		}
	}()

	<-started

	// Wait for connection to be fully ready or error
	select {
	case <-readyChan:
		return nil
	case err := <-errChan:
		cancel()
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTransport, err)
		}
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Disconnect disconnects from Telegram with graceful shutdown. The session is
// saved by the underlying gotd/td client before shutdown. Multiple calls are
// safe and return nil when already disconnected.
func (c *MTProtoClient) Disconnect(ctx context.Context) error {
	c.mu.Lock()

	if c.disconnecting {
		c.mu.Unlock()
		c.logger.Debug().Msg("disconnect already in progress")
		return nil
	}
	if !c.connected {
		c.mu.Unlock()
		c.logger.Debug().Msg("already disconnected")
		return nil
	}

	c.logger.Info().Msg("disconnecting from Telegram")

	c.disconnecting = true
	cancelFunc := c.cancelFunc
	runDone := c.runDone
	c.mu.Unlock()

	if cancelFunc != nil {
		cancelFunc()

		// Wait for client.Run() goroutine to actually finish
		if runDone != nil {
			select {
			case <-runDone:
				c.logger.Debug().Msg("client stopped gracefully")
			case <-ctx.Done():
				c.logger.Warn().Msg("disconnect timeout reached while waiting for client shutdown")
			}
		}
	}

	c.mu.Lock()
	c.client = nil
	c.api = nil
	c.connected = false
	c.cancelFunc = nil
	c.runDone = nil
	c.disconnecting = false
	c.mu.Unlock()

	c.handlerMu.Lock()
	c.onMessage = nil
	c.handlerMu.Unlock()

	c.logger.Info().Msg("disconnected from Telegram")
	return nil
}

// IsConnected checks if client is connected to Telegram
func (c *MTProtoClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SendCode requests a login code and returns the phone code hash.
func (c *MTProtoClient) SendCode(ctx context.Context, phoneNumber string) (string, error) {
	client, err := c.liveClient()
	if err != nil {
		return "", err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	sent, err := client.Auth().SendCode(ctx, phoneNumber, auth.SendCodeOptions{})
	if err != nil {
		return "", c.classifyError(err)
	}

	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("%w: unexpected sent code type %T", domain.ErrUnrecoverable, sent)
	}

	c.logger.Info().Msg("login code requested")
	return code.PhoneCodeHash, nil
}

// SignIn completes code verification for the phone number.
func (c *MTProtoClient) SignIn(ctx context.Context, phoneNumber, code, codeHash string) (*domain.Identity, error) {
	client, err := c.liveClient()
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	authorization, err := client.Auth().SignIn(ctx, phoneNumber, code, codeHash)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordAuthNeeded) {
			return nil, domain.ErrPasswordRequired
		}
		return nil, c.classifyError(err)
	}

	return identityFromUser(authorization.User), nil
}

// SignInPassword completes the 2FA password step.
func (c *MTProtoClient) SignInPassword(ctx context.Context, password string) (*domain.Identity, error) {
	client, err := c.liveClient()
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	authorization, err := client.Auth().Password(ctx, password)
	if err != nil {
		return nil, c.classifyError(err)
	}

	return identityFromUser(authorization.User), nil
}

// Authorized reports whether the client holds a valid authorization.
func (c *MTProtoClient) Authorized(ctx context.Context) (bool, error) {
	client, err := c.liveClient()
	if err != nil {
		return false, err
	}

	status, err := client.Auth().Status(ctx)
	if err != nil {
		return false, c.classifyError(err)
	}
	return status.Authorized, nil
}

// Me fetches the identity of the authenticated account.
func (c *MTProtoClient) Me(ctx context.Context) (*domain.Identity, error) {
	client, err := c.liveClient()
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	self, err := client.Self(ctx)
	if err != nil {
		return nil, c.classifyError(err)
	}

	return &domain.Identity{
		ID:        self.ID,
		FirstName: self.FirstName,
		LastName:  self.LastName,
		Username:  self.Username,
	}, nil
}

// ExportSession returns the opaque credential blob for persistence.
func (c *MTProtoClient) ExportSession(ctx context.Context) ([]byte, error) {
	return c.sessionStorage.Bytes(ctx)
}

// OnNewMessage registers the inbound-message callback. Registering again
// replaces the previous callback; nil unregisters.
func (c *MTProtoClient) OnNewMessage(handler func(domain.MessageEvent)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onMessage = handler
}

// dispatchMessage normalizes an update and hands it to the registered
// callback, dropping outgoing and service messages.
func (c *MTProtoClient) dispatchMessage(msg tg.MessageClass) {
	message, ok := msg.(*tg.Message)
	if !ok || message.Out {
		return
	}

	event := domain.MessageEvent{
		Type:    domain.EventTypeNewMessage,
		ChatID:  peerID(message.PeerID),
		Message: message.Message,
		Date:    time.Unix(int64(message.Date), 0),
	}
	if from, ok := message.FromID.(*tg.PeerUser); ok {
		event.SenderID = from.UserID
	} else {
		// Private chats omit FromID; the peer is the sender.
		event.SenderID = event.ChatID
	}

	c.handlerMu.RLock()
	handler := c.onMessage
	c.handlerMu.RUnlock()
	if handler == nil {
		return
	}
	handler(event)
}

// liveClient returns the underlying gotd client, failing when disconnected.
func (c *MTProtoClient) liveClient() (*telegram.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.client == nil {
		return nil, domain.ErrNotConnected
	}
	return c.client, nil
}

// liveAPI returns the raw API client, failing when disconnected.
func (c *MTProtoClient) liveAPI() (*tg.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.api == nil {
		return nil, domain.ErrNotConnected
	}
	return c.api, nil
}

// unrecoverableErrors are protocol errors that no retry can fix.
var unrecoverableErrors = []string{
	"PHONE_NUMBER_BANNED",
	"PHONE_NUMBER_INVALID",
	"API_ID_INVALID",
	"AUTH_TOKEN_INVALID",
	"USER_DEACTIVATED",
	"USER_DEACTIVATED_BAN",
	"SESSION_REVOKED",
}

// classifyError maps gotd errors onto the domain error taxonomy. Protocol
// errors that are not recognized keep their original detail so the caller can
// retry manually.
func (c *MTProtoClient) classifyError(err error) error {
	switch {
	case err == nil:
		return nil
	case tgerr.Is(err, "SESSION_PASSWORD_NEEDED"):
		return domain.ErrPasswordRequired
	case tgerr.Is(err, "PHONE_CODE_INVALID"), tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		return domain.ErrInvalidCode
	case tgerr.Is(err, "PASSWORD_HASH_INVALID"):
		return domain.ErrInvalidPassword
	}

	for _, code := range unrecoverableErrors {
		if tgerr.Is(err, code) {
			return fmt.Errorf("%w: %v", domain.ErrUnrecoverable, err)
		}
	}

	var protoErr *tgerr.Error
	if errors.As(err, &protoErr) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrTransport, err)
}

// identityFromUser converts a tg user class to a domain identity.
func identityFromUser(user tg.UserClass) *domain.Identity {
	u, ok := user.(*tg.User)
	if !ok {
		return nil
	}
	return &domain.Identity{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

// peerID extracts the bare peer identifier from a peer class.
func peerID(peer tg.PeerClass) int64 {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return p.UserID
	case *tg.PeerChat:
		return p.ChatID
	case *tg.PeerChannel:
		return p.ChannelID
	default:
		return 0
	}
}

// parseNumericID parses a numeric chat identifier.
func parseNumericID(chatID string) (int64, bool) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// randomID generates the random ID Telegram requires for message sends.
func randomID() int64 {
	return rand.Int63()
}

// Ensure MTProtoClient implements domain.TelegramClient interface
var _ domain.TelegramClient = (*MTProtoClient)(nil)
