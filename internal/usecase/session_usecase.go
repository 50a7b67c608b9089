package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
	"github.com/dominggo/multi-account-multi-platform/internal/infrastructure/metrics"
	"github.com/dominggo/multi-account-multi-platform/internal/registry"
	"github.com/dominggo/multi-account-multi-platform/internal/relay"
)

// SessionUseCase orchestrates the three-step authentication handshake and
// the connect/disconnect/status lifecycle of managed accounts.
type SessionUseCase struct {
	registry *registry.Registry
	relay    *relay.Relay
	store    domain.SessionStore
	factory  domain.ClientFactory
	logger   zerolog.Logger
}

// NewSessionUseCase creates a session use case.
func NewSessionUseCase(
	reg *registry.Registry,
	rel *relay.Relay,
	store domain.SessionStore,
	factory domain.ClientFactory,
	logger zerolog.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		registry: reg,
		relay:    rel,
		store:    store,
		factory:  factory,
		logger:   logger.With().Str("usecase", "session").Logger(),
	}
}

// RequestCode connects the account's client if needed and asks Telegram to
// send a login code. Returns the phone code hash that must be echoed back to
// VerifyCode.
func (uc *SessionUseCase) RequestCode(ctx context.Context, phoneNumber string) (string, error) {
	s := uc.registry.Resolve(phoneNumber)
	s.Lock()
	defer s.Unlock()

	logger := uc.logger.With().Str("phone", registry.MaskPhone(phoneNumber)).Logger()

	if err := uc.ensureConnected(ctx, s); err != nil {
		logger.Error().Err(err).Msg("failed to connect account")
		return "", err
	}

	if s.State() == domain.StateAuthenticated {
		return "", fmt.Errorf("%w: already authenticated", domain.ErrInvalidState)
	}

	hash, err := s.Client().SendCode(ctx, phoneNumber)
	if err != nil {
		s.Fail(err, errors.Is(err, domain.ErrUnrecoverable))
		metrics.DefaultMetrics.RecordAuthError("send_code")
		logger.Error().Err(err).Msg("failed to request login code")
		return "", err
	}

	// A fresh code request supersedes any previous challenge.
	s.SetPendingCodeHash(hash)
	s.SetState(domain.StateAwaitingCode)

	logger.Info().Msg("login code sent")
	return hash, nil
}

// VerifyCode completes code verification. The codeHash must match the one
// issued by the most recent RequestCode. When the account has 2FA enabled the
// result reports RequiresPassword and the session awaits VerifyPassword.
func (uc *SessionUseCase) VerifyCode(ctx context.Context, phoneNumber, code, codeHash string) (*domain.VerifyCodeResult, error) {
	s := uc.registry.Resolve(phoneNumber)
	s.Lock()
	defer s.Unlock()

	logger := uc.logger.With().Str("phone", registry.MaskPhone(phoneNumber)).Logger()

	state, pendingHash, _, client := s.Snapshot()
	if state != domain.StateAwaitingCode {
		return nil, fmt.Errorf("%w: expected code verification, state is %s", domain.ErrInvalidState, state)
	}
	if codeHash != pendingHash {
		metrics.DefaultMetrics.RecordAuthError("hash_mismatch")
		return nil, domain.ErrHashMismatch
	}

	identity, err := client.SignIn(ctx, phoneNumber, code, codeHash)
	switch {
	case errors.Is(err, domain.ErrPasswordRequired):
		s.SetState(domain.StateAwaitingPassword)
		logger.Info().Msg("2FA enabled, awaiting password")
		return &domain.VerifyCodeResult{RequiresPassword: true}, nil
	case errors.Is(err, domain.ErrInvalidCode):
		// The challenge stays valid; the caller may retry with the same hash.
		metrics.DefaultMetrics.RecordAuthError("invalid_code")
		return nil, domain.ErrInvalidCode
	case err != nil:
		s.Fail(err, errors.Is(err, domain.ErrUnrecoverable))
		metrics.DefaultMetrics.RecordAuthError("sign_in")
		logger.Error().Err(err).Msg("sign-in failed")
		return nil, err
	}

	uc.completeAuthentication(ctx, s, identity, logger)
	return &domain.VerifyCodeResult{Authenticated: true, Identity: s.Identity()}, nil
}

// VerifyPassword completes the optional 2FA step. On failure the session
// stays in the awaiting-password state; retry limiting is the caller's
// responsibility.
func (uc *SessionUseCase) VerifyPassword(ctx context.Context, phoneNumber, password string) (*domain.Identity, error) {
	s := uc.registry.Resolve(phoneNumber)
	s.Lock()
	defer s.Unlock()

	logger := uc.logger.With().Str("phone", registry.MaskPhone(phoneNumber)).Logger()

	state, _, _, client := s.Snapshot()
	if state != domain.StateAwaitingPassword {
		return nil, fmt.Errorf("%w: expected password verification, state is %s", domain.ErrInvalidState, state)
	}

	identity, err := client.SignInPassword(ctx, password)
	switch {
	case errors.Is(err, domain.ErrInvalidPassword):
		metrics.DefaultMetrics.RecordAuthError("invalid_password")
		return nil, domain.ErrInvalidPassword
	case err != nil:
		s.Fail(err, errors.Is(err, domain.ErrUnrecoverable))
		metrics.DefaultMetrics.RecordAuthError("sign_in_password")
		logger.Error().Err(err).Msg("2FA sign-in failed")
		return nil, err
	}

	uc.completeAuthentication(ctx, s, identity, logger)
	return s.Identity(), nil
}

// Disconnect closes the account's client, drops its subscribers and removes
// the session from the registry. Idempotent: disconnecting an unknown or
// already-disconnected account succeeds.
func (uc *SessionUseCase) Disconnect(ctx context.Context, phoneNumber string) error {
	s, ok := uc.registry.Get(phoneNumber)
	if !ok {
		return nil
	}

	s.Lock()
	defer s.Unlock()

	logger := uc.logger.With().Str("phone", registry.MaskPhone(phoneNumber)).Logger()

	if client := s.Client(); client != nil {
		uc.relay.Unbind(client)
		if err := client.Disconnect(ctx); err != nil {
			logger.Warn().Err(err).Msg("error disconnecting client")
		}
	}
	uc.relay.DropAccount(phoneNumber)
	s.Reset()
	uc.registry.Remove(phoneNumber)
	metrics.DefaultMetrics.UpdateSessions(uc.registry.Len())

	logger.Info().Msg("account disconnected")
	return nil
}

// Status reports the session's connection state and, when authenticated, the
// account identity. A failed identity refresh degrades to state-only rather
// than failing the whole request.
func (uc *SessionUseCase) Status(ctx context.Context, phoneNumber string) *domain.AccountStatus {
	status := &domain.AccountStatus{
		PhoneNumber: phoneNumber,
		State:       domain.StateDisconnected,
	}

	s, ok := uc.registry.Get(phoneNumber)
	if !ok {
		return status
	}

	state, _, identity, client := s.Snapshot()
	status.State = state
	status.IsConnected = state == domain.StateAuthenticated

	if state != domain.StateAuthenticated {
		return status
	}

	if identity == nil && client != nil {
		refreshed, err := client.Me(ctx)
		if err != nil {
			uc.logger.Warn().
				Err(err).
				Str("phone", registry.MaskPhone(phoneNumber)).
				Msg("identity refresh failed, returning state only")
		} else {
			s.SetIdentity(refreshed)
			identity = refreshed
		}
	}
	status.Identity = identity
	return status
}

// ListAccounts returns the identifiers of all managed sessions.
func (uc *SessionUseCase) ListAccounts() []string {
	return uc.registry.List()
}

// ActiveAccountCount returns the number of managed sessions.
func (uc *SessionUseCase) ActiveAccountCount() int {
	return uc.registry.Len()
}

// ensureConnected lazily creates the client handle and connects it. A stored
// credential blob restores authorization directly: the session moves straight
// to the authenticated state without a new code cycle.
func (uc *SessionUseCase) ensureConnected(ctx context.Context, s *registry.Session) error {
	client := s.Client()
	if client == nil {
		created, err := uc.factory(s.AccountID())
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}
		client = created
		s.SetClient(client)
		metrics.DefaultMetrics.UpdateSessions(uc.registry.Len())
	}

	if client.IsConnected() {
		return nil
	}

	s.SetState(domain.StateConnecting)
	if err := client.Connect(ctx); err != nil {
		s.Fail(err, errors.Is(err, domain.ErrUnrecoverable))
		return err
	}

	authorized, err := client.Authorized(ctx)
	if err != nil {
		uc.logger.Warn().
			Err(err).
			Str("phone", registry.MaskPhone(s.AccountID())).
			Msg("authorization status check failed")
		return nil
	}
	if authorized {
		logger := uc.logger.With().Str("phone", registry.MaskPhone(s.AccountID())).Logger()
		identity, err := client.Me(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("restored session but identity fetch failed")
		}
		uc.completeAuthentication(ctx, s, identity, logger)
		logger.Info().Msg("session restored from store")
	}
	return nil
}

// completeAuthentication persists the credential blob, caches the identity,
// binds the event relay and moves the session to the authenticated state.
// Only bookkeeping runs here; the collaborator calls happened before.
func (uc *SessionUseCase) completeAuthentication(ctx context.Context, s *registry.Session, identity *domain.Identity, logger zerolog.Logger) {
	client := s.Client()

	blob, err := client.ExportSession(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to export session for persistence")
	} else if err := uc.store.Put(ctx, s.AccountID(), blob); err != nil {
		logger.Warn().Err(err).Msg("failed to persist session")
	}

	if identity == nil {
		identity, err = client.Me(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("identity fetch failed after sign-in")
		}
	}

	s.SetIdentity(identity)
	s.SetPendingCodeHash("")
	s.SetState(domain.StateAuthenticated)
	uc.relay.Bind(s.AccountID(), client)

	metrics.DefaultMetrics.RecordAuthSuccess()
	logger.Info().Msg("account authenticated")
}
