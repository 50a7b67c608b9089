package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry is the in-memory mapping from account identifier to its live
// session. All map mutation happens under the registry lock, which is
// separate from the per-session locks so unrelated accounts never serialize
// behind each other.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   zerolog.Logger
}

// New creates an empty registry.
func New(logger zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger.With().Str("component", "registry").Logger(),
	}
}

// Resolve returns the session for accountID, creating it in the disconnected
// state on first reference. Creation is linearized per account: concurrent
// first-time calls observe exactly one session.
func (r *Registry) Resolve(accountID string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[accountID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[accountID]; ok {
		return s
	}
	s = newSession(accountID)
	r.sessions[accountID] = s
	r.logger.Debug().Str("phone", MaskPhone(accountID)).Msg("session created")
	return s
}

// Get returns the session for accountID without creating one.
func (r *Registry) Get(accountID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[accountID]
	return s, ok
}

// Remove deletes the session entry; no-op if absent. It does not close the
// underlying client, callers must disconnect first.
func (r *Registry) Remove(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, accountID)
}

// List returns the identifiers of all managed sessions.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of managed sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown disconnects every live session, logging per-account failures
// without failing the sequence. Each teardown holds the session's operation
// lock, so an in-flight verify or disconnect completes before its session is
// torn down. Returns the number of sessions that disconnected cleanly.
func (r *Registry) Shutdown(ctx context.Context) int {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	disconnected := 0
	for _, s := range sessions {
		s.Lock()
		client := s.Client()
		s.Reset()
		if client == nil {
			s.Unlock()
			disconnected++
			continue
		}
		disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := client.Disconnect(disconnectCtx)
		cancel()
		s.Unlock()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("phone", MaskPhone(s.AccountID())).
				Msg("failed to disconnect account during shutdown")
			continue
		}
		disconnected++
	}

	r.logger.Info().
		Int("disconnected", disconnected).
		Int("total", len(sessions)).
		Msg("registry shutdown completed")
	return disconnected
}

// MaskPhone masks a phone number for logging, keeping the first two and last
// two digits.
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return "***"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}
