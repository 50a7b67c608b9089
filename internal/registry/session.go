package registry

import (
	"sync"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

// Session is the in-memory record for one managed account. The client handle
// is created lazily and exclusively owned by the session until disconnect.
//
// Two locks guard a session. The operation lock (Lock/Unlock) serializes
// mutating operations end to end, including calls into the collaborator, so a
// disconnect can never interleave with a verify step. The state lock guards
// the bookkeeping fields and is never held across a collaborator call, so
// read-only operations observe a consistent snapshot without waiting for
// in-flight network activity.
type Session struct {
	accountID string

	opMu sync.Mutex

	mu              sync.RWMutex
	client          domain.TelegramClient
	state           domain.ConnectionState
	pendingCodeHash string
	identity        *domain.Identity
	lastErr         error
}

func newSession(accountID string) *Session {
	return &Session{
		accountID: accountID,
		state:     domain.StateDisconnected,
	}
}

// AccountID returns the external identifier (phone number) of this session.
func (s *Session) AccountID() string {
	return s.accountID
}

// Lock acquires the per-session operation lock. Mutating operations
// (request-code, verify-code, verify-password, disconnect) must hold it for
// their full duration.
func (s *Session) Lock() {
	s.opMu.Lock()
}

// Unlock releases the per-session operation lock.
func (s *Session) Unlock() {
	s.opMu.Unlock()
}

// Snapshot returns a consistent view of the session's state, pending code
// hash, cached identity and client handle.
func (s *Session) Snapshot() (domain.ConnectionState, string, *domain.Identity, domain.TelegramClient) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.pendingCodeHash, s.identity, s.client
}

// State returns the current connection state.
func (s *Session) State() domain.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Client returns the owned client handle, nil while disconnected.
func (s *Session) Client() domain.TelegramClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Identity returns the cached identity, nil unless authenticated.
func (s *Session) Identity() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// LastError returns the most recent failure detail.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// SetClient attaches the lazily created client handle.
func (s *Session) SetClient(client domain.TelegramClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

// SetState transitions the connection state and clears the failure detail.
func (s *Session) SetState(state domain.ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.lastErr = nil
}

// SetPendingCodeHash stores the challenge token of the active code request.
func (s *Session) SetPendingCodeHash(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingCodeHash = hash
}

// SetIdentity caches the identity fetched at authentication time.
func (s *Session) SetIdentity(identity *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
}

// Fail records a failure and optionally moves the session to the failed
// state. Recoverable failures keep the current state so the caller can retry.
func (s *Session) Fail(err error, unrecoverable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if unrecoverable {
		s.state = domain.StateFailed
	}
}

// Reset returns the session to the disconnected state, dropping the client
// handle, pending challenge and cached identity.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	s.state = domain.StateDisconnected
	s.pendingCodeHash = ""
	s.identity = nil
	s.lastErr = nil
}
