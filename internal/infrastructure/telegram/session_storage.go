package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gotd/td/session"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

// sessionStorage adapts a domain.SessionStore to the gotd session.Storage
// contract for one account. Every blob the gotd client stores is written
// through to the durable store, so an authenticated session survives process
// restarts; a copy is kept in memory for ExportSession.
type sessionStorage struct {
	store     domain.SessionStore
	accountID string

	mu   sync.RWMutex
	data []byte
}

func newSessionStorage(store domain.SessionStore, accountID string) *sessionStorage {
	return &sessionStorage{
		store:     store,
		accountID: accountID,
	}
}

// LoadSession loads the session blob from the durable store.
func (s *sessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	blob, err := s.store.Get(ctx, s.accountID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(blob) == 0 {
		return nil, session.ErrNotFound
	}

	s.mu.Lock()
	s.data = blob
	s.mu.Unlock()
	return blob, nil
}

// StoreSession writes the session blob through to the durable store.
func (s *sessionStorage) StoreSession(ctx context.Context, data []byte) error {
	s.mu.Lock()
	s.data = append([]byte(nil), data...)
	s.mu.Unlock()

	if err := s.store.Put(ctx, s.accountID, data); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Bytes returns the most recent session blob, falling back to the store when
// nothing has been cached yet.
func (s *sessionStorage) Bytes(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	if len(data) > 0 {
		return data, nil
	}
	return s.LoadSession(ctx)
}

// Ensure sessionStorage implements session.Storage interface
var _ session.Storage = (*sessionStorage)(nil)
