package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

// FileStore keeps one credential blob per account as a file under the session
// directory. File names are derived from the hashed account ID so phone
// numbers never appear on disk.
type FileStore struct {
	dir string
}

// NewFileStore creates the session directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Put stores the credential blob with restricted permissions.
func (s *FileStore) Put(ctx context.Context, accountID string, blob []byte) error {
	if err := os.WriteFile(s.path(accountID), blob, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Get loads the credential blob for an account.
func (s *FileStore) Get(ctx context.Context, accountID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(accountID))
	if os.IsNotExist(err) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return data, nil
}

// Delete removes the stored blob; no-op if absent.
func (s *FileStore) Delete(ctx context.Context, accountID string) error {
	if err := os.Remove(s.path(accountID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

func (s *FileStore) path(accountID string) string {
	hash := sha256.Sum256([]byte(accountID))
	return filepath.Join(s.dir, fmt.Sprintf("session_%x.json", hash[:8]))
}

// Ensure FileStore implements domain.SessionStore interface
var _ domain.SessionStore = (*FileStore)(nil)
