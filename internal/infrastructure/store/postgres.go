package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

// PostgresStore keeps credential blobs in PostgreSQL. Accounts are keyed by
// hashed phone number; the raw number is stored alongside for operators.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to PostgreSQL and migrates the session tables.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&AccountModel{}, &SessionModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session tables: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Put stores the credential blob, creating the account row on first use.
func (s *PostgresStore) Put(ctx context.Context, accountID string, blob []byte) error {
	account, err := s.ensureAccount(ctx, accountID)
	if err != nil {
		return err
	}

	var sess SessionModel
	result := s.db.WithContext(ctx).Where("account_id = ?", account.ID).First(&sess)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		sess = SessionModel{
			AccountID:   account.ID,
			SessionData: blob,
		}
		if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	case result.Error != nil:
		return fmt.Errorf("failed to query session: %w", result.Error)
	default:
		if err := s.db.WithContext(ctx).Model(&sess).Update("session_data", blob).Error; err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
	}
	return nil
}

// Get loads the credential blob for an account.
func (s *PostgresStore) Get(ctx context.Context, accountID string) ([]byte, error) {
	var sess SessionModel
	err := s.db.WithContext(ctx).
		Joins("JOIN accounts ON accounts.id = sessions.account_id").
		Where("accounts.phone_hash = ?", phoneHash(accountID)).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(sess.SessionData) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return sess.SessionData, nil
}

// Delete removes the stored blob; no-op if absent.
func (s *PostgresStore) Delete(ctx context.Context, accountID string) error {
	var account AccountModel
	err := s.db.WithContext(ctx).Where("phone_hash = ?", phoneHash(accountID)).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query account: %w", err)
	}
	if err := s.db.WithContext(ctx).Where("account_id = ?", account.ID).Delete(&SessionModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) ensureAccount(ctx context.Context, accountID string) (*AccountModel, error) {
	var account AccountModel
	err := s.db.WithContext(ctx).Where("phone_hash = ?", phoneHash(accountID)).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = AccountModel{
			PhoneNumber: accountID,
			PhoneHash:   phoneHash(accountID),
		}
		if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		return &account, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return &account, nil
}

func phoneHash(accountID string) string {
	hash := sha256.Sum256([]byte(accountID))
	return fmt.Sprintf("%x", hash[:])
}

// Ensure PostgresStore implements domain.SessionStore interface
var _ domain.SessionStore = (*PostgresStore)(nil)
