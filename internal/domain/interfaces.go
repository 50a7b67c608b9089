package domain

import "context"

// TelegramClient defines the interface to the MTProto collaborator for a
// single account. Implementations own the wire protocol; this service only
// drives connect/authenticate/disconnect transitions and per-account
// operations through it.
type TelegramClient interface {
	// Connect establishes the MTProto connection. Idempotent: connecting an
	// already-connected client is a no-op.
	Connect(ctx context.Context) error

	// SendCode requests a login code for the phone number and returns the
	// phone code hash that must be echoed back to SignIn.
	SendCode(ctx context.Context, phoneNumber string) (string, error)

	// SignIn completes code verification. Returns ErrPasswordRequired when
	// the account has 2FA enabled and ErrInvalidCode when Telegram rejects
	// the code.
	SignIn(ctx context.Context, phoneNumber, code, codeHash string) (*Identity, error)

	// SignInPassword completes the 2FA password step. Returns
	// ErrInvalidPassword when Telegram rejects the password.
	SignInPassword(ctx context.Context, password string) (*Identity, error)

	// Authorized reports whether the client holds a valid authorization,
	// e.g. restored from a stored session.
	Authorized(ctx context.Context) (bool, error)

	// Me fetches the identity of the authenticated account.
	Me(ctx context.Context) (*Identity, error)

	// Dialogs fetches up to limit recent dialogs in Telegram's order.
	Dialogs(ctx context.Context, limit int) ([]ChatSummary, error)

	// SendMessage sends a text message to a chat. chatID is either a
	// @username or a numeric peer ID known from the dialog list.
	SendMessage(ctx context.Context, chatID, text string) (*SentMessage, error)

	// OnNewMessage registers the inbound-message callback. Registering again
	// replaces, never stacks, the previous callback; nil unregisters.
	OnNewMessage(handler func(MessageEvent))

	// ExportSession returns the opaque credential blob for persistence.
	ExportSession(ctx context.Context) ([]byte, error)

	// IsConnected reports whether the client is connected.
	IsConnected() bool

	// Disconnect closes the connection. Safe to call repeatedly.
	Disconnect(ctx context.Context) error
}

// ClientFactory creates a protocol client for a phone number.
type ClientFactory func(phoneNumber string) (TelegramClient, error)

// SessionStore is a durable mapping from account identifier to an opaque
// credential blob.
type SessionStore interface {
	// Put stores the credential blob for an account, replacing any previous one.
	Put(ctx context.Context, accountID string, blob []byte) error

	// Get loads the credential blob. Returns ErrSessionNotFound when absent.
	Get(ctx context.Context, accountID string) ([]byte, error)

	// Delete removes the stored blob; no-op if absent.
	Delete(ctx context.Context, accountID string) error
}
