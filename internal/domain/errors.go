package domain

import "errors"

var (
	// ErrInvalidState is returned when an operation is not valid for the
	// session's current connection state.
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrHashMismatch is returned when the presented phone code hash does not
	// match the most recently issued one.
	ErrHashMismatch = errors.New("phone code hash mismatch")

	// ErrInvalidCode is returned when Telegram rejects the verification code.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrInvalidPassword is returned when Telegram rejects the 2FA password.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrPasswordRequired is reported by the collaborator when the account has
	// two-factor authentication enabled.
	ErrPasswordRequired = errors.New("two-factor password required")

	// ErrNotAuthenticated is returned when an operation requires an
	// authenticated session.
	ErrNotAuthenticated = errors.New("account not authenticated")

	// ErrNotConnected is returned when operation requires a live connection.
	ErrNotConnected = errors.New("not connected to Telegram")

	// ErrAccountNotFound is returned when no session exists for the account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrSessionNotFound is returned by a SessionStore when no credential
	// blob is stored for the account.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTransport is returned when the collaborator reports a connectivity
	// failure; the caller may retry.
	ErrTransport = errors.New("transport error")

	// ErrUnrecoverable is returned when Telegram reports a permanent failure,
	// e.g. a banned or deleted account.
	ErrUnrecoverable = errors.New("unrecoverable protocol error")
)
