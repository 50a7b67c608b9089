package domain

import "time"

// ConnectionState represents the lifecycle state of a managed account session.
type ConnectionState string

const (
	StateDisconnected     ConnectionState = "disconnected"
	StateConnecting       ConnectionState = "connecting"
	StateAwaitingCode     ConnectionState = "awaiting_code"
	StateAwaitingPassword ConnectionState = "awaiting_password"
	StateAuthenticated    ConnectionState = "authenticated"
	StateFailed           ConnectionState = "failed"
)

// Identity holds the Telegram user identity of an authenticated account.
type Identity struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// SentMessage describes a message accepted by Telegram.
type SentMessage struct {
	MessageID int       `json:"message_id"`
	Date      time.Time `json:"date"`
}

// ChatSummary is a dialog with a preview of its latest activity.
// Ordering is whatever Telegram returns (most-recently-active first);
// this service does not re-sort.
type ChatSummary struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	UnreadCount int        `json:"unread_count"`
	LastMessage string     `json:"last_message,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

// MessageEvent is a normalized inbound message delivered to event subscribers.
type MessageEvent struct {
	Type     string    `json:"type"`
	ChatID   int64     `json:"chat_id"`
	SenderID int64     `json:"sender_id"`
	Message  string    `json:"message"`
	Date     time.Time `json:"date"`
}

// EventTypeNewMessage is the Type value for inbound message events.
const EventTypeNewMessage = "new_message"

// AccountStatus is the read-only view of an account session.
type AccountStatus struct {
	PhoneNumber string          `json:"phone_number"`
	State       ConnectionState `json:"state"`
	IsConnected bool            `json:"is_connected"`
	Identity    *Identity       `json:"user_info,omitempty"`
}

// VerifyCodeResult is the outcome of a code verification attempt.
// RequiresPassword is set when the account has two-factor authentication
// enabled and a password step must follow.
type VerifyCodeResult struct {
	Authenticated    bool
	RequiresPassword bool
	Identity         *Identity
}
