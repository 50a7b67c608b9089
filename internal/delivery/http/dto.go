package http

import (
	"time"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

// RequestCodeRequest is the body of POST /auth/request-code
type RequestCodeRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// RequestCodeResponse confirms that a login code was sent
type RequestCodeResponse struct {
	Success       bool   `json:"success"`
	PhoneNumber   string `json:"phone_number"`
	PhoneCodeHash string `json:"phone_code_hash"`
	Message       string `json:"message"`
}

// VerifyCodeRequest is the body of POST /auth/verify-code. PhoneCodeHash must
// echo the hash returned by the code request.
type VerifyCodeRequest struct {
	PhoneNumber   string `json:"phone_number"`
	Code          string `json:"code"`
	PhoneCodeHash string `json:"phone_code_hash"`
}

// VerifyCodeResponse reports the verification outcome. RequiresPassword is
// set when the account has two-factor authentication enabled.
type VerifyCodeResponse struct {
	Success          bool             `json:"success"`
	PhoneNumber      string           `json:"phone_number,omitempty"`
	RequiresPassword bool             `json:"requires_password"`
	UserInfo         *domain.Identity `json:"user_info,omitempty"`
	Message          string           `json:"message,omitempty"`
}

// VerifyPasswordRequest is the body of POST /auth/verify-password
type VerifyPasswordRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// VerifyPasswordResponse reports a completed two-factor sign-in
type VerifyPasswordResponse struct {
	Success     bool             `json:"success"`
	PhoneNumber string           `json:"phone_number"`
	UserInfo    *domain.Identity `json:"user_info,omitempty"`
}

// SendMessageRequest is the body of POST /message/send. ChatID accepts a
// numeric peer ID or an @username.
type SendMessageRequest struct {
	PhoneNumber string `json:"phone_number"`
	ChatID      string `json:"chat_id"`
	Message     string `json:"message"`
}

// SendMessageResponse confirms a message accepted by Telegram
type SendMessageResponse struct {
	Success   bool      `json:"success"`
	MessageID int       `json:"message_id"`
	Date      time.Time `json:"date"`
}

// ChatsResponse is the body of GET /chats/{phone_number}
type ChatsResponse struct {
	PhoneNumber string               `json:"phone_number"`
	Chats       []domain.ChatSummary `json:"chats"`
}

// DisconnectResponse confirms an account disconnect
type DisconnectResponse struct {
	Success     bool   `json:"success"`
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}
