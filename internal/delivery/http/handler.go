package http

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
	"github.com/dominggo/multi-account-multi-platform/internal/usecase"
	"github.com/dominggo/multi-account-multi-platform/pkg/httputil"
)

// Handler handles account session and messaging HTTP requests
type Handler struct {
	sessions  *usecase.SessionUseCase
	messaging *usecase.MessagingUseCase
	logger    zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(sessions *usecase.SessionUseCase, messaging *usecase.MessagingUseCase, logger zerolog.Logger) *Handler {
	return &Handler{
		sessions:  sessions,
		messaging: messaging,
		logger:    logger.With().Str("handler", "account").Logger(),
	}
}

// RequestCode handles POST /auth/request-code
func (h *Handler) RequestCode(ctx *fasthttp.RequestCtx) {
	var req RequestCodeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}
	if req.PhoneNumber == "" {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "phone_number is required")
		return
	}

	hash, err := h.sessions.RequestCode(ctx, req.PhoneNumber)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteJSON(ctx, fasthttp.StatusOK, RequestCodeResponse{
		Success:       true,
		PhoneNumber:   req.PhoneNumber,
		PhoneCodeHash: hash,
		Message:       "Verification code sent via Telegram",
	})
}

// VerifyCode handles POST /auth/verify-code
func (h *Handler) VerifyCode(ctx *fasthttp.RequestCtx) {
	var req VerifyCodeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}
	if req.PhoneNumber == "" || req.Code == "" || req.PhoneCodeHash == "" {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "phone_number, code and phone_code_hash are required")
		return
	}

	result, err := h.sessions.VerifyCode(ctx, req.PhoneNumber, req.Code, req.PhoneCodeHash)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	if result.RequiresPassword {
		httputil.WriteJSON(ctx, fasthttp.StatusOK, VerifyCodeResponse{
			Success:          false,
			RequiresPassword: true,
			Message:          "Two-factor authentication enabled. Password required.",
		})
		return
	}

	httputil.WriteJSON(ctx, fasthttp.StatusOK, VerifyCodeResponse{
		Success:     true,
		PhoneNumber: req.PhoneNumber,
		UserInfo:    result.Identity,
	})
}

// VerifyPassword handles POST /auth/verify-password
func (h *Handler) VerifyPassword(ctx *fasthttp.RequestCtx) {
	var req VerifyPasswordRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}
	if req.PhoneNumber == "" || req.Password == "" {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "phone_number and password are required")
		return
	}

	identity, err := h.sessions.VerifyPassword(ctx, req.PhoneNumber, req.Password)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteJSON(ctx, fasthttp.StatusOK, VerifyPasswordResponse{
		Success:     true,
		PhoneNumber: req.PhoneNumber,
		UserInfo:    identity,
	})
}

// AccountStatus handles GET /account/status/{phone_number}
func (h *Handler) AccountStatus(ctx *fasthttp.RequestCtx) {
	phoneNumber, ok := ctx.UserValue("phone_number").(string)
	if !ok || phoneNumber == "" {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "phone_number is required")
		return
	}

	status := h.sessions.Status(ctx, phoneNumber)
	httputil.WriteJSON(ctx, fasthttp.StatusOK, status)
}

// SendMessage handles POST /message/send
func (h *Handler) SendMessage(ctx *fasthttp.RequestCtx) {
	var req SendMessageRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}
	if req.PhoneNumber == "" || req.ChatID == "" || req.Message == "" {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "phone_number, chat_id and message are required")
		return
	}

	sent, err := h.messaging.SendMessage(ctx, req.PhoneNumber, req.ChatID, req.Message)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteJSON(ctx, fasthttp.StatusOK, SendMessageResponse{
		Success:   true,
		MessageID: sent.MessageID,
		Date:      sent.Date,
	})
}

// Chats handles GET /chats/{phone_number}
func (h *Handler) Chats(ctx *fasthttp.RequestCtx) {
	phoneNumber, ok := ctx.UserValue("phone_number").(string)
	if !ok || phoneNumber == "" {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "phone_number is required")
		return
	}

	limit := 0
	if raw := string(ctx.QueryArgs().Peek("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.WriteError(ctx, fasthttp.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	chats, err := h.messaging.ListRecentChats(ctx, phoneNumber, limit)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteJSON(ctx, fasthttp.StatusOK, ChatsResponse{
		PhoneNumber: phoneNumber,
		Chats:       chats,
	})
}

// Disconnect handles POST /account/disconnect/{phone_number}
func (h *Handler) Disconnect(ctx *fasthttp.RequestCtx) {
	phoneNumber, ok := ctx.UserValue("phone_number").(string)
	if !ok || phoneNumber == "" {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "phone_number is required")
		return
	}

	if err := h.sessions.Disconnect(ctx, phoneNumber); err != nil {
		h.handleError(ctx, err)
		return
	}

	httputil.WriteJSON(ctx, fasthttp.StatusOK, DisconnectResponse{
		Success:     true,
		PhoneNumber: phoneNumber,
		Message:     "Account disconnected",
	})
}

// handleError maps domain errors to HTTP status codes
func (h *Handler) handleError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, domain.ErrHashMismatch):
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "phone_code_hash does not match the pending code request")
	case errors.Is(err, domain.ErrInvalidCode):
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "Invalid verification code")
	case errors.Is(err, domain.ErrInvalidPassword):
		httputil.WriteError(ctx, fasthttp.StatusUnauthorized, "Invalid password")
	case errors.Is(err, domain.ErrNotAuthenticated):
		httputil.WriteError(ctx, fasthttp.StatusUnauthorized, "account is not authenticated")
	case errors.Is(err, domain.ErrAccountNotFound):
		httputil.WriteError(ctx, fasthttp.StatusNotFound, "account not found")
	case errors.Is(err, domain.ErrInvalidState):
		httputil.WriteError(ctx, fasthttp.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnrecoverable):
		httputil.WriteError(ctx, fasthttp.StatusBadGateway, err.Error())
	default:
		h.logger.Error().Err(err).Msg("unexpected error")
		httputil.WriteError(ctx, fasthttp.StatusInternalServerError, "internal server error")
	}
}
