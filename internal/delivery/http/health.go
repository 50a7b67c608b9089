package http

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/dominggo/multi-account-multi-platform/internal/usecase"
	"github.com/dominggo/multi-account-multi-platform/pkg/httputil"
)

const serviceVersion = "1.0.0"

// RootResponse is the JSON body for the service info endpoint
type RootResponse struct {
	Service        string `json:"service"`
	Status         string `json:"status"`
	Version        string `json:"version"`
	ActiveAccounts int    `json:"active_accounts"`
}

// HealthResponse is the JSON body for the health check endpoint
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	ActiveAccounts int       `json:"active_accounts"`
}

// HealthHandler handles service info and health check requests
type HealthHandler struct {
	serviceName string
	sessions    *usecase.SessionUseCase
	logger      zerolog.Logger
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(serviceName string, sessions *usecase.SessionUseCase, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		sessions:    sessions,
		logger:      logger,
	}
}

// Root handles GET / with service info and the managed account count
func (h *HealthHandler) Root(ctx *fasthttp.RequestCtx) {
	httputil.WriteJSON(ctx, fasthttp.StatusOK, RootResponse{
		Service:        h.serviceName,
		Status:         "running",
		Version:        serviceVersion,
		ActiveAccounts: h.sessions.ActiveAccountCount(),
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(ctx *fasthttp.RequestCtx) {
	h.logger.Debug().
		Int("active_accounts", h.sessions.ActiveAccountCount()).
		Msg("Health check completed")

	httputil.WriteJSON(ctx, fasthttp.StatusOK, HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now().UTC(),
		ActiveAccounts: h.sessions.ActiveAccountCount(),
	})
}
