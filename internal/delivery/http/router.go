package http

import (
	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
)

// Router registers account session and messaging HTTP routes
type Router struct {
	handler *Handler
	ws      *WSHandler
	health  *HealthHandler
	logger  zerolog.Logger
}

// NewRouter creates a new router
func NewRouter(handler *Handler, ws *WSHandler, health *HealthHandler, logger zerolog.Logger) *Router {
	return &Router{
		handler: handler,
		ws:      ws,
		health:  health,
		logger:  logger,
	}
}

// RegisterRoutes registers all routes on the router
func (r *Router) RegisterRoutes(rt *router.Router) {
	rt.GET("/", r.health.Root)
	rt.GET("/health", r.health.Health)

	rt.POST("/auth/request-code", r.handler.RequestCode)
	rt.POST("/auth/verify-code", r.handler.VerifyCode)
	rt.POST("/auth/verify-password", r.handler.VerifyPassword)

	rt.GET("/account/status/{phone_number}", r.handler.AccountStatus)
	rt.POST("/account/disconnect/{phone_number}", r.handler.Disconnect)

	rt.POST("/message/send", r.handler.SendMessage)
	rt.GET("/chats/{phone_number}", r.handler.Chats)

	rt.GET("/ws/{phone_number}", r.ws.Handle)

	r.logger.Debug().Msg("HTTP routes registered")
}
