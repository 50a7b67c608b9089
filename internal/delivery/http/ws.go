package http

import (
	"errors"
	"sync"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
	"github.com/dominggo/multi-account-multi-platform/internal/registry"
	"github.com/dominggo/multi-account-multi-platform/internal/relay"
	"github.com/dominggo/multi-account-multi-platform/pkg/httputil"
)

// wsSendBuffer bounds how many undelivered events a subscriber may hold.
// A full buffer drops the subscriber rather than blocking the relay.
const wsSendBuffer = 16

// WSHandler streams inbound message events to WebSocket subscribers.
// Subscriber lifetime is independent of the account session: closing the
// socket detaches the subscriber without touching the session.
type WSHandler struct {
	relay    *relay.Relay
	upgrader websocket.FastHTTPUpgrader
	logger   zerolog.Logger
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(rel *relay.Relay, allowedOrigins []string, logger zerolog.Logger) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return &WSHandler{
		relay: rel,
		upgrader: websocket.FastHTTPUpgrader{
			CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
				origin := string(ctx.Request.Header.Peek("Origin"))
				if origin == "" || allowAll {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		logger: logger.With().Str("handler", "ws").Logger(),
	}
}

// Handle handles GET /ws/{phone_number}
func (h *WSHandler) Handle(ctx *fasthttp.RequestCtx) {
	phoneNumber, ok := ctx.UserValue("phone_number").(string)
	if !ok || phoneNumber == "" {
		httputil.WriteError(ctx, fasthttp.StatusBadRequest, "phone_number is required")
		return
	}

	logger := h.logger.With().Str("phone", registry.MaskPhone(phoneNumber)).Logger()

	err := h.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		sink := newWSSink(conn)
		sub := h.relay.Attach(phoneNumber, sink)
		defer func() {
			h.relay.Detach(sub)
			sink.Close()
		}()

		go sink.writeLoop(logger)

		logger.Info().Str("subscription", sub.ID).Msg("websocket subscriber connected")

		// Inbound frames are read only to detect disconnect; their content
		// is ignored.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		logger.Info().Str("subscription", sub.ID).Msg("websocket subscriber disconnected")
	})
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
	}
}

// wsSink adapts a WebSocket connection to the relay sink interface. Deliver
// never blocks: events are queued for the write loop and a full queue is
// reported as a delivery failure.
type wsSink struct {
	conn *websocket.Conn
	out  chan domain.MessageEvent
	done chan struct{}
	once sync.Once
}

func newWSSink(conn *websocket.Conn) *wsSink {
	return &wsSink{
		conn: conn,
		out:  make(chan domain.MessageEvent, wsSendBuffer),
		done: make(chan struct{}),
	}
}

// Deliver implements relay.Sink.
func (s *wsSink) Deliver(event domain.MessageEvent) error {
	select {
	case <-s.done:
		return errors.New("subscriber closed")
	default:
	}

	select {
	case s.out <- event:
		return nil
	default:
		return errors.New("subscriber send buffer full")
	}
}

func (s *wsSink) writeLoop(logger zerolog.Logger) {
	for {
		select {
		case event := <-s.out:
			if err := s.conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("websocket write failed")
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Close implements relay.Sink. Closing the underlying connection also unblocks
// the handler's read loop, so a relay-initiated drop tears the socket down.
func (s *wsSink) Close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
