package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/jobboard/internal/events"
	"github.com/yourorg/jobboard/internal/security"
)

const (
	eventWriteTimeout = 10 * time.Second
	eventPingInterval = 30 * time.Second
)

// EventsHandler handles WebSocket connections streaming stage transitions
// to hr dashboards as they happen.
type EventsHandler struct {
	broker         *events.Broker
	authz          *security.AuthorizationService
	logger         *slog.Logger
	allowedOrigins []string
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(
	broker *events.Broker,
	authz *security.AuthorizationService,
	logger *slog.Logger,
	allowedOrigins []string,
) *EventsHandler {
	return &EventsHandler{
		broker:         broker,
		authz:          authz,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *EventsHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := h.authz.RequireRole(user, security.OpStreamEvents); err != nil {
		writeError(w, h.logger, err)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	ch, cancel := h.broker.Subscribe(64)
	defer cancel()

	h.logger.Info("stage event stream opened", slog.String("user_id", user.ID))

	// Drain client frames so close messages are processed; the feed is
	// one-directional.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ping := time.NewTicker(eventPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			ws.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := ws.WriteJSON(ev); err != nil {
				h.logger.Debug("stage event stream ended",
					slog.String("user_id", user.ID),
					slog.String("reason", err.Error()),
				)
				return
			}
		case <-ping.C:
			ws.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
