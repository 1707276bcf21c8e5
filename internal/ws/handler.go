// Package ws streams alert lifecycle events and quality snapshots to
// dashboard clients over WebSocket.
package ws

import (
	"context"
	"net/http"

	"github.com/HerbHall/qualitywatch/internal/auth"
	"github.com/HerbHall/qualitywatch/internal/quality"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Subscriber is the slice of the event bus the handler listens on.
type Subscriber interface {
	Subscribe(topic string, handler plugin.EventHandler) (unsubscribe func())
	SubscribePrefix(prefix string, handler plugin.EventHandler) (unsubscribe func())
}

// Handler provides the WebSocket stream endpoint.
type Handler struct {
	hub    *Hub
	tokens *auth.TokenService
	logger *zap.Logger
	unsubs []func()
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to bus events. A nil
// token service accepts every connection.
func NewHandler(tokens *auth.TokenService, bus Subscriber, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		tokens: tokens,
		logger: logger,
	}
	if bus != nil {
		h.subscribe(bus)
	}
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/stream", h.handleStream)
}

// Close detaches the handler from the bus.
func (h *Handler) Close() {
	for _, unsub := range h.unsubs {
		unsub()
	}
	h.unsubs = nil
}

// Hub exposes the client registry.
func (h *Handler) Hub() *Hub { return h.hub }

// handleStream upgrades the connection and streams events until the client
// goes away.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	label := r.RemoteAddr
	if h.tokens != nil {
		// Browsers cannot set headers on the WebSocket handshake.
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token parameter", http.StatusUnauthorized)
			return
		}
		claims, err := h.tokens.Validate(token)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		label = claims.Operator
	}
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		label:  label,
		send:   make(chan Message, sendBuffer),
		filter: filter,
		logger: h.logger,
	}
	h.hub.Register(client)

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

func (h *Handler) subscribe(bus Subscriber) {
	h.unsubs = append(h.unsubs,
		bus.SubscribePrefix("alerts.", func(_ context.Context, event plugin.Event) {
			alert, ok := event.Payload.(*models.Alert)
			if !ok {
				return
			}
			h.hub.Broadcast(Message{
				Type:      alertMessageType(event.Topic),
				ID:        alert.ID,
				Timestamp: event.Timestamp,
				Data:      alert,
			})
		}),
		bus.Subscribe(quality.TopicSnapshot, func(_ context.Context, event plugin.Event) {
			snap, ok := event.Payload.(models.QualitySnapshot)
			if !ok {
				return
			}
			h.hub.Broadcast(Message{
				Type:      MessageQualitySnapshot,
				Timestamp: event.Timestamp,
				Data:      snap,
			})
		}),
	)
	h.logger.Info("subscribed to alert and quality events for WebSocket broadcasting")
}
