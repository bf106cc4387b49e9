package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/hydraping/hydraping/internal/reminder"
	"github.com/hydraping/hydraping/internal/settings"
	"github.com/hydraping/hydraping/internal/tracker"
	"github.com/hydraping/hydraping/pkg/hydration"
	"github.com/hydraping/hydraping/pkg/plugin"
	"go.uber.org/zap"
)

// Handler provides the WebSocket endpoint that streams hydration
// events to the overlay and any attached dashboards.
type Handler struct {
	hub    *Hub
	bus    plugin.EventBus
	logger *zap.Logger
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to bus events.
func NewHandler(bus plugin.EventBus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		bus:    bus,
		logger: logger,
	}
	h.subscribeToEvents()
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/events", h.handleEventStream)
}

// handleEventStream upgrades the connection and streams bus events.
// The daemon binds to loopback only, so there is no token handshake.
func (h *Handler) handleEventStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		addr:   r.RemoteAddr,
		send:   make(chan Message, 256),
		logger: h.logger,
	}

	h.hub.Register(client)

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// subscribeToEvents forwards hydration bus events to all connected
// WebSocket clients.
func (h *Handler) subscribeToEvents() {
	if h.bus == nil {
		return
	}

	h.bus.Subscribe(tracker.TopicIntakeLogged, func(_ context.Context, event plugin.Event) {
		ev, ok := event.Payload.(*hydration.IntakeEvent)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageIntakeLogged,
			Timestamp: event.Timestamp,
			Data:      IntakeLoggedData{Event: *ev},
		})
	})

	h.bus.Subscribe(tracker.TopicIntakeDeleted, func(_ context.Context, event plugin.Event) {
		id, ok := event.Payload.(string)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageIntakeDeleted,
			Timestamp: event.Timestamp,
			Data:      IntakeDeletedData{ID: id},
		})
	})

	h.bus.Subscribe(tracker.TopicDayReset, func(_ context.Context, event plugin.Event) {
		removed, ok := event.Payload.(int64)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageDayReset,
			Timestamp: event.Timestamp,
			Data:      DayResetData{Removed: removed},
		})
	})

	h.bus.Subscribe(reminder.TopicReminderDue, func(_ context.Context, event plugin.Event) {
		due, ok := event.Payload.(reminder.Due)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageReminderDue,
			Timestamp: event.Timestamp,
			Data: ReminderDueData{
				At:           due.At,
				ChimeEnabled: due.ChimeEnabled,
			},
		})
	})

	h.bus.Subscribe(reminder.TopicReminderSnoozed, func(_ context.Context, event plugin.Event) {
		at, ok := event.Payload.(time.Time)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageReminderSnoozed,
			Timestamp: event.Timestamp,
			Data:      ReminderSnoozedData{NextAt: at},
		})
	})

	h.bus.Subscribe(settings.TopicSettingsUpdated, func(_ context.Context, event plugin.Event) {
		s, ok := event.Payload.(hydration.Settings)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageSettingsUpdated,
			Timestamp: event.Timestamp,
			Data:      SettingsUpdatedData{Settings: s},
		})
	})

	h.logger.Info("subscribed to hydration events for WebSocket broadcasting")
}
