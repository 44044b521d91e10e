package realtime

import (
	"log"
	"net/http"

	"petalboard/internal/middleware"
	"petalboard/internal/models"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: In production, validate origin properly
		return true
	},
}

// WebSocketHandler upgrades subscription requests and hands sessions to the hub.
type WebSocketHandler struct {
	hub *Hub
}

func NewWebSocketHandler(hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleCollectionSubscription handles a WebSocket subscription to one
// collection. The session receives the current snapshot immediately and a
// fresh one after every committed write until the client disconnects.
func (h *WebSocketHandler) HandleCollectionSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	collection := vars["collection"]

	ctx, span := middleware.StartSpan(ctx, "WebSocket.Subscribe",
		attribute.String("collection", collection),
	)
	defer span.End()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		middleware.AddSpanError(ctx, err)
		return
	}

	session := &Session{
		SubscriberSession: models.NewSubscriberSession(collection, r.RemoteAddr),
		Conn:              conn,
		Send:              make(chan []byte, h.hub.sendBuffer),
		Hub:               h.hub,
	}

	h.hub.register <- session

	// Learning: Each session gets its own reader and writer goroutines so a
	// slow client never blocks the hub's event loop.
	go session.WritePump(ctx)
	go session.ReadPump(ctx)
}
