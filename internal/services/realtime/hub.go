package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"petalboard/internal/middleware"
	"petalboard/internal/models"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

/*
LEARNING: SNAPSHOT BROADCAST HUB

This implements the push side of the store's subscription contract: every
subscriber of a collection receives the FULL collection snapshot after every
committed write to it, including writes made by the subscriber itself.

Key Concepts:
1. **sync.RWMutex**: Read-write lock for concurrent safe map access
2. **Rooms**: One set of sessions per collection
3. **Broadcast Pattern**: Send the snapshot to all sessions in a room
4. **Cleanup**: Remove dead connections automatically

Full-snapshot (not diff) delivery keeps the client mirror trivially
consistent: the Nth push IS the collection state, no merging required.
*/

// SnapshotLister is what the hub needs from the document repository.
type SnapshotLister interface {
	List(ctx context.Context, collection string) ([]models.Document, error)
}

// Hub manages all active collection subscriptions.
type Hub struct {
	rooms      map[string]map[*Session]bool // collection -> set of sessions
	register   chan *Session
	unregister chan *Session
	publish    chan string // collection names with fresh writes
	mu         sync.RWMutex

	lister SnapshotLister

	sendBuffer int

	done chan struct{}
}

// Session represents an active WebSocket subscription.
type Session struct {
	*models.SubscriberSession
	Conn *websocket.Conn
	Send chan []byte // Buffered channel for outbound snapshots
	Hub  *Hub
}

// NewHub creates a new snapshot hub. sendBuffer sizes each session's
// outbound queue; a session that cannot drain it is considered dead.
func NewHub(lister SnapshotLister, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		rooms:      make(map[string]map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		publish:    make(chan string, 256),
		lister:     lister,
		sendBuffer: sendBuffer,
		done:       make(chan struct{}),
	}
}

// Start begins the hub event loop.
// Learning: One goroutine owns the room maps; register/unregister/publish
// all funnel through it, so the broadcast order matches the publish order.
func (h *Hub) Start() {
	log.Println("🔄 Starting snapshot hub...")

	go func() {
		for {
			select {
			case <-h.done:
				log.Println("Snapshot hub shutting down...")
				return

			case session := <-h.register:
				h.handleRegister(session)

			case session := <-h.unregister:
				h.handleUnregister(session)

			case collection := <-h.publish:
				h.handlePublish(collection)
			}
		}
	}()

	go h.cleanupLoop()

	log.Println("✓ Snapshot hub started")
}

// Publish notifies the hub that a collection changed. Called by the API
// layer after every committed create/update/delete. Non-blocking; if the
// publish queue is full the next queued publish re-reads the same state, so
// nothing is lost.
func (h *Hub) Publish(collection string) {
	select {
	case h.publish <- collection:
	default:
	}
}

// handleRegister adds a session to a collection room and primes it with the
// current snapshot so a new subscriber does not wait for the next write.
func (h *Hub) handleRegister(session *Session) {
	h.mu.Lock()
	if h.rooms[session.Collection] == nil {
		h.rooms[session.Collection] = make(map[*Session]bool)
	}
	h.rooms[session.Collection][session] = true
	total := len(h.rooms[session.Collection])
	h.mu.Unlock()

	log.Printf("  Session %s subscribed to %q (total: %d subscribers)",
		session.ID, session.Collection, total)

	if payload, err := h.snapshot(session.Collection); err == nil {
		select {
		case session.Send <- payload:
		default:
		}
	} else {
		log.Printf("⚠️  Failed to prime session %s: %v", session.ID, err)
	}
}

// handleUnregister removes a session from its room.
func (h *Hub) handleUnregister(session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessions, ok := h.rooms[session.Collection]; ok {
		if _, ok := sessions[session]; ok {
			delete(sessions, session)
			close(session.Send)

			if len(sessions) == 0 {
				delete(h.rooms, session.Collection)
			}

			log.Printf("  Session %s left %q (remaining: %d subscribers)",
				session.ID, session.Collection, len(sessions))
		}
	}
}

// handlePublish re-reads the collection and fans the snapshot out to every
// subscriber of it.
func (h *Hub) handlePublish(collection string) {
	h.mu.RLock()
	empty := len(h.rooms[collection]) == 0
	h.mu.RUnlock()
	if empty {
		return
	}

	payload, err := h.snapshot(collection)
	if err != nil {
		log.Printf("⚠️  Failed to build snapshot for %q: %v", collection, err)
		return
	}

	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.rooms[collection]))
	for session := range h.rooms[collection] {
		sessions = append(sessions, session)
	}
	h.mu.RUnlock()

	for _, session := range sessions {
		select {
		case session.Send <- payload:
			// Snapshot queued successfully
		default:
			// Buffer full - connection is slow/dead
			log.Printf("⚠️  Session %s buffer full, closing connection", session.ID)
			go func(s *Session) { h.unregister <- s }(session)
		}
	}
}

// snapshot reads the collection and marshals the wire form.
func (h *Hub) snapshot(collection string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	docs, err := h.lister.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}

	return json.Marshal(models.Snapshot{
		Collection: collection,
		Documents:  docs,
	})
}

// Subscribers returns the number of live sessions for a collection.
func (h *Hub) Subscribers(collection string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[collection])
}

// cleanupLoop periodically removes inactive sessions
func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanup()
		}
	}
}

// cleanup removes stale sessions
func (h *Hub) cleanup() {
	h.mu.RLock()
	var stale []*Session
	now := time.Now()
	timeout := 5 * time.Minute
	for _, sessions := range h.rooms {
		for session := range sessions {
			if now.Sub(session.LastActiveAt) > timeout {
				stale = append(stale, session)
			}
		}
	}
	h.mu.RUnlock()

	for _, session := range stale {
		log.Printf("  Cleaning up inactive session %s", session.ID)
		h.unregister <- session
	}
}

// Shutdown gracefully closes all subscriptions.
func (h *Hub) Shutdown() {
	log.Println("🛑 Shutting down snapshot hub...")

	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sessions := range h.rooms {
		for session := range sessions {
			close(session.Send)
			session.Conn.Close()
		}
	}

	h.rooms = make(map[string]map[*Session]bool)
	log.Println("✓ Snapshot hub shutdown complete")
}

// Session methods

// ReadPump reads control messages from the WebSocket connection. Subscribers
// never send application data; the read loop exists to notice disconnects
// and answer pings.
func (s *Session) ReadPump(ctx context.Context) {
	defer func() {
		s.Hub.unregister <- s
		s.Conn.Close()
	}()

	s.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		s.LastActiveAt = time.Now()
		return nil
	})

	for {
		_, _, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
				middleware.AddSpanError(ctx, err)
			}
			break
		}
		s.LastActiveAt = time.Now()
	}
}

// WritePump writes snapshots to the WebSocket connection.
// Learning: Separate goroutine for writing prevents blocking on slow clients.
// Queued snapshots for the same collection supersede each other, so only the
// newest one is written when the queue has backed up.
func (s *Session) WritePump(ctx context.Context) {
	ticker := time.NewTicker(54 * time.Second) // Ping interval
	defer func() {
		ticker.Stop()
		s.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.Send:
			s.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed
				s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Collapse the backlog: every queued payload is a full snapshot
			// of the same collection, so only the last one matters.
			n := len(s.Send)
			for i := 0; i < n; i++ {
				message = <-s.Send
			}

			_, span := middleware.StartSpan(ctx, "WebSocket.PushSnapshot",
				attribute.String("session.id", s.ID),
				attribute.String("collection", s.Collection),
				attribute.Int("payload.size", len(message)),
			)
			err := s.Conn.WriteMessage(websocket.TextMessage, message)
			span.End()
			if err != nil {
				return
			}

		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
