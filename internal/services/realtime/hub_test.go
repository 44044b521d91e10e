package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"petalboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLister serves snapshots from memory so hub tests run without a database.
type memLister struct {
	mu   sync.Mutex
	data map[string][]models.Document
}

func (l *memLister) List(_ context.Context, collection string) ([]models.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Document(nil), l.data[collection]...), nil
}

func (l *memLister) set(collection string, docs ...models.Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data = map[string][]models.Document{collection: docs}
}

// newTestSession builds a session without a websocket connection. The hub
// only writes to Send, so the pumps are never started in these tests.
func newTestSession(hub *Hub, collection string, buffer int) *Session {
	return &Session{
		SubscriberSession: models.NewSubscriberSession(collection, "test"),
		Send:              make(chan []byte, buffer),
		Hub:               hub,
	}
}

func waitSnapshot(t *testing.T, session *Session) models.Snapshot {
	t.Helper()
	select {
	case payload, ok := <-session.Send:
		require.True(t, ok, "send channel closed early")
		var snap models.Snapshot
		require.NoError(t, json.Unmarshal(payload, &snap))
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return models.Snapshot{}
	}
}

func TestRegisterPrimesWithCurrentSnapshot(t *testing.T) {
	lister := &memLister{}
	lister.set("posts", models.Document{ID: "a", Collection: "posts"})

	hub := NewHub(lister, 8)
	hub.Start()
	defer hub.Shutdown()

	session := newTestSession(hub, "posts", 8)
	hub.register <- session

	snap := waitSnapshot(t, session)
	assert.Equal(t, "posts", snap.Collection)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "a", snap.Documents[0].ID)

	assert.Eventually(t, func() bool { return hub.Subscribers("posts") == 1 },
		time.Second, 10*time.Millisecond)

	hub.unregister <- session
	assert.Eventually(t, func() bool { return hub.Subscribers("posts") == 0 },
		time.Second, 10*time.Millisecond)
}

func TestPublishFansOutToRoom(t *testing.T) {
	lister := &memLister{}
	lister.set("posts", models.Document{ID: "a"})

	hub := NewHub(lister, 8)
	hub.Start()
	defer hub.Shutdown()

	first := newTestSession(hub, "posts", 8)
	second := newTestSession(hub, "posts", 8)
	other := newTestSession(hub, "contacts", 8)
	for _, s := range []*Session{first, second, other} {
		hub.register <- s
		waitSnapshot(t, s) // drain the priming snapshot
	}

	lister.set("posts", models.Document{ID: "a"}, models.Document{ID: "b"})
	hub.Publish("posts")

	for _, s := range []*Session{first, second} {
		snap := waitSnapshot(t, s)
		assert.Len(t, snap.Documents, 2, "both subscribers see the fresh snapshot")
	}

	select {
	case payload := <-other.Send:
		t.Fatalf("contacts subscriber received a posts snapshot: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}

	for _, s := range []*Session{first, second, other} {
		hub.unregister <- s
	}
	assert.Eventually(t, func() bool {
		return hub.Subscribers("posts") == 0 && hub.Subscribers("contacts") == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSlowSubscriberIsEvicted(t *testing.T) {
	lister := &memLister{}
	lister.set("posts", models.Document{ID: "a"})

	hub := NewHub(lister, 1)
	hub.Start()
	defer hub.Shutdown()

	slow := newTestSession(hub, "posts", 1)
	hub.register <- slow
	// The priming snapshot fills the one-slot buffer and is never drained.

	hub.Publish("posts")

	assert.Eventually(t, func() bool { return hub.Subscribers("posts") == 0 },
		2*time.Second, 10*time.Millisecond, "undrained session gets unregistered")
}

func TestUnregisterClosesSend(t *testing.T) {
	lister := &memLister{}
	lister.set("posts")

	hub := NewHub(lister, 8)
	hub.Start()
	defer hub.Shutdown()

	session := newTestSession(hub, "posts", 8)
	hub.register <- session
	waitSnapshot(t, session)

	hub.unregister <- session

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-session.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.Subscribers("posts"))
}

func TestPublishToEmptyRoomIsCheap(t *testing.T) {
	hub := NewHub(&memLister{}, 8)
	hub.Start()
	defer hub.Shutdown()

	// No subscribers: publishes must neither block nor call the lister in a
	// way that matters. Flooding past the queue capacity exercises the
	// non-blocking drop path.
	for i := 0; i < 1000; i++ {
		hub.Publish("posts")
	}
}
