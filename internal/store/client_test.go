package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"petalboard/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketURL(t *testing.T) {
	cases := []struct {
		base       string
		collection string
		want       string
	}{
		{"http://localhost:8080", "posts", "ws://localhost:8080/ws/collections/posts"},
		{"https://board.example.com", "contacts", "wss://board.example.com/ws/collections/contacts"},
		{"http://localhost:8080", "with space", "ws://localhost:8080/ws/collections/with%20space"},
	}

	for _, tc := range cases {
		got, err := websocketURL(tc.base, tc.collection)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestWriteErrorVanished(t *testing.T) {
	vanished := &WriteError{Op: "update", Collection: "posts", ID: "abc", Err: ErrVanished}
	assert.True(t, vanished.Vanished())
	assert.True(t, errors.Is(vanished, ErrVanished))

	plain := &WriteError{Op: "create", Collection: "posts", Err: errors.New("boom")}
	assert.False(t, plain.Vanished())
}

func TestCollectionWrites(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/collections/posts/documents", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))

		var create models.DocumentCreate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&create))
		assert.Equal(t, "hi", create.Fields[models.FieldMessage])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Document{ID: "doc-1", Collection: "posts", Fields: create.Fields})
	})
	mux.HandleFunc("PATCH /api/collections/posts/documents/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("DELETE /api/collections/posts/documents/doc-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL + "/") // trailing slash is trimmed
	client.SetToken("session-token")
	posts := client.Collection("posts")
	ctx := context.Background()

	id, err := posts.Create(ctx, map[string]any{models.FieldMessage: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	// Updating a deleted document surfaces as the vanished sentinel.
	err = posts.Update(ctx, "gone", map[string]any{models.FieldMessage: "edit"})
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.True(t, writeErr.Vanished())

	require.NoError(t, posts.Delete(ctx, "doc-1"))
}

func TestServerErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database is resting", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Collection("posts").Create(context.Background(), map[string]any{})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "database is resting")
}

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	more := make(chan models.Snapshot, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/ws/collections/"))

		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for snap := range more {
			payload, err := json.Marshal(snap)
			require.NoError(t, err)
			if conn.WriteMessage(websocket.TextMessage, payload) != nil {
				return
			}
		}
	}))
	defer srv.Close()

	more <- models.Snapshot{Collection: "posts", Documents: []models.Document{{ID: "a"}}}
	more <- models.Snapshot{Collection: "posts"} // nil documents arrive as an empty slice

	sub, err := NewClient(srv.URL).Collection("posts").Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	first := receiveSnapshot(t, sub)
	require.Len(t, first, 1)
	assert.Equal(t, "a", first[0].ID)

	second := receiveSnapshot(t, sub)
	assert.NotNil(t, second)
	assert.Empty(t, second)

	// A deliberate Close ends the stream without an error.
	sub.Close()
	close(more)
	for range sub.Snapshots() {
	}
	assert.NoError(t, sub.Err())
}

func TestSubscribeStreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		// Drop the connection without a close handshake.
		conn.UnderlyingConn().Close()
	}))
	defer srv.Close()

	sub, err := NewClient(srv.URL).Collection("posts").Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	for range sub.Snapshots() {
	}
	assert.Error(t, sub.Err())
}

func receiveSnapshot(t *testing.T, sub *Subscription) []models.Document {
	t.Helper()
	select {
	case docs, ok := <-sub.Snapshots():
		require.True(t, ok, "stream ended early: %v", sub.Err())
		return docs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}
