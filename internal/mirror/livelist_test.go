package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"petalboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSub feeds snapshots from the test instead of a WebSocket.
type fakeSub struct {
	ch chan []models.Document

	mu       sync.Mutex
	err      error
	closed   bool
	closedCh chan struct{}
}

func newFakeSub() *fakeSub {
	return &fakeSub{
		ch:       make(chan []models.Document, 8),
		closedCh: make(chan struct{}),
	}
}

func (f *fakeSub) Snapshots() <-chan []models.Document { return f.ch }

func (f *fakeSub) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeSub) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
		close(f.closedCh)
	}
}

// fail ends the stream with a transport error.
func (f *fakeSub) fail(err error) {
	f.mu.Lock()
	f.err = err
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
	f.mu.Unlock()
}

func openList(t *testing.T, sub *fakeSub) (*LiveList, chan struct{}) {
	t.Helper()

	list, err := Open(context.Background(), func(context.Context) (Subscription, error) {
		return sub, nil
	})
	require.NoError(t, err)

	changed := make(chan struct{}, 16)
	list.OnChange(func() {
		changed <- struct{}{}
	})
	return list, changed
}

func waitChange(t *testing.T, changed chan struct{}) {
	t.Helper()
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mirror change")
	}
}

func docs(ids ...string) []models.Document {
	out := make([]models.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Document{ID: id, Fields: map[string]any{"message": "m-" + id}})
	}
	return out
}

func TestMirrorFullReplaceSemantics(t *testing.T) {
	sub := newFakeSub()
	list, changed := openList(t, sub)
	defer list.Dispose()

	pushes := [][]models.Document{
		docs("a", "b"),
		docs("a", "b", "c"),
		docs("c"), // shrink: old entries must not survive a smaller push
		{},
	}

	for _, snapshot := range pushes {
		sub.ch <- snapshot
		waitChange(t, changed)
		assert.Equal(t, snapshot, list.Current(), "mirror equals exactly the Nth snapshot")
	}
}

func TestMirrorStatusLifecycle(t *testing.T) {
	sub := newFakeSub()
	list, changed := openList(t, sub)
	defer list.Dispose()

	status, reason := list.Status()
	assert.Equal(t, StatusConnecting, status)
	assert.NoError(t, reason)

	sub.ch <- docs("a")
	waitChange(t, changed)

	status, _ = list.Status()
	assert.Equal(t, StatusLive, status)

	streamErr := errors.New("connection reset")
	sub.fail(streamErr)
	waitChange(t, changed)

	status, reason = list.Status()
	assert.Equal(t, StatusError, status)
	assert.ErrorIs(t, reason, streamErr)

	// The mirror freezes at its last known value.
	assert.Equal(t, docs("a"), list.Current())
}

func TestMirrorCurrentReturnsCopy(t *testing.T) {
	sub := newFakeSub()
	list, changed := openList(t, sub)
	defer list.Dispose()

	sub.ch <- docs("a", "b")
	waitChange(t, changed)

	first := list.Current()
	first[0].ID = "mutated"

	assert.Equal(t, "a", list.Current()[0].ID, "callers cannot mutate the mirror")
}

func TestMirrorDisposeIdempotent(t *testing.T) {
	sub := newFakeSub()
	list, changed := openList(t, sub)

	sub.ch <- docs("a")
	waitChange(t, changed)

	list.Dispose()
	list.Dispose()

	select {
	case <-sub.closedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispose did not close the subscription")
	}

	// A disposed list keeps its last value and never flips to error.
	assert.Equal(t, docs("a"), list.Current())
	status, _ := list.Status()
	assert.Equal(t, StatusLive, status)
}

func TestMirrorOpenFailure(t *testing.T) {
	boom := errors.New("dial refused")
	_, err := Open(context.Background(), func(context.Context) (Subscription, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}
