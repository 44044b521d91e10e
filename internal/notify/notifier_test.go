package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowThenAutoDismiss(t *testing.T) {
	e := NewEmitterWithDuration(40 * time.Millisecond)
	defer e.Close()

	e.Show("saved!")
	assert.Equal(t, "saved!", e.Current())

	assert.Eventually(t, func() bool { return e.Current() == "" },
		time.Second, 5*time.Millisecond, "message should auto-dismiss")
}

func TestLastWriteWins(t *testing.T) {
	e := NewEmitterWithDuration(60 * time.Millisecond)
	defer e.Close()

	e.Show("A")
	time.Sleep(30 * time.Millisecond)
	e.Show("B")

	// Past the point where A's original timer would have fired. B must
	// still be visible: the superseded timer is a no-op.
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, "B", e.Current(), "stale timer must not clear the successor")

	assert.Eventually(t, func() bool { return e.Current() == "" },
		time.Second, 5*time.Millisecond, "B dismisses on its own timer")
}

func TestOnChangeObservesShowAndDismiss(t *testing.T) {
	e := NewEmitterWithDuration(30 * time.Millisecond)
	defer e.Close()

	var mu sync.Mutex
	var seen []string
	e.OnChange(func(message string) {
		mu.Lock()
		seen = append(seen, message)
		mu.Unlock()
	})

	e.Show("hello")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hello", ""}, seen)
}

func TestShowAfterDismissStartsFreshWindow(t *testing.T) {
	e := NewEmitterWithDuration(30 * time.Millisecond)
	defer e.Close()

	e.Show("first")
	assert.Eventually(t, func() bool { return e.Current() == "" },
		time.Second, 5*time.Millisecond)

	e.Show("second")
	assert.Equal(t, "second", e.Current())
}

func TestCloseStopsPendingTimer(t *testing.T) {
	e := NewEmitterWithDuration(20 * time.Millisecond)

	e.Show("sticky")
	e.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "sticky", e.Current(), "Close freezes the current message")
}
