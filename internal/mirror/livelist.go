// Package mirror keeps a local copy of one collection consistent with the
// server's snapshot stream. The mirror is full-replace: every push becomes
// the whole list, never a merge, so after the Nth push the mirror equals
// exactly the Nth snapshot.
package mirror

import (
	"context"
	"fmt"
	"sync"

	"petalboard/internal/models"
)

// Status is the lifecycle of the live stream.
type Status int

const (
	StatusConnecting Status = iota
	StatusLive
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusLive:
		return "live"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Subscription is what the mirror consumes from the store client. Declared
// here, consumer-side, so tests can feed snapshots without a server.
type Subscription interface {
	Snapshots() <-chan []models.Document
	Err() error
	Close()
}

// LiveList owns the mirror for one collection.
//
// Single-writer: only the pump goroutine mutates the document slice. Local
// writes never touch it optimistically; the list only changes when the
// server pushes. That means there is a visible window between a submit and
// the row appearing, which is accepted behavior, not a bug.
type LiveList struct {
	mu       sync.RWMutex
	docs     []models.Document
	status   Status
	reason   error
	disposed bool

	sub      Subscription
	onChange func()
}

// Open subscribes to the collection and starts mirroring it. Callers MUST
// call Dispose on teardown or the connection leaks.
func Open(ctx context.Context, subscribe func(context.Context) (Subscription, error)) (*LiveList, error) {
	sub, err := subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open live list: %w", err)
	}

	l := &LiveList{
		status: StatusConnecting,
		sub:    sub,
	}
	go l.pump()
	return l, nil
}

// OnChange registers a callback fired after every mirror replacement and
// every status change. The callback runs on the pump goroutine; keep it
// short and do not call back into the list from it while holding locks.
func (l *LiveList) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Current returns a copy of the mirror in snapshot order.
func (l *LiveList) Current() []models.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Document, len(l.docs))
	copy(out, l.docs)
	return out
}

// Status reports the stream state; the error is non-nil only for StatusError.
func (l *LiveList) Status() (Status, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status, l.reason
}

// Dispose cancels the subscription. Idempotent. The mirror keeps its last
// value so a closing screen can still render it.
func (l *LiveList) Dispose() {
	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		return
	}
	l.disposed = true
	l.mu.Unlock()

	l.sub.Close()
}

func (l *LiveList) pump() {
	for snapshot := range l.sub.Snapshots() {
		l.mu.Lock()
		if l.disposed {
			// Completion after teardown; the consuming state is gone, so
			// drop the snapshot instead of mutating a dead mirror.
			l.mu.Unlock()
			continue
		}
		l.docs = snapshot
		l.status = StatusLive
		fn := l.onChange
		l.mu.Unlock()

		if fn != nil {
			fn()
		}
	}

	// Stream ended: either Dispose or a transport failure. On failure the
	// mirror freezes at its last known value.
	l.mu.Lock()
	if !l.disposed {
		if err := l.sub.Err(); err != nil {
			l.status = StatusError
			l.reason = err
		}
	}
	fn := l.onChange
	disposed := l.disposed
	l.mu.Unlock()

	if fn != nil && !disposed {
		fn()
	}
}
