// Package notify is the transient toast: one message at a time, auto
// dismissed on a fixed timer, last write wins.
package notify

import (
	"sync"
	"time"
)

// DefaultDismissAfter matches the screens' 3-second toast window.
const DefaultDismissAfter = 3 * time.Second

// Emitter holds the single visible message. A Show before the timer fires
// replaces the message and restarts the timer; the superseded message's
// timer can never clear its successor.
type Emitter struct {
	mu           sync.Mutex
	message      string
	generation   uint64
	dismissAfter time.Duration
	timer        *time.Timer
	onChange     func(message string)
}

// NewEmitter creates an emitter with the default 3s dismiss window.
func NewEmitter() *Emitter {
	return NewEmitterWithDuration(DefaultDismissAfter)
}

// NewEmitterWithDuration creates an emitter with a custom window; tests use
// short ones.
func NewEmitterWithDuration(d time.Duration) *Emitter {
	if d <= 0 {
		d = DefaultDismissAfter
	}
	return &Emitter{dismissAfter: d}
}

// OnChange registers a callback fired with the new message on every change,
// including the auto-dismiss ("" means cleared). Runs on the timer goroutine
// for dismissals.
func (e *Emitter) OnChange(fn func(message string)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// Show displays a message and (re)starts the dismiss timer.
func (e *Emitter) Show(message string) {
	e.mu.Lock()
	e.message = message
	e.generation++
	gen := e.generation
	if e.timer != nil {
		e.timer.Stop()
	}
	// The generation check makes a stale timer a no-op even if it already
	// fired and is waiting on the lock.
	e.timer = time.AfterFunc(e.dismissAfter, func() {
		e.dismiss(gen)
	})
	fn := e.onChange
	e.mu.Unlock()

	if fn != nil {
		fn(message)
	}
}

// Current returns the visible message, or "" when nothing is shown.
func (e *Emitter) Current() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

// Close stops the pending timer. The current message stays visible; callers
// tearing down a screen do not care either way.
func (e *Emitter) Close() {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()
}

func (e *Emitter) dismiss(gen uint64) {
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.message = ""
	fn := e.onChange
	e.mu.Unlock()

	if fn != nil {
		fn("")
	}
}
