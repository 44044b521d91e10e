// Package session holds the ambient auth state a client shares across
// screens: who is signed in, if anyone, and whether that is known yet.
package session

import (
	"sync"

	"petalboard/internal/models"
)

// State is the lifecycle of the session check.
type State int

const (
	// StateUnknown is the initial state, before the provider's session
	// check has resolved. Screens typically show a loading placeholder.
	StateUnknown State = iota
	StateSignedIn
	StateSignedOut
)

func (s State) String() string {
	switch s {
	case StateSignedIn:
		return "signed-in"
	case StateSignedOut:
		return "signed-out"
	default:
		return "unknown"
	}
}

// WatchFunc observes session changes. account is non-nil only for
// StateSignedIn.
type WatchFunc func(state State, account *models.Account)

// CurrentUser is the observable session value. The navbar watches it to
// switch between the login button and the profile block.
type CurrentUser struct {
	mu       sync.Mutex
	state    State
	account  *models.Account
	watchers map[int]WatchFunc
	nextID   int
}

func NewCurrentUser() *CurrentUser {
	return &CurrentUser{
		state:    StateUnknown,
		watchers: map[int]WatchFunc{},
	}
}

// Get returns the current state and account.
func (c *CurrentUser) Get() (State, *models.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.account
}

// Resolve records the outcome of the initial session check or a fresh
// sign-in. A nil account resolves to signed-out.
func (c *CurrentUser) Resolve(account *models.Account) {
	if account == nil {
		c.set(StateSignedOut, nil)
		return
	}
	c.set(StateSignedIn, account)
}

// SignOut tears the session down.
func (c *CurrentUser) SignOut() {
	c.set(StateSignedOut, nil)
}

// Watch registers an observer and fires it immediately with the current
// value, matching the provider's auth-state listener behavior. The returned
// cancel removes the observer.
func (c *CurrentUser) Watch(fn WatchFunc) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	state, account := c.state, c.account
	c.mu.Unlock()

	fn(state, account)

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

func (c *CurrentUser) set(state State, account *models.Account) {
	c.mu.Lock()
	c.state = state
	c.account = account
	watchers := make([]WatchFunc, 0, len(c.watchers))
	for _, fn := range c.watchers {
		watchers = append(watchers, fn)
	}
	c.mu.Unlock()

	for _, fn := range watchers {
		fn(state, account)
	}
}
