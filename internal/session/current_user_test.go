package session

import (
	"testing"

	"petalboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	state   State
	account *models.Account
}

func TestStartsUnknown(t *testing.T) {
	cu := NewCurrentUser()

	state, account := cu.Get()
	assert.Equal(t, StateUnknown, state)
	assert.Nil(t, account)
}

func TestWatchFiresImmediately(t *testing.T) {
	cu := NewCurrentUser()

	var seen []observation
	cancel := cu.Watch(func(state State, account *models.Account) {
		seen = append(seen, observation{state, account})
	})
	defer cancel()

	require.Len(t, seen, 1, "observer sees the current value on registration")
	assert.Equal(t, StateUnknown, seen[0].state)
}

func TestResolveTransitions(t *testing.T) {
	cu := NewCurrentUser()
	ana := &models.Account{ID: "acc-1", Email: "ana@example.com"}

	var seen []observation
	cancel := cu.Watch(func(state State, account *models.Account) {
		seen = append(seen, observation{state, account})
	})
	defer cancel()

	cu.Resolve(ana)
	cu.SignOut()
	cu.Resolve(nil) // a failed session check also resolves to signed-out

	require.Len(t, seen, 4)
	assert.Equal(t, StateUnknown, seen[0].state)
	assert.Equal(t, StateSignedIn, seen[1].state)
	assert.Same(t, ana, seen[1].account)
	assert.Equal(t, StateSignedOut, seen[2].state)
	assert.Nil(t, seen[2].account)
	assert.Equal(t, StateSignedOut, seen[3].state)

	state, account := cu.Get()
	assert.Equal(t, StateSignedOut, state)
	assert.Nil(t, account)
}

func TestCancelStopsNotifications(t *testing.T) {
	cu := NewCurrentUser()

	calls := 0
	cancel := cu.Watch(func(State, *models.Account) { calls++ })
	require.Equal(t, 1, calls)

	cancel()
	cu.Resolve(&models.Account{ID: "acc-1"})
	assert.Equal(t, 1, calls, "cancelled observer stays quiet")

	// Cancelling twice is harmless.
	cancel()
}

func TestMultipleWatchers(t *testing.T) {
	cu := NewCurrentUser()

	var first, second []State
	cu.Watch(func(state State, _ *models.Account) { first = append(first, state) })
	cu.Watch(func(state State, _ *models.Account) { second = append(second, state) })

	cu.Resolve(&models.Account{ID: "acc-1"})

	assert.Equal(t, []State{StateUnknown, StateSignedIn}, first)
	assert.Equal(t, []State{StateUnknown, StateSignedIn}, second)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.Equal(t, "signed-in", StateSignedIn.String())
	assert.Equal(t, "signed-out", StateSignedOut.String())
}
