package form

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"petalboard/internal/models"
	"petalboard/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (d *fakeDeleter) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.deleted = append(d.deleted, id)
	return nil
}

func TestConfirmedDeleteDeclined(t *testing.T) {
	deleter := &fakeDeleter{}

	issued, err := ConfirmedDelete(context.Background(), deleter, &fakeNotifier{},
		models.Document{ID: "p-1"}, func(models.Document) bool { return false })

	require.NoError(t, err)
	assert.False(t, issued)
	assert.Empty(t, deleter.deleted, "declining the prompt must block the delete")
}

func TestConfirmedDeleteIssuesDelete(t *testing.T) {
	deleter := &fakeDeleter{}
	notifier := &fakeNotifier{}

	issued, err := ConfirmedDelete(context.Background(), deleter, notifier,
		models.Document{ID: "p-1"}, func(models.Document) bool { return true })

	require.NoError(t, err)
	assert.True(t, issued)
	assert.Equal(t, []string{"p-1"}, deleter.deleted)
	assert.Contains(t, notifier.last(), "Deleted")
}

func TestConfirmedDeleteNilConfirmBlocks(t *testing.T) {
	deleter := &fakeDeleter{}

	issued, err := ConfirmedDelete(context.Background(), deleter, &fakeNotifier{},
		models.Document{ID: "p-1"}, nil)

	require.NoError(t, err)
	assert.False(t, issued)
	assert.Empty(t, deleter.deleted)
}

func TestConfirmedDeleteAlreadyGone(t *testing.T) {
	deleter := &fakeDeleter{err: fmt.Errorf("DELETE: %w", store.ErrVanished)}
	notifier := &fakeNotifier{}

	issued, err := ConfirmedDelete(context.Background(), deleter, notifier,
		models.Document{ID: "p-1"}, func(models.Document) bool { return true })

	require.NoError(t, err, "double delete is not an error for the user")
	assert.True(t, issued)
	assert.Contains(t, notifier.last(), "already deleted")
}

func TestConfirmedDeleteRemoteFailure(t *testing.T) {
	deleter := &fakeDeleter{err: fmt.Errorf("network down")}
	notifier := &fakeNotifier{}

	issued, err := ConfirmedDelete(context.Background(), deleter, notifier,
		models.Document{ID: "p-1"}, func(models.Document) bool { return true })

	require.Error(t, err)
	assert.True(t, issued)
	assert.Contains(t, notifier.last(), "Could not delete")
}
