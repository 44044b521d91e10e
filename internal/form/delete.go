package form

import (
	"context"
	"errors"
	"fmt"

	"petalboard/internal/models"
	"petalboard/internal/store"
)

// Deleter is the delete surface of a store collection.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// ConfirmFunc blocks on a yes/no decision before an irreversible delete.
type ConfirmFunc func(doc models.Document) bool

// ConfirmedDelete runs the delete flow for one row: confirmation gate first,
// then the remote delete. The row leaves the rendered list on the next
// snapshot push; there is no optimistic local removal. Returns whether a
// delete was actually issued.
func ConfirmedDelete(ctx context.Context, deleter Deleter, notifier Notifier, doc models.Document, confirm ConfirmFunc) (bool, error) {
	if confirm == nil || !confirm(doc) {
		return false, nil
	}

	if err := deleter.Delete(ctx, doc.ID); err != nil {
		var writeErr *store.WriteError
		if (errors.As(err, &writeErr) && writeErr.Vanished()) || errors.Is(err, store.ErrVanished) {
			// Someone beat us to it; the next push removes the stale row.
			notifier.Show("🥀 That entry was already deleted.")
			return true, nil
		}
		notifier.Show(fmt.Sprintf("❌ Could not delete: %v", err))
		return true, err
	}

	notifier.Show("🗑️ Deleted.")
	return true, nil
}
