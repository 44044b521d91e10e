package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"petalboard/internal/models"
	"petalboard/internal/store"
)

// EditorState is the inline editor's two-state machine.
type EditorState int

const (
	Viewing EditorState = iota
	Editing
)

func (s EditorState) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// UpdateWriter is the single-field write surface the inline editor needs.
type UpdateWriter interface {
	Update(ctx context.Context, id string, fields map[string]any) error
}

// EditRegistry is the single source of truth for which row (if any) of a
// list is in inline-edit mode. Starting an edit on one row cancels the
// other's; two rows can never be editing at once.
type EditRegistry struct {
	mu     sync.Mutex
	active *InlineEditor
}

func NewEditRegistry() *EditRegistry {
	return &EditRegistry{}
}

// EditingID returns the id of the row currently being edited, or "".
func (r *EditRegistry) EditingID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return ""
	}
	return r.active.docID
}

func (r *EditRegistry) claim(e *InlineEditor) {
	r.mu.Lock()
	prev := r.active
	r.active = e
	r.mu.Unlock()

	if prev != nil && prev != e {
		prev.dropDraft()
	}
}

func (r *EditRegistry) release(e *InlineEditor) {
	r.mu.Lock()
	if r.active == e {
		r.active = nil
	}
	r.mu.Unlock()
}

// InlineEditor toggles one rendered document between display and edit of a
// single field. Instances are cheap and recreated per render cycle, scoped
// to the document's current identity and value.
type InlineEditor struct {
	registry *EditRegistry
	writer   UpdateWriter
	notifier Notifier

	docID    string
	field    string
	original string

	mu    sync.Mutex
	state EditorState
	draft string
}

// Editor creates the inline editor for one row. The original value seeds
// the draft when editing begins.
func (r *EditRegistry) Editor(doc models.Document, field string, writer UpdateWriter, notifier Notifier) *InlineEditor {
	return &InlineEditor{
		registry: r,
		writer:   writer,
		notifier: notifier,
		docID:    doc.ID,
		field:    field,
		original: doc.Text(field),
	}
}

// State reports Viewing or Editing.
func (e *InlineEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Draft returns the in-progress value; meaningful only while Editing.
func (e *InlineEditor) Draft() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// BeginEdit enters edit mode with the draft seeded from the current value.
func (e *InlineEditor) BeginEdit() {
	e.mu.Lock()
	e.state = Editing
	e.draft = e.original
	e.mu.Unlock()

	e.registry.claim(e)
}

// SetDraft mutates the draft; ignored outside edit mode.
func (e *InlineEditor) SetDraft(value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Editing {
		return
	}
	e.draft = value
}

// Save commits the draft. A whitespace-only draft is silently refused and
// the editor stays in edit mode. Saving an unchanged value still writes.
// If the document vanished underneath the edit (deleted by someone else),
// the miss is surfaced as a notification and the editor closes; other
// failures keep the editor open for another attempt.
func (e *InlineEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.state != Editing {
		e.mu.Unlock()
		return nil
	}
	draft := e.draft
	e.mu.Unlock()

	if strings.TrimSpace(draft) == "" {
		return nil
	}

	err := e.writer.Update(ctx, e.docID, map[string]any{e.field: draft})
	if err != nil {
		var writeErr *store.WriteError
		if (errors.As(err, &writeErr) && writeErr.Vanished()) || errors.Is(err, store.ErrVanished) {
			e.notifier.Show("🥀 That entry was already deleted.")
			e.close()
			return nil
		}
		e.notifier.Show(fmt.Sprintf("❌ Could not save: %v", err))
		return err
	}

	e.close()
	return nil
}

// Cancel discards the draft and returns to display mode without writing.
func (e *InlineEditor) Cancel() {
	e.close()
}

func (e *InlineEditor) close() {
	e.mu.Lock()
	e.state = Viewing
	e.draft = ""
	e.mu.Unlock()

	e.registry.release(e)
}

// dropDraft is the registry forcing this editor out because another row
// started editing. No write, no registry callback.
func (e *InlineEditor) dropDraft() {
	e.mu.Lock()
	e.state = Viewing
	e.draft = ""
	e.mu.Unlock()
}
