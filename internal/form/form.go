// Package form holds the write-side controllers of the board screens: the
// entity form (create/edit a whole document) and the per-row inline editor.
// Both delegate writes to the store and rely on the next snapshot push to
// make the result visible; nothing here touches the mirror directly.
package form

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"petalboard/internal/models"
)

// Writer is what the controllers need from a store collection.
type Writer interface {
	Create(ctx context.Context, fields map[string]any) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) error
}

// Notifier surfaces transient success/error messages.
type Notifier interface {
	Show(message string)
}

// FieldSpec describes one form field.
type FieldSpec struct {
	Name     string
	Required bool
	Default  string // substituted when the trimmed value is empty
}

// EntitySpec is the per-screen form definition.
type EntitySpec struct {
	Fields []FieldSpec

	// TimestampField, when set, is stamped with the submit time on create.
	TimestampField string

	CreatedMessage string
	UpdatedMessage string
}

// PostSpec is the posts screen: message required, author optional with the
// anonymous placeholder, creation time stamped by the form.
func PostSpec() EntitySpec {
	return EntitySpec{
		Fields: []FieldSpec{
			{Name: models.FieldMessage, Required: true},
			{Name: models.FieldAuthor, Default: models.AnonymousAuthor},
		},
		TimestampField: models.FieldCreatedAt,
		CreatedMessage: "💌 Post published!",
		UpdatedMessage: "✏️ Post updated!",
	}
}

// ContactSpec is the contacts screen: all three fields required, no defaults.
func ContactSpec() EntitySpec {
	return EntitySpec{
		Fields: []FieldSpec{
			{Name: models.FieldName, Required: true},
			{Name: models.FieldPhone, Required: true},
			{Name: models.FieldEmail, Required: true},
		},
		CreatedMessage: "✨ New contact registered.",
		UpdatedMessage: "✏️ Contact updated!",
	}
}

// ValidationError blocks a submit locally; no remote call is made.
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", "))
}

// Controller owns the pending draft of one entity form. It is either in
// create mode (no edit target) or edit mode (target id set by BeginEdit).
type Controller struct {
	mu sync.Mutex

	spec     EntitySpec
	writer   Writer
	notifier Notifier

	values        map[string]string
	editID        string
	validationErr *ValidationError

	now func() time.Time
}

func NewController(spec EntitySpec, writer Writer, notifier Notifier) *Controller {
	return &Controller{
		spec:     spec,
		writer:   writer,
		notifier: notifier,
		values:   map[string]string{},
		now:      time.Now,
	}
}

// SetField records the current text of one field and clears any pending
// validation error, the same way typing clears the inline error banner.
func (c *Controller) SetField(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = value
	c.validationErr = nil
}

// Field returns the current draft value of a field.
func (c *Controller) Field(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[name]
}

// ValidationError returns the pending validation failure, or nil.
func (c *Controller) ValidationError() *ValidationError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validationErr
}

// EditTarget returns the id being edited, or "" in create mode.
func (c *Controller) EditTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editID
}

// BeginEdit pre-populates the draft from an existing document and arms edit
// mode. Selecting a new target implicitly abandons any prior one; at most
// one document is ever being edited per form.
func (c *Controller) BeginEdit(doc models.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values = map[string]string{}
	for _, field := range c.spec.Fields {
		c.values[field.Name] = doc.Text(field.Name)
	}
	c.editID = doc.ID
	c.validationErr = nil
}

// CancelEdit clears the edit target and resets the draft without writing.
// Safe to call repeatedly.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Submit validates the draft and performs exactly one remote write: an
// update when an edit target is armed, a create otherwise. On success the
// draft resets to empty and a success notification fires; the new row shows
// up via the subscription, not by local insertion. Remote failures surface
// as a notification and leave the draft intact for a manual resubmit.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()

	trimmed := map[string]string{}
	var missing []string
	for _, field := range c.spec.Fields {
		value := strings.TrimSpace(c.values[field.Name])
		if value == "" {
			if field.Required {
				missing = append(missing, field.Name)
				continue
			}
			value = field.Default
		}
		trimmed[field.Name] = value
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		c.validationErr = &ValidationError{MissingFields: missing}
		err := c.validationErr
		c.mu.Unlock()
		return err
	}

	fields := make(map[string]any, len(trimmed)+1)
	for name, value := range trimmed {
		fields[name] = value
	}

	editID := c.editID
	if editID == "" && c.spec.TimestampField != "" {
		fields[c.spec.TimestampField] = c.now().UTC()
	}
	c.mu.Unlock()

	// The write happens outside the lock; the completion may interleave
	// with SetField calls from the UI, which is fine because the draft is
	// only reset after confirmed success.
	var err error
	if editID != "" {
		err = c.writer.Update(ctx, editID, fields)
	} else {
		_, err = c.writer.Create(ctx, fields)
	}
	if err != nil {
		c.notifier.Show(fmt.Sprintf("❌ Could not save: %v", err))
		return err
	}

	c.mu.Lock()
	c.reset()
	c.mu.Unlock()

	if editID != "" {
		c.notifier.Show(c.spec.UpdatedMessage)
	} else {
		c.notifier.Show(c.spec.CreatedMessage)
	}
	return nil
}

// reset requires c.mu held.
func (c *Controller) reset() {
	c.values = map[string]string{}
	c.editID = ""
	c.validationErr = nil
}
