package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Well-known collection names. Collections are created lazily on first
// write, the same way the hosted stores this service replaces behave.
const (
	CollectionPosts    = "posts"
	CollectionContacts = "contacts"
)

// Field names shared between the server and the client controllers.
const (
	FieldMessage   = "message"
	FieldAuthor    = "author"
	FieldCreatedAt = "createdAt"
	FieldName      = "name"
	FieldPhone     = "phone"
	FieldEmail     = "email"
)

// AnonymousAuthor is substituted for a blank post author before the write.
const AnonymousAuthor = "Anonymous 🌸"

// Document is one record in a named collection: an opaque id plus a bag of
// primitive field values. The schema lives client-side; the store only cares
// about the collection name and the jsonb payload.
// Learning: Using KSUID instead of UUID provides:
// - Time-based sorting (first 32 bits are timestamp)
// - Better database index performance (sequential, less B-tree fragmentation)
// - Smaller string representation (27 chars vs 36 for UUID)
type Document struct {
	ID         string         `json:"id" gorm:"type:char(27);primaryKey"`
	Collection string         `json:"-" gorm:"type:varchar(100);not null;index"`
	Fields     map[string]any `json:"fields" gorm:"type:jsonb;default:'{}'"`
	CreatedAt  time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"column:deleted_at;index"` // Soft delete support
}

// BeforeCreate hook generates KSUID before inserting
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = ksuid.New().String()
	}
	return nil
}

// Text returns the named field as a string, or "" when absent or not text.
func (d *Document) Text(field string) string {
	if d.Fields == nil {
		return ""
	}
	s, _ := d.Fields[field].(string)
	return s
}

// Snapshot is the full set of documents of one collection, as delivered by
// a single subscription push. Documents are ordered by creation time with
// the id as tie-break; KSUIDs are time-ordered, so the order is stable
// across reconnects.
type Snapshot struct {
	Collection string     `json:"collection"`
	Documents  []Document `json:"documents"`
}

// DocumentCreate is the write payload for a new document.
type DocumentCreate struct {
	Fields map[string]any `json:"fields"`
}

// DocumentUpdate carries a partial field set. Fields present here are merged
// into the stored document; absent fields are left untouched.
type DocumentUpdate struct {
	Fields map[string]any `json:"fields"`
}
