package repository

import (
	"context"
	"errors"
	"fmt"

	"petalboard/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a document or account does not exist (or was
// already deleted). Handlers translate it to a 404 so that clients can treat
// writes against vanished documents as a surfaced no-op.
var ErrNotFound = errors.New("not found")

// DocumentRepositoryImpl handles all database operations for collection
// documents using GORM.
// Learning: This is the IMPLEMENTATION. It doesn't know about any interface.
// Consumers (api, realtime hub) declare the interfaces they need.
type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
// Returns concrete type - "Accept interfaces, return structs"
func NewDocumentRepository(db *gorm.DB) *DocumentRepositoryImpl {
	return &DocumentRepositoryImpl{db: db}
}

// Create inserts a new document into the named collection.
// The KSUID is auto-generated in the BeforeCreate hook.
func (r *DocumentRepositoryImpl) Create(ctx context.Context, collection string, create *models.DocumentCreate) (*models.Document, error) {
	fields := create.Fields
	if fields == nil {
		fields = map[string]any{}
	}

	document := &models.Document{
		Collection: collection,
		Fields:     fields,
	}

	if err := r.db.WithContext(ctx).Create(document).Error; err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return document, nil
}

// GetByID retrieves one document of a collection by its KSUID.
// Soft-deleted documents are automatically excluded.
func (r *DocumentRepositoryImpl) GetByID(ctx context.Context, collection, id string) (*models.Document, error) {
	var doc models.Document

	err := r.db.WithContext(ctx).
		First(&doc, "collection = ? AND id = ?", collection, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// List returns every live document of a collection in creation order.
// Learning: KSUID is time-ordered, so sorting by ID = sorting by creation
// time, and the order is deterministic across reconnects.
func (r *DocumentRepositoryImpl) List(ctx context.Context, collection string) ([]models.Document, error) {
	var documents []models.Document

	err := r.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("id ASC").
		Find(&documents).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return documents, nil
}

// Update merges the given partial field set into an existing document.
// Fields absent from the update are left untouched - this mirrors the
// merge (not replace) semantics of the hosted store this service replaces.
func (r *DocumentRepositoryImpl) Update(ctx context.Context, collection, id string, update *models.DocumentUpdate) (*models.Document, error) {
	var doc models.Document

	if err := r.db.WithContext(ctx).
		First(&doc, "collection = ? AND id = ?", collection, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	if doc.Fields == nil {
		doc.Fields = map[string]any{}
	}
	for name, value := range update.Fields {
		doc.Fields[name] = value
	}

	// Updates() on the jsonb column; UpdatedAt is set automatically by GORM.
	if err := r.db.WithContext(ctx).Model(&doc).
		Updates(map[string]any{"fields": doc.Fields}).Error; err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	return &doc, nil
}

// Delete performs a soft delete on the document
// Learning: GORM sets DeletedAt instead of removing the row, which keeps an
// audit trail while the row disappears from every List and snapshot.
func (r *DocumentRepositoryImpl) Delete(ctx context.Context, collection, id string) error {
	result := r.db.WithContext(ctx).
		Where("collection = ?", collection).
		Delete(&models.Document{}, "id = ?", id)

	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	return nil
}
