package api

import (
	"context"

	"petalboard/internal/models"
)

/*
LEARNING: CONSUMER-DRIVEN INTERFACES (Go Idiom)

This package is the CONSUMER of the repositories and the auth service, so
the interfaces live HERE, declaring only the methods handlers actually call.

Benefits:
- Handler package defines exactly what it needs
- Implementations can change without affecting handlers
- Tests wire in-memory fakes without a database
- No circular dependencies
*/

// DocumentStore is the collection CRUD surface the handlers need.
type DocumentStore interface {
	Create(ctx context.Context, collection string, create *models.DocumentCreate) (*models.Document, error)
	GetByID(ctx context.Context, collection, id string) (*models.Document, error)
	List(ctx context.Context, collection string) ([]models.Document, error)
	Update(ctx context.Context, collection, id string, update *models.DocumentUpdate) (*models.Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// Authenticator is the auth surface the handlers need.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*models.Account, string, error)
	Login(ctx context.Context, email, password string) (*models.Account, string, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*models.Account, string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Authenticate(ctx context.Context, token string) (*models.Account, error)
}

// SnapshotPublisher is notified after every committed write so subscribers
// receive a fresh snapshot.
type SnapshotPublisher interface {
	Publish(collection string)
}
