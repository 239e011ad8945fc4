package repository

import (
	"context"
	"errors"

	"github.com/samandartukhtayev/graphql-user-service/models"
)

var (
	// ErrNotFound is returned when no document matches the given id
	ErrNotFound = errors.New("user not found")
	// ErrInvalidID is returned when the id is not in the store's identifier format
	ErrInvalidID = errors.New("invalid user id")
)

// UserRepository handles all user-related store operations.
// Each method performs a single store call and returns typed users, never raw documents.
type UserRepository interface {
	// List returns every user in the store's natural order
	List(ctx context.Context) ([]*models.User, error)

	// GetByID returns ErrInvalidID for malformed ids and ErrNotFound when absent
	GetByID(ctx context.Context, id string) (*models.User, error)

	// SearchByName matches name as a case-insensitive substring
	SearchByName(ctx context.Context, name string) ([]*models.User, error)

	// Create inserts a new user and returns it with the store-assigned id
	Create(ctx context.Context, name string, age int32) (*models.User, error)

	// Update overwrites only the fields set in patch and returns the updated user
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)

	// Delete reports whether exactly one document was removed
	Delete(ctx context.Context, id string) (bool, error)

	// Ping performs a trivial read to check store reachability
	Ping(ctx context.Context) error
}
