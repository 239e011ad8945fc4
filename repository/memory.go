package repository

import (
	"context"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/samandartukhtayev/graphql-user-service/models"
)

// MemoryUserRepository keeps users in process memory. Ids use the same
// ObjectID format as the Mongo backend so malformed-id handling matches.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	order []string
	users map[string]models.User
}

// NewMemoryUserRepository creates an empty in-memory repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
	}
}

// List returns all users in insertion order
func (r *MemoryUserRepository) List(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, cloneUser(r.users[id]))
	}
	return users, nil
}

// GetByID finds a user by id
func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

// SearchByName returns users whose name contains name, ignoring case
func (r *MemoryUserRepository) SearchByName(ctx context.Context, name string) ([]*models.User, error) {
	needle := strings.ToLower(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0)
	for _, id := range r.order {
		user := r.users[id]
		if user.Name != nil && strings.Contains(strings.ToLower(*user.Name), needle) {
			users = append(users, cloneUser(user))
		}
	}
	return users, nil
}

// Create creates a new user
func (r *MemoryUserRepository) Create(ctx context.Context, name string, age int32) (*models.User, error) {
	user := models.User{
		ID:   primitive.NewObjectID().Hex(),
		Name: &name,
		Age:  &age,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = user
	r.order = append(r.order, user.ID)
	return cloneUser(user), nil
}

// Update applies the supplied fields to a user
func (r *MemoryUserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		name := *patch.Name
		user.Name = &name
	}
	if patch.Age != nil {
		age := *patch.Age
		user.Age = &age
	}
	r.users[id] = user
	return cloneUser(user), nil
}

// Delete removes a user
func (r *MemoryUserRepository) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return false, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Ping succeeds unless ctx is done
func (r *MemoryUserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneUser(u models.User) *models.User {
	out := &models.User{ID: u.ID}
	if u.Name != nil {
		name := *u.Name
		out.Name = &name
	}
	if u.Age != nil {
		age := *u.Age
		out.Age = &age
	}
	return out
}
