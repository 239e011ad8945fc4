package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/samandartukhtayev/graphql-user-service/models"
)

// DBProvider hands out the shared SQL pool, opening it on first use
type DBProvider interface {
	DB(ctx context.Context) (*sql.DB, error)
}

// userJSON is the JSONB document body stored per row
type userJSON struct {
	Name *string `json:"name,omitempty"`
	Age  *int32  `json:"age,omitempty"`
}

// PostgresUserRepository stores users as JSONB documents, one table per collection.
// Ids are UUIDs assigned on insert; rows keep insertion order through a sequence column.
type PostgresUserRepository struct {
	provider DBProvider
	table    string

	mu    sync.Mutex
	ready bool
}

// NewPostgresUserRepository creates a repository over the table named after collection
func NewPostgresUserRepository(provider DBProvider, collection string) *PostgresUserRepository {
	return &PostgresUserRepository{
		provider: provider,
		table:    pq.QuoteIdentifier(collection),
	}
}

// db returns the pool, creating the backing table the first time it succeeds
func (r *PostgresUserRepository) db(ctx context.Context) (*sql.DB, error) {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready {
		return db, nil
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL,
			id  UUID PRIMARY KEY,
			doc JSONB NOT NULL DEFAULT '{}'::jsonb
		)
	`, r.table)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", r.table, err)
	}

	r.ready = true
	return db, nil
}

// List returns all users in insertion order
func (r *PostgresUserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := fmt.Sprintf(`SELECT id, doc FROM %s ORDER BY seq`, r.table)
	return r.query(ctx, query)
}

// SearchByName returns users whose name contains name, ignoring case
func (r *PostgresUserRepository) SearchByName(ctx context.Context, name string) ([]*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, doc FROM %s
		WHERE doc->>'name' ILIKE $1 ESCAPE '\'
		ORDER BY seq
	`, r.table)
	return r.query(ctx, query, "%"+escapeLike(name)+"%")
}

func (r *PostgresUserRepository) query(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// GetByID finds a user by its UUID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, doc FROM %s WHERE id = $1`, r.table)
	user, err := scanUser(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Create creates a new user
func (r *PostgresUserRepository) Create(ctx context.Context, name string, age int32) (*models.User, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := json.Marshal(userJSON{Name: &name, Age: &age})
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	id := uuid.New().String()
	query := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)`, r.table)
	if _, err := db.ExecContext(ctx, query, id, string(doc)); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{ID: id, Name: &name, Age: &age}, nil
}

// Update merges the supplied fields into the stored document
func (r *PostgresUserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	set, err := json.Marshal(userJSON{Name: patch.Name, Age: patch.Age})
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET doc = doc || $2::jsonb
		WHERE id = $1
		RETURNING id, doc
	`, r.table)
	user, err := scanUser(db.QueryRowContext(ctx, query, id, string(set)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete removes a user by id
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, ErrInvalidID
	}

	db, err := r.db(ctx)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// Ping checks the connection pool
func (r *PostgresUserRepository) Ping(ctx context.Context) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}

	var one int
	query := fmt.Sprintf(`SELECT 1 FROM %s LIMIT 1`, r.table)
	err = db.QueryRowContext(ctx, query).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		id  string
		raw []byte
	)
	if err := row.Scan(&id, &raw); err != nil {
		return nil, err
	}

	var doc userJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	return &models.User{ID: id, Name: doc.Name, Age: doc.Age}, nil
}

// escapeLike escapes LIKE wildcards so the input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
