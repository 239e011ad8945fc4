package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samandartukhtayev/graphql-user-service/database"
	"github.com/samandartukhtayev/graphql-user-service/models"
)

// setupRepository builds a fresh, empty repository for one test
type setupRepository func(t *testing.T) (UserRepository, func())

func strPtr(s string) *string { return &s }
func int32Ptr(i int32) *int32 { return &i }

func TestMemoryUserRepository(t *testing.T) {
	runUserRepositoryTests(t, func(t *testing.T) (UserRepository, func()) {
		return NewMemoryUserRepository(), func() {}
	}, primitiveMissingID)
}

func TestMongoUserRepository(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	runUserRepositoryTests(t, func(t *testing.T) (UserRepository, func()) {
		dbName := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		mgr := database.NewMongo(uri, dbName, "users", zerolog.Nop())

		cleanup := func() {
			ctx := context.Background()
			if db, err := mgr.Connect(ctx); err == nil {
				_ = db.Drop(ctx)
			}
			_ = mgr.Close(ctx)
		}
		return NewMongoUserRepository(mgr, "users"), cleanup
	}, primitiveMissingID)
}

func TestPostgresUserRepository(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	runUserRepositoryTests(t, func(t *testing.T) (UserRepository, func()) {
		table := "users_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		mgr := database.NewPostgres(dsn, zerolog.Nop())

		cleanup := func() {
			ctx := context.Background()
			if db, err := mgr.DB(ctx); err == nil {
				_, _ = db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table))
			}
			_ = mgr.Close()
		}
		return NewPostgresUserRepository(mgr, table), cleanup
	}, uuid.NewString())
}

const primitiveMissingID = "000000000000000000000000"

func runUserRepositoryTests(t *testing.T, setup setupRepository, missingID string) {
	t.Run("CreateAndGet", func(t *testing.T) {
		repo, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		created, err := repo.Create(ctx, "Ann", 30)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID, "ID should be assigned by the store")

		retrieved, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, retrieved.ID)
		assert.Equal(t, "Ann", *retrieved.Name)
		assert.Equal(t, int32(30), *retrieved.Age)
	})

	t.Run("GetMissingAndMalformed", func(t *testing.T) {
		repo, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		_, err := repo.GetByID(ctx, missingID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = repo.GetByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("ListTracksCreatesAndDeletes", func(t *testing.T) {
		repo, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		users, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)

		var ids []string
		for i := 0; i < 4; i++ {
			u, err := repo.Create(ctx, fmt.Sprintf("User %d", i), int32(20+i))
			require.NoError(t, err)
			ids = append(ids, u.ID)
		}

		ok, err := repo.Delete(ctx, ids[1])
		require.NoError(t, err)
		require.True(t, ok)

		users, err = repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, []string{ids[0], ids[2], ids[3]}, []string{users[0].ID, users[1].ID, users[2].ID},
			"list should keep insertion order")
	})

	t.Run("SearchByName", func(t *testing.T) {
		repo, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		for _, name := range []string{"Ann123", "Joann", "Bob", "a.n.n"} {
			_, err := repo.Create(ctx, name, 40)
			require.NoError(t, err)
		}

		users, err := repo.SearchByName(ctx, "ann")
		require.NoError(t, err)

		var names []string
		for _, u := range users {
			names = append(names, *u.Name)
		}
		assert.ElementsMatch(t, []string{"Ann123", "Joann"}, names)

		users, err = repo.SearchByName(ctx, ".")
		require.NoError(t, err)
		require.Len(t, users, 1, "pattern characters should match literally")
		assert.Equal(t, "a.n.n", *users[0].Name)

		users, err = repo.SearchByName(ctx, "zzz")
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		repo, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		created, err := repo.Create(ctx, "Bob Johnson", 41)
		require.NoError(t, err)

		updated, err := repo.Update(ctx, created.ID, models.UserPatch{Age: int32Ptr(42)})
		require.NoError(t, err)
		assert.Equal(t, "Bob Johnson", *updated.Name)
		assert.Equal(t, int32(42), *updated.Age)

		updated, err = repo.Update(ctx, created.ID, models.UserPatch{Name: strPtr("Robert Johnson")})
		require.NoError(t, err)
		assert.Equal(t, "Robert Johnson", *updated.Name)
		assert.Equal(t, int32(42), *updated.Age)

		updated, err = repo.Update(ctx, created.ID, models.UserPatch{})
		require.NoError(t, err)
		assert.Equal(t, "Robert Johnson", *updated.Name)

		retrieved, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, retrieved)
	})

	t.Run("UpdateMissingAndMalformed", func(t *testing.T) {
		repo, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		_, err := repo.Update(ctx, missingID, models.UserPatch{Age: int32Ptr(1)})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = repo.Update(ctx, "bogus", models.UserPatch{Age: int32Ptr(1)})
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("Delete", func(t *testing.T) {
		repo, cleanup := setup(t)
		defer cleanup()
		ctx := context.Background()

		created, err := repo.Create(ctx, "Delete Me", 1)
		require.NoError(t, err)

		ok, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, ok, "deleting twice should report nothing removed")

		_, err = repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = repo.Delete(ctx, "bogus")
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("Ping", func(t *testing.T) {
		repo, cleanup := setup(t)
		defer cleanup()

		assert.NoError(t, repo.Ping(context.Background()))
	})
}
