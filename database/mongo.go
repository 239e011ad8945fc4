package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo manages a single lazily opened MongoDB client shared by every request.
// One instance is built at startup and handed to the repositories that need it.
type Mongo struct {
	uri               string
	dbName            string
	defaultCollection string
	logger            zerolog.Logger

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo creates a connection manager. No connection is made until first use.
func NewMongo(uri, dbName, defaultCollection string, logger zerolog.Logger) *Mongo {
	return &Mongo{
		uri:               uri,
		dbName:            dbName,
		defaultCollection: defaultCollection,
		logger:            logger.With().Str("component", "mongo").Logger(),
	}
}

// Connect opens the client on the first call and returns the configured database.
// Later calls return the already open handle.
func (m *Mongo) Connect(ctx context.Context) (*mongo.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	m.client = client
	m.db = client.Database(m.dbName)
	m.logger.Info().Str("database", m.dbName).Msg("connected to MongoDB")

	return m.db, nil
}

// Collection returns a handle to the named collection, connecting first if needed.
// An empty name selects the configured default collection.
func (m *Mongo) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := m.Connect(ctx)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = m.defaultCollection
	}
	return db.Collection(name), nil
}

// Close disconnects the client. It is safe to call on a closed or never opened manager.
func (m *Mongo) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}

	err := m.client.Disconnect(ctx)
	m.client = nil
	m.db = nil
	if err != nil {
		return fmt.Errorf("failed to disconnect from mongo: %w", err)
	}

	m.logger.Info().Msg("database connection closed")
	return nil
}
