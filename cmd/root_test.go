package cmd

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samandartukhtayev/graphql-user-service/config"
	"github.com/samandartukhtayev/graphql-user-service/repository"
)

func TestBindFlags_OnlyChangedFlagsOverride(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("HOST", "10.0.0.1")
	t.Setenv("STORE_DRIVER", "memory")

	cmd := NewRootCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "9000"}))

	v := viper.New()
	bindFlags(v, cmd.Flags(), map[string]string{"port": "port", "host": "host"})

	cfg, err := config.Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port, "explicit flag wins over the environment")
	assert.Equal(t, "10.0.0.1", cfg.Host, "unset flag must not mask the environment")
}

func TestOpenStore(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store = config.DriverMemory

	repo, closeStore, err := openStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &repository.MemoryUserRepository{}, repo)
	assert.NoError(t, closeStore(context.Background()))

	cfg.Store = config.DriverMongo
	cfg.Database.MongoURI = "definitely not a uri"
	_, _, err = openStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err, "a malformed URI fails at startup")

	cfg.Store = "cassandra"
	_, _, err = openStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
