package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, DriverMongo, cfg.Store)
	assert.Equal(t, "graphql", cfg.Database.Name)
	assert.Equal(t, "users", cfg.Database.Collection)
	assert.Equal(t, 5*time.Second, cfg.HealthTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("DEBUG", "False")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("COLLECTION_NAME", "customers")
	t.Setenv("HEALTH_TIMEOUT", "250ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, DriverMemory, cfg.Store)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "shop", cfg.Database.Name)
	assert.Equal(t, "customers", cfg.Database.Collection)
	assert.Equal(t, 250*time.Millisecond, cfg.HealthTimeout)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "MONGO_URI=mongodb://db:27017\nDB_NAME=fromfile\nPORT=6000\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// empty variables are ignored by viper, so these fall through to the file
	t.Setenv("MONGO_URI", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("PORT", "7000")

	cfg, err := Load(viper.New(), envFile)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017", cfg.Database.MongoURI)
	assert.Equal(t, "fromfile", cfg.Database.Name)
	assert.Equal(t, 7000, cfg.Port, "environment should override the env file")
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		valid  bool
	}{
		{"memory needs nothing", func(c *Config) { c.Store = DriverMemory }, true},
		{"mongo without uri", func(c *Config) {}, false},
		{"mongo with uri", func(c *Config) { c.Database.MongoURI = "mongodb://x" }, true},
		{"postgres without dsn", func(c *Config) { c.Store = DriverPostgres }, false},
		{"postgres with dsn", func(c *Config) {
			c.Store = DriverPostgres
			c.Database.PostgresDSN = "postgres://localhost/db"
		}, true},
		{"unknown driver", func(c *Config) { c.Store = "redis" }, false},
		{"port out of range", func(c *Config) {
			c.Store = DriverMemory
			c.Port = 70000
		}, false},
		{"empty collection", func(c *Config) {
			c.Store = DriverMemory
			c.Database.Collection = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
