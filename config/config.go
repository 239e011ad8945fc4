package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported store drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the complete application configuration
type Config struct {
	Debug    bool
	Host     string
	Port     int
	LogLevel string

	// Store selects the repository backend
	Store    string
	Database DatabaseConfig

	HealthTimeout   time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// DatabaseConfig represents the document store connection configuration
type DatabaseConfig struct {
	MongoURI    string
	PostgresDSN string
	Name        string
	Collection  string
}

// DefaultConfig returns the configuration used when nothing is set in the environment
func DefaultConfig() *Config {
	return &Config{
		Debug:    true,
		Host:     "0.0.0.0",
		Port:     5000,
		LogLevel: "info",
		Store:    DriverMongo,
		Database: DatabaseConfig{
			Name:       "graphql",
			Collection: "users",
		},
		HealthTimeout:   5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
	}
}

// SetDefaults registers the defaults from DefaultConfig on v
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("store_driver", d.Store)
	v.SetDefault("mongo_uri", "")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("db_name", d.Database.Name)
	v.SetDefault("collection_name", d.Database.Collection)
	v.SetDefault("health_timeout", d.HealthTimeout)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("cors_allowed_origins", strings.Join(d.CORSOrigins, ","))
}

// Load reads the configuration from v. Environment variables take precedence over
// the optional dotenv file at envFile; a missing file is not an error.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Debug:    v.GetBool("debug"),
		Host:     v.GetString("host"),
		Port:     v.GetInt("port"),
		LogLevel: v.GetString("log_level"),
		Store:    strings.ToLower(strings.TrimSpace(v.GetString("store_driver"))),
		Database: DatabaseConfig{
			MongoURI:    v.GetString("mongo_uri"),
			PostgresDSN: v.GetString("postgres_dsn"),
			Name:        v.GetString("db_name"),
			Collection:  v.GetString("collection_name"),
		},
		HealthTimeout:   v.GetDuration("health_timeout"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		CORSOrigins:     splitList(v.GetString("cors_allowed_origins")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for missing or inconsistent values
func (c *Config) Validate() error {
	switch c.Store {
	case DriverMongo:
		if c.Database.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for store driver %q", c.Store)
		}
	case DriverPostgres:
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for store driver %q", c.Store)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Database.Name == "" {
		return errors.New("database name must not be empty")
	}
	if c.Database.Collection == "" {
		return errors.New("collection name must not be empty")
	}
	if c.HealthTimeout <= 0 {
		return fmt.Errorf("invalid health timeout: %s", c.HealthTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %s", c.ShutdownTimeout)
	}
	return nil
}

// Addr returns the host:port pair the HTTP server binds to
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
