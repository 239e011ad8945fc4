package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/samandartukhtayev/graphql-user-service/config"
	"github.com/samandartukhtayev/graphql-user-service/database"
	"github.com/samandartukhtayev/graphql-user-service/graph"
	"github.com/samandartukhtayev/graphql-user-service/logger"
	"github.com/samandartukhtayev/graphql-user-service/metrics"
	"github.com/samandartukhtayev/graphql-user-service/repository"
	"github.com/samandartukhtayev/graphql-user-service/server"
)

// NewRootCommand builds the usersvc command. Flags override environment and .env values.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var envFile string

	cmd := &cobra.Command{
		Use:           "usersvc",
		Short:         "GraphQL CRUD service for users backed by a document store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(v, cmd.Flags(), map[string]string{
				"host":         "host",
				"port":         "port",
				"debug":        "debug",
				"store_driver": "store",
			})
			cfg, err := config.Load(v, envFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file to load")
	flags.String("host", "", "bind host")
	flags.Int("port", 0, "bind port")
	flags.Bool("debug", true, "human readable debug logging")
	flags.String("store", "", "store driver: mongo, postgres or memory")

	return cmd
}

// bindFlags binds only flags the user actually set, so unset flags do not mask the environment
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := flags.Lookup(name); f != nil && f.Changed {
			_ = v.BindPFlag(key, f)
		}
	}
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.LogLevel, cfg.Debug, os.Stdout)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	m := metrics.New()
	schema := graph.NewSchema(graph.NewResolver(repo, log, m))
	srv := server.New(cfg, schema, repo, log, m)

	log.Info().
		Str("database", cfg.Database.Name).
		Str("collection", cfg.Database.Collection).
		Str("store", cfg.Store).
		Str("addr", cfg.Addr()).
		Msg("starting GraphQL user service")
	log.Debug().Msgf(`example: curl -X POST http://%s/graphql -H 'Content-Type: application/json' -d '{"query": "{ users { id name age } }"}'`, cfg.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		err = srv.Shutdown(shutdownCtx)
		cancel()
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if cerr := closeStore(closeCtx); cerr != nil {
		log.Error().Err(cerr).Msg("failed to close store")
	}
	return err
}

// openStore builds the repository for the configured driver. The returned close
// function releases the underlying connection.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.UserRepository, func(context.Context) error, error) {
	switch cfg.Store {
	case config.DriverMongo:
		mgr := database.NewMongo(cfg.Database.MongoURI, cfg.Database.Name, cfg.Database.Collection, log)
		if _, err := mgr.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return repository.NewMongoUserRepository(mgr, cfg.Database.Collection), mgr.Close, nil

	case config.DriverPostgres:
		mgr := database.NewPostgres(cfg.Database.PostgresDSN, log)
		if _, err := mgr.DB(ctx); err != nil {
			// the service stays up and reports the failure through /health
			log.Warn().Err(err).Msg("postgres not reachable at startup")
		}
		return repository.NewPostgresUserRepository(mgr, cfg.Database.Collection),
			func(context.Context) error { return mgr.Close() }, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on exit")
		return repository.NewMemoryUserRepository(), func(context.Context) error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver: %q", cfg.Store)
}
