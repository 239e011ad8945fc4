package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/samandartukhtayev/graphql-user-service/config"
	"github.com/samandartukhtayev/graphql-user-service/metrics"
	"github.com/samandartukhtayev/graphql-user-service/repository"
)

// Server is the HTTP front door: status routes, the GraphQL endpoint and metrics
type Server struct {
	cfg     *config.Config
	schema  *graphql.Schema
	repo    repository.UserRepository
	logger  zerolog.Logger
	metrics *metrics.Metrics

	handler    http.Handler
	httpServer *http.Server
}

// New wires the routes. m may be nil, in which case /metrics is not served.
func New(cfg *config.Config, schema *graphql.Schema, repo repository.UserRepository, logger zerolog.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		schema:  schema,
		repo:    repo,
		logger:  logger.With().Str("component", "http").Logger(),
		metrics: m,
	}

	r := mux.NewRouter()
	r.Use(s.requestID)
	r.Use(s.accessLog)

	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/graphql", s.handleGraphQL).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if m != nil {
		r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.handler = s.cors(r)
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until Shutdown is called. It returns nil on a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info().Msg("server shutdown complete")
	return nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "running",
		"message": "GraphQL user service is running!",
		"endpoints": map[string]string{
			"graphql": "/graphql (POST)",
			"health":  "/health (GET)",
			"status":  "/ (GET)",
			"metrics": "/metrics (GET)",
		},
	})
}

// maxBodyBytes caps a /graphql request body
const maxBodyBytes = 1 << 20

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []string        `json:"errors,omitempty"`
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error().Interface("panic", v).Msg("graphql handler panic")
			writeErrors(w, fmt.Errorf("internal error: %v", v))
		}
	}()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	var req graphqlRequest
	if err := dec.Decode(&req); err != nil {
		writeErrors(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeErrors(w, errors.New("invalid request body: unexpected data after JSON object"))
		return
	}
	if req.Query == "" {
		writeErrors(w, errors.New("must provide query string"))
		return
	}

	result := s.schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)

	var resp graphqlResponse
	if len(result.Data) > 0 && string(result.Data) != "null" {
		resp.Data = result.Data
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, e.Message)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthTimeout)
	defer cancel()

	status := "connected"
	if err := s.repo.Ping(ctx); err != nil {
		status = "error: " + err.Error()
		s.logger.Warn().Err(err).Msg("health check failed")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"database": status,
		"config": map[string]string{
			"db_name":    s.cfg.Database.Name,
			"collection": s.cfg.Database.Collection,
		},
	})
}

func writeErrors(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, graphqlResponse{Errors: []string{err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
