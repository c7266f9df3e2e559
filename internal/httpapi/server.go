// Package httpapi serves the agent's local HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/driftworks/driftd/internal/events"
	"github.com/driftworks/driftd/internal/metrics"
	"github.com/driftworks/driftd/internal/modules"
	"github.com/driftworks/driftd/internal/runner"
)

// RunStore reads recorded apply runs.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]runner.RunSummary, error)
	GetRun(ctx context.Context, id string) (runner.Run, error)
}

// API groups the HTTP handlers and their dependencies.
type API struct {
	registry *modules.Registry
	runner   *runner.Runner
	runs     RunStore
	bus      *events.Bus
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates the HTTP API with explicit dependencies.
func New(
	registry *modules.Registry,
	r *runner.Runner,
	runs RunStore,
	bus *events.Bus,
	m *metrics.Metrics,
	logger *slog.Logger,
) *API {
	return &API{
		registry: registry,
		runner:   r,
		runs:     runs,
		bus:      bus,
		metrics:  m,
		logger:   logger,
	}
}

// Handler builds the routing tree. The websocket route stays outside the
// timeout and logging middleware; a wrapped response writer cannot be
// hijacked for the upgrade.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api/v1/events", a.serveEvents)

	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(60 * time.Second))
		g.Use(RequestLogger(a.logger))

		g.Get("/healthz", a.health)
		g.Handle("/metrics", promhttp.Handler())
		g.Route("/api/v1", func(api chi.Router) {
			api.Get("/functions", a.listFunctions)
			api.Post("/functions/{function}", a.callFunction)
			api.Get("/states", a.listStates)
			api.Post("/apply", a.apply)
			api.Get("/runs", a.listRuns)
			api.Get("/runs/{id}", a.getRun)
		})
	})
	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"modules": a.registry.Modules(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// RunServer starts and gracefully stops the HTTP server with context
// cancellation.
func RunServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "err", err)
			return err
		}
		return nil
	}
}
