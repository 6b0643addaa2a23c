// Package server exposes the client's metrics and health over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fenggwsx/StartupMatch/internal/store"
)

const shutdownTimeout = 5 * time.Second

// StateReporter describes the persistence backend health.
type StateReporter interface {
	State() string
}

// App serves /metrics, /healthz and /state.
type App struct {
	addr      string
	store     *store.Store
	gatherer  prometheus.Gatherer
	storage   StateReporter
	logger    *zap.Logger
	srv       *http.Server
	closeOnce sync.Once
}

// NewApp constructs a server for st. storage may be nil.
func NewApp(addr string, st *store.Store, gatherer prometheus.Gatherer, storage StateReporter, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		addr:     addr,
		store:    st,
		gatherer: gatherer,
		storage:  storage,
		logger:   logger,
	}
	a.srv = &http.Server{
		Handler:           a.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a
}

// Routes builds the router.
func (a *App) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", a.handleHealth)
	r.Get("/state", a.handleState)
	return r
}

// Run serves until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	a.logger.Info("metrics server listening", zap.String("addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		err := a.srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		a.Close()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// Close shuts the server down, waiting briefly for in-flight requests.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.srv.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown", zap.Error(err))
		}
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	Phase   string `json:"phase"`
	Storage string `json:"storage,omitempty"`
}

// handleHealth reports 503 while the store is not hydrated or once the
// breaker opens.
func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Phase: a.store.Phase().String()}
	code := http.StatusOK
	switch a.store.Phase() {
	case store.PhaseHydrated, store.PhaseLive:
	default:
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	if a.storage != nil {
		resp.Storage = a.storage.State()
		if resp.Storage == "open" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	a.writeJSON(w, code, resp)
}

type stateResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
	Projects      int    `json:"projects"`
	Connections   int    `json:"connections"`
	Pending       int    `json:"pending_connections"`
	Notifications int    `json:"notifications"`
	Unread        int    `json:"unread"`
	Matches       int    `json:"matches"`
	Theme         string `json:"theme"`
	Page          int    `json:"page"`
}

func (a *App) handleState(w http.ResponseWriter, _ *http.Request) {
	s := a.store.State()
	resp := stateResponse{
		Authenticated: store.SelectAuthenticated(s),
		Projects:      len(store.SelectProjects(s)),
		Connections:   len(store.SelectConnections(s)),
		Pending:       len(store.SelectPendingConnections(s)),
		Notifications: len(store.SelectNotifications(s)),
		Unread:        store.SelectUnreadCount(s),
		Matches:       len(store.SelectMatches(s)),
		Theme:         store.SelectUI(s).Theme,
		Page:          store.SelectPagination(s).Page,
	}
	if u := store.SelectUser(s); u != nil {
		resp.User = u.Name
	}
	a.writeJSON(w, http.StatusOK, resp)
}

// writeJSON sends v with the given status. The status line is already out
// when encoding fails, so the failure is only logged.
func (a *App) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Debug("write response", zap.Int("status", code), zap.Error(err))
	}
}
