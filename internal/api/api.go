// Package api provides the HTTP server for PulseBot.
//
// It exposes the interview over JSON endpoints: start a session, send a
// message, and read a session's answer history. Every request is handled by
// the flow engine; the server only maps engine results to HTTP statuses.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	metrics "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"

	"github.com/BTreeMap/PulseBot/internal/flow"
)

// Server timeouts
const (
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
)

// Opts holds configuration for the API server.
type Opts struct {
	Registerer prometheus.Registerer // HTTP metrics registry; defaults to prometheus.DefaultRegisterer
}

// Option configures the API server.
type Option func(*Opts)

// WithMetricsRegisterer sets where the HTTP middleware registers its collectors.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *Opts) {
		o.Registerer = reg
	}
}

// Server routes HTTP requests to the dialogue engine.
type Server struct {
	engine *flow.Engine
	router *mux.Router
	mdlw   middleware.Middleware
}

// NewServer creates a Server with routes registered and HTTP metrics attached.
func NewServer(engine *flow.Engine, opts ...Option) *Server {
	cfg := Opts{Registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		engine: engine,
		router: mux.NewRouter(),
		mdlw: middleware.New(middleware.Config{
			Recorder: metrics.NewRecorder(metrics.Config{Registry: cfg.Registerer}),
		}),
	}
	s.routes()
	slog.Debug("Server.NewServer: routes registered")
	return s
}

// Route templates, also used as the handler label of the HTTP metrics.
const (
	RouteStart   = "/api/start"
	RouteMessage = "/api/message"
	RouteHistory = "/api/history/{sessionId}"
	RouteHealth  = "/healthz"
)

// Handler IDs for requests that match no route.
const (
	HandlerIDNotFound         = "not_found"
	HandlerIDMethodNotAllowed = "method_not_allowed"
)

func (s *Server) routes() {
	s.handle(RouteStart, http.MethodGet, s.startHandler)
	s.handle(RouteMessage, http.MethodPost, s.messageHandler)
	s.handle(RouteHistory, http.MethodGet, s.historyHandler)
	s.handle(RouteHealth, http.MethodGet, s.healthHandler)
	s.router.MethodNotAllowedHandler = std.Handler(HandlerIDMethodNotAllowed, s.mdlw, http.HandlerFunc(methodNotAllowedHandler))
	s.router.NotFoundHandler = std.Handler(HandlerIDNotFound, s.mdlw, http.HandlerFunc(notFoundHandler))
}

// handle registers h for one method on a route template. Metrics are labelled
// by the template so path variables never become label values.
func (s *Server) handle(template, method string, h http.HandlerFunc) {
	s.router.Handle(template, std.Handler(template, s.mdlw, h)).Methods(method)
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves the API on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	slog.Info("Server.Run: API listening", "addr", addr)
	return ListenAndServe(ctx, addr, s.router)
}

// ListenAndServe serves h on addr and shuts the listener down gracefully when
// ctx is cancelled. A clean shutdown returns nil.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.Error("ListenAndServe: server failed", "addr", addr, "error", err)
		return err
	case <-ctx.Done():
		slog.Info("ListenAndServe: shutting down", "addr", addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		<-errCh
		if err != nil {
			slog.Error("ListenAndServe: shutdown failed", "addr", addr, "error", err)
		}
		return err
	}
}
