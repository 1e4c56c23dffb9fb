// Package server exposes the bot's operational HTTP endpoints: health, a
// status page and Prometheus metrics.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timely-greeter/timezone"
)

//go:embed tmpl/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "tmpl/*.tmpl"))

const shutdownTimeout = 10 * time.Second

// Subscribers reports the subscriber count.
type Subscribers interface {
	Len() int
}

// Scheduler exposes per-zone greeting state.
type Scheduler interface {
	LastGreeted(zone string) (time.Time, bool)
	NextGreeting(z timezone.Zone, now time.Time) time.Time
}

// Poller exposes the update watermark.
type Poller interface {
	Watermark() int64
}

// Server handles HTTP requests.
type Server struct {
	subscribers Subscribers
	scheduler   Scheduler
	poller      Poller
	logger      *slog.Logger
	now         func() time.Time
	zones       []timezone.Zone
}

// Config holds server configuration.
type Config struct {
	Subscribers Subscribers
	Scheduler   Scheduler
	Poller      Poller
	Logger      *slog.Logger
	Now         func() time.Time // Defaults to time.Now
	Zones       []timezone.Zone
}

// New creates a new HTTP server handler.
func New(cfg *Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		subscribers: cfg.Subscribers,
		scheduler:   cfg.Scheduler,
		poller:      cfg.Poller,
		logger:      cfg.Logger,
		now:         now,
		zones:       cfg.Zones,
	}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Run serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port string) error {
	// Configure server with timeouts to prevent resource exhaustion
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "port", port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, `{"status":"healthy"}`); err != nil {
		s.logger.Warn("Failed to write health response", "error", err)
	}
}
