// Package server exposes the bridge's operational HTTP surface: health,
// readiness, status, and Prometheus metrics. It injects correlation IDs into
// request contexts for consistent logging.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/slack-irc-bridge/telemetry"
)

// Probe is what the handlers report on: connection state of both
// collaborators plus a couple of static facts.
type Probe struct {
	Started    time.Time
	IRCReady   func() bool
	SlackReady func() bool
	Channels   int
}

// NewMux returns the HTTP handler with all routes.
func NewMux(probe Probe) http.Handler {
	h := &handlers{probe: probe}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", h.handleHealthz)
	mux.HandleFunc("/readyz", h.handleReadyz)
	mux.HandleFunc("/status", h.handleStatus)
	return withCorrelation(mux)
}

// Start runs the ops server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Start(ctx context.Context, addr string, probe Probe) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(probe),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown failed", slog.Any("err", err))
		}
	}()
	slog.Info("http server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// withCorrelation reuses the X-Correlation-ID header if provided, else
// generates one, exposes it to downstream logging, and opens a span per
// request carrying the same id.
func withCorrelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		ctx, span := telemetry.StartSpan(ctx, "server", r.Method+" "+r.URL.Path)
		defer span.End()
		w.Header().Set("X-Correlation-ID", corr)
		telemetry.LoggerWithCorr(ctx).Debug("request",
			slog.String("method", r.Method), slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
