// Package server exposes the HTTP surface: health and readiness probes, a
// tracker status snapshot, and Prometheus metrics. It injects correlation IDs
// into request contexts for consistent logging.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/irskel/dotatrack/telemetry"
	"github.com/irskel/dotatrack/track"
)

// Start serves the HTTP surface until ctx is cancelled, then shuts down
// gracefully.
func Start(ctx context.Context, db *sql.DB, streamer *track.Streamer, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(db, streamer),
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
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()
	slog.Info("http server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handlers carries the dependencies the HTTP endpoints read from.
type Handlers struct {
	db       *sql.DB
	streamer *track.Streamer
}

// NewMux returns the HTTP handler with all routes.
func NewMux(db *sql.DB, streamer *track.Streamer) http.Handler {
	h := &Handlers{db: db, streamer: streamer}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", h.HandleHealthz)
	mux.HandleFunc("/readyz", h.HandleReadyz)
	mux.HandleFunc("/status", h.HandleStatus)

	return withCorrelation(mux)
}

// withCorrelation assigns every request a correlation id, honoring one the
// caller already set.
func withCorrelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.NewString()
		}
		w.Header().Set("X-Correlation-ID", corr)
		next.ServeHTTP(w, r.WithContext(telemetry.WithCorrelation(r.Context(), corr)))
	})
}

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests by checking database
// connectivity.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.db.PingContext(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":       "not_ready",
			"failed_check": "database",
			"error":        err.Error(),
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus reports a snapshot of the tracker's state machine.
func (h *Handlers) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		PresenceStatus  string `json:"presence_status"`
		ActiveMatchID   int64  `json:"active_match_id,omitempty"`
		Spectating      bool   `json:"spectating,omitempty"`
		PromisedMatches int    `json:"promised_matches"`
		HistoryReady    bool   `json:"history_ready"`
	}
	out := status{
		PresenceStatus:  h.streamer.Status().DisplayName(),
		PromisedMatches: h.streamer.PromisedCount(),
		HistoryReady:    h.streamer.MatchHistoryReady(),
	}
	if id, isWatch, ok := h.streamer.ActiveMatchID(); ok {
		out.ActiveMatchID = id
		out.Spectating = isWatch
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}
