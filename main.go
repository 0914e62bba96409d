// Command dotatrack tracks a single player's live Dota sessions for their
// Twitch channel. It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Polls Steam rich presence and drives the match state machine.
//   - Reconciles the persisted match ledger against OpenDota history.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/irskel/dotatrack/chat"
	"github.com/irskel/dotatrack/config"
	"github.com/irskel/dotatrack/db"
	"github.com/irskel/dotatrack/gameapi"
	"github.com/irskel/dotatrack/opendota"
	"github.com/irskel/dotatrack/server"
	"github.com/irskel/dotatrack/steamapi"
	"github.com/irskel/dotatrack/telemetry"
	"github.com/irskel/dotatrack/track"
)

const (
	ledgerRetention  = 48 * time.Hour
	cleanupInterval  = 6 * time.Hour
	constantsRefresh = 24 * time.Hour
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	initLogging()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing("dotatrack", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	database, err := db.Connect()
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()
	if err := db.Migrate(context.Background(), database); err != nil {
		slog.Error("failed to migrate db", slog.Any("err", err))
		os.Exit(1)
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openDota := &opendota.Client{
		APIKey:  os.Getenv("OPENDOTA_API_KEY"),
		Limiter: opendota.NewRateLimiter(opendota.Headers{}),
	}
	api := &gameapi.Composite{
		Steam:    &steamapi.Client{APIKey: cfg.SteamWebAPIKey},
		OpenDota: openDota,
	}
	store := &instrumentedStore{inner: &db.Ledger{DB: database}}
	announcer := chat.NewAnnouncer(ctx, cfg.TwitchChannel, cfg.TwitchBotUsername, cfg.TwitchOAuthToken)
	streamer := track.NewStreamer(ctx, api, store, &metricsSink{inner: announcer}, cfg.SteamID64, cfg.AccountID)

	go presenceDriver(ctx, streamer, cfg.PresencePollInterval)
	go reconcileWorker(ctx, streamer, database, cfg.AccountID)
	go constantsWorker(ctx, openDota)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	go func() {
		if err := server.Start(ctx, database, streamer, addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}

// initLogging configures slog from LOG_LEVEL and LOG_FORMAT (text | json).
func initLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()))
}

// presenceDriver invokes the state machine serially on a fixed cadence and
// keeps the tracker gauges current.
func presenceDriver(ctx context.Context, streamer *track.Streamer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var lastMatchID int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		telemetry.PresencePolls.Inc()
		if err := streamer.Update(ctx); err != nil {
			slog.Warn("presence update failed", slog.Any("err", err))
		}
		if id, _, ok := streamer.ActiveMatchID(); ok && id != 0 && id != lastMatchID {
			lastMatchID = id
			telemetry.MatchesTracked.Inc()
		}
		telemetry.PromisedMatchesGauge.Set(float64(streamer.PromisedCount()))
		if streamer.MatchHistoryReady() {
			telemetry.HistoryReadyGauge.Set(1)
		}
	}
}

// reconcileWorker runs the one-time history reconciliation, then keeps the
// ledger within its retention window.
func reconcileWorker(ctx context.Context, streamer *track.Streamer, database *sql.DB, accountID uint32) {
	spanCtx, span := telemetry.StartSpan(ctx, "dotatrack", "fix_match_history")
	if err := streamer.FixMatchHistory(spanCtx); err != nil {
		telemetry.RecordError(span, err)
		slog.Error("match history reconciliation failed", slog.Any("err", err))
	} else {
		telemetry.SetSpanSuccess(span)
	}
	span.End()
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := db.CleanupOldMatches(ctx, database, accountID, ledgerRetention)
			if err != nil {
				slog.Warn("ledger cleanup failed", slog.Any("err", err))
			} else if deleted > 0 {
				slog.Info("ledger cleanup done", slog.Int64("deleted", deleted))
			}
		}
	}
}

// constantsWorker keeps the item constants table warm.
func constantsWorker(ctx context.Context, client *opendota.Client) {
	if err := client.RefreshConstants(ctx); err != nil {
		slog.Warn("initial constants fetch failed", slog.Any("err", err))
	}
	ticker := time.NewTicker(constantsRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.RefreshConstants(ctx); err != nil {
				slog.Warn("constants refresh failed", slog.Any("err", err))
			}
		}
	}
}

// metricsSink layers Prometheus counters over the chat announcer.
type metricsSink struct {
	inner *chat.Announcer
}

func (m *metricsSink) RichPresenceChanged(status track.RPStatus) {
	telemetry.PresenceChanges.Inc()
	m.inner.RichPresenceChanged(status)
}

func (m *metricsSink) StreamerReset(reason string) {
	telemetry.StreamerResets.Inc()
	m.inner.StreamerReset(reason)
}

func (m *metricsSink) MatchDataReady() { m.inner.MatchDataReady() }
func (m *metricsSink) MatchHeroReady() { m.inner.MatchHeroReady() }

// instrumentedStore counts reconciler writes on their way to the ledger.
type instrumentedStore struct {
	inner track.Store
}

func (s *instrumentedStore) UpsertMatch(ctx context.Context, row track.LedgerRow) error {
	err := s.inner.UpsertMatch(ctx, row)
	if err == nil {
		telemetry.ReconcilerInserts.Inc()
	}
	return err
}

func (s *instrumentedStore) AdjustRating(ctx context.Context, accountID uint32, delta int, medal string) error {
	return s.inner.AdjustRating(ctx, accountID, delta, medal)
}

func (s *instrumentedStore) LatestMatchID(ctx context.Context, accountID uint32) (int64, error) {
	return s.inner.LatestMatchID(ctx, accountID)
}

func (s *instrumentedStore) RecentMatches(ctx context.Context, accountID uint32) ([]track.LedgerRow, error) {
	return s.inner.RecentMatches(ctx, accountID)
}

func (s *instrumentedStore) Rating(ctx context.Context, accountID uint32) (int, string, error) {
	return s.inner.Rating(ctx, accountID)
}
