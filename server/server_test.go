package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/irskel/dotatrack/track"
)

// sinkAPI satisfies track.GameAPI; the handlers never call it.
type sinkAPI struct{}

func (sinkAPI) Presence(context.Context, uint64) (map[string]string, error) { return nil, nil }
func (sinkAPI) LiveMatch(context.Context, int64) (*track.MatchSnapshot, error) {
	return nil, nil
}
func (sinkAPI) RealtimeStats(context.Context, uint64) (*track.RealtimeStats, error) {
	return nil, nil
}
func (sinkAPI) MatchHistory(context.Context, uint32, int64) ([]track.HistoryEntry, error) {
	return nil, nil
}
func (sinkAPI) MatchMinimal(context.Context, int64) (*track.MinimalMatch, error) {
	return nil, nil
}
func (sinkAPI) ProfileCard(context.Context, uint32) (*track.ProfileCard, error) {
	return nil, nil
}
func (sinkAPI) ItemName(context.Context, int) (string, error) { return "", nil }

// sinkStore satisfies track.Store; the handlers never call it.
type sinkStore struct{}

func (sinkStore) UpsertMatch(context.Context, track.LedgerRow) error           { return nil }
func (sinkStore) AdjustRating(context.Context, uint32, int, string) error      { return nil }
func (sinkStore) LatestMatchID(context.Context, uint32) (int64, error)         { return 0, nil }
func (sinkStore) RecentMatches(context.Context, uint32) ([]track.LedgerRow, error) {
	return nil, nil
}
func (sinkStore) Rating(context.Context, uint32) (int, string, error) { return 0, "", nil }

func newTestMux(t *testing.T) http.Handler {
	t.Helper()
	streamer := track.NewStreamer(context.Background(), sinkAPI{}, sinkStore{}, track.NopSink{}, 1, 1)
	return NewMux(nil, streamer)
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestStatusSnapshot(t *testing.T) {
	mux := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		PresenceStatus  string `json:"presence_status"`
		PromisedMatches int    `json:"promised_matches"`
		HistoryReady    bool   `json:"history_ready"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.PresenceStatus != "Offline/Invisible" {
		t.Fatalf("presence_status = %q", body.PresenceStatus)
	}
	if body.PromisedMatches != 0 || body.HistoryReady {
		t.Fatalf("body = %+v, want pristine tracker state", body)
	}
}

func TestCorrelationIDAssigned(t *testing.T) {
	mux := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Fatal("no correlation id assigned")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "fixed-id")
	mux.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Correlation-ID"); got != "fixed-id" {
		t.Fatalf("correlation id = %q, want caller's preserved", got)
	}
}
