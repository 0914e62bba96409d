package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/irskel/dotatrack/db"
	"github.com/irskel/dotatrack/testutil"
	"github.com/irskel/dotatrack/track"
)

const testAccount = 86599897

func TestLedgerRoundTrip(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	if _, err := database.ExecContext(ctx, `DELETE FROM dota_matches WHERE account_id = $1`, testAccount); err != nil {
		t.Fatalf("clean matches: %v", err)
	}
	if _, err := database.ExecContext(ctx, `DELETE FROM dota_streamers WHERE account_id = $1`, testAccount); err != nil {
		t.Fatalf("clean streamers: %v", err)
	}
	ledger := &db.Ledger{DB: database}

	now := time.Now().Truncate(time.Second)
	row := track.LedgerRow{
		MatchID:   8000123,
		AccountID: testAccount,
		HeroID:    14,
		GameMode:  track.ModeAllDraft,
		LobbyType: track.LobbyRanked,
		StartTime: now,
		Outcome:   track.PlayerWin,
	}
	if err := ledger.UpsertMatch(ctx, row); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Upsert with a corrected outcome must not duplicate the row.
	row.Outcome = track.PlayerLoss
	if err := ledger.UpsertMatch(ctx, row); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	latest, err := ledger.LatestMatchID(ctx, testAccount)
	if err != nil {
		t.Fatalf("latest match id: %v", err)
	}
	if latest != 8000123 {
		t.Fatalf("latest = %d, want 8000123", latest)
	}

	rows, err := ledger.RecentMatches(ctx, testAccount)
	if err != nil {
		t.Fatalf("recent matches: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got := rows[0]
	if got.Outcome != track.PlayerLoss || got.HeroID != 14 || got.LobbyType != track.LobbyRanked {
		t.Fatalf("row = %+v", got)
	}
}

func TestAdjustRatingAccumulates(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	if _, err := database.ExecContext(ctx, `DELETE FROM dota_streamers WHERE account_id = $1`, testAccount); err != nil {
		t.Fatalf("clean: %v", err)
	}
	ledger := &db.Ledger{DB: database}

	if err := ledger.AdjustRating(ctx, testAccount, 25, "Divine ★1"); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if err := ledger.AdjustRating(ctx, testAccount, -25, ""); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if err := ledger.AdjustRating(ctx, testAccount, 25, "Divine ★2"); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	mmr, medal, err := ledger.Rating(ctx, testAccount)
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	if mmr != 25 {
		t.Fatalf("mmr = %d, want 25", mmr)
	}
	// The empty medal update must not have wiped the stored one.
	if medal != "Divine ★2" {
		t.Fatalf("medal = %q, want Divine ★2", medal)
	}
}

func TestRatingMissingAccount(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ledger := &db.Ledger{DB: database}
	mmr, medal, err := ledger.Rating(context.Background(), 4242424242)
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	if mmr != 0 || medal != "" {
		t.Fatalf("rating = (%d, %q), want zero values", mmr, medal)
	}
}

func TestCleanupOldMatchesKeepsNewest(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()
	if _, err := database.ExecContext(ctx, `DELETE FROM dota_matches WHERE account_id = $1`, testAccount); err != nil {
		t.Fatalf("clean: %v", err)
	}
	ledger := &db.Ledger{DB: database}

	old := time.Now().Add(-100 * time.Hour)
	for i, id := range []int64{1, 2, 3} {
		row := track.LedgerRow{
			MatchID:   id,
			AccountID: testAccount,
			StartTime: old.Add(time.Duration(i) * time.Hour),
			Outcome:   track.PlayerWin,
		}
		if err := ledger.UpsertMatch(ctx, row); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	deleted, err := db.CleanupOldMatches(ctx, database, testAccount, 48*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	latest, err := ledger.LatestMatchID(ctx, testAccount)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != 3 {
		t.Fatalf("latest = %d, newest row must survive cleanup", latest)
	}
}
