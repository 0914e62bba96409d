package track

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFixMatchHistoryInsertsOnlyNewerMatches(t *testing.T) {
	now := time.Now()
	entry := func(id int64, win bool, age time.Duration) HistoryEntry {
		return HistoryEntry{
			MatchID:   id,
			HeroID:    14,
			StartTime: now.Add(-age),
			Duration:  40 * time.Minute,
			Win:       win,
			LobbyType: LobbyRanked,
			GameMode:  ModeAllDraft,
		}
	}
	remote := []HistoryEntry{
		entry(105, true, 1*time.Hour),
		entry(104, true, 2*time.Hour),
		entry(103, false, 3*time.Hour),
		entry(100, true, 4*time.Hour),
		entry(99, true, 5*time.Hour),
	}
	api := &fakeAPI{
		history: func(_ uint32, startAt int64) ([]HistoryEntry, error) {
			if startAt != 0 {
				t.Fatalf("unexpected pagination from %d", startAt)
			}
			return remote, nil
		},
		minimal: func(matchID int64) (*MinimalMatch, error) {
			return &MinimalMatch{
				MatchID:   matchID,
				StartTime: now.Add(-1 * time.Hour),
				Duration:  40 * time.Minute,
				Outcome:   OutcomeRadiantVictory,
				LobbyType: LobbyRanked,
				GameMode:  ModeAllDraft,
				Players:   []MinimalPlayer{{AccountID: 7, HeroID: 14, Kills: 10, Deaths: 3, Assists: 8}},
			}, nil
		},
		profileCard: func(uint32) (*ProfileCard, error) {
			return &ProfileCard{RankTier: 62}, nil
		},
	}
	store := newMemStore()
	store.rows[100] = LedgerRow{MatchID: 100, StartTime: now.Add(-4 * time.Hour)}

	s := NewStreamer(context.Background(), api, store, NopSink{}, 1, 7)
	if err := s.FixMatchHistory(context.Background()); err != nil {
		t.Fatalf("fix match history: %v", err)
	}

	for _, id := range []int64{105, 104, 103} {
		if _, ok := store.rows[id]; !ok {
			t.Errorf("match %d not inserted", id)
		}
	}
	if _, ok := store.rows[99]; ok {
		t.Error("match 99 older than the known id was inserted")
	}
	if len(store.rows) != 4 {
		t.Fatalf("ledger rows = %d, want 4", len(store.rows))
	}
	// Two ranked wins, one ranked loss: one accumulated +25 update.
	if store.adjustCalls != 1 {
		t.Fatalf("rating updates = %d, want 1", store.adjustCalls)
	}
	if store.mmr != 25 {
		t.Fatalf("mmr delta = %d, want 25", store.mmr)
	}
	if !s.MatchHistoryReady() {
		t.Fatal("matchHistoryReady not set")
	}
	if lg := s.LastGame(); lg == nil || lg.MatchID != 105 {
		t.Fatalf("last game = %+v, want match 105", lg)
	}
}

func TestFixMatchHistoryStopsAtCutoff(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		history: func(_ uint32, startAt int64) ([]HistoryEntry, error) {
			if startAt != 0 {
				return nil, nil
			}
			return []HistoryEntry{
				{MatchID: 50, StartTime: now.Add(-1 * time.Hour), Win: true, LobbyType: LobbyRanked},
				{MatchID: 49, StartTime: now.Add(-72 * time.Hour), Win: true, LobbyType: LobbyRanked},
			}, nil
		},
		minimal: func(matchID int64) (*MinimalMatch, error) {
			return &MinimalMatch{MatchID: matchID, Outcome: OutcomeRadiantVictory}, nil
		},
		profileCard: func(uint32) (*ProfileCard, error) {
			return &ProfileCard{RankTier: 11}, nil
		},
	}
	store := newMemStore()
	s := NewStreamer(context.Background(), api, store, NopSink{}, 1, 7)
	if err := s.FixMatchHistory(context.Background()); err != nil {
		t.Fatalf("fix match history: %v", err)
	}
	if _, ok := store.rows[49]; ok {
		t.Error("match beyond the 48h cutoff was inserted")
	}
	if len(store.rows) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(store.rows))
	}
}

func TestSettleStepPersistsPromisedMatch(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		history: func(uint32, int64) ([]HistoryEntry, error) {
			return []HistoryEntry{
				{MatchID: 300, HeroID: 14, StartTime: now, Win: true, LobbyType: LobbyRanked, GameMode: ModeAllDraft},
				{MatchID: 299, HeroID: 2, StartTime: now.Add(-time.Hour), Win: false, LobbyType: LobbyRanked},
			}, nil
		},
		minimal: func(matchID int64) (*MinimalMatch, error) {
			return &MinimalMatch{
				MatchID:   matchID,
				StartTime: now,
				Duration:  30 * time.Minute,
				Outcome:   OutcomeRadiantVictory,
				LobbyType: LobbyRanked,
				Players:   []MinimalPlayer{{AccountID: 7, HeroID: 14, Kills: 5, Deaths: 1, Assists: 9}},
			}, nil
		},
		profileCard: func(uint32) (*ProfileCard, error) {
			return &ProfileCard{RankTier: 74}, nil
		},
	}
	store := newMemStore()
	s := NewStreamer(context.Background(), api, store, NopSink{}, 1, 7)
	s.promised[300] = 14

	done, err := s.settleStep(context.Background(), 0)
	if err != nil {
		t.Fatalf("settle step: %v", err)
	}
	if !done {
		t.Fatal("settle step not done with an empty promise set")
	}
	row, ok := store.rows[300]
	if !ok {
		t.Fatal("promised match not persisted")
	}
	if row.Outcome != PlayerWin || row.HeroID != 14 {
		t.Fatalf("row = %+v, want ranked win as Pudge", row)
	}
	if store.mmr != 25 || store.adjustCalls != 1 {
		t.Fatalf("rating = (%d, %d calls), want (25, 1)", store.mmr, store.adjustCalls)
	}
	if store.medal != "Divine ★4" {
		t.Fatalf("medal = %q, want Divine ★4", store.medal)
	}
	if len(s.promised) != 0 {
		t.Fatalf("promised = %v, want empty", s.promised)
	}
	lg := s.LastGame()
	if lg == nil || lg.MatchID != 300 || lg.Kills != 5 {
		t.Fatalf("last game = %+v, want settled match 300", lg)
	}
}

func TestSettleStepWaitsForHistory(t *testing.T) {
	api := &fakeAPI{
		history: func(uint32, int64) ([]HistoryEntry, error) {
			return []HistoryEntry{{MatchID: 100, StartTime: time.Now()}}, nil
		},
	}
	store := newMemStore()
	s := NewStreamer(context.Background(), api, store, NopSink{}, 1, 7)
	s.promised[300] = 14

	done, err := s.settleStep(context.Background(), 0)
	if err != nil || done {
		t.Fatalf("settle step = (%v, %v), want pending without error", done, err)
	}
	if len(store.rows) != 0 || store.adjustCalls != 0 {
		t.Fatal("settlement wrote to storage before the match appeared in history")
	}
}

func TestWinLossSummarySessionGap(t *testing.T) {
	now := time.Now()
	store := newMemStore()
	add := func(id int64, age time.Duration, outcome PlayerMatchOutcome, lobby LobbyType, mode GameMode) {
		store.rows[id] = LedgerRow{
			MatchID: id, AccountID: 7, StartTime: now.Add(-age),
			Outcome: outcome, LobbyType: lobby, GameMode: mode,
		}
	}
	add(5, 0, PlayerWin, LobbyRanked, ModeAllDraft)
	add(4, 1*time.Hour, PlayerLoss, LobbyRanked, ModeAllDraft)
	add(3, 2*time.Hour, PlayerAbandon, LobbyRanked, ModeAllDraft)
	add(2, 3*time.Hour, PlayerWin, LobbyUnranked, ModeTurbo)
	add(1, 10*time.Hour, PlayerWin, LobbyRanked, ModeAllDraft)

	s := NewStreamer(context.Background(), &fakeAPI{}, store, NopSink{}, 1, 7)

	if got := s.WinLossSummary(context.Background()); !strings.Contains(got, "reconciled") {
		t.Fatalf("summary before reconciliation = %q, want gate message", got)
	}

	s.matchHistoryRdy = true
	got := s.WinLossSummary(context.Background())
	if !strings.Contains(got, "Ranked 1W-1L") {
		t.Errorf("summary = %q, want Ranked 1W-1L", got)
	}
	if !strings.Contains(got, "Turbo 1W-0L") {
		t.Errorf("summary = %q, want Turbo 1W-0L", got)
	}
	if strings.Contains(got, "2W") {
		t.Errorf("summary = %q, match beyond the 6h gap leaked in", got)
	}
}

func TestWinLossSummaryEmpty(t *testing.T) {
	s := NewStreamer(context.Background(), &fakeAPI{}, newMemStore(), NopSink{}, 1, 7)
	s.matchHistoryRdy = true
	if got := s.WinLossSummary(context.Background()); got != "No games played today." {
		t.Errorf("summary = %q", got)
	}
}

func TestRatingSummary(t *testing.T) {
	store := newMemStore()
	store.mmr = 5320
	store.medal = "Divine ★1"
	s := NewStreamer(context.Background(), &fakeAPI{}, store, NopSink{}, 1, 7)
	if got := s.RatingSummary(context.Background()); got != "5320 MMR (Divine ★1)" {
		t.Errorf("RatingSummary() = %q", got)
	}
}
