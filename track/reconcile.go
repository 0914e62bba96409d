package track

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var settleInterval = 20 * time.Second

const (
	settleBudget = 30

	// historyCutoff bounds the one-time reconciliation walk: anything older
	// has no bearing on the current rating window.
	historyCutoff = 48 * time.Hour

	// sessionGap ends "today's session" for the win/loss summary.
	sessionGap = 6 * time.Hour
)

// startSettling launches the promise settlement loop unless one is already
// running.
func (s *Streamer) startSettling() {
	s.mu.Lock()
	if s.settling {
		s.mu.Unlock()
		return
	}
	s.settling = true
	s.mu.Unlock()

	go func() {
		pollLoop(s.ctx, "promise settlement", settleInterval, settleBudget, s.settleStep)
		s.mu.Lock()
		dropped := len(s.promised)
		s.promised = make(map[int64]HeroID)
		s.settling = false
		s.mu.Unlock()
		if dropped > 0 {
			slog.Warn("dropping unsettled promised matches", slog.Int("count", dropped))
		}
	}()
}

// settleStep runs one settlement pass: look promised match ids up in fresh
// history, persist the ones that appeared, fold their rating deltas into one
// storage update, and drop them from the promise set.
func (s *Streamer) settleStep(ctx context.Context, _ int) (bool, error) {
	s.mu.Lock()
	pending := make(map[int64]HeroID, len(s.promised))
	for id, hero := range s.promised {
		pending[id] = hero
	}
	s.mu.Unlock()
	if len(pending) == 0 {
		return true, nil
	}

	history, err := s.api.MatchHistory(ctx, s.accountID, 0)
	if err != nil {
		return false, fmt.Errorf("fetch history: %w", err)
	}

	type settled struct {
		entry   HistoryEntry
		hero    HeroID
		minimal *MinimalMatch
	}
	var (
		mu      sync.Mutex
		results []settled
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range history {
		hero, promisedHere := pending[entry.MatchID]
		if !promisedHere {
			continue
		}
		entry := entry
		g.Go(func() error {
			minimal, err := s.api.MatchMinimal(gctx, entry.MatchID)
			if err != nil {
				return fmt.Errorf("fetch match %d: %w", entry.MatchID, err)
			}
			mu.Lock()
			results = append(results, settled{entry: entry, hero: hero, minimal: minimal})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	if len(results) == 0 {
		return false, nil
	}

	delta := 0
	for _, r := range results {
		outcome := OutcomeFromHistory(r.minimal, r.entry)
		row := LedgerRow{
			MatchID:   r.entry.MatchID,
			AccountID: s.accountID,
			HeroID:    r.hero,
			GameMode:  r.entry.GameMode,
			LobbyType: r.entry.LobbyType,
			StartTime: r.entry.StartTime,
			Outcome:   outcome,
		}
		if err := s.store.UpsertMatch(ctx, row); err != nil {
			return false, fmt.Errorf("persist match %d: %w", r.entry.MatchID, err)
		}
		delta += outcome.MMRChange(r.entry.LobbyType)
		s.setLastGame(NewLastGame(r.minimal, s.accountID, r.hero, outcome))
	}

	// One rating update per pass. Issued even on a zero delta so the stored
	// medal tracks recalibration.
	medal := s.currentMedal(ctx)
	if err := s.store.AdjustRating(ctx, s.accountID, delta, medal); err != nil {
		return false, fmt.Errorf("adjust rating: %w", err)
	}

	s.mu.Lock()
	for _, r := range results {
		delete(s.promised, r.entry.MatchID)
	}
	remaining := len(s.promised)
	s.mu.Unlock()
	slog.Info("settled promised matches", slog.Int("settled", len(results)), slog.Int("remaining", remaining))
	return remaining == 0, nil
}

// FixMatchHistory is the one-time full reconciliation: it walks the
// authoritative history newest-first, persists every match the ledger does
// not know yet, applies the accumulated rating delta in one update and only
// then opens the win/loss summary.
func (s *Streamer) FixMatchHistory(ctx context.Context) error {
	latest, err := s.store.LatestMatchID(ctx, s.accountID)
	if err != nil {
		return fmt.Errorf("latest stored match: %w", err)
	}

	history, err := s.api.MatchHistory(ctx, s.accountID, 0)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	if len(history) > 0 {
		newest := history[0]
		if minimal, err := s.api.MatchMinimal(ctx, newest.MatchID); err == nil {
			s.setLastGame(NewLastGame(minimal, s.accountID, newest.HeroID, OutcomeFromHistory(minimal, newest)))
		} else {
			slog.Warn("last game lookup failed", slog.Int64("match_id", newest.MatchID), slog.Any("err", err))
		}
	}

	cutoff := time.Now().Add(-historyCutoff)
	delta := 0
	inserted := 0
walk:
	for len(history) > 0 {
		for _, entry := range history {
			if entry.MatchID <= latest && latest != 0 {
				break walk
			}
			if entry.StartTime.Before(cutoff) {
				break walk
			}
			outcome := historyOutcome(entry)
			row := LedgerRow{
				MatchID:   entry.MatchID,
				AccountID: s.accountID,
				HeroID:    entry.HeroID,
				GameMode:  entry.GameMode,
				LobbyType: entry.LobbyType,
				StartTime: entry.StartTime,
				Outcome:   outcome,
			}
			if err := s.store.UpsertMatch(ctx, row); err != nil {
				return fmt.Errorf("persist match %d: %w", entry.MatchID, err)
			}
			delta += outcome.MMRChange(entry.LobbyType)
			inserted++
		}
		last := history[len(history)-1]
		history, err = s.api.MatchHistory(ctx, s.accountID, last.MatchID)
		if err != nil {
			return fmt.Errorf("fetch history page after %d: %w", last.MatchID, err)
		}
	}

	if inserted > 0 {
		medal := s.currentMedal(ctx)
		if err := s.store.AdjustRating(ctx, s.accountID, delta, medal); err != nil {
			return fmt.Errorf("adjust rating: %w", err)
		}
	}

	s.mu.Lock()
	s.matchHistoryRdy = true
	s.mu.Unlock()
	slog.Info("match history reconciled", slog.Int("inserted", inserted), slog.Int("rating_delta", delta))
	return nil
}

// historyOutcome derives the per-player outcome from a history entry alone,
// for the reconciliation walk where per-match summaries would cost one extra
// request each.
func historyOutcome(entry HistoryEntry) PlayerMatchOutcome {
	switch {
	case entry.Abandon:
		return PlayerAbandon
	case entry.Win:
		return PlayerWin
	default:
		return PlayerLoss
	}
}

// currentMedal best-effort refreshes the streamer's own medal for rating
// updates; an empty string leaves the stored one untouched.
func (s *Streamer) currentMedal(ctx context.Context) string {
	card, err := s.api.ProfileCard(ctx, s.accountID)
	if err != nil || card == nil {
		return ""
	}
	return RankMedal(card)
}

// WinLossSummary tallies today's session from the ledger: stored matches
// newest-first, cut at the first gap over six hours between consecutive start
// times, grouped by queue category. Non-binary outcomes are skipped without
// ending the session.
func (s *Streamer) WinLossSummary(ctx context.Context) string {
	if !s.MatchHistoryReady() {
		return "Match history is still being reconciled, try again in a minute."
	}
	rows, err := s.store.RecentMatches(ctx, s.accountID)
	if err != nil {
		slog.Error("win/loss query failed", slog.Any("err", err))
		return "Failed to read the match ledger."
	}

	type tally struct{ wins, losses int }
	counts := make(map[WinLossCategory]*tally)
	var prev time.Time
	for _, row := range rows {
		if !prev.IsZero() && prev.Sub(row.StartTime) > sessionGap {
			break
		}
		prev = row.StartTime
		if !row.Outcome.Valid() {
			continue
		}
		cat := Categorize(row.LobbyType, row.GameMode)
		if counts[cat] == nil {
			counts[cat] = &tally{}
		}
		if row.Outcome == PlayerWin {
			counts[cat].wins++
		} else {
			counts[cat].losses++
		}
	}
	if len(counts) == 0 {
		return "No games played today."
	}

	order := make([]WinLossCategory, 0, len(counts))
	for cat := range counts {
		order = append(order, cat)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	parts := make([]string, 0, len(order))
	for _, cat := range order {
		t := counts[cat]
		parts = append(parts, fmt.Sprintf("%s %dW-%dL", cat, t.wins, t.losses))
	}
	return strings.Join(parts, " • ")
}

// RatingSummary reads the stored MMR and medal.
func (s *Streamer) RatingSummary(ctx context.Context) string {
	mmr, medal, err := s.store.Rating(ctx, s.accountID)
	if err != nil {
		slog.Error("rating query failed", slog.Any("err", err))
		return "Failed to read the stored rating."
	}
	if medal == "" {
		medal = "Uncalibrated"
	}
	return fmt.Sprintf("%d MMR (%s)", mmr, medal)
}

// LastGameSummary renders the most recently finished game.
func (s *Streamer) LastGameSummary() string {
	lg := s.LastGame()
	if lg == nil {
		return "No finished game on record yet."
	}
	return lg.Summary()
}
