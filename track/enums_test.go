package track

import (
	"strings"
	"testing"
	"time"
)

func TestMMRChange(t *testing.T) {
	tests := []struct {
		outcome PlayerMatchOutcome
		lobby   LobbyType
		want    int
	}{
		{PlayerWin, LobbyRanked, 25},
		{PlayerLoss, LobbyRanked, -25},
		{PlayerWin, LobbyUnranked, 0},
		{PlayerLoss, LobbyNewPlayerMode, 0},
		{PlayerAbandon, LobbyRanked, 0},
		{PlayerNotScored, LobbyRanked, 0},
		{PlayerOther, LobbyRanked, 0},
	}
	for _, tt := range tests {
		if got := tt.outcome.MMRChange(tt.lobby); got != tt.want {
			t.Errorf("%v.MMRChange(%v) = %d, want %d", tt.outcome, tt.lobby, got, tt.want)
		}
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		lobby LobbyType
		mode  GameMode
		want  WinLossCategory
	}{
		{LobbyRanked, ModeAllDraft, CategoryRanked},
		{LobbyRanked, ModeTurbo, CategoryRanked},
		{LobbyUnranked, ModeAllDraft, CategoryUnranked},
		{LobbyUnranked, ModeTurbo, CategoryTurbo},
		{LobbyNewPlayerMode, ModeAllPick, CategoryNewPlayerMode},
		{LobbyBattleCup, ModeCaptains, CategoryOther},
	}
	for _, tt := range tests {
		if got := Categorize(tt.lobby, tt.mode); got != tt.want {
			t.Errorf("Categorize(%v, %v) = %v, want %v", tt.lobby, tt.mode, got, tt.want)
		}
	}
}

func TestOutcomeFromHistory(t *testing.T) {
	scored := &MinimalMatch{Outcome: OutcomeRadiantVictory}
	notScored := &MinimalMatch{Outcome: OutcomeNotScoredPoorNetwork}
	unknown := &MinimalMatch{Outcome: OutcomeUnknown}

	tests := []struct {
		name    string
		minimal *MinimalMatch
		entry   HistoryEntry
		want    PlayerMatchOutcome
	}{
		{"scored win", scored, HistoryEntry{Win: true}, PlayerWin},
		{"scored loss", scored, HistoryEntry{}, PlayerLoss},
		{"abandon trumps result", scored, HistoryEntry{Win: true, Abandon: true}, PlayerAbandon},
		{"not scored", notScored, HistoryEntry{Win: true}, PlayerNotScored},
		{"unknown outcome", unknown, HistoryEntry{Win: true}, PlayerOther},
	}
	for _, tt := range tests {
		if got := OutcomeFromHistory(tt.minimal, tt.entry); got != tt.want {
			t.Errorf("%s: OutcomeFromHistory = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLastGameSummary(t *testing.T) {
	start := time.Now().Add(-3 * time.Hour)
	minimal := &MinimalMatch{
		MatchID:   8123,
		StartTime: start,
		Duration:  42 * time.Minute,
		Outcome:   OutcomeRadiantVictory,
		LobbyType: LobbyRanked,
		GameMode:  ModeAllDraft,
		Players: []MinimalPlayer{
			{AccountID: 7, HeroID: 14, Kills: 11, Deaths: 4, Assists: 16},
			{AccountID: 8, HeroID: 22},
		},
	}
	lg := NewLastGame(minimal, 7, 0, PlayerWin)
	if lg.Hero != 14 {
		t.Fatalf("hero = %d, want seat lookup by account id", lg.Hero)
	}
	got := lg.Summary()
	for _, want := range []string{"Win as Pudge", "11/4/16", "Ranked (All Draft)", "dotabuff.com/matches/8123"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() = %q, missing %q", got, want)
		}
	}

	// Anonymous seat: fall back to the hero the streamer was seen on.
	anon := &MinimalMatch{MatchID: 1, Players: []MinimalPlayer{{AccountID: 0, HeroID: 44, Kills: 3}}}
	lg = NewLastGame(anon, 7, 44, PlayerLoss)
	if lg.Kills != 3 {
		t.Fatalf("kills = %d, want hero fallback to find the seat", lg.Kills)
	}
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "moments"},
		{20 * time.Second, "moments"},
		{5 * time.Minute, "5m"},
		{2*time.Hour + 13*time.Minute, "2h 13m"},
		{-time.Hour, "moments"},
	}
	for _, tt := range tests {
		if got := humanDuration(tt.d); got != tt.want {
			t.Errorf("humanDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
