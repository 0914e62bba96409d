// Package track is the live-session tracking core: it polls a player's Steam
// rich presence, derives match lifecycle transitions from it, fuses live-lobby,
// spectator realtime and historical backends, and reconciles a persisted
// rating ledger against the authoritative match history. It is an in-process
// library; chat command parsing and delivery live with the consumer.
package track

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HeroID identifies a hero; 0 means "not picked / not yet known".
type HeroID int32

// MatchSnapshot is the fused view of an in-progress match as reported by the
// live-lobby directory.
type MatchSnapshot struct {
	MatchID       int64
	ServerSteamID uint64
	LobbyType     LobbyType
	GameMode      GameMode
	AverageMMR    int
	Players       []SnapshotPlayer // slot order: radiant 0-4, dire 5-9
}

// SnapshotPlayer is one seat of a live match snapshot.
type SnapshotPlayer struct {
	AccountID uint32
	HeroID    HeroID
}

// RealtimeStats is the delayed spectator view of an ongoing match, keyed by
// server steam id. Player entries carry enough detail for the profile query.
type RealtimeStats struct {
	MatchID   int64
	LobbyType LobbyType
	GameMode  GameMode
	Players   []LivePlayer // slot order: radiant 0-4, dire 5-9
}

// LivePlayer is one seat of a realtime stats snapshot.
type LivePlayer struct {
	AccountID uint32
	HeroID    HeroID
	Level     int
	NetWorth  int
	Kills     int
	Deaths    int
	Assists   int
	LastHits  int
	Items     []int
}

// HistoryEntry is one row of the player's authoritative match history,
// newest-first within a page.
type HistoryEntry struct {
	MatchID   int64
	HeroID    HeroID
	StartTime time.Time
	Duration  time.Duration
	Win       bool
	Abandon   bool
	LobbyType LobbyType
	GameMode  GameMode
}

// MinimalMatch is the outcome-bearing summary of a finished match.
type MinimalMatch struct {
	MatchID   int64
	StartTime time.Time
	Duration  time.Duration
	Outcome   MatchOutcome
	LobbyType LobbyType
	GameMode  GameMode
	Players   []MinimalPlayer
}

// MinimalPlayer is one participant of a finished match summary. AccountID may
// be zero for anonymous players.
type MinimalPlayer struct {
	AccountID uint32
	HeroID    HeroID
	Kills     int
	Deaths    int
	Assists   int
}

// ProfileCard is the per-account progressive profile data.
type ProfileCard struct {
	RankTier        int // tens digit: medal, ones digit: stars
	LeaderboardRank int
	LifetimeGames   int
}

// LedgerRow is one persisted finalized match record.
type LedgerRow struct {
	MatchID   int64
	AccountID uint32
	HeroID    HeroID
	GameMode  GameMode
	LobbyType LobbyType
	StartTime time.Time
	Outcome   PlayerMatchOutcome
}

// GameAPI is the set of backend lookups the tracker consumes. Presence returns
// a nil snapshot (and nil error) when the player is offline or invisible;
// LiveMatch returns a nil snapshot when the lobby directory has no such match.
type GameAPI interface {
	Presence(ctx context.Context, steamID64 uint64) (map[string]string, error)
	LiveMatch(ctx context.Context, lobbyID int64) (*MatchSnapshot, error)
	RealtimeStats(ctx context.Context, serverSteamID uint64) (*RealtimeStats, error)
	MatchHistory(ctx context.Context, accountID uint32, startAtMatchID int64) ([]HistoryEntry, error)
	MatchMinimal(ctx context.Context, matchID int64) (*MinimalMatch, error)
	ProfileCard(ctx context.Context, accountID uint32) (*ProfileCard, error)
	ItemName(ctx context.Context, itemID int) (string, error)
}

// Store is the persistence collaborator backing the match ledger.
type Store interface {
	UpsertMatch(ctx context.Context, row LedgerRow) error
	AdjustRating(ctx context.Context, accountID uint32, delta int, medal string) error
	LatestMatchID(ctx context.Context, accountID uint32) (int64, error)
	RecentMatches(ctx context.Context, accountID uint32) ([]LedgerRow, error)
	Rating(ctx context.Context, accountID uint32) (mmr int, medal string, err error)
}

// EventSink receives fire-and-forget notifications for the chat-alert layer.
// Implementations must not block.
type EventSink interface {
	RichPresenceChanged(status RPStatus)
	StreamerReset(reason string)
	MatchDataReady()
	MatchHeroReady()
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RichPresenceChanged(RPStatus) {}
func (NopSink) StreamerReset(string)         {}
func (NopSink) MatchDataReady()              {}
func (NopSink) MatchHeroReady()              {}

// ErrGameNotFound is returned by ActiveMatch when no match is being tracked
// and the presence state offers no recoverable explanation.
var ErrGameNotFound = errors.New("no game found")

// UnexpectedPresenceError marks a presence field combination the state machine
// has no rule for. It is reported and logged but treated like a reset rather
// than propagated to chat.
type UnexpectedPresenceError struct {
	Detail string
}

func (e *UnexpectedPresenceError) Error() string {
	return fmt.Sprintf("unexpected rich presence: %s", e.Detail)
}

func unexpectedPresence(format string, args ...any) error {
	return &UnexpectedPresenceError{Detail: fmt.Sprintf(format, args...)}
}
