// Package gameapi composes the Steam and OpenDota clients into the single
// backend surface the tracker consumes, recording per-call metrics.
package gameapi

import (
	"context"

	"github.com/irskel/dotatrack/opendota"
	"github.com/irskel/dotatrack/steamapi"
	"github.com/irskel/dotatrack/telemetry"
	"github.com/irskel/dotatrack/track"
)

// Composite routes live/presence lookups to Steam and historical/constants
// lookups to OpenDota. It implements track.GameAPI.
type Composite struct {
	Steam    *steamapi.Client
	OpenDota *opendota.Client
}

func (c *Composite) Presence(ctx context.Context, steamID64 uint64) (map[string]string, error) {
	kv, err := c.Steam.Presence(ctx, steamID64)
	telemetry.CountAPICall("steam", "presence", err)
	return kv, err
}

func (c *Composite) LiveMatch(ctx context.Context, lobbyID int64) (*track.MatchSnapshot, error) {
	snap, err := c.Steam.LiveMatch(ctx, lobbyID)
	telemetry.CountAPICall("steam", "live_match", err)
	return snap, err
}

func (c *Composite) RealtimeStats(ctx context.Context, serverSteamID uint64) (*track.RealtimeStats, error) {
	stats, err := c.Steam.RealtimeStats(ctx, serverSteamID)
	telemetry.CountAPICall("steam", "realtime_stats", err)
	return stats, err
}

func (c *Composite) ProfileCard(ctx context.Context, accountID uint32) (*track.ProfileCard, error) {
	card, err := c.Steam.ProfileCard(ctx, accountID)
	telemetry.CountAPICall("steam", "profile_card", err)
	return card, err
}

func (c *Composite) MatchHistory(ctx context.Context, accountID uint32, startAtMatchID int64) ([]track.HistoryEntry, error) {
	entries, err := c.OpenDota.MatchHistory(ctx, accountID, startAtMatchID)
	telemetry.CountAPICall("opendota", "match_history", err)
	return entries, err
}

func (c *Composite) MatchMinimal(ctx context.Context, matchID int64) (*track.MinimalMatch, error) {
	m, err := c.OpenDota.MatchMinimal(ctx, matchID)
	telemetry.CountAPICall("opendota", "match_minimal", err)
	return m, err
}

func (c *Composite) ItemName(ctx context.Context, itemID int) (string, error) {
	name, err := c.OpenDota.ItemName(ctx, itemID)
	telemetry.CountAPICall("opendota", "item_name", err)
	return name, err
}
