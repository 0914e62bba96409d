// Package steamapi contains minimal helpers to interact with the Steam Web
// API for rich presence, live lobby lookup, realtime match stats and profile
// cards.
package steamapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/irskel/dotatrack/track"
)

const defaultBaseURL = "https://api.steampowered.com"

// Client provides the game-state lookups backed by the Steam Web API.
type Client struct {
	APIKey     string
	BaseURL    string // defaults to the public API host
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+path, nil)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	q.Set("key", c.APIKey)
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()
	resp, err := c.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("steam api %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Presence fetches the player's rich presence key/value state. A nil map with
// a nil error means the player is offline or invisible.
func (c *Client) Presence(ctx context.Context, steamID64 uint64) (map[string]string, error) {
	var body struct {
		Response struct {
			Presence []struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			} `json:"presence"`
		} `json:"response"`
	}
	err := c.get(ctx, "/ISteamUserRichPresence/GetRichPresence/v1/", map[string]string{
		"appid":   "570",
		"steamid": strconv.FormatUint(steamID64, 10),
	}, &body)
	if err != nil {
		return nil, err
	}
	if len(body.Response.Presence) == 0 {
		return nil, nil
	}
	kv := make(map[string]string, len(body.Response.Presence))
	for _, p := range body.Response.Presence {
		kv[p.Key] = p.Value
	}
	return kv, nil
}

// LiveMatch looks a lobby up in the spectator directory. A nil snapshot with
// a nil error means the directory does not list the lobby (yet).
func (c *Client) LiveMatch(ctx context.Context, lobbyID int64) (*track.MatchSnapshot, error) {
	var body struct {
		GameList []struct {
			MatchID       int64 `json:"match_id"`
			LobbyID       int64 `json:"lobby_id"`
			ServerSteamID int64 `json:"server_steam_id"`
			LobbyType     int32 `json:"lobby_type"`
			GameMode      int32 `json:"game_mode"`
			AverageMMR    int   `json:"average_mmr"`
			Players       []struct {
				AccountID uint32 `json:"account_id"`
				HeroID    int32  `json:"hero_id"`
			} `json:"players"`
		} `json:"game_list"`
	}
	err := c.get(ctx, "/IDOTA2Match_570/GetTopSourceTVGames/v1/", map[string]string{
		"lobby_ids[0]": strconv.FormatInt(lobbyID, 10),
	}, &body)
	if err != nil {
		return nil, err
	}
	for _, g := range body.GameList {
		if g.LobbyID != lobbyID {
			continue
		}
		snap := &track.MatchSnapshot{
			MatchID:       g.MatchID,
			ServerSteamID: uint64(g.ServerSteamID),
			LobbyType:     track.LobbyType(g.LobbyType),
			GameMode:      track.GameMode(g.GameMode),
			AverageMMR:    g.AverageMMR,
		}
		for _, p := range g.Players {
			snap.Players = append(snap.Players, track.SnapshotPlayer{
				AccountID: p.AccountID,
				HeroID:    track.HeroID(p.HeroID),
			})
		}
		return snap, nil
	}
	return nil, nil
}

// RealtimeStats fetches the delayed spectator snapshot for a game server.
// Team player lists are concatenated radiant-first to preserve slot order.
func (c *Client) RealtimeStats(ctx context.Context, serverSteamID uint64) (*track.RealtimeStats, error) {
	var body struct {
		Match struct {
			MatchID   int64 `json:"match_id"`
			LobbyType int32 `json:"lobby_type"`
			GameMode  int32 `json:"game_mode"`
		} `json:"match"`
		Teams []struct {
			Players []struct {
				AccountID uint32 `json:"accountid"`
				HeroID    int32  `json:"heroid"`
				Level     int    `json:"level"`
				NetWorth  int    `json:"net_worth"`
				Kills     int    `json:"kill_count"`
				Deaths    int    `json:"death_count"`
				Assists   int    `json:"assists_count"`
				LastHits  int    `json:"lh_count"`
				Items     []int  `json:"items"`
			} `json:"players"`
		} `json:"teams"`
	}
	err := c.get(ctx, "/IDOTA2MatchStats_570/GetRealtimeStats/v1/", map[string]string{
		"server_steam_id": strconv.FormatUint(serverSteamID, 10),
	}, &body)
	if err != nil {
		return nil, err
	}
	if body.Match.MatchID == 0 {
		return nil, fmt.Errorf("no realtime stats for server %d", serverSteamID)
	}
	stats := &track.RealtimeStats{
		MatchID:   body.Match.MatchID,
		LobbyType: track.LobbyType(body.Match.LobbyType),
		GameMode:  track.GameMode(body.Match.GameMode),
	}
	for _, team := range body.Teams {
		for _, p := range team.Players {
			stats.Players = append(stats.Players, track.LivePlayer{
				AccountID: p.AccountID,
				HeroID:    track.HeroID(p.HeroID),
				Level:     p.Level,
				NetWorth:  p.NetWorth,
				Kills:     p.Kills,
				Deaths:    p.Deaths,
				Assists:   p.Assists,
				LastHits:  p.LastHits,
				Items:     p.Items,
			})
		}
	}
	return stats, nil
}

// ProfileCard fetches the account's rank tier, leaderboard rank and lifetime
// game count.
func (c *Client) ProfileCard(ctx context.Context, accountID uint32) (*track.ProfileCard, error) {
	var body struct {
		RankTier        int `json:"rank_tier"`
		LeaderboardRank int `json:"leaderboard_rank"`
		LifetimeGames   int `json:"lifetime_games"`
	}
	err := c.get(ctx, "/IDOTA2Match_570/GetProfileCard/v1/", map[string]string{
		"account_id": strconv.FormatUint(uint64(accountID), 10),
	}, &body)
	if err != nil {
		return nil, err
	}
	return &track.ProfileCard{
		RankTier:        body.RankTier,
		LeaderboardRank: body.LeaderboardRank,
		LifetimeGames:   body.LifetimeGames,
	}, nil
}
