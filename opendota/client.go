// Package opendota is the historical-data client: player match history, match
// details and game constants, with adaptive rate limiting driven by the
// API's own quota headers.
package opendota

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/irskel/dotatrack/telemetry"
	"github.com/irskel/dotatrack/track"
)

const (
	defaultBaseURL = "https://api.opendota.com/api"

	// historyPageSize is the page length for match history walks.
	historyPageSize = 20

	// constantsTTL bounds how stale the in-memory constants tables may get
	// before a lookup forces a refresh.
	constantsTTL = 24 * time.Hour
)

// Client calls the OpenDota API. All requests go through the rate limiter
// when one is set.
type Client struct {
	BaseURL    string // defaults to the public API host
	APIKey     string
	HTTPClient *http.Client
	Limiter    *RateLimiter

	constMu      sync.RWMutex
	itemNames    map[int]string
	constFetched time.Time
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
	var token string
	if c.Limiter != nil {
		start := time.Now()
		var err error
		token, err = c.Limiter.Wait(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		telemetry.ObserveLimiterWait(time.Since(start))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+path, nil)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
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
	if c.Limiter != nil {
		c.Limiter.Synchronize(token, resp.Header)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("opendota %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type historyRow struct {
	MatchID      int64 `json:"match_id"`
	HeroID       int32 `json:"hero_id"`
	PlayerSlot   int   `json:"player_slot"`
	RadiantWin   bool  `json:"radiant_win"`
	StartTime    int64 `json:"start_time"`
	Duration     int64 `json:"duration"`
	LobbyType    int32 `json:"lobby_type"`
	GameMode     int32 `json:"game_mode"`
	LeaverStatus int   `json:"leaver_status"`
}

// MatchHistory fetches one page of the player's history, newest-first.
// A nonzero startAtMatchID continues the walk strictly below that id.
func (c *Client) MatchHistory(ctx context.Context, accountID uint32, startAtMatchID int64) ([]track.HistoryEntry, error) {
	params := map[string]string{
		"limit":       strconv.Itoa(historyPageSize),
		"significant": "0",
	}
	if startAtMatchID > 0 {
		params["less_than_match_id"] = strconv.FormatInt(startAtMatchID, 10)
	}
	var rows []historyRow
	path := fmt.Sprintf("/players/%d/matches", accountID)
	if err := c.get(ctx, path, params, &rows); err != nil {
		return nil, err
	}
	out := make([]track.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		radiantSeat := r.PlayerSlot < 128
		out = append(out, track.HistoryEntry{
			MatchID:   r.MatchID,
			HeroID:    track.HeroID(r.HeroID),
			StartTime: time.Unix(r.StartTime, 0),
			Duration:  time.Duration(r.Duration) * time.Second,
			Win:       radiantSeat == r.RadiantWin,
			Abandon:   r.LeaverStatus >= 2,
			LobbyType: track.LobbyType(r.LobbyType),
			GameMode:  track.GameMode(r.GameMode),
		})
	}
	return out, nil
}

// MatchMinimal fetches the outcome-bearing summary of a finished match.
func (c *Client) MatchMinimal(ctx context.Context, matchID int64) (*track.MinimalMatch, error) {
	var body struct {
		MatchID    int64 `json:"match_id"`
		StartTime  int64 `json:"start_time"`
		Duration   int64 `json:"duration"`
		RadiantWin *bool `json:"radiant_win"`
		LobbyType  int32 `json:"lobby_type"`
		GameMode   int32 `json:"game_mode"`
		Players    []struct {
			AccountID uint32 `json:"account_id"`
			HeroID    int32  `json:"hero_id"`
			Kills     int    `json:"kills"`
			Deaths    int    `json:"deaths"`
			Assists   int    `json:"assists"`
		} `json:"players"`
	}
	if err := c.get(ctx, fmt.Sprintf("/matches/%d", matchID), nil, &body); err != nil {
		return nil, err
	}
	if body.MatchID == 0 {
		return nil, fmt.Errorf("match %d not found", matchID)
	}
	outcome := track.OutcomeNotScoredPoorNetwork
	if body.RadiantWin != nil {
		if *body.RadiantWin {
			outcome = track.OutcomeRadiantVictory
		} else {
			outcome = track.OutcomeDireVictory
		}
	}
	m := &track.MinimalMatch{
		MatchID:   body.MatchID,
		StartTime: time.Unix(body.StartTime, 0),
		Duration:  time.Duration(body.Duration) * time.Second,
		Outcome:   outcome,
		LobbyType: track.LobbyType(body.LobbyType),
		GameMode:  track.GameMode(body.GameMode),
	}
	for _, p := range body.Players {
		m.Players = append(m.Players, track.MinimalPlayer{
			AccountID: p.AccountID,
			HeroID:    track.HeroID(p.HeroID),
			Kills:     p.Kills,
			Deaths:    p.Deaths,
			Assists:   p.Assists,
		})
	}
	return m, nil
}

// RefreshConstants re-fetches the item constants table. Called periodically
// by the background refresher and lazily when a lookup finds the cache stale.
func (c *Client) RefreshConstants(ctx context.Context) error {
	var items map[string]struct {
		ID    int    `json:"id"`
		DName string `json:"dname"`
	}
	if err := c.get(ctx, "/constants/items", nil, &items); err != nil {
		return err
	}
	names := make(map[int]string, len(items))
	for _, item := range items {
		if item.DName != "" {
			names[item.ID] = item.DName
		}
	}
	c.constMu.Lock()
	c.itemNames = names
	c.constFetched = time.Now()
	c.constMu.Unlock()
	slog.Debug("item constants refreshed", slog.Int("items", len(names)))
	return nil
}

// ItemName resolves an item id to its display name, refreshing the constants
// cache when it is empty or stale.
func (c *Client) ItemName(ctx context.Context, itemID int) (string, error) {
	c.constMu.RLock()
	names, fetched := c.itemNames, c.constFetched
	c.constMu.RUnlock()
	if names == nil || time.Since(fetched) > constantsTTL {
		if err := c.RefreshConstants(ctx); err != nil {
			if names == nil {
				return "", err
			}
			// A stale table beats no table.
			slog.Warn("constants refresh failed, serving stale table", slog.Any("err", err))
		}
		c.constMu.RLock()
		names = c.itemNames
		c.constMu.RUnlock()
	}
	name, ok := names[itemID]
	if !ok {
		return "", fmt.Errorf("unknown item id %d", itemID)
	}
	return name, nil
}
