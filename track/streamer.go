package track

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const presenceFetchTimeout = 4 * time.Second

// presence keys the state machine inspects.
const (
	presenceKeyStatus      = "status"
	presenceKeyHeroLevel   = "param1" // noisy: climbs during a match
	presenceKeyLobbyParam  = "param0"
	presenceKeyWatchableID = "WatchableGameID"
	presenceKeyWatchServer = "watching_server"
	presenceKeyParty       = "party"

	partyStateMenu = "party_state: UI"
)

// Streamer is the per-process tracking root: one tracked player, their
// presence-derived state machine, the optional active match and the promise
// set feeding the history reconciler. Update is driven serially by a single
// poller; the mutex protects against the background reconciler loops.
type Streamer struct {
	mu sync.Mutex

	ctx    context.Context
	api    GameAPI
	store  Store
	events EventSink

	steamID64 uint64
	accountID uint32

	presence map[string]string
	status   RPStatus

	active           Match
	promised         map[int64]HeroID
	lastGame         *LastGame
	matchHistoryRdy  bool
	unsupportedError error

	settling bool
}

// NewStreamer builds the tracking root. ctx bounds every background loop the
// streamer ever spawns; cancelling it stops tracking entirely.
func NewStreamer(ctx context.Context, api GameAPI, store Store, events EventSink, steamID64 uint64, accountID uint32) *Streamer {
	if events == nil {
		events = NopSink{}
	}
	return &Streamer{
		ctx:       ctx,
		api:       api,
		store:     store,
		events:    events,
		steamID64: steamID64,
		accountID: accountID,
		status:    StatusOffline,
		promised:  make(map[int64]HeroID),
	}
}

// Update runs one step of the presence state machine. It is cheap when
// nothing changed: a snapshot equal to the previous one short-circuits before
// any downstream work.
func (s *Streamer) Update(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, presenceFetchTimeout)
	snapshot, err := s.api.Presence(fetchCtx, s.steamID64)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch presence: %w", err)
	}

	// The hero level ticks up mid-match without being state-relevant; strip
	// it so it cannot defeat the short-circuit below.
	delete(snapshot, presenceKeyHeroLevel)

	s.mu.Lock()
	unchanged := snapshot != nil && presenceEqual(s.presence, snapshot)
	s.presence = snapshot
	s.mu.Unlock()
	if unchanged {
		return nil
	}

	status := StatusOffline
	if snapshot != nil {
		status = StatusNoStatus
		if raw, ok := snapshot[presenceKeyStatus]; ok {
			status = RPStatus(raw)
		}
	}

	s.mu.Lock()
	statusChanged := status != s.status
	s.status = status
	s.mu.Unlock()
	if statusChanged {
		s.events.RichPresenceChanged(status)
	}

	switch status {
	case StatusOffline, StatusNoStatus:
		s.Reset("Offline")
		return nil
	case StatusIdle, StatusMainMenu, StatusFinding,
		StatusPrivateLobby, StatusBotPractice, StatusCoaching, StatusCustomGame:
		s.Reset(status.DisplayName())
		return nil
	case StatusWaitingToLoad, StatusHeroSelection, StatusStrategy, StatusPreGame, StatusPlaying:
		return s.updatePlaying(snapshot)
	case StatusSpectating:
		return s.updateSpectating(snapshot)
	default:
		s.Reset("Unknown status: " + status.DisplayName())
		return nil
	}
}

// updatePlaying handles the playing-family statuses: resolve the watchable
// game id into a PlayMatch, or recognize the unsupported lobby kinds that
// never publish one.
func (s *Streamer) updatePlaying(snapshot map[string]string) error {
	watchableID, ok := snapshot[presenceKeyWatchableID]
	if !ok || watchableID == "" {
		switch snapshot[presenceKeyLobbyParam] {
		case lobbyParamDemoMode:
			s.setUnsupported("Sorry, demo mode games aren't supported.")
			return nil
		case lobbyParamBotMatch:
			s.setUnsupported("Sorry, bot matches aren't supported.")
			return nil
		}
		s.Reset("Unexpected presence")
		return unexpectedPresence("playing status without watchable game id: %v", snapshot)
	}
	if watchableID == "0" {
		// A zeroed id with the party back in menu state means the client just
		// left a match; anything else is a shape we have no rule for.
		if strings.Contains(snapshot[presenceKeyParty], partyStateMenu) {
			s.Reset("Exited Match")
			return nil
		}
		s.Reset("Unexpected presence")
		return unexpectedPresence("watchable game id 0 without menu party state: %v", snapshot)
	}

	lobbyID, err := strconv.ParseInt(watchableID, 10, 64)
	if err != nil {
		s.Reset("Unexpected presence")
		return unexpectedPresence("malformed watchable game id %q", watchableID)
	}

	s.mu.Lock()
	if current, ok := s.active.(*PlayMatch); ok && current.lobbyID == lobbyID {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.Reset("New match starting")
	match := newPlayMatch(s.ctx, s.api, s.events, lobbyID, s.accountID)
	s.mu.Lock()
	s.active = match
	s.unsupportedError = nil
	s.mu.Unlock()
	slog.Info("tracking new play match", slog.Int64("lobby_id", lobbyID))
	return nil
}

func (s *Streamer) updateSpectating(snapshot map[string]string) error {
	server, ok := snapshot[presenceKeyWatchServer]
	if !ok || server == "" {
		s.Reset("Unexpected presence")
		return unexpectedPresence("spectating status without watching server: %v", snapshot)
	}
	serverSteamID, err := ConvertID3ToID64(server)
	if err != nil {
		s.Reset("Unexpected presence")
		return unexpectedPresence("spectating status: %v", err)
	}

	s.mu.Lock()
	if current, ok := s.active.(*WatchMatch); ok && current.serverSteamID == serverSteamID {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.Reset("New spectated match")
	match := newWatchMatch(s.ctx, s.api, s.events, serverSteamID)
	s.mu.Lock()
	s.active = match
	s.unsupportedError = nil
	s.mu.Unlock()
	slog.Info("tracking new watch match", slog.Uint64("server_steam_id", serverSteamID))
	return nil
}

// Reset tears down the active match, promising a sufficiently-resolved played
// match to the reconciler. Idempotent: with no active match it only clears
// the unsupported flag.
func (s *Streamer) Reset(reason string) {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.unsupportedError = nil
	if pm, ok := active.(*PlayMatch); ok {
		if matchID, hero := pm.MatchID(), pm.Hero(); matchID != 0 && hero != 0 {
			s.promised[matchID] = hero
		}
	}
	havePromises := len(s.promised) > 0
	s.mu.Unlock()

	if active == nil {
		return
	}
	active.stop()
	slog.Info("streamer reset", slog.String("reason", reason))
	s.events.StreamerReset(reason)
	if havePromises {
		s.startSettling()
	}
}

func (s *Streamer) setUnsupported(message string) {
	s.Reset("Unsupported game mode")
	s.mu.Lock()
	s.unsupportedError = fmt.Errorf("%s", message)
	s.mu.Unlock()
}

// ActiveMatch returns the tracked match, nudging its data loop once if it has
// not resolved yet. With no match it reports the recorded unsupported
// condition when there is one, else ErrGameNotFound.
func (s *Streamer) ActiveMatch(ctx context.Context) (Match, error) {
	s.mu.Lock()
	active := s.active
	unsupported := s.unsupportedError
	s.mu.Unlock()
	if active == nil {
		if unsupported != nil {
			return nil, unsupported
		}
		return nil, ErrGameNotFound
	}
	if active.MatchID() == 0 {
		if err := active.refreshData(ctx); err != nil {
			return nil, ErrGameNotFound
		}
	}
	return active, nil
}

// Status returns the last classified presence status.
func (s *Streamer) Status() RPStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastGame returns the most recently settled match summary, nil before any
// match settled.
func (s *Streamer) LastGame() *LastGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastGame
}

// PromisedCount returns how many finished matches still await settlement.
func (s *Streamer) PromisedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.promised)
}

// ActiveMatchID returns the tracked match id without nudging any loops;
// ok is false when no match is tracked.
func (s *Streamer) ActiveMatchID() (id int64, isWatch bool, ok bool) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active == nil {
		return 0, false, false
	}
	return active.MatchID(), active.IsWatch(), true
}

// MatchHistoryReady reports whether the one-time full reconciliation has
// completed; the win/loss summary is gated on it.
func (s *Streamer) MatchHistoryReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchHistoryRdy
}

// setLastGame replaces the summary only when the candidate is newer.
func (s *Streamer) setLastGame(lg *LastGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastGame == nil || lg.MatchID > s.lastGame.MatchID {
		s.lastGame = lg
	}
}

func presenceEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
