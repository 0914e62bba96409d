package track

import (
	"context"
	"fmt"
)

// WatchMatch tracks a match the streamer is spectating. Rich presence names
// the game server directly, so everything comes from the realtime stats
// endpoint rather than the live-lobby directory.
type WatchMatch struct {
	matchState
}

func newWatchMatch(ctx context.Context, api GameAPI, events EventSink, serverSteamID uint64) *WatchMatch {
	ctx, cancel := context.WithCancel(ctx)
	m := &WatchMatch{
		matchState: matchState{api: api, events: events, cancel: cancel, isWatch: true, serverSteamID: serverSteamID},
	}
	go pollLoop(ctx, fmt.Sprintf("watch match server %d", serverSteamID), matchPollInterval, matchPollBudget, func(ctx context.Context, attempt int) (bool, error) {
		done, err := m.updateData(ctx)
		if done {
			go pollLoop(ctx, fmt.Sprintf("watch match %d heroes", m.MatchID()), matchPollInterval, matchPollBudget, m.updateHeroes)
			go pollLoop(ctx, fmt.Sprintf("watch match %d players", m.MatchID()), matchPollInterval, matchPollBudget, m.checkPlayers)
		}
		return done, err
	})
	return m
}

func (m *WatchMatch) updateData(ctx context.Context) (bool, error) {
	stats, err := m.api.RealtimeStats(ctx, m.serverSteamID)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	m.matchID = stats.MatchID
	m.lobbyType = stats.LobbyType
	m.gameMode = stats.GameMode
	havePlayers := len(m.players) > 0
	m.mu.Unlock()

	if !havePlayers && len(stats.Players) > 0 {
		players := make([]*Player, len(stats.Players))
		for slot, lp := range stats.Players {
			players[slot] = newPlayer(ctx, m.api, lp.AccountID, lp.HeroID, slot)
		}
		m.mu.Lock()
		m.players = players
		m.mu.Unlock()
	}
	return stats.GameMode != ModeNone, nil
}

func (m *WatchMatch) updateHeroes(ctx context.Context, attempt int) (bool, error) {
	if attempt == 0 {
		return false, nil
	}
	stats, err := m.api.RealtimeStats(ctx, m.serverSteamID)
	if err != nil {
		return false, err
	}
	players := m.snapshotPlayers()
	for slot, lp := range stats.Players {
		if slot < len(players) {
			players[slot].setHero(lp.HeroID)
		}
	}
	return m.checkHeroes(), nil
}

// PlayedWith needs the streamer's previous game, which has no meaning for a
// spectated lobby.
func (m *WatchMatch) PlayedWith(*LastGame) string {
	return "The command is not supported for spectated games."
}

func (m *WatchMatch) refreshData(ctx context.Context) error {
	_, err := m.updateData(ctx)
	return err
}

func (m *WatchMatch) refreshHeroes(ctx context.Context) error {
	_, err := m.updateHeroes(ctx, 1)
	return err
}
