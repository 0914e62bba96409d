package track

import (
	"context"
	"fmt"
	"strings"
)

// PlayMatch tracks a match the streamer is playing in. It resolves the lobby
// id announced in rich presence against the live-lobby directory and keeps
// per-player data fresh on bounded loops.
type PlayMatch struct {
	matchState

	lobbyID   int64
	accountID uint32 // the streamer

	hero       HeroID
	team       Team
	averageMMR int
}

// newPlayMatch starts the data loop for the lobby. Hero and player loops are
// started by the first successful snapshot.
func newPlayMatch(ctx context.Context, api GameAPI, events EventSink, lobbyID int64, accountID uint32) *PlayMatch {
	ctx, cancel := context.WithCancel(ctx)
	m := &PlayMatch{
		matchState: matchState{api: api, events: events, cancel: cancel},
		lobbyID:    lobbyID,
		accountID:  accountID,
	}
	m.heroReadyHook = m.resolveOwnHero
	go pollLoop(ctx, fmt.Sprintf("play match lobby %d", lobbyID), matchPollInterval, matchPollBudget, func(ctx context.Context, attempt int) (bool, error) {
		done, err := m.updateData(ctx)
		if done {
			go pollLoop(ctx, fmt.Sprintf("play match %d heroes", m.MatchID()), matchPollInterval, matchPollBudget, m.updateHeroes)
			go pollLoop(ctx, fmt.Sprintf("play match %d players", m.MatchID()), matchPollInterval, matchPollBudget, m.checkPlayers)
		}
		return done, err
	})
	return m
}

// updateData resolves the lobby against the live directory. The directory is
// eventually consistent: early snapshots come back with a zero game mode, so
// the loop keeps polling until the mode is known.
func (m *PlayMatch) updateData(ctx context.Context) (bool, error) {
	snap, err := m.api.LiveMatch(ctx, m.lobbyID)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, fmt.Errorf("lobby %d not listed yet", m.lobbyID)
	}

	m.mu.Lock()
	m.matchID = snap.MatchID
	m.serverSteamID = snap.ServerSteamID
	m.lobbyType = snap.LobbyType
	m.gameMode = snap.GameMode
	m.averageMMR = snap.AverageMMR
	havePlayers := len(m.players) > 0
	m.mu.Unlock()

	if !havePlayers && len(snap.Players) > 0 {
		players := make([]*Player, len(snap.Players))
		for slot, sp := range snap.Players {
			players[slot] = newPlayer(ctx, m.api, sp.AccountID, sp.HeroID, slot)
		}
		m.mu.Lock()
		m.players = players
		m.mu.Unlock()
	}
	return snap.GameMode != ModeNone, nil
}

// updateHeroes backfills heroes that were still unpicked on earlier
// snapshots. Attempt 0 is skipped: it would re-read the snapshot that just
// created the players.
func (m *PlayMatch) updateHeroes(ctx context.Context, attempt int) (bool, error) {
	if attempt == 0 {
		return false, nil
	}
	snap, err := m.api.LiveMatch(ctx, m.lobbyID)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, fmt.Errorf("lobby %d no longer listed", m.lobbyID)
	}
	players := m.snapshotPlayers()
	for slot, sp := range snap.Players {
		if slot < len(players) {
			players[slot].setHero(sp.HeroID)
		}
	}
	return m.checkHeroes(), nil
}

// resolveOwnHero records the streamer's hero and team once every pick is in.
func (m *PlayMatch) resolveOwnHero() {
	players := m.snapshotPlayers()
	for slot, p := range players {
		if p.AccountID() == m.accountID {
			m.mu.Lock()
			m.hero = p.Hero()
			if slot < 5 {
				m.team = TeamRadiant
			} else {
				m.team = TeamDire
			}
			m.mu.Unlock()
			return
		}
	}
}

// Hero returns the streamer's hero in this match, 0 until picks are known.
func (m *PlayMatch) Hero() HeroID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hero
}

// GameMedals prefixes the shared medal line with the lobby's average MMR when
// the directory reported one.
func (m *PlayMatch) GameMedals() string {
	line := m.matchState.GameMedals()
	m.mu.Lock()
	avg := m.averageMMR
	m.mu.Unlock()
	if avg > 0 && !strings.HasPrefix(line, "No players") {
		return fmt.Sprintf("[%d avg] %s", avg, line)
	}
	return line
}

// PlayedWith names the players from the previous game who queued into this
// one, excluding the streamer.
func (m *PlayMatch) PlayedWith(last *LastGame) string {
	if last == nil {
		return "No previous game on record."
	}
	players := m.snapshotPlayers()
	if len(players) == 0 {
		return "No players data yet."
	}
	previous := make(map[uint32]string, len(last.players))
	for _, lp := range last.players {
		if lp.AccountID != 0 && lp.AccountID != m.accountID {
			previous[lp.AccountID] = lp.HeroID.Name()
		}
	}
	var repeats []string
	for _, p := range players {
		if p.AccountID() == m.accountID {
			continue
		}
		if wasHero, ok := previous[p.AccountID()]; ok {
			if wasHero == "" {
				wasHero = "Unknown"
			}
			repeats = append(repeats, fmt.Sprintf("%s (was %s)", p.Identifier(), wasHero))
		}
	}
	if len(repeats) == 0 {
		return "Nobody from the last game."
	}
	return "From the last game: " + strings.Join(repeats, " • ")
}

func (m *PlayMatch) refreshData(ctx context.Context) error {
	_, err := m.updateData(ctx)
	return err
}

func (m *PlayMatch) refreshHeroes(ctx context.Context) error {
	_, err := m.updateHeroes(ctx, 1)
	return err
}
