package track

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
)

// matchPollInterval is a variable so tests can tighten the polling cadence.
var matchPollInterval = 10 * time.Second

const (
	matchPollBudget = 30

	// fuzzyCutoff is the minimum similarity a free-text player reference must
	// reach before a slot is accepted.
	fuzzyCutoff = 69
)

// Match is the tagged union over the two live-match variants: PlayMatch (the
// tracked player is in the game) and WatchMatch (they are spectating). Both
// share the read-only chat queries; every query degrades to explanatory text
// while data is still being fetched.
type Match interface {
	MatchID() int64
	IsWatch() bool
	IsDataReady() bool
	IsHeroReady() bool

	GameMedals() string
	Ranked() string
	Smurfs() string
	Profile(ctx context.Context, query string) string
	PlayedWith(last *LastGame) string

	// refreshData / refreshHeroes run a single on-demand poll iteration for
	// the command path when a query arrives before the loops caught up.
	refreshData(ctx context.Context) error
	refreshHeroes(ctx context.Context) error
	stop()
}

// matchState carries the data both variants share. The readiness flags only
// ever transition false to true for the lifetime of one match.
type matchState struct {
	mu sync.Mutex

	api    GameAPI
	events EventSink
	cancel context.CancelFunc

	isWatch       bool
	matchID       int64
	serverSteamID uint64
	lobbyType     LobbyType
	gameMode      GameMode

	// players holds one entry per lobby slot, index == slot. nil until the
	// first successful snapshot.
	players []*Player

	dataReady bool
	heroReady bool

	heroReadyHook func() // variant-specific work when every hero is known
}

func (m *matchState) MatchID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchID
}

func (m *matchState) IsWatch() bool { return m.isWatch }

func (m *matchState) IsDataReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dataReady
}

func (m *matchState) IsHeroReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heroReady
}

// stop cancels the match's polling loops and, transitively, its players'.
func (m *matchState) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// snapshotPlayers returns the slot-ordered player list, nil while unknown.
func (m *matchState) snapshotPlayers() []*Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players
}

// checkHeroes flips heroReady once every player has a hero and fires the
// MatchHeroReady event exactly once.
func (m *matchState) checkHeroes() bool {
	m.mu.Lock()
	players := m.players
	already := m.heroReady
	m.mu.Unlock()
	if len(players) == 0 {
		return false
	}
	for _, p := range players {
		if p.Hero() == 0 {
			return false
		}
	}
	if !already {
		m.mu.Lock()
		m.heroReady = true
		m.mu.Unlock()
		if m.heroReadyHook != nil {
			m.heroReadyHook()
		}
		m.events.MatchHeroReady()
	}
	return true
}

// checkPlayers is the check_players loop body: done once every player's
// profile data arrived, firing MatchDataReady exactly once.
func (m *matchState) checkPlayers(_ context.Context, _ int) (bool, error) {
	players := m.snapshotPlayers()
	if len(players) == 0 {
		return false, nil
	}
	for _, p := range players {
		if !p.IsDataReady() {
			return false, nil
		}
	}
	m.mu.Lock()
	m.dataReady = true
	m.mu.Unlock()
	m.events.MatchDataReady()
	return true, nil
}

func (m *matchState) GameMedals() string {
	players := m.snapshotPlayers()
	if len(players) == 0 {
		return "No players data yet."
	}
	parts := make([]string, 0, len(players))
	for _, p := range players {
		medal := p.Medal()
		if medal == "" {
			medal = "?"
		}
		parts = append(parts, p.Identifier()+" "+medal)
	}
	return strings.Join(parts, " • ")
}

func (m *matchState) Ranked() string {
	m.mu.Lock()
	lobbyType, gameMode := m.lobbyType, m.gameMode
	m.mu.Unlock()
	if gameMode == ModeNone {
		return "No lobby data yet."
	}
	yesNo := "No"
	if lobbyType == LobbyRanked {
		yesNo = "Yes"
	}
	return fmt.Sprintf("%s, it's %s (%s)", yesNo, lobbyType.DisplayName(), gameMode.DisplayName())
}

func (m *matchState) Smurfs() string {
	players := m.snapshotPlayers()
	if len(players) == 0 {
		return "No players data yet."
	}
	parts := make([]string, 0, len(players))
	for _, p := range players {
		parts = append(parts, fmt.Sprintf("%s %d", p.Identifier(), p.LifetimeGames()))
	}
	return "Lifetime Games: " + strings.Join(parts, " • ")
}

// Profile resolves a free-text player reference (slot number, hero name,
// alias, or slot colour) and renders that player's live stats from the
// realtime endpoint.
func (m *matchState) Profile(ctx context.Context, query string) string {
	players := m.snapshotPlayers()
	if len(players) == 0 {
		return "No player data yet."
	}
	m.mu.Lock()
	serverSteamID, lobbyType := m.serverSteamID, m.lobbyType
	m.mu.Unlock()
	if serverSteamID == 0 {
		return "This match doesn't support realtime stats."
	}

	stats, err := m.api.RealtimeStats(ctx, serverSteamID)
	if err != nil {
		if lobbyType == LobbyNewPlayerMode {
			return "New Player Mode matches don't support realtime stats."
		}
		return "Failed to get realtime stats for this match."
	}

	slot, ok := m.resolveSlot(players, query)
	if !ok {
		return `Sorry, didn't understand your query. Try something like "PA / 7 / PhantomAssassin / Blue" (but for your player).`
	}
	if slot >= len(stats.Players) {
		return "No realtime data for that player yet."
	}
	lp := stats.Players[slot]

	items := make([]string, 0, len(lp.Items))
	for _, id := range lp.Items {
		if id == -1 {
			continue
		}
		name, err := m.api.ItemName(ctx, id)
		if err != nil {
			name = strconv.Itoa(id)
		}
		items = append(items, name)
	}

	hero := lp.HeroID.Name()
	if hero == "" {
		hero = "Unpicked"
	}
	parts := []string{
		fmt.Sprintf("[2m delay] %s lvl %d", hero, lp.Level),
		fmt.Sprintf("NW: %d", lp.NetWorth),
		fmt.Sprintf("%d/%d/%d", lp.Kills, lp.Deaths, lp.Assists),
		fmt.Sprintf("CS: %d", lp.LastHits),
		strings.Join(items, ", "),
		fmt.Sprintf("stratz.com/players/%d", lp.AccountID),
	}
	return strings.Join(parts, " • ")
}

// resolveSlot maps a free-text reference to a lobby slot. Digits are taken as
// 1-based slot numbers; anything else goes through fuzzy matching, where
// official identifiers (slot colour, hero name) are scored before informal
// aliases so that aliases only win on strictly better scores.
func (m *matchState) resolveSlot(players []*Player, query string) (int, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(query); err == nil {
		slot := n - 1
		if slot < 0 || slot > 9 {
			return 0, false
		}
		return slot, true
	}

	bestSlot, bestScore := -1, 0
	for slot, p := range players {
		identifiers := []string{PlayerColours[slot%len(PlayerColours)]}
		hero := p.Hero()
		if name := hero.Name(); name != "" {
			identifiers = append(identifiers, name, strings.ReplaceAll(name, " ", ""))
		}
		if score := bestFuzzy(query, identifiers); score >= fuzzyCutoff && score > bestScore {
			bestSlot, bestScore = slot, score
		}
	}
	for slot, p := range players {
		if aliases := heroAliases[p.Hero()]; len(aliases) > 0 {
			if score := bestFuzzy(query, aliases); score >= fuzzyCutoff && score > bestScore {
				bestSlot, bestScore = slot, score
			}
		}
	}
	if bestSlot < 0 {
		return 0, false
	}
	return bestSlot, true
}

// bestFuzzy returns the highest similarity between the query and any choice.
func bestFuzzy(query string, choices []string) int {
	best := 0
	for _, choice := range choices {
		if score := fuzzyScore(query, choice); score > best {
			best = score
		}
	}
	return best
}

// fuzzyScore is a 0-100 similarity: exact (case/space-insensitive) is 100,
// containment of one term in the other scores high enough to clear the
// cutoff, anything else falls back to a Levenshtein ratio.
func fuzzyScore(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	if strings.Contains(b, a) || strings.Contains(a, b) {
		return 90
	}
	dist := levenshtein.ComputeDistance(a, b)
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return (longest - dist) * 100 / longest
}
