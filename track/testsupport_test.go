package track

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// fakeAPI implements GameAPI with per-method function hooks; unset hooks
// return a "not wired" error so tests fail loudly on unexpected calls.
type fakeAPI struct {
	presence    func(steamID64 uint64) (map[string]string, error)
	liveMatch   func(lobbyID int64) (*MatchSnapshot, error)
	realtime    func(serverSteamID uint64) (*RealtimeStats, error)
	history     func(accountID uint32, startAt int64) ([]HistoryEntry, error)
	minimal     func(matchID int64) (*MinimalMatch, error)
	profileCard func(accountID uint32) (*ProfileCard, error)
	itemName    func(itemID int) (string, error)
}

var errNotWired = errors.New("fake endpoint not wired")

func (f *fakeAPI) Presence(_ context.Context, steamID64 uint64) (map[string]string, error) {
	if f.presence == nil {
		return nil, errNotWired
	}
	return f.presence(steamID64)
}

func (f *fakeAPI) LiveMatch(_ context.Context, lobbyID int64) (*MatchSnapshot, error) {
	if f.liveMatch == nil {
		return nil, errNotWired
	}
	return f.liveMatch(lobbyID)
}

func (f *fakeAPI) RealtimeStats(_ context.Context, serverSteamID uint64) (*RealtimeStats, error) {
	if f.realtime == nil {
		return nil, errNotWired
	}
	return f.realtime(serverSteamID)
}

func (f *fakeAPI) MatchHistory(_ context.Context, accountID uint32, startAt int64) ([]HistoryEntry, error) {
	if f.history == nil {
		return nil, errNotWired
	}
	return f.history(accountID, startAt)
}

func (f *fakeAPI) MatchMinimal(_ context.Context, matchID int64) (*MinimalMatch, error) {
	if f.minimal == nil {
		return nil, errNotWired
	}
	return f.minimal(matchID)
}

func (f *fakeAPI) ProfileCard(_ context.Context, accountID uint32) (*ProfileCard, error) {
	if f.profileCard == nil {
		return nil, errNotWired
	}
	return f.profileCard(accountID)
}

func (f *fakeAPI) ItemName(_ context.Context, itemID int) (string, error) {
	if f.itemName == nil {
		return "", errNotWired
	}
	return f.itemName(itemID)
}

// memStore is an in-memory Store for reconciler tests.
type memStore struct {
	mu          sync.Mutex
	rows        map[int64]LedgerRow
	mmr         int
	medal       string
	adjustCalls int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int64]LedgerRow)}
}

func (s *memStore) UpsertMatch(_ context.Context, row LedgerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.MatchID] = row
	return nil
}

func (s *memStore) AdjustRating(_ context.Context, _ uint32, delta int, medal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mmr += delta
	if medal != "" {
		s.medal = medal
	}
	s.adjustCalls++
	return nil
}

func (s *memStore) LatestMatchID(_ context.Context, _ uint32) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest int64
	for id := range s.rows {
		if id > latest {
			latest = id
		}
	}
	return latest, nil
}

func (s *memStore) RecentMatches(_ context.Context, _ uint32) ([]LedgerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LedgerRow, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (s *memStore) Rating(_ context.Context, _ uint32) (int, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mmr, s.medal, nil
}

// recordSink records events and signals the readiness notifications on
// buffered channels for end-to-end tests.
type recordSink struct {
	mu        sync.Mutex
	statuses  []RPStatus
	resets    []string
	dataReady chan struct{}
	heroReady chan struct{}
}

func newRecordSink() *recordSink {
	return &recordSink{
		dataReady: make(chan struct{}, 4),
		heroReady: make(chan struct{}, 4),
	}
}

func (r *recordSink) RichPresenceChanged(status RPStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recordSink) StreamerReset(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, reason)
}

func (r *recordSink) MatchDataReady() { r.dataReady <- struct{}{} }
func (r *recordSink) MatchHeroReady() { r.heroReady <- struct{}{} }

func (r *recordSink) statusCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

func (r *recordSink) resetCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.resets)
}
