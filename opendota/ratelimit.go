package opendota

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// pingHold is how long concurrent callers are held back while an
	// uncounted probe request is in flight for a target.
	pingHold    = 100 * time.Millisecond
	pingMaxAge  = 10 * time.Second
	inflightTTL = 600 * time.Second

	// latencyMargin widens the observed latency when deciding whether a
	// request would land past the window expiry.
	latencyMargin = 1.1
)

// Window describes one rate-limit window a backend enforces.
type Window struct {
	Scope    string
	Limit    int
	Duration time.Duration
}

// HeaderStrategy adapts the limiter to one backend's quota headers.
type HeaderStrategy interface {
	Windows() []Window
	// Remaining extracts the per-scope remaining quota from a response.
	Remaining(h http.Header) (map[string]int, error)
}

// Headers is the OpenDota quota header strategy: per-minute and per-day
// remaining counts.
type Headers struct{}

func (Headers) Windows() []Window {
	return []Window{
		{Scope: "minute", Limit: 60, Duration: time.Minute},
		{Scope: "day", Limit: 2000, Duration: 24 * time.Hour},
	}
}

func (Headers) Remaining(h http.Header) (map[string]int, error) {
	out := make(map[string]int, 2)
	for scope, name := range map[string]string{
		"minute": "X-Rate-Limit-Remaining-Minute",
		"day":    "X-Rate-Limit-Remaining-Day",
	} {
		raw := h.Get(name)
		if raw == "" {
			return nil, fmt.Errorf("missing %s header", name)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		out[scope] = n
	}
	return out, nil
}

type targetKey struct {
	scope  string
	idx    int
	method string
	path   string
}

type targetState struct {
	count    int
	limit    int
	expiry   time.Time
	latency  time.Duration
	pingedAt time.Time
}

type inflightEntry struct {
	sentAt time.Time
	method string
	path   string
	pinged map[int]bool // window index -> this request is its probe
}

// RateLimiter adaptively tracks per-target request budgets from the backend's
// own quota headers. Targets it has never seen get one uncounted probe
// request per window; once headers come back the counters are authoritative.
// Safe for concurrent use.
type RateLimiter struct {
	mu       sync.Mutex
	strategy HeaderStrategy
	targets  map[targetKey]*targetState
	inflight map[string]inflightEntry
	rng      *rand.Rand
}

func NewRateLimiter(strategy HeaderStrategy) *RateLimiter {
	return &RateLimiter{
		strategy: strategy,
		targets:  make(map[targetKey]*targetState),
		inflight: make(map[string]inflightEntry),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Reserve decides whether a request to (method, path) may go out now. A
// positive wait means the caller must back off for that long and try again; a
// zero wait admits the request and returns the token to hand back to
// Synchronize. Blocked paths always get a strictly positive wait and leave
// the counters untouched.
func (rl *RateLimiter) Reserve(method, path string) (token string, wait time.Duration) {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windows := rl.strategy.Windows()
	pinged := make(map[int]bool)
	var maxWait time.Duration
	for i, w := range windows {
		st := rl.target(targetKey{scope: w.Scope, idx: i, method: method, path: path}, w)
		switch {
		case !st.pingedAt.IsZero() && now.Sub(st.pingedAt) < pingMaxAge:
			// A probe is already in flight; hold everyone else briefly.
			if maxWait < pingHold {
				maxWait = pingHold
			}
		case now.After(st.expiry):
			// Window rolled over; this request becomes the probe.
			pinged[i] = true
		case st.count >= st.limit, wouldOverrunWindow(now, st):
			if until := st.expiry.Sub(now); until > maxWait {
				maxWait = until
			}
		}
	}
	if maxWait > 0 {
		return "", maxWait
	}

	for i, w := range windows {
		st := rl.target(targetKey{scope: w.Scope, idx: i, method: method, path: path}, w)
		if pinged[i] {
			st.pingedAt = now
			st.count = 0
			st.expiry = now.Add(w.Duration)
		} else {
			st.count++
		}
	}
	token = uuid.NewString()
	rl.inflight[token] = inflightEntry{sentAt: now, method: method, path: path, pinged: pinged}
	return token, 0
}

// wouldOverrunWindow reports whether a request sent now, given the observed
// latency, would land after the window expires.
func wouldOverrunWindow(now time.Time, st *targetState) bool {
	if st.latency <= 0 {
		return false
	}
	margin := time.Duration(float64(st.latency) * latencyMargin)
	return now.Add(margin).After(st.expiry)
}

// Wait blocks until the request is admitted or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context, method, path string) (string, error) {
	for {
		token, wait := rl.Reserve(method, path)
		if wait <= 0 {
			return token, nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

// Synchronize folds a response's quota headers back into the tracked state
// for the request identified by token. Header parse failures degrade to a
// fresh-window reset of the request's targets instead of failing the call.
func (rl *RateLimiter) Synchronize(token string, h http.Header) {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.inflight[token]
	if !ok {
		return
	}
	delete(rl.inflight, token)
	latency := now.Sub(entry.sentAt)

	remaining, err := rl.strategy.Remaining(h)
	for i, w := range rl.strategy.Windows() {
		st := rl.target(targetKey{scope: w.Scope, idx: i, method: entry.method, path: entry.path}, w)
		st.latency = latency
		st.pingedAt = time.Time{}
		if err != nil {
			st.count = 0
			st.limit = w.Limit
			st.expiry = now.Add(w.Duration)
			continue
		}
		st.limit = w.Limit
		st.count = w.Limit - remaining[w.Scope]
		if st.count < 0 {
			st.count = 0
		}
		if entry.pinged[i] || st.expiry.Before(now) {
			st.expiry = now.Add(w.Duration)
		}
	}

	// Bound the in-flight map: requests that never synchronized (crashed
	// mid-flight, lost responses) are purged opportunistically.
	if rl.rng.Intn(10) == 0 {
		for tok, e := range rl.inflight {
			if now.Sub(e.sentAt) > inflightTTL {
				delete(rl.inflight, tok)
			}
		}
	}
}

func (rl *RateLimiter) target(key targetKey, w Window) *targetState {
	st, ok := rl.targets[key]
	if !ok {
		st = &targetState{limit: w.Limit}
		rl.targets[key] = st
	}
	return st
}
