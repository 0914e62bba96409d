package track

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var playerPollInterval = 5 * time.Second

const playerPollBudget = 12

// Player is one seat of a tracked match. It progressively fetches the
// account's profile card (rank medal, lifetime game count) on a bounded loop
// and exposes a chat-recognizable identifier. Fields only ever transition
// from unknown to known for the lifetime of one Player.
type Player struct {
	mu sync.Mutex

	api       GameAPI
	accountID uint32
	hero      HeroID
	slot      int // 0-9 lobby slot, used for the colour fallback

	lifetimeGames int
	medal         string
	dataReady     bool
}

// newPlayer constructs the player and starts its profile-card loop. The loop
// is bound to ctx, which belongs to the owning match: resetting the match
// cancels every player loop with it.
func newPlayer(ctx context.Context, api GameAPI, accountID uint32, hero HeroID, slot int) *Player {
	p := &Player{api: api, accountID: accountID, hero: hero, slot: slot}
	go pollLoop(ctx, fmt.Sprintf("player %d", accountID), playerPollInterval, playerPollBudget, p.update)
	return p
}

func (p *Player) update(ctx context.Context, _ int) (bool, error) {
	card, err := p.api.ProfileCard(ctx, p.accountID)
	if err != nil {
		return false, err
	}
	if card == nil {
		return false, fmt.Errorf("profile card for %d not available yet", p.accountID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lifetimeGames = card.LifetimeGames
	p.medal = RankMedal(card)
	if p.medal != "" {
		p.dataReady = true
		return true, nil
	}
	return false, nil
}

// AccountID returns the player's stable account id.
func (p *Player) AccountID() uint32 { return p.accountID }

// Hero returns the player's hero, 0 while unknown.
func (p *Player) Hero() HeroID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hero
}

// setHero backfills the hero once the backend reports it. A zero id means
// "not yet known" and is ignored.
func (p *Player) setHero(hero HeroID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hero == 0 && hero != 0 {
		p.hero = hero
	}
}

// IsDataReady reports whether the profile card has been resolved.
func (p *Player) IsDataReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dataReady
}

// Medal returns the rank medal display string, empty while unknown.
func (p *Player) Medal() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.medal
}

// LifetimeGames returns the account's total game count, 0 while unknown.
func (p *Player) LifetimeGames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lifetimeGames
}

// Identifier names the player so chat can tell whom data belongs to: the hero
// display name once picked, otherwise the slot colour (i.e. "Blue").
func (p *Player) Identifier() string {
	p.mu.Lock()
	hero := p.hero
	p.mu.Unlock()
	if name := hero.Name(); name != "" {
		return name
	}
	if p.slot >= 0 && p.slot < len(PlayerColours) {
		return PlayerColours[p.slot]
	}
	return "Unknown"
}

// Profile renders the player's card line for chat.
func (p *Player) Profile() string {
	p.mu.Lock()
	medal, games := p.medal, p.lifetimeGames
	p.mu.Unlock()
	if medal == "" {
		medal = "?"
	}
	return fmt.Sprintf("%s %s • %d total games • stratz.com/players/%d", p.Identifier(), medal, games, p.accountID)
}
