package track

import (
	"fmt"
	"time"
)

// LastGame is the finalized summary of the streamer's most recent match.
// Immutable once built; the streamer replaces it wholesale when a newer match
// id settles.
type LastGame struct {
	MatchID   int64
	Hero      HeroID
	StartTime time.Time
	EndedTime time.Time
	Kills     int
	Deaths    int
	Assists   int
	Outcome   PlayerMatchOutcome
	LobbyType LobbyType
	GameMode  GameMode

	// players keeps the full lobby so the next match can answer "who else
	// was in my last game".
	players []MinimalPlayer
}

// NewLastGame builds the summary from a finished match, locating the
// streamer's seat by account id and falling back to the hero they were seen
// playing (the backend anonymizes accounts that opted out of data sharing).
func NewLastGame(minimal *MinimalMatch, accountID uint32, hero HeroID, outcome PlayerMatchOutcome) *LastGame {
	lg := &LastGame{
		MatchID:   minimal.MatchID,
		Hero:      hero,
		StartTime: minimal.StartTime,
		EndedTime: minimal.StartTime.Add(minimal.Duration),
		Outcome:   outcome,
		LobbyType: minimal.LobbyType,
		GameMode:  minimal.GameMode,
		players:   minimal.Players,
	}
	var seat *MinimalPlayer
	for i := range minimal.Players {
		if minimal.Players[i].AccountID == accountID {
			seat = &minimal.Players[i]
			break
		}
	}
	if seat == nil && hero != 0 {
		for i := range minimal.Players {
			if minimal.Players[i].HeroID == hero {
				seat = &minimal.Players[i]
				break
			}
		}
	}
	if seat != nil {
		if lg.Hero == 0 {
			lg.Hero = seat.HeroID
		}
		lg.Kills, lg.Deaths, lg.Assists = seat.Kills, seat.Deaths, seat.Assists
	}
	return lg
}

// Summary renders the chat line for the last finished game.
func (lg *LastGame) Summary() string {
	hero := lg.Hero.Name()
	if hero == "" {
		hero = "Unknown Hero"
	}
	ago := humanDuration(time.Since(lg.EndedTime))
	return fmt.Sprintf(
		"%s as %s • %d/%d/%d • %s (%s) • ended %s ago • dotabuff.com/matches/%d",
		lg.Outcome, hero, lg.Kills, lg.Deaths, lg.Assists,
		lg.LobbyType.DisplayName(), lg.GameMode.DisplayName(), ago, lg.MatchID,
	)
}

// humanDuration renders a coarse "2h 13m" style duration for chat.
func humanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return "moments"
	}
}
