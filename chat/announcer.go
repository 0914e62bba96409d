// Package chat forwards tracker notifications to a Twitch channel. It is a
// pure announcer; it parses no commands.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/irskel/dotatrack/track"
)

// Announcer implements track.EventSink over Twitch IRC. A nil Announcer is
// valid and silently drops every event, so callers without chat credentials
// can pass it straight through.
type Announcer struct {
	client  *twitch.Client
	channel string
}

// NewAnnouncer connects the announcer to a channel. Returns nil (a working
// no-op sink) when any credential is empty.
func NewAnnouncer(ctx context.Context, channel, username, oauthToken string) *Announcer {
	if channel == "" || username == "" || oauthToken == "" {
		slog.Info("twitch creds not set; chat announcements disabled")
		return nil
	}
	client := twitch.NewClient(username, oauthToken)
	client.Join(channel)

	go func() {
		<-ctx.Done()
		if err := client.Disconnect(); err != nil {
			slog.Warn("twitch chat disconnect error", slog.Any("err", err))
		}
	}()
	go func() {
		if err := client.Connect(); err != nil && ctx.Err() == nil {
			slog.Error("twitch chat connect error", slog.Any("err", err))
		}
	}()

	return &Announcer{client: client, channel: channel}
}

func (a *Announcer) say(message string) {
	if a == nil {
		return
	}
	a.client.Say(a.channel, message)
}

func (a *Announcer) RichPresenceChanged(status track.RPStatus) {
	a.say(fmt.Sprintf("Streamer status: %s", status.DisplayName()))
}

func (a *Announcer) StreamerReset(reason string) {
	a.say(fmt.Sprintf("Stopped tracking the game (%s).", reason))
}

func (a *Announcer) MatchDataReady() {
	a.say("All player data is in. Medal and profile queries are live.")
}

func (a *Announcer) MatchHeroReady() {
	a.say("All heroes are locked in.")
}
