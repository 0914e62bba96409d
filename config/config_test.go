package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STEAM_ID64", "76561198046865625")
	t.Setenv("PRESENCE_POLL_INTERVAL", "")
	t.Setenv("DB_DSN", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AccountID != 86599897 {
		t.Errorf("AccountID = %d, want 86599897", cfg.AccountID)
	}
	if cfg.PresencePollInterval != 10*time.Second {
		t.Errorf("PresencePollInterval = %v, want 10s", cfg.PresencePollInterval)
	}
	if cfg.DBDsn == "" {
		t.Errorf("expected default DB_DSN, got empty")
	}
}

func TestLoadRejectsBadSteamID(t *testing.T) {
	cases := []string{"", "abc", "86599897"} // last one is a 32-bit account id, not an id64
	for _, v := range cases {
		t.Setenv("STEAM_ID64", v)
		if _, err := Load(); err == nil {
			t.Errorf("Load() with STEAM_ID64=%q: expected error", v)
		}
	}
}

func TestValidateChatReady(t *testing.T) {
	t.Setenv("STEAM_ID64", "76561198046865625")
	t.Setenv("TWITCH_CHANNEL", "chan")
	t.Setenv("TWITCH_BOT_USERNAME", "bot")
	t.Setenv("TWITCH_OAUTH_TOKEN", "oauth:token")
	cfg, _ := Load()
	if err := cfg.ValidateChatReady(); err != nil {
		t.Errorf("expected valid chat config, got %v", err)
	}
	t.Setenv("TWITCH_CHANNEL", "")
	cfg, _ = Load()
	if err := cfg.ValidateChatReady(); err == nil {
		t.Errorf("expected error when missing twitch envs")
	}
}
