package track

import "testing"

func TestConvertID3ToID64(t *testing.T) {
	got, err := ConvertID3ToID64("[A:1:3513917470:30261]")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if want := uint64(90201966066671646); got != want {
		t.Fatalf("ConvertID3ToID64 = %d, want %d", got, want)
	}

	for _, bad := range []string{"", "[B:1:2:3]", "[A:1:2]", "[A:x:2:3]", "A:1:2:3:4"} {
		if _, err := ConvertID3ToID64(bad); err == nil {
			t.Errorf("ConvertID3ToID64(%q) accepted malformed input", bad)
		}
	}
}

func TestRankMedal(t *testing.T) {
	tests := []struct {
		card ProfileCard
		want string
	}{
		{ProfileCard{RankTier: 0}, "Uncalibrated"},
		{ProfileCard{RankTier: 11}, "Herald ★1"},
		{ProfileCard{RankTier: 54}, "Legend ★4"},
		{ProfileCard{RankTier: 75}, "Divine ★5"},
		{ProfileCard{RankTier: 80}, "Immortal"},
		{ProfileCard{RankTier: 80, LeaderboardRank: 511}, "Immortal #511"},
		{ProfileCard{RankTier: 999}, "Uncalibrated"},
	}
	for _, tt := range tests {
		if got := RankMedal(&tt.card); got != tt.want {
			t.Errorf("RankMedal(%+v) = %q, want %q", tt.card, got, tt.want)
		}
	}
}

func TestHeroNames(t *testing.T) {
	if got := HeroID(14).Name(); got != "Pudge" {
		t.Errorf("hero 14 = %q, want Pudge", got)
	}
	if HeroID(0).Known() {
		t.Error("hero 0 must not be a known hero")
	}
	if got := HeroID(0).Name(); got != "" {
		t.Errorf("hero 0 name = %q, want empty", got)
	}
}

func TestPlayerIdentifier(t *testing.T) {
	p := &Player{hero: 44, slot: 6}
	if got := p.Identifier(); got != "Phantom Assassin" {
		t.Errorf("Identifier() = %q", got)
	}
	p = &Player{slot: 6}
	if got := p.Identifier(); got != "Olive" {
		t.Errorf("Identifier() without hero = %q, want slot colour", got)
	}
}

func TestPlayerSetHeroOnlyBackfills(t *testing.T) {
	p := &Player{}
	p.setHero(0)
	if p.Hero() != 0 {
		t.Fatal("zero hero treated as a pick")
	}
	p.setHero(14)
	p.setHero(22)
	if p.Hero() != 14 {
		t.Fatalf("hero = %d, want first backfill to stick", p.Hero())
	}
}
