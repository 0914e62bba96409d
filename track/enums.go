package track

// RPStatus is the "status" field of a Steam rich presence snapshot.
// Two values are synthesized locally and never appear on the wire:
// StatusOffline (snapshot absent) and StatusNoStatus (field absent).
type RPStatus string

const (
	StatusOffline  RPStatus = "#MY_Offline"
	StatusNoStatus RPStatus = "#MY_NoStatus"

	StatusIdle          RPStatus = "#DOTA_RP_IDLE"
	StatusMainMenu      RPStatus = "#DOTA_RP_INIT"
	StatusFinding       RPStatus = "#DOTA_RP_FINDING_MATCH"
	StatusWaitingToLoad RPStatus = "#DOTA_RP_WAIT_FOR_PLAYERS_TO_LOAD"
	StatusHeroSelection RPStatus = "#DOTA_RP_HERO_SELECTION"
	StatusStrategy      RPStatus = "#DOTA_RP_STRATEGY_TIME"
	StatusPreGame       RPStatus = "#DOTA_RP_PRE_GAME"
	StatusPlaying       RPStatus = "#DOTA_RP_PLAYING_AS"
	StatusSpectating    RPStatus = "#DOTA_RP_SPECTATING"
	StatusPrivateLobby  RPStatus = "#DOTA_RP_PRIVATE_LOBBY"
	StatusBotPractice   RPStatus = "#DOTA_RP_BOTPRACTICE"
	StatusCoaching      RPStatus = "#DOTA_RP_COACHING"
	StatusCustomGame    RPStatus = "#DOTA_RP_GAME_IN_PROGRESS_CUSTOM"
)

var statusDisplayNames = map[RPStatus]string{
	StatusOffline:       "Offline/Invisible",
	StatusIdle:          "Main Menu (Idle)",
	StatusMainMenu:      "Main Menu",
	StatusFinding:       "Finding A Match",
	StatusWaitingToLoad: "Waiting For Players to Load",
	StatusHeroSelection: "Hero Selection",
	StatusStrategy:      "Strategy Phase",
	StatusPreGame:       "PreGame",
	StatusPlaying:       "Playing",
	StatusSpectating:    "Spectating",
	StatusPrivateLobby:  "Private Lobby",
	StatusBotPractice:   "Bot Practice",
	StatusCoaching:      "Coaching",
	StatusCustomGame:    "Custom Game",
}

// DisplayName returns a chat-friendly name; unknown statuses fall through to
// the raw value so new client strings stay visible in logs.
func (s RPStatus) DisplayName() string {
	if name, ok := statusDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

// Presence "param0" values marking lobby kinds the tracker cannot follow.
const (
	lobbyParamDemoMode = "#demo_hero_mode_name"
	lobbyParamBotMatch = "#DOTA_lobby_type_name_bot_match"
)

// LobbyType mirrors the game's lobby type codes.
type LobbyType int32

const (
	LobbyInvalid       LobbyType = -1
	LobbyUnranked      LobbyType = 0
	LobbyPractice      LobbyType = 1
	LobbyCoopBots      LobbyType = 4
	LobbyGuildMatch    LobbyType = 6
	LobbyRanked        LobbyType = 7
	LobbySoloMid       LobbyType = 8
	LobbyBattleCup     LobbyType = 9
	LobbyEvent         LobbyType = 10
	LobbyNewPlayerMode LobbyType = 12
)

func (l LobbyType) DisplayName() string {
	switch l {
	case LobbyUnranked:
		return "Unranked"
	case LobbyPractice:
		return "Practice"
	case LobbyCoopBots:
		return "Co-op Bots"
	case LobbyGuildMatch:
		return "Guild Match"
	case LobbyRanked:
		return "Ranked"
	case LobbySoloMid:
		return "Solo Mid"
	case LobbyBattleCup:
		return "Battle Cup"
	case LobbyEvent:
		return "Event"
	case LobbyNewPlayerMode:
		return "New Player Mode"
	default:
		return "Unknown Lobby"
	}
}

// GameMode mirrors the game's mode codes. Only modes the bot formats by name
// are listed; everything else renders through DisplayName's fallback.
type GameMode int32

const (
	ModeNone         GameMode = 0
	ModeAllPick      GameMode = 1
	ModeCaptains     GameMode = 2
	ModeRandomDraft  GameMode = 3
	ModeSingleDraft  GameMode = 4
	ModeAllRandom    GameMode = 5
	ModeAbilityDraft GameMode = 18
	ModeAllDraft     GameMode = 22
	ModeTurbo        GameMode = 23
)

func (m GameMode) DisplayName() string {
	switch m {
	case ModeAllPick:
		return "All Pick"
	case ModeCaptains:
		return "Captains Mode"
	case ModeRandomDraft:
		return "Random Draft"
	case ModeSingleDraft:
		return "Single Draft"
	case ModeAllRandom:
		return "All Random"
	case ModeAbilityDraft:
		return "Ability Draft"
	case ModeAllDraft:
		return "All Draft"
	case ModeTurbo:
		return "Turbo"
	default:
		return "Unknown Mode"
	}
}

// MatchOutcome is the match-level result code reported by the backend.
type MatchOutcome int32

const (
	OutcomeUnknown        MatchOutcome = 0
	OutcomeRadiantVictory MatchOutcome = 2
	OutcomeDireVictory    MatchOutcome = 3
	// 64+ are the "not scored" family (poor network, leaver, crash, ...).
	OutcomeNotScoredPoorNetwork MatchOutcome = 64
)

// Team identifies a side by the outcome code that means it won.
type Team int32

const (
	TeamRadiant Team = Team(OutcomeRadiantVictory)
	TeamDire    Team = Team(OutcomeDireVictory)
)

func (t Team) String() string {
	switch t {
	case TeamRadiant:
		return "Radiant"
	case TeamDire:
		return "Dire"
	default:
		return "Unknown"
	}
}

// PlayerMatchOutcome is the per-player result persisted in the ledger.
type PlayerMatchOutcome int32

const (
	PlayerLoss      PlayerMatchOutcome = 0
	PlayerWin       PlayerMatchOutcome = 1
	PlayerAbandon   PlayerMatchOutcome = 21
	PlayerNotScored PlayerMatchOutcome = 66
	PlayerOther     PlayerMatchOutcome = 99
)

func (o PlayerMatchOutcome) String() string {
	switch o {
	case PlayerLoss:
		return "Loss"
	case PlayerWin:
		return "Win"
	case PlayerAbandon:
		return "Abandon"
	case PlayerNotScored:
		return "Not Scored"
	default:
		return "Other"
	}
}

// Valid reports whether the match properly ended with a scored win or loss.
func (o PlayerMatchOutcome) Valid() bool {
	return o == PlayerWin || o == PlayerLoss
}

// MMRChange returns the rating delta this outcome contributes: ±25 for a
// scored ranked result, 0 for everything else.
func (o PlayerMatchOutcome) MMRChange(lobbyType LobbyType) int {
	if lobbyType != LobbyRanked || !o.Valid() {
		return 0
	}
	if o == PlayerWin {
		return 25
	}
	return -25
}

// OutcomeFromHistory derives the per-player outcome by fusing the
// outcome-bearing minimal match with the player's own history entry.
func OutcomeFromHistory(minimal *MinimalMatch, entry HistoryEntry) PlayerMatchOutcome {
	if entry.Abandon {
		return PlayerAbandon
	}
	switch {
	case minimal.Outcome == OutcomeRadiantVictory || minimal.Outcome == OutcomeDireVictory:
		if entry.Win {
			return PlayerWin
		}
		return PlayerLoss
	case minimal.Outcome >= OutcomeNotScoredPoorNetwork:
		return PlayerNotScored
	default:
		return PlayerOther
	}
}

// WinLossCategory groups ledger rows for the session win/loss summary.
type WinLossCategory int32

const (
	CategoryRanked WinLossCategory = iota + 1
	CategoryUnranked
	CategoryTurbo
	CategoryNewPlayerMode
	CategoryOther
)

// Categorize maps a (lobbyType, gameMode) pair onto its summary category.
func Categorize(lobbyType LobbyType, gameMode GameMode) WinLossCategory {
	switch lobbyType {
	case LobbyRanked:
		return CategoryRanked
	case LobbyUnranked:
		if gameMode == ModeTurbo {
			return CategoryTurbo
		}
		return CategoryUnranked
	case LobbyNewPlayerMode:
		return CategoryNewPlayerMode
	default:
		return CategoryOther
	}
}

func (c WinLossCategory) String() string {
	switch c {
	case CategoryRanked:
		return "Ranked"
	case CategoryUnranked:
		return "Unranked"
	case CategoryTurbo:
		return "Turbo"
	case CategoryNewPlayerMode:
		return "New Player Mode"
	default:
		return "Other"
	}
}
