package track

import (
	"fmt"
	"strconv"
	"strings"
)

// PlayerColours maps a lobby slot (0-9) to the in-game player colour, used as
// a fallback identifier before a hero is picked.
var PlayerColours = [10]string{
	"Blue",
	"Teal",
	"Purple",
	"Yellow",
	"Orange",
	"Pink",
	"Olive",
	"LightBlue",
	"DarkGreen",
	"Brown",
}

// heroNames maps hero ids to their official display names. Heroes are static
// enough to ship as a table; the constants client is only needed for items.
var heroNames = map[HeroID]string{
	1:   "Anti-Mage",
	2:   "Axe",
	3:   "Bane",
	4:   "Bloodseeker",
	5:   "Crystal Maiden",
	6:   "Drow Ranger",
	7:   "Earthshaker",
	8:   "Juggernaut",
	9:   "Mirana",
	10:  "Morphling",
	11:  "Shadow Fiend",
	12:  "Phantom Lancer",
	13:  "Puck",
	14:  "Pudge",
	15:  "Razor",
	16:  "Sand King",
	17:  "Storm Spirit",
	18:  "Sven",
	19:  "Tiny",
	20:  "Vengeful Spirit",
	21:  "Windranger",
	22:  "Zeus",
	23:  "Kunkka",
	25:  "Lina",
	26:  "Lion",
	27:  "Shadow Shaman",
	28:  "Slardar",
	29:  "Tidehunter",
	30:  "Witch Doctor",
	31:  "Lich",
	32:  "Riki",
	33:  "Enigma",
	34:  "Tinker",
	35:  "Sniper",
	36:  "Necrophos",
	37:  "Warlock",
	38:  "Beastmaster",
	39:  "Queen of Pain",
	40:  "Venomancer",
	41:  "Faceless Void",
	42:  "Wraith King",
	43:  "Death Prophet",
	44:  "Phantom Assassin",
	45:  "Pugna",
	46:  "Templar Assassin",
	47:  "Viper",
	48:  "Luna",
	49:  "Dragon Knight",
	50:  "Dazzle",
	51:  "Clockwerk",
	52:  "Leshrac",
	53:  "Nature's Prophet",
	54:  "Lifestealer",
	55:  "Dark Seer",
	56:  "Clinkz",
	57:  "Omniknight",
	58:  "Enchantress",
	59:  "Huskar",
	60:  "Night Stalker",
	61:  "Broodmother",
	62:  "Bounty Hunter",
	63:  "Weaver",
	64:  "Jakiro",
	65:  "Batrider",
	66:  "Chen",
	67:  "Spectre",
	68:  "Ancient Apparition",
	69:  "Doom",
	70:  "Ursa",
	71:  "Spirit Breaker",
	72:  "Gyrocopter",
	73:  "Alchemist",
	74:  "Invoker",
	75:  "Silencer",
	76:  "Outworld Destroyer",
	77:  "Lycan",
	78:  "Brewmaster",
	79:  "Shadow Demon",
	80:  "Lone Druid",
	81:  "Chaos Knight",
	82:  "Meepo",
	83:  "Treant Protector",
	84:  "Ogre Magi",
	85:  "Undying",
	86:  "Rubick",
	87:  "Disruptor",
	88:  "Nyx Assassin",
	89:  "Naga Siren",
	90:  "Keeper of the Light",
	91:  "Io",
	92:  "Visage",
	93:  "Slark",
	94:  "Medusa",
	95:  "Troll Warlord",
	96:  "Centaur Warrunner",
	97:  "Magnus",
	98:  "Timbersaw",
	99:  "Bristleback",
	100: "Tusk",
	101: "Skywrath Mage",
	102: "Abaddon",
	103: "Elder Titan",
	104: "Legion Commander",
	105: "Techies",
	106: "Ember Spirit",
	107: "Earth Spirit",
	108: "Underlord",
	109: "Terrorblade",
	110: "Phoenix",
	111: "Oracle",
	112: "Winter Wyvern",
	113: "Arc Warden",
	114: "Monkey King",
	119: "Dark Willow",
	120: "Pangolier",
	121: "Grimstroke",
	123: "Hoodwink",
	126: "Void Spirit",
	128: "Snapfire",
	129: "Mars",
	131: "Ringmaster",
	135: "Dawnbreaker",
	136: "Marci",
	137: "Primal Beast",
	138: "Muerta",
}

// heroAliases are informal names for the free-text player lookup: short forms
// ("cm"), lore names ("rylai"), dota 1 names ("traxex") and community slang.
// Official names come from heroNames and are preferred on tie scores.
var heroAliases = map[HeroID][]string{
	1:   {"am", "wei", "magina"},
	2:   {"mogul"},
	4:   {"bs", "strygwyr", "seeker", "blood"},
	5:   {"cm", "rylai"},
	6:   {"traxex"},
	7:   {"es", "raigor"},
	8:   {"yurnero"},
	9:   {"princess", "moon", "potm"},
	10:  {"morph"},
	11:  {"sf", "nevermore"},
	12:  {"pl", "azwraith"},
	13:  {"faerie dragon", "fd"},
	14:  {"butcher"},
	16:  {"sk", "crixalis"},
	17:  {"ss", "raijin", "storm"},
	19:  {"tony"},
	20:  {"vs", "shendelzare", "venge"},
	21:  {"wr", "lyralei"},
	22:  {"zuus"},
	23:  {"admiral"},
	25:  {"slayer"},
	26:  {"demon witch"},
	27:  {"rhasta", "shaman"},
	29:  {"th", "leviathan"},
	30:  {"wd", "zharvakko"},
	31:  {"ethreain"},
	32:  {"stealth assassin", "sa"},
	33:  {"nigma"},
	34:  {"boush"},
	35:  {"kardel"},
	36:  {"necrolyte"},
	37:  {"wl"},
	38:  {"bm"},
	39:  {"qop", "akasha"},
	40:  {"lesale"},
	41:  {"fv"},
	42:  {"wk", "skeleton", "ostarion"},
	43:  {"dp", "krobelus"},
	44:  {"pa", "mortred"},
	46:  {"ta", "lanaya"},
	47:  {"netherdrake"},
	48:  {"moon rider"},
	49:  {"dk", "davion"},
	51:  {"rattletrap", "cw", "clock"},
	52:  {"ts"},
	53:  {"np", "furion"},
	54:  {"ls", "naix"},
	55:  {"ds", "ishkafel"},
	58:  {"aiushtha", "ench"},
	60:  {"ns", "balanar"},
	61:  {"brood", "spider"},
	62:  {"bh", "gondar"},
	63:  {"nw", "skitskurr"},
	64:  {"thd", "twin headed dragon"},
	65:  {"bat"},
	67:  {"mercurial"},
	68:  {"aa", "kaldr", "apparition"},
	70:  {"ulfsaar"},
	71:  {"sb", "barathrum", "bara"},
	72:  {"aurel", "gyro"},
	73:  {"razzil", "alch"},
	74:  {"invo"},
	75:  {"nortrom"},
	76:  {"od"},
	77:  {"banehallow"},
	78:  {"brew", "mangix"},
	79:  {"sd"},
	80:  {"ld", "bear", "sylla"},
	81:  {"ck", "chaos"},
	82:  {"geomancer"},
	83:  {"tree"},
	84:  {"om", "ogre"},
	85:  {"dirge"},
	87:  {"dis"},
	88:  {"na", "nyx"},
	89:  {"naga", "slithice"},
	90:  {"ezalor", "kotl"},
	91:  {"wisp"},
	93:  {"slark"},
	94:  {"gorgon"},
	95:  {"troll", "jahrakal"},
	96:  {"centaur", "cent"},
	97:  {"magnataur", "mag"},
	98:  {"shredder", "timber"},
	99:  {"bb", "bristle"},
	100: {"ymir"},
	101: {"sm", "dragonus", "sky"},
	102: {"aba"},
	103: {"et"},
	104: {"tresdin", "legion", "lc"},
	105: {"squee", "spleen", "spoon"},
	106: {"xin", "ember"},
	107: {"kaolin", "earth"},
	108: {"pitlord", "azgalor"},
	109: {"tb"},
	111: {"ora", "nerif"},
	112: {"ww", "auroth"},
	113: {"zet", "aw", "arc"},
	114: {"mk", "wukong"},
	119: {"dw", "mireska"},
	120: {"pango"},
	121: {"gs", "grim"},
	123: {"squirrel", "hw"},
	126: {"void", "inai"},
	128: {"snap", "mortimer", "beatrix"},
	129: {"mars"},
	131: {"rm"},
	135: {"valora", "dawn"},
	137: {"pb"},
}

// Name returns the hero's display name, or empty when the hero is unknown.
func (h HeroID) Name() string {
	return heroNames[h]
}

// Known reports whether the hero id refers to a real hero (0 means unpicked).
func (h HeroID) Known() bool {
	_, ok := heroNames[h]
	return ok
}

// rankDivisions indexes medal names by the tens digit of the rank tier.
var rankDivisions = [...]string{
	"Uncalibrated",
	"Herald",
	"Guardian",
	"Crusader",
	"Archon",
	"Legend",
	"Ancient",
	"Divine",
	"Immortal",
}

// RankMedal renders a profile card's rank tier as a display string, e.g.
// "Divine ★3" or "Immortal #511".
func RankMedal(card *ProfileCard) string {
	division := card.RankTier / 10
	if division < 0 || division >= len(rankDivisions) {
		return rankDivisions[0]
	}
	out := rankDivisions[division]
	if stars := card.RankTier % 10; stars > 0 {
		out += fmt.Sprintf(" ★%d", stars)
	}
	if card.LeaderboardRank > 0 {
		out += fmt.Sprintf(" #%d", card.LeaderboardRank)
	}
	return out
}

// ConvertID3ToID64 converts a server steam id from rich-presence id3 form to
// the 64-bit form the realtime stats endpoint expects.
// Example: [A:1:3513917470:30261] -> 90201966066671646.
func ConvertID3ToID64(id3 string) (uint64, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(id3, "["), "]")
	parts := strings.Split(trimmed, ":")
	if len(parts) != 4 || parts[0] != "A" {
		return 0, fmt.Errorf("malformed server id3 %q", id3)
	}
	universe, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return 0, fmt.Errorf("malformed server id3 %q: %w", id3, err)
	}
	account, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("malformed server id3 %q: %w", id3, err)
	}
	instance, err := strconv.ParseUint(parts[3], 10, 20)
	if err != nil {
		return 0, fmt.Errorf("malformed server id3 %q: %w", id3, err)
	}
	const anonGameServerType = 4
	return universe<<56 | anonGameServerType<<52 | instance<<32 | account, nil
}
