package game

import (
	"sort"
	"strings"

	"dungeon-server/internal/localization"
)

const fallbackStarter = "You find yourself in an unexpected situation when"

// genres в порядке предъявления игроку.
var genres = []string{
	"Fantasy", "Sci-Fi", "Cyberpunk", "Post-Apocalyptic",
	"1880", "WW1", "1925 New York", "Roman Empire", "French Revolution",
}

var genreKeys = map[string]string{
	"Fantasy":           "genres.fantasy",
	"Sci-Fi":            "genres.scifi",
	"Cyberpunk":         "genres.cyberpunk",
	"Post-Apocalyptic":  "genres.post_apocalyptic",
	"1880":              "genres.1880s",
	"WW1":               "genres.ww1",
	"1925 New York":     "genres.1925_new_york",
	"Roman Empire":      "genres.roman_empire",
	"French Revolution": "genres.french_revolution",
}

// roleStarters — встроенные английские стартовые сцены; локализованные
// версии имеют приоритет и берутся из таблицы переводов.
var roleStarters = map[string]map[string]string{
	"Fantasy": {
		"Peasant":     "You're working in the fields of a small village when",
		"Noble":       "You're waking up from your bed in your mansion when",
		"Mage":        "You're studying ancient tomes in your tower when",
		"Knight":      "You're training in the castle courtyard when",
		"Ranger":      "You're tracking animals in the deep forest when",
		"Thief":       "You're casing a noble's house from an alley in a city when",
		"Bard":        "You're performing in a crowded tavern when",
		"Cleric":      "You're tending to the sick in the temple when",
		"Assassin":    "You're preparing to attack your target in the shadows when",
		"Paladin":     "You're praying at the altar of your deity when",
		"Alchemist":   "You're carefully measuring reagents in your alchemy lab when",
		"Druid":       "You're communing with nature in the sacred grove when",
		"Warlock":     "You're negotiating with your otherworldly patron when",
		"Monk":        "You're meditating in the monastery courtyard when",
		"Sorcerer":    "You're struggling to control your innate magical powers when",
		"Beastmaster": "You're training your animal companions in the forest clearing when",
		"Enchanter":   "You're imbuing magical properties into a mundane object when",
		"Blacksmith":  "You're forging a new weapon at your anvil when",
		"Merchant":    "You're haggling with customers at the marketplace when",
		"Gladiator":   "You're preparing for combat in the arena when",
		"Wizard":      "You're researching new spells in your arcane library when",
	},
	"Sci-Fi": {
		"Space Marine":       "You're conducting patrol on a derelict space station when",
		"Scientist":          "You're analyzing alien samples in your lab when",
		"Android":            "You're performing system diagnostics on your ship when",
		"Pilot":              "You're navigating through an asteroid field when",
		"Engineer":           "You're repairing the FTL drive when",
		"Alien Diplomat":     "You're negotiating with an alien delegation when",
		"Bounty Hunter":      "You're tracking a target through a spaceport when",
		"Starship Captain":   "You're commanding the bridge during warp travel when",
		"Space Pirate":       "You're plotting your next raid from your starship's bridge when",
		"Navigator":          "You're charting a course through uncharted space when",
		"Robot Technician":   "You're repairing a malfunctioning android when",
		"Cybernetic Soldier": "You're calibrating your combat implants when",
		"Explorer":           "You're scanning a newly discovered planet when",
		"Astrobiologist":     "You're studying alien life forms in your lab when",
		"Quantum Hacker":     "You're breaching a corporate firewall when",
		"Galactic Trader":    "You're negotiating a deal for rare resources when",
		"AI Specialist":      "You're debugging a sentient AI's personality matrix when",
		"Terraformer":        "You're monitoring atmospheric changes on a new colony world when",
		"Cyberneticist":      "You're installing neural enhancements in a patient when",
	},
	"Cyberpunk": {
		"Hacker":                "You're breaching a corporate network when",
		"Street Samurai":        "You're patrolling the neon-lit streets when",
		"Corporate Agent":       "You're closing a deal in a high-rise office when",
		"Techie":                "You're modifying cyberware in your workshop when",
		"Rebel Leader":          "You're planning a raid on a corporate facility when",
		"Cyborg":                "You're calibrating your cybernetic enhancements when",
		"Drone Operator":        "You're controlling surveillance drones from your command center when",
		"Synth Dealer":          "You're negotiating an illegal cyberware deal when",
		"Information Courier":   "You're delivering sensitive data through dangerous streets when",
		"Augmentation Engineer": "You're installing cyberware in a back-alley clinic when",
		"Black Market Dealer":   "You're arranging contraband in your hidden shop when",
		"Scumbag":               "You're looking for an easy mark in the slums when",
		"Police":                "You're patrolling the neon-soaked streets when",
	},
	"Post-Apocalyptic": {
		"Survivor":    "You're scavenging in the ruins of an old city when",
		"Scavenger":   "You're searching a pre-collapse bunker when",
		"Raider":      "You're ambushing a caravan in the wastes when",
		"Medic":       "You're treating radiation sickness in your clinic when",
		"Cult Leader": "You're preaching to your followers at a ritual when",
		"Mutant":      "You're hiding your mutations in a settlement when",
		"Trader":      "You're bartering supplies at a wasteland outpost when",
		"Berserker":   "You're sharpening your weapons for the next raid when",
		"Soldier":     "You're defending a settlement against raiders when",
	},
	"1880": {
		"Thief":          "You're lurking in the shadows of a city alley when",
		"Beggar":         "You're sitting on a cold street corner with your cup when",
		"Detective":      "You're examining clues at a crime scene when",
		"Rich Man":       "You're enjoying a cigar in your luxurious study when",
		"Factory Worker": "You're toiling in a noisy factory when",
		"Child":          "You're playing with a hoop in the street when",
		"Orphan":         "You're searching rubbish bins for scraps when",
		"Murderer":       "You're washing blood off your hands in a dark alley when",
		"Butcher":        "You're sharpening knives behind your counter when",
		"Baker":          "You're kneading dough in the small hours when",
		"Banker":         "You're counting money in your office when",
		"Policeman":      "You're patrolling the foggy streets when",
	},
	"WW1": {
		"Soldier (French)":   "You're huddling in a muddy trench on the Western Front when",
		"Soldier (English)":  "You're writing a letter home by candlelight when",
		"Soldier (Russian)":  "You're shivering on the frozen Eastern Front when",
		"Soldier (Italian)":  "You're climbing a steep Alpine slope when",
		"Soldier (USA)":      "You've just arrived on the European battlefield when",
		"Soldier (Japanese)": "You're standing guard at a Pacific outpost when",
		"Soldier (German)":   "You're preparing for a night raid when",
		"Soldier (Austrian)": "You're defending the borders of a crumbling empire when",
		"Soldier (Bulgarian)": "You're holding the line in the Balkans when",
		"Civilian":           "You're queuing for rationed bread when",
		"Resistance Fighter": "You're transmitting coded messages from an attic when",
	},
	"1925 New York": {
		"Mafia Boss":     "You're counting illicit earnings in the back room of a speakeasy when",
		"Drunk":          "You're stumbling out of a jazz club at dawn when",
		"Police Officer": "You're taking a bribe from a known bootlegger when",
		"Detective":      "You're examining a mob murder scene when",
		"Factory Worker": "You're assembling Model T's on the production line when",
		"Bootlegger":     "You're transporting a shipment of illegal liquor when",
	},
	"Roman Empire": {
		"Slave":         "You're hauling heavy stones under the scorching sun when",
		"Gladiator":     "You're sharpening your sword before entering the arena when",
		"Beggar":        "You're begging for coins near the forum when",
		"Senator":       "You're plotting political schemes in the curia when",
		"Imperator":     "You're reviewing your legions from the palace balcony when",
		"Soldier":       "You're marching along the frontier when",
		"Noble":         "You're hosting a decadent feast at your villa when",
		"Trader":        "You're haggling over spices at the market when",
		"Peasant":       "You're tending your meager crops when",
		"Priest":        "You're sacrificing a goat at the temple when",
		"Barbarian":     "You're sharpening your axe across the Rhine when",
		"Philosopher":   "You're contemplating the nature of existence when",
		"Mathematician": "You're calculating the circumference of the earth when",
		"Semi-God":      "You're channeling divine power on Mount Olympus when",
	},
	"French Revolution": {
		"Peasant":    "You're marching on the Bastille with a pitchfork when",
		"King":       "You're dining lavishly while Paris starves when",
		"Noble":      "You're hiding the family jewels from revolutionaries when",
		"Beggar":     "You're rummaging through an aristocrat's refuse when",
		"Soldier":    "You're guarding the Tuileries Palace when",
		"General":    "You're planning troop deployments against the rebels when",
		"Resistance": "You're printing revolutionary pamphlets in secret when",
		"Politician": "You're delivering a fiery speech at the National Assembly when",
	},
}

// Genres возвращает список жанров в порядке предъявления игроку.
func Genres() []string {
	out := make([]string, len(genres))
	copy(out, genres)
	return out
}

// GenreDescription возвращает локализованное описание жанра;
// для неизвестного жанра — сам жанр.
func GenreDescription(genre string, table localization.Table) string {
	key, ok := genreKeys[genre]
	if !ok {
		return genre
	}
	if desc := table.T(key); desc != key {
		return desc
	}
	return genre
}

// RolesFor возвращает роли жанра в стабильном порядке.
func RolesFor(genre string) []string {
	starters, ok := roleStarters[genre]
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(starters))
	for role := range starters {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Starter возвращает стартовую сцену роли: сперва из таблицы переводов,
// затем из встроенного списка, иначе нейтральное начало.
func Starter(genre, role string, table localization.Table) string {
	key := "role_starters." + strings.ToLower(genre) + "." + strings.ToLower(role)
	if s := table.T(key); s != key {
		return s
	}
	if starters, ok := roleStarters[genre]; ok {
		if s, ok := starters[role]; ok {
			return s
		}
	}
	return fallbackStarter
}
