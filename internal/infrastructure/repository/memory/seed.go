package memory

import (
	"time"

	"github.com/mygleague/inhouse/internal/domain/faction"
)

var factionNames = map[string]string{
	"DEMACIA":  "Demacia",
	"NOXUS":    "Noxus",
	"IONIA":    "Ionia",
	"FRELJORD": "Freljord",
	"PILTOVER": "Piltover",
	"SHURIMA":  "Shurima",
	"ZAUN":     "Zaun",
}

// SeedFactionRoster returns the fixed faction roster with stable ids.
func SeedFactionRoster() []faction.Faction {
	now := time.Now().UTC()
	factions := make([]faction.Faction, 0, len(faction.Keys()))
	for i, key := range faction.Keys() {
		factions = append(factions, faction.Faction{
			ID:        i + 1,
			Key:       key,
			Name:      factionNames[key],
			CreatedAt: now,
		})
	}
	return factions
}

// SeedFactions fills the repository with the fixed faction roster. Memory
// mode has no migrations, so the seed runs at startup.
func SeedFactions(repo *FactionRepository) {
	repo.Seed(SeedFactionRoster())
}
