package stats

import (
	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
)

// VersusEntry tallies one player's results against a single opposing
// archetype. Revived deaths are counted separately since they cost the
// opponent a kill without costing the player a life.
type VersusEntry struct {
	Kills         int
	Deaths        int
	RevivedDeaths int
}

// KD returns the entry's kill/death ratio, revived deaths excluded.
func (e VersusEntry) KD() float64 {
	return Ratio(float64(e.Kills), float64(e.Deaths))
}

// ClassVersus breaks a player's kills and deaths down by the opposing
// archetype. Kills key on the victim's loadout; deaths key on the
// attacker's. Unresolvable loadouts land in the ClassUnknown bucket.
func ClassVersus(log []events.Event) map[gamedata.Class]*VersusEntry {
	out := make(map[gamedata.Class]*VersusEntry)
	entry := func(c gamedata.Class) *VersusEntry {
		if e, ok := out[c]; ok {
			return e
		}
		e := &VersusEntry{}
		out[c] = e
		return e
	}

	for _, ev := range log {
		switch ev.Type {
		case events.TypeKill:
			entry(gamedata.ClassOf(ev.TargetLoadoutID)).Kills++
		case events.TypeDeath:
			e := entry(gamedata.ClassOf(ev.TargetLoadoutID))
			if ev.Revived {
				e.RevivedDeaths++
			} else {
				e.Deaths++
			}
		}
	}
	return out
}
