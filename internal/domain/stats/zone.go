package stats

import (
	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
)

// MostPlayedZone returns the display name of the zone with the most
// combat events (kills, deaths, teamkills), or an empty string for a
// log without combat. Ties keep the first zone reached.
func MostPlayedZone(log []events.Event) string {
	counts := make(map[string]int)
	order := make([]string, 0, 4)
	for _, ev := range log {
		if !ev.IsKillOrDeath() || ev.ZoneID == "" {
			continue
		}
		if _, ok := counts[ev.ZoneID]; !ok {
			order = append(order, ev.ZoneID)
		}
		counts[ev.ZoneID]++
	}

	best, bestCount := "", 0
	for _, zone := range order {
		if counts[zone] > bestCount {
			best, bestCount = zone, counts[zone]
		}
	}
	if best == "" {
		return ""
	}
	return gamedata.ZoneName(best)
}
