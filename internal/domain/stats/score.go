package stats

import (
	"sort"

	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
)

// ScoreEntry aggregates one experience statistic over a log.
type ScoreEntry struct {
	ExpID  string
	Name   string
	Count  int
	Amount int
}

// ScoreBreakdown aggregates experience ticks by statistic, sorted by total
// amount descending, ties broken by ID for stable output.
func ScoreBreakdown(log []events.Event) []ScoreEntry {
	byID := make(map[string]*ScoreEntry)
	for _, ev := range log {
		if ev.Type != events.TypeExp || ev.Mirrored {
			continue
		}
		e, ok := byID[ev.ExpID]
		if !ok {
			e = &ScoreEntry{ExpID: ev.ExpID, Name: gamedata.ExperienceName(ev.ExpID)}
			byID[ev.ExpID] = e
		}
		e.Count++
		e.Amount += ev.Amount
	}

	out := make([]ScoreEntry, 0, len(byID))
	for _, e := range byID {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].ExpID < out[j].ExpID
	})
	return out
}

// TotalScore sums the amounts of every experience tick the owner earned.
func TotalScore(log []events.Event) int {
	total := 0
	for _, ev := range log {
		if ev.Type == events.TypeExp && !ev.Mirrored {
			total += ev.Amount
		}
	}
	return total
}
