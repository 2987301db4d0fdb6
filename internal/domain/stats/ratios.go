// Package stats derives reporting statistics from finalized player logs:
// guarded ratios, time-bucketed trends, class-time apportionment, per-class
// matchups, score breakdowns, and the Kaplan-Meier survival estimator.
package stats

import (
	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
	"github.com/opstrack/opstrack/internal/domain/statmap"
)

// DefaultMinKills is the sample floor below which noisy ratios are
// suppressed.
const DefaultMinKills = 25

// Ratio divides with the numerator / max(denominator, 1) convention.
func Ratio(num, den float64) float64 {
	if den < 1 {
		den = 1
	}
	return num / den
}

// GatedRatio is Ratio suppressed to zero while samples is below floor.
func GatedRatio(num, den float64, samples, floor int) float64 {
	if samples < floor {
		return 0
	}
	return Ratio(num, den)
}

// Calculated is the standard per-player ratio set.
type Calculated struct {
	KPM float64 // kills per minute, gated
	KD  float64 // kills per unrevived death, gated
	KAD float64 // kills plus assists per unrevived death
	HSR float64 // headshot ratio, gated
	KRD float64 // kills plus revives per unrevived death
	RD  float64 // revives per unrevived death
	RPM float64 // revives per minute
}

// CalculatedStats computes the ratio set for one player. minKills gates
// KPM, KD and HSR; pass zero to use DefaultMinKills.
func CalculatedStats(log []events.Event, sm *statmap.StatMap, secondsOnline float64, minKills int) Calculated {
	if minKills <= 0 {
		minKills = DefaultMinKills
	}

	var kills, deaths, headshots int
	for _, ev := range log {
		switch ev.Type {
		case events.TypeKill:
			kills++
			if ev.Headshot {
				headshots++
			}
		case events.TypeDeath:
			if !ev.Revived {
				deaths++
			}
		}
	}

	assists := sm.Get(gamedata.ExpKillAssist, 0)
	revives := sm.Get(gamedata.ExpRevive, 0)
	minutes := secondsOnline / 60.0
	fKills := float64(kills)
	fDeaths := float64(deaths)

	return Calculated{
		KPM: GatedRatio(fKills, minutes, kills, minKills),
		KD:  GatedRatio(fKills, fDeaths, kills, minKills),
		KAD: Ratio(fKills+assists, fDeaths),
		HSR: GatedRatio(float64(headshots), fKills, kills, minKills),
		KRD: Ratio(fKills+revives, fDeaths),
		RD:  Ratio(revives, fDeaths),
		RPM: Ratio(revives, minutes),
	}
}
