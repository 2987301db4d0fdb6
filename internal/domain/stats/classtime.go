package stats

import (
	"context"

	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
	"github.com/opstrack/opstrack/pkg/logger"
	"github.com/opstrack/opstrack/pkg/metrics"
)

// ClassBucket accumulates time and combat counters for one archetype.
type ClassBucket struct {
	Class   gamedata.Class
	Seconds float64
	Score   int
	Kills   int
	Deaths  int
}

// ClassUsage is the result of apportioning a log across archetypes.
type ClassUsage struct {
	Buckets    map[gamedata.Class]*ClassBucket
	MostPlayed gamedata.Class
}

// ApportionClassTime walks a player's ordered log once and attributes
// elapsed time, score, kills, and unrevived deaths to the archetype active
// at each event. Login, logout, capture, and defend entries carry no
// loadout and are skipped without breaking the walk. Events with an
// unresolvable loadout are logged and skipped; the walk continues.
//
// Time accrues on experience ticks: the gap since the previous tick is
// added to the current tick's archetype, reflecting time spent in that
// role leading up to it.
func ApportionClassTime(ctx context.Context, log []events.Event) ClassUsage {
	usage := ClassUsage{
		Buckets:    make(map[gamedata.Class]*ClassBucket, len(gamedata.Classes)),
		MostPlayed: gamedata.ClassUnknown,
	}
	for _, c := range gamedata.Classes {
		usage.Buckets[c] = &ClassBucket{Class: c}
	}
	if len(log) == 0 {
		return usage
	}

	lg := logger.Named("classtime")
	lastTick := log[0].Timestamp

	for _, ev := range log {
		switch ev.Type {
		case events.TypeLogin, events.TypeLogout, events.TypeCapture, events.TypeDefend:
			continue
		}
		// A mirrored revive carries the medic's loadout; attributing it
		// would hand the medic's class the victim's time and score.
		if ev.Mirrored {
			continue
		}

		class := gamedata.ClassOf(ev.LoadoutID)
		if class == gamedata.ClassUnknown {
			lg.Warn(ctx, "unresolvable loadout, skipping attribution",
				logger.String("loadout", ev.LoadoutID),
				logger.String("type", string(ev.Type)))
			metrics.RecordUnresolvedLookup()
			continue
		}
		bucket := usage.Buckets[class]

		switch ev.Type {
		case events.TypeExp:
			bucket.Seconds += float64(ev.Timestamp-lastTick) / 1000.0
			bucket.Score += ev.Amount
			lastTick = ev.Timestamp
		case events.TypeKill:
			bucket.Kills++
		case events.TypeDeath:
			if !ev.Revived {
				bucket.Deaths++
			}
		}
	}

	best := -1.0
	for _, c := range gamedata.Classes {
		if usage.Buckets[c].Seconds > best {
			best = usage.Buckets[c].Seconds
			usage.MostPlayed = c
		}
	}
	return usage
}
