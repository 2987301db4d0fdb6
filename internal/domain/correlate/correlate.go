// Package correlate establishes causal links between otherwise independent
// entries of a single player log: deaths to their revives, kill streaks,
// and life durations for survival analysis.
package correlate

import (
	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
	"github.com/opstrack/opstrack/pkg/metrics"
)

// DefaultReviveWindowMS caps how long after a death a revive may still be
// attributed to it. Feed delivery gaps can misattribute a revive meant for
// an unrelated earlier death; bounding the latency limits, but does not
// eliminate, that misattribution.
const DefaultReviveWindowMS = int64(40_000)

// LinkRevives walks log in order and links every unlinked death to the
// next revive-class experience event targeting the death's owner, within
// windowMS. Linking is one-to-one: a revive event claims at most one
// death. Matched deaths get Revived set and RevivedEvent pointing at the
// revive's log index. Returns the number of links made.
func LinkRevives(log []events.Event, windowMS int64) int {
	if windowMS <= 0 {
		windowMS = DefaultReviveWindowMS
	}

	claimed := make(map[int]struct{})
	linked := 0

	for i := range log {
		if log[i].Type != events.TypeDeath || log[i].Revived {
			continue
		}

		for j := i + 1; j < len(log); j++ {
			if log[j].Timestamp-log[i].Timestamp > windowMS {
				break
			}
			if log[j].Type != events.TypeExp || !gamedata.IsReviveExp(log[j].ExpID) {
				continue
			}
			if log[j].TargetID != log[i].SourceID {
				continue
			}
			if _, taken := claimed[j]; taken {
				continue
			}

			log[i].Revived = true
			log[i].RevivedEvent = j
			claimed[j] = struct{}{}
			linked++
			metrics.RecordReviveLinked()
			break
		}
	}

	return linked
}

// MaxKillStreak returns the longest run of kills uninterrupted by an
// unrevived death. Revived deaths do not break a streak; teamkills do not
// extend one.
func MaxKillStreak(log []events.Event) int {
	best, cur := 0, 0
	for _, ev := range log {
		switch {
		case ev.Type == events.TypeKill:
			cur++
			if cur > best {
				best = cur
			}
		case ev.Type == events.TypeDeath && !ev.Revived:
			cur = 0
		}
	}
	return best
}

// LifeDurations returns the length in seconds of each life closed by an
// unrevived death. A life runs from the previous life-closing event, or
// from the first event of the log, to the death that closes it. Revived
// deaths do not close a life.
func LifeDurations(log []events.Event) []float64 {
	if len(log) == 0 {
		return nil
	}

	var lives []float64
	lifeStart := log[0].Timestamp
	for _, ev := range log {
		if ev.Type != events.TypeDeath || ev.Revived {
			continue
		}
		lives = append(lives, float64(ev.Timestamp-lifeStart)/1000.0)
		lifeStart = ev.Timestamp
	}
	return lives
}

// DefaultPostReviveKillWindowMS bounds how soon after a revive a kill
// counts as a post-revive kill.
const DefaultPostReviveKillWindowMS = int64(10_000)

// KillsAfterRevive counts kills landed within windowMS of the player
// being revived. Requires a linked log.
func KillsAfterRevive(log []events.Event, windowMS int64) int {
	if windowMS <= 0 {
		windowMS = DefaultPostReviveKillWindowMS
	}

	var reviveTimes []int64
	for _, ev := range log {
		if ev.Type != events.TypeDeath || !ev.Revived {
			continue
		}
		if ev.RevivedEvent < 0 || ev.RevivedEvent >= len(log) {
			continue
		}
		reviveTimes = append(reviveTimes, log[ev.RevivedEvent].Timestamp)
	}
	if len(reviveTimes) == 0 {
		return 0
	}

	n := 0
	for _, ev := range log {
		if ev.Type != events.TypeKill {
			continue
		}
		for _, ts := range reviveTimes {
			if ev.Timestamp >= ts && ev.Timestamp-ts <= windowMS {
				n++
				break
			}
		}
	}
	return n
}

// ReviveLatencies returns, for every linked death, the seconds between
// the death and its revive. Samples feed the time-to-revive survival
// estimator.
func ReviveLatencies(log []events.Event) []float64 {
	var out []float64
	for _, ev := range log {
		if ev.Type != events.TypeDeath || !ev.Revived {
			continue
		}
		if ev.RevivedEvent < 0 || ev.RevivedEvent >= len(log) {
			continue
		}
		out = append(out, float64(log[ev.RevivedEvent].Timestamp-ev.Timestamp)/1000.0)
	}
	return out
}

// LifeAfterRevive returns, for every linked revive, the seconds until the
// revived player's next death, capped at horizonSeconds. Deaths beyond the
// horizon contribute the horizon itself, keeping the sample censored
// rather than dropped.
func LifeAfterRevive(log []events.Event, horizonSeconds float64) []float64 {
	var out []float64
	for _, ev := range log {
		if ev.Type != events.TypeDeath || !ev.Revived {
			continue
		}
		if ev.RevivedEvent < 0 || ev.RevivedEvent >= len(log) {
			continue
		}
		reviveTS := log[ev.RevivedEvent].Timestamp

		sample := horizonSeconds
		for j := ev.RevivedEvent + 1; j < len(log); j++ {
			if log[j].Type != events.TypeDeath {
				continue
			}
			d := float64(log[j].Timestamp-reviveTS) / 1000.0
			if d < sample {
				sample = d
			}
			break
		}
		out = append(out, sample)
	}
	return out
}
