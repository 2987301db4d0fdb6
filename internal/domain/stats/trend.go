package stats

import (
	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
)

// DefaultTrendBucketSeconds is the window width for time-bucketed trends.
const DefaultTrendBucketSeconds = 60

// PerMinuteTrend partitions a log into fixed-width windows from its first
// event and returns the per-minute rate of events matching match in each
// window. Windows with no occurrences produce a zero point, so the series
// has one value per window across the whole span.
func PerMinuteTrend(log []events.Event, match func(events.Event) bool, bucketSeconds int) []float64 {
	if len(log) == 0 {
		return nil
	}
	if bucketSeconds <= 0 {
		bucketSeconds = DefaultTrendBucketSeconds
	}

	start := log[0].Timestamp
	span := log[len(log)-1].Timestamp - start
	bucketMS := int64(bucketSeconds) * 1000
	buckets := int(span/bucketMS) + 1

	counts := make([]int, buckets)
	for _, ev := range log {
		if !match(ev) {
			continue
		}
		idx := int((ev.Timestamp - start) / bucketMS)
		if idx >= 0 && idx < buckets {
			counts[idx]++
		}
	}

	perMinute := float64(bucketSeconds) / 60.0
	out := make([]float64, buckets)
	for i, n := range counts {
		out[i] = float64(n) / perMinute
	}
	return out
}

// KPMTrend is PerMinuteTrend over kill events.
func KPMTrend(log []events.Event, bucketSeconds int) []float64 {
	return PerMinuteTrend(log, func(ev events.Event) bool {
		return ev.Type == events.TypeKill
	}, bucketSeconds)
}

// RPMTrend is PerMinuteTrend over revive experience events the owner
// earned; mirrored copies in a victim's log do not count.
func RPMTrend(log []events.Event, bucketSeconds int) []float64 {
	return PerMinuteTrend(log, func(ev events.Event) bool {
		return ev.Type == events.TypeExp && !ev.Mirrored && gamedata.IsReviveExp(ev.ExpID)
	}, bucketSeconds)
}

// KDTrend returns the cumulative kill/death ratio at the end of each
// window. Deaths use the same max(den,1) guard as the headline ratios
// and revived deaths do not count.
func KDTrend(log []events.Event, bucketSeconds int) []float64 {
	if len(log) == 0 {
		return nil
	}
	if bucketSeconds <= 0 {
		bucketSeconds = DefaultTrendBucketSeconds
	}

	start := log[0].Timestamp
	span := log[len(log)-1].Timestamp - start
	bucketMS := int64(bucketSeconds) * 1000
	buckets := int(span/bucketMS) + 1

	kills := make([]int, buckets)
	deaths := make([]int, buckets)
	for _, ev := range log {
		idx := int((ev.Timestamp - start) / bucketMS)
		if idx < 0 || idx >= buckets {
			continue
		}
		switch {
		case ev.Type == events.TypeKill:
			kills[idx]++
		case ev.Type == events.TypeDeath && !ev.Revived:
			deaths[idx]++
		}
	}

	out := make([]float64, buckets)
	var k, d int
	for i := 0; i < buckets; i++ {
		k += kills[i]
		d += deaths[i]
		out[i] = Ratio(float64(k), float64(d))
	}
	return out
}
