package stats_test

import (
	"context"
	"testing"

	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
	"github.com/opstrack/opstrack/internal/domain/statmap"
	stats "github.com/opstrack/opstrack/internal/domain/stats"
	"github.com/opstrack/opstrack/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestRatios(t *testing.T) {
	Convey("Given the ratio helpers", t, func() {
		Convey("Ratio never divides by zero", func() {
			So(stats.Ratio(10, 0), ShouldEqual, 10)
			So(stats.Ratio(10, 4), ShouldEqual, 2.5)
		})

		Convey("GatedRatio suppresses small samples", func() {
			So(stats.GatedRatio(10, 5, 10, 25), ShouldEqual, 0)
			So(stats.GatedRatio(30, 5, 30, 25), ShouldEqual, 6)
		})
	})
}

func TestCalculatedStats(t *testing.T) {
	Convey("Given a player with a combat log", t, func() {
		sm := statmap.New()
		sm.Set(gamedata.ExpKillAssist, 10)
		sm.Set(gamedata.ExpRevive, 6)

		var log []events.Event
		for i := 0; i < 30; i++ {
			log = append(log, events.Event{
				Type:      events.TypeKill,
				Timestamp: int64(i) * 1000,
				Headshot:  i < 15,
			})
		}
		log = append(log,
			events.Event{Type: events.TypeDeath, Timestamp: 31_000},
			events.Event{Type: events.TypeDeath, Timestamp: 32_000},
			events.Event{Type: events.TypeDeath, Timestamp: 33_000, Revived: true},
		)

		Convey("All ratios follow the guarded convention", func() {
			c := stats.CalculatedStats(log, sm, 600, 25)

			So(c.KPM, ShouldEqual, 3)               // 30 kills / 10 minutes
			So(c.KD, ShouldEqual, 15)               // 30 / 2 unrevived
			So(c.KAD, ShouldEqual, 20)              // (30 + 10) / 2
			So(c.HSR, ShouldEqual, 0.5)             // 15 / 30
			So(c.KRD, ShouldEqual, 18)              // (30 + 6) / 2
			So(c.RD, ShouldEqual, 3)                // 6 / 2
			So(c.RPM, ShouldAlmostEqual, 0.6, 1e-9) // 6 / 10 minutes
		})

		Convey("KPM, KD and HSR are suppressed below the kill floor", func() {
			short := log[:10]
			c := stats.CalculatedStats(short, sm, 600, 25)
			So(c.KD, ShouldEqual, 0)
			So(c.HSR, ShouldEqual, 0)
			So(c.KPM, ShouldEqual, 0)
		})

		Convey("An empty log yields all zeros without panicking", func() {
			c := stats.CalculatedStats(nil, statmap.New(), 0, 0)
			So(c.KPM, ShouldEqual, 0)
			So(c.KD, ShouldEqual, 0)
		})
	})
}

func TestPerMinuteTrend(t *testing.T) {
	Convey("Given a log spanning several buckets", t, func() {
		log := []events.Event{
			{Type: events.TypeKill, Timestamp: 0},
			{Type: events.TypeKill, Timestamp: 10_000},
			{Type: events.TypeExp, Timestamp: 70_000},
			{Type: events.TypeKill, Timestamp: 130_000},
		}

		Convey("Every window gets a point, zero windows included", func() {
			trend := stats.KPMTrend(log, 60)
			So(trend, ShouldResemble, []float64{2, 0, 1})
		})

		Convey("Bucket width scales the per-minute rate", func() {
			trend := stats.KPMTrend(log, 30)
			// 30s windows: 2 kills in the first window is 4 per minute.
			So(len(trend), ShouldEqual, 5)
			So(trend[0], ShouldEqual, 4)
			So(trend[4], ShouldEqual, 2)
		})

		Convey("An empty log yields no trend", func() {
			So(stats.KPMTrend(nil, 60), ShouldBeNil)
		})
	})
}

func TestKaplanMeier(t *testing.T) {
	Convey("Given survival samples", t, func() {
		Convey("The curve is the cumulative product of per-tick survival", func() {
			curve := stats.KaplanMeier([]float64{1.5, 2.5, 2.5, 3.5}, 0)

			So(len(curve), ShouldEqual, 5)
			So(curve[0], ShouldEqual, 1.0)  // all survive past 0
			So(curve[1], ShouldEqual, 1.0)  // all survive past 1
			So(curve[2], ShouldEqual, 0.75) // 3 of 4 survive past 2
			So(curve[3], ShouldEqual, 0.25) // 1 of 3 survives past 3
			So(curve[4], ShouldEqual, 0.0)  // none survive past 4
		})

		Convey("The curve is monotonically non-increasing and bounded", func() {
			samples := []float64{0.5, 3, 7, 7, 12, 19, 19.5, 40}
			curve := stats.KaplanMeier(samples, 45)

			So(len(curve), ShouldEqual, 46)
			for i, v := range curve {
				So(v, ShouldBeBetweenOrEqual, 0, 1)
				if i > 0 {
					So(v, ShouldBeLessThanOrEqualTo, curve[i-1])
				}
			}
		})

		Convey("An explicit horizon extends the curve past the last sample", func() {
			curve := stats.KaplanMeier([]float64{2}, 5)
			So(len(curve), ShouldEqual, 6)
			So(curve[5], ShouldEqual, 0)
		})

		Convey("An empty sample yields nil", func() {
			So(stats.KaplanMeier(nil, 10), ShouldBeNil)
		})
	})
}

func TestApportionClassTime(t *testing.T) {
	ctx := context.Background()

	// TR loadouts: 11 medic, 13 heavy assault.
	exp := func(ts int64, loadout string, amount int) events.Event {
		return events.Event{Type: events.TypeExp, Timestamp: ts, LoadoutID: loadout, Amount: amount}
	}

	Convey("Given an ordered log", t, func() {
		Convey("Experience gaps accrue to the current tick's archetype", func() {
			log := []events.Event{
				exp(0, "11", 25),
				exp(30_000, "11", 50),
				exp(90_000, "13", 100),
			}
			usage := stats.ApportionClassTime(ctx, log)

			So(usage.Buckets[gamedata.ClassMedic].Seconds, ShouldEqual, 30)
			So(usage.Buckets[gamedata.ClassHeavyAssault].Seconds, ShouldEqual, 60)
			So(usage.Buckets[gamedata.ClassMedic].Score, ShouldEqual, 75)
			So(usage.MostPlayed, ShouldEqual, gamedata.ClassHeavyAssault)
		})

		Convey("Class time is conserved for fully resolvable logs", func() {
			log := []events.Event{
				exp(0, "11", 10),
				exp(45_000, "13", 10),
				exp(100_000, "11", 10),
				exp(180_000, "12", 10),
			}
			usage := stats.ApportionClassTime(ctx, log)

			total := 0.0
			for _, b := range usage.Buckets {
				total += b.Seconds
			}
			secondsOnline := float64(log[len(log)-1].Timestamp-log[0].Timestamp) / 1000.0
			So(total, ShouldAlmostEqual, secondsOnline, 1e-9)
		})

		Convey("Kills and unrevived deaths land on the active archetype", func() {
			log := []events.Event{
				exp(0, "13", 10),
				{Type: events.TypeKill, Timestamp: 5_000, LoadoutID: "13"},
				{Type: events.TypeDeath, Timestamp: 8_000, LoadoutID: "13"},
				{Type: events.TypeDeath, Timestamp: 9_000, LoadoutID: "13", Revived: true},
			}
			usage := stats.ApportionClassTime(ctx, log)

			heavy := usage.Buckets[gamedata.ClassHeavyAssault]
			So(heavy.Kills, ShouldEqual, 1)
			So(heavy.Deaths, ShouldEqual, 1)
		})

		Convey("Unresolvable loadouts are skipped without breaking the walk", func() {
			log := []events.Event{
				exp(0, "11", 10),
				exp(30_000, "9999", 10),
				exp(60_000, "11", 10),
			}
			usage := stats.ApportionClassTime(ctx, log)

			// The skipped tick does not advance the clock, so the gap it
			// covered is attributed to the next resolvable tick.
			So(usage.Buckets[gamedata.ClassMedic].Seconds, ShouldEqual, 60)
		})

		Convey("Mirrored revives accrue nothing to the medic's archetype", func() {
			log := []events.Event{
				exp(0, "13", 10),
				exp(30_000, "13", 10),
				{Type: events.TypeExp, Timestamp: 45_000, LoadoutID: "11",
					Amount: 75, Mirrored: true},
				exp(60_000, "13", 10),
			}
			usage := stats.ApportionClassTime(ctx, log)

			So(usage.Buckets[gamedata.ClassMedic].Seconds, ShouldEqual, 0)
			So(usage.Buckets[gamedata.ClassMedic].Score, ShouldEqual, 0)
			So(usage.Buckets[gamedata.ClassHeavyAssault].Seconds, ShouldEqual, 60)
		})

		Convey("Capture and login entries neither crash nor accrue time", func() {
			log := []events.Event{
				{Type: events.TypeLogin, Timestamp: 0},
				exp(10_000, "11", 10),
				{Type: events.TypeCapture, Timestamp: 15_000},
				exp(20_000, "11", 10),
				{Type: events.TypeLogout, Timestamp: 25_000},
			}
			usage := stats.ApportionClassTime(ctx, log)
			So(usage.Buckets[gamedata.ClassMedic].Seconds, ShouldEqual, 20)
		})

		Convey("An empty log reports no usage", func() {
			usage := stats.ApportionClassTime(ctx, nil)
			So(usage.MostPlayed, ShouldEqual, gamedata.ClassUnknown)
		})
	})
}

func TestClassVersus(t *testing.T) {
	Convey("Given a combat log with varied opponents", t, func() {
		log := []events.Event{
			{Type: events.TypeKill, Timestamp: 1_000, TargetLoadoutID: "18"},  // VS medic
			{Type: events.TypeKill, Timestamp: 2_000, TargetLoadoutID: "20"},  // VS heavy
			{Type: events.TypeKill, Timestamp: 3_000, TargetLoadoutID: "20"},
			{Type: events.TypeDeath, Timestamp: 4_000, TargetLoadoutID: "20"},
			{Type: events.TypeDeath, Timestamp: 5_000, TargetLoadoutID: "18", Revived: true},
			{Type: events.TypeDeath, Timestamp: 6_000, TargetLoadoutID: "424242"},
		}

		versus := stats.ClassVersus(log)

		Convey("Kills key on the victim's archetype", func() {
			So(versus[gamedata.ClassHeavyAssault].Kills, ShouldEqual, 2)
			So(versus[gamedata.ClassMedic].Kills, ShouldEqual, 1)
		})

		Convey("Deaths key on the attacker's archetype, revives split out", func() {
			So(versus[gamedata.ClassHeavyAssault].Deaths, ShouldEqual, 1)
			So(versus[gamedata.ClassMedic].RevivedDeaths, ShouldEqual, 1)
			So(versus[gamedata.ClassMedic].Deaths, ShouldEqual, 0)
		})

		Convey("Unknown loadouts land in the unknown bucket", func() {
			So(versus[gamedata.ClassUnknown].Deaths, ShouldEqual, 1)
		})

		Convey("The per-entry KD excludes revived deaths", func() {
			So(versus[gamedata.ClassHeavyAssault].KD(), ShouldEqual, 2)
			So(versus[gamedata.ClassMedic].KD(), ShouldEqual, 1)
		})
	})
}

func TestScoreBreakdown(t *testing.T) {
	Convey("Given a log with experience ticks", t, func() {
		log := []events.Event{
			{Type: events.TypeExp, ExpID: gamedata.ExpHeal, Amount: 25},
			{Type: events.TypeExp, ExpID: gamedata.ExpHeal, Amount: 25},
			{Type: events.TypeExp, ExpID: gamedata.ExpRevive, Amount: 75},
			{Type: events.TypeKill, Timestamp: 1},
			{Type: events.TypeExp, ExpID: "99999", Amount: 10},
		}

		entries := stats.ScoreBreakdown(log)

		Convey("Entries aggregate by statistic, sorted by amount", func() {
			So(len(entries), ShouldEqual, 3)
			So(entries[0].Name, ShouldEqual, "Revive")
			So(entries[0].Amount, ShouldEqual, 75)
			So(entries[1].Name, ShouldEqual, "Heal")
			So(entries[1].Count, ShouldEqual, 2)
		})

		Convey("Unknown statistics get a placeholder name", func() {
			So(entries[2].Name, ShouldEqual, "Unknown 99999")
		})

		Convey("TotalScore sums every tick", func() {
			So(stats.TotalScore(log), ShouldEqual, 135)
		})

		Convey("Mirrored ticks are the medic's score, not the owner's", func() {
			mirrored := append([]events.Event(nil), log...)
			mirrored = append(mirrored, events.Event{
				Type: events.TypeExp, ExpID: gamedata.ExpRevive,
				Amount: 75, Mirrored: true,
			})
			So(stats.TotalScore(mirrored), ShouldEqual, 135)
			So(len(stats.ScoreBreakdown(mirrored)), ShouldEqual, 3)
		})
	})
}

func TestKDTrend(t *testing.T) {
	Convey("Given a log with kills and deaths over several windows", t, func() {
		log := []events.Event{
			{Type: events.TypeKill, Timestamp: 0},
			{Type: events.TypeKill, Timestamp: 10_000},
			{Type: events.TypeDeath, Timestamp: 70_000},
			{Type: events.TypeDeath, Timestamp: 80_000, Revived: true},
			{Type: events.TypeKill, Timestamp: 130_000},
			{Type: events.TypeDeath, Timestamp: 140_000},
		}

		Convey("Each point is the cumulative ratio at the window's end", func() {
			trend := stats.KDTrend(log, 60)
			So(trend, ShouldResemble, []float64{2, 2, 1.5})
		})

		Convey("Revived deaths never count against the ratio", func() {
			revivedOnly := []events.Event{
				{Type: events.TypeKill, Timestamp: 0},
				{Type: events.TypeDeath, Timestamp: 5_000, Revived: true},
			}
			So(stats.KDTrend(revivedOnly, 60), ShouldResemble, []float64{1})
		})

		Convey("An empty log yields no trend", func() {
			So(stats.KDTrend(nil, 60), ShouldBeNil)
		})
	})
}

func TestRPMTrend(t *testing.T) {
	Convey("Given a log with revive experience ticks", t, func() {
		log := []events.Event{
			{Type: events.TypeExp, ExpID: gamedata.ExpRevive, Timestamp: 0},
			{Type: events.TypeExp, ExpID: gamedata.ExpSquadRevive, Timestamp: 20_000},
			{Type: events.TypeExp, ExpID: gamedata.ExpHeal, Timestamp: 30_000},
			{Type: events.TypeExp, ExpID: gamedata.ExpRevive, Timestamp: 70_000},
		}

		Convey("Only revive ticks count toward the rate", func() {
			So(stats.RPMTrend(log, 60), ShouldResemble, []float64{2, 1})
		})

		Convey("Mirrored revive copies in a victim's log do not count", func() {
			mirrored := append([]events.Event(nil), log...)
			mirrored = append(mirrored, events.Event{
				Type: events.TypeExp, ExpID: gamedata.ExpRevive,
				Timestamp: 80_000, Mirrored: true,
			})
			So(stats.RPMTrend(mirrored, 60), ShouldResemble, []float64{2, 1})
		})
	})
}

func TestMostPlayedZone(t *testing.T) {
	Convey("Given combat spread across zones", t, func() {
		// Zone 2 is Indar, zone 4 is Hossin.
		log := []events.Event{
			{Type: events.TypeKill, Timestamp: 0, ZoneID: "4"},
			{Type: events.TypeKill, Timestamp: 1_000, ZoneID: "2"},
			{Type: events.TypeDeath, Timestamp: 2_000, ZoneID: "2"},
			{Type: events.TypeExp, Timestamp: 3_000, ZoneID: "4"},
		}

		Convey("The zone with the most kill and death events wins", func() {
			So(stats.MostPlayedZone(log), ShouldEqual, "Indar")
		})

		Convey("Ties keep the zone reached first", func() {
			tied := []events.Event{
				{Type: events.TypeKill, Timestamp: 0, ZoneID: "4"},
				{Type: events.TypeKill, Timestamp: 1_000, ZoneID: "2"},
			}
			So(stats.MostPlayedZone(tied), ShouldEqual, "Hossin")
		})

		Convey("A log without combat reports no zone", func() {
			support := []events.Event{
				{Type: events.TypeExp, ExpID: gamedata.ExpHeal, ZoneID: "2"},
			}
			So(stats.MostPlayedZone(support), ShouldEqual, "")
		})
	})
}
