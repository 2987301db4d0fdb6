package ingest_test

import (
	"context"
	"fmt"
	"testing"

	ingest "github.com/opstrack/opstrack/internal/adapters/ingest"
	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/gamedata"
	tracker "github.com/opstrack/opstrack/internal/domain/tracker"
	. "github.com/smartystreets/goconvey/convey"
)

func deathFrame(attacker, attackerLoadout, victim, victimLoadout string, ts int64, headshot bool) ingest.RawMessage {
	hs := "0"
	if headshot {
		hs = "1"
	}
	return ingest.RawMessage{Channel: "events", Payload: []byte(fmt.Sprintf(
		`{"payload":{"event_name":"Death","attacker_character_id":"%s","attacker_loadout_id":"%s","attacker_weapon_id":"7169","character_id":"%s","character_loadout_id":"%s","is_headshot":"%s","timestamp":"%d","zone_id":"2"},"service":"event","type":"serviceMessage"}`,
		attacker, attackerLoadout, victim, victimLoadout, hs, ts))}
}

func expFrame(expID, source, target, loadout string, amount int, ts int64) ingest.RawMessage {
	return ingest.RawMessage{Channel: "events", Payload: []byte(fmt.Sprintf(
		`{"payload":{"event_name":"GainExperience","experience_id":"%s","character_id":"%s","other_id":"%s","loadout_id":"%s","amount":"%d","timestamp":"%d","zone_id":"2"},"service":"event","type":"serviceMessage"}`,
		expID, source, target, loadout, amount, ts))}
}

func simpleFrame(name, characterID string, ts int64) ingest.RawMessage {
	return ingest.RawMessage{Channel: "logins", Payload: []byte(fmt.Sprintf(
		`{"payload":{"event_name":"%s","character_id":"%s","timestamp":"%d"},"service":"event","type":"serviceMessage"}`,
		name, characterID, ts))}
}

func newFixture(ids ...string) (*ingest.Dispatcher, *tracker.Store, *tracker.RouterTracker, *tracker.CaptureLog) {
	store := tracker.NewStore()
	for _, id := range ids {
		store.Add(tracker.NewTrackedPlayer(id))
	}
	routers := tracker.NewRouterTracker()
	captures := tracker.NewCaptureLog()
	d := ingest.NewDispatcher(
		ingest.WithStore(store),
		ingest.WithRouters(routers),
		ingest.WithCaptures(captures),
	)
	return d, store, routers, captures
}

func TestDispatcherCombat(t *testing.T) {
	ctx := context.Background()

	Convey("Given a dispatcher tracking two hostile players", t, func() {
		// 13 is a TR heavy, 18 a VS medic.
		d, store, _, _ := newFixture("attacker", "victim")

		Convey("A death frame appends a kill and a death", func() {
			d.Process(ctx, deathFrame("attacker", "13", "victim", "18", 100, true))

			a, _ := store.Get("attacker")
			So(len(a.Events), ShouldEqual, 1)
			So(a.Events[0].Type, ShouldEqual, events.TypeKill)
			So(a.Events[0].TargetID, ShouldEqual, "victim")
			So(a.Events[0].Headshot, ShouldBeTrue)
			So(a.Stats.Get(gamedata.StatKill, 0), ShouldEqual, 1)
			So(a.Stats.Get(gamedata.StatHeadshot, 0), ShouldEqual, 1)

			v, _ := store.Get("victim")
			So(len(v.Events), ShouldEqual, 1)
			So(v.Events[0].Type, ShouldEqual, events.TypeDeath)
			So(v.Events[0].SourceID, ShouldEqual, "victim")
			So(v.Events[0].TargetLoadoutID, ShouldEqual, "13")
			So(v.Stats.Get(gamedata.StatDeath, 0), ShouldEqual, 1)
		})

		Convey("A same-faction death is a teamkill", func() {
			d.Process(ctx, deathFrame("attacker", "13", "victim", "11", 100, false))

			a, _ := store.Get("attacker")
			So(a.Events[0].Type, ShouldEqual, events.TypeTeamkill)
			So(a.Stats.Get(gamedata.StatTeamkill, 0), ShouldEqual, 1)
			So(a.Stats.Get(gamedata.StatKill, 0), ShouldEqual, 0)

			v, _ := store.Get("victim")
			So(v.Events[0].Type, ShouldEqual, events.TypeDeath)
			So(v.Stats.Get(gamedata.StatTeamkilled, 0), ShouldEqual, 1)
		})

		Convey("A suicide appends only the death", func() {
			d.Process(ctx, deathFrame("victim", "18", "victim", "18", 100, false))

			a, _ := store.Get("attacker")
			So(len(a.Events), ShouldEqual, 0)
			v, _ := store.Get("victim")
			So(len(v.Events), ShouldEqual, 1)
			So(v.Events[0].Type, ShouldEqual, events.TypeDeath)
		})

		Convey("Untracked identities are skipped without error", func() {
			d.Process(ctx, deathFrame("stranger", "13", "victim", "18", 100, false))

			v, _ := store.Get("victim")
			So(len(v.Events), ShouldEqual, 1)
			_, ok := store.Get("stranger")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestDispatcherDedup(t *testing.T) {
	ctx := context.Background()

	Convey("Given a dispatcher", t, func() {
		d, store, _, _ := newFixture("victim")

		Convey("The same raw frame twice mutates state once", func() {
			frame := deathFrame("0", "", "victim", "18", 100, false)
			d.Process(ctx, frame)
			d.Process(ctx, frame)

			v, _ := store.Get("victim")
			So(len(v.Events), ShouldEqual, 1)
		})

		Convey("Malformed frames are dropped without mutation", func() {
			d.Process(ctx, ingest.RawMessage{Channel: "events", Payload: []byte("{broken")})
			v, _ := store.Get("victim")
			So(len(v.Events), ShouldEqual, 0)
		})
	})
}

func TestDispatcherExperience(t *testing.T) {
	ctx := context.Background()

	Convey("Given a dispatcher tracking a medic and a victim", t, func() {
		d, store, _, _ := newFixture("medic", "victim")

		Convey("A tracked experience tick lands in the stat map", func() {
			d.Process(ctx, expFrame(gamedata.ExpHeal, "medic", "victim", "11", 25, 100))

			m, _ := store.Get("medic")
			So(len(m.Events), ShouldEqual, 1)
			So(m.Stats.Get(gamedata.ExpHeal, 0), ShouldEqual, 1)
		})

		Convey("A squad-scoped tick chains to its parent statistic", func() {
			d.Process(ctx, expFrame(gamedata.ExpSquadHeal, "medic", "victim", "11", 15, 100))

			m, _ := store.Get("medic")
			So(m.Stats.Get(gamedata.ExpSquadHeal, 0), ShouldEqual, 1)
			So(m.Stats.Get(gamedata.ExpHeal, 0), ShouldEqual, 1)
		})

		Convey("A revive tick is appended to both logs", func() {
			d.Process(ctx, expFrame(gamedata.ExpRevive, "medic", "victim", "11", 75, 100))

			m, _ := store.Get("medic")
			v, _ := store.Get("victim")
			So(len(m.Events), ShouldEqual, 1)
			So(len(v.Events), ShouldEqual, 1)
			So(v.Events[0].TargetID, ShouldEqual, "victim")

			Convey("And the victim's copy is marked as mirrored", func() {
				So(m.Events[0].Mirrored, ShouldBeFalse)
				So(v.Events[0].Mirrored, ShouldBeTrue)
			})

			Convey("But only the medic accumulates the statistic", func() {
				So(m.Stats.Get(gamedata.ExpRevive, 0), ShouldEqual, 1)
				So(v.Stats.Get(gamedata.ExpRevive, 0), ShouldEqual, 0)
			})
		})
	})
}

func TestDispatcherRouters(t *testing.T) {
	ctx := context.Background()

	Convey("Given a dispatcher tracking a logistics player", t, func() {
		d, _, routers, _ := newFixture("owner")

		itemFrame := func(item string, ts int64) ingest.RawMessage {
			return ingest.RawMessage{Channel: "events", Payload: []byte(fmt.Sprintf(
				`{"payload":{"event_name":"ItemAdded","character_id":"owner","item_id":"%s","context":"GuildBankWithdrawal","timestamp":"%d"},"service":"event","type":"serviceMessage"}`,
				item, ts))}
		}

		Convey("Pull, spawn ticks, and a router kill drive the lifecycle", func() {
			d.Process(ctx, itemFrame("6006", 10))
			d.Process(ctx, expFrame(gamedata.ExpRouterSpawn, "owner", "npc-1", "5", 5, 20))
			d.Process(ctx, expFrame(gamedata.ExpRouterSpawn, "owner", "npc-1", "5", 5, 30))
			d.Process(ctx, expFrame(gamedata.ExpRouterKill, "enemy", "npc-1", "13", 100, 40))

			all := routers.All()
			So(len(all), ShouldEqual, 1)
			So(all[0].ID, ShouldEqual, "npc-1")
			So(all[0].FirstSpawn, ShouldEqual, int64(20_000))
			So(all[0].Count, ShouldEqual, 2)
			So(all[0].Destroyed, ShouldEqual, int64(40_000))
		})

		Convey("Non-router items do not create placements", func() {
			d.Process(ctx, itemFrame("101", 10))
			So(len(routers.All()), ShouldEqual, 0)
		})
	})
}

func TestDispatcherSessionEvents(t *testing.T) {
	ctx := context.Background()

	Convey("Given a dispatcher tracking one player", t, func() {
		d, store, _, captures := newFixture("p")

		Convey("Login and logout drive the online state machine", func() {
			d.Process(ctx, simpleFrame("PlayerLogin", "p", 100))
			p, _ := store.Get("p")
			So(p.Online, ShouldBeTrue)
			So(p.JoinTime, ShouldEqual, int64(100_000))

			d.Process(ctx, simpleFrame("PlayerLogout", "p", 160))
			So(p.Online, ShouldBeFalse)
			So(p.SecondsOnline, ShouldEqual, 60.0)
		})

		Convey("A facility capture is logged and counted", func() {
			frame := ingest.RawMessage{Channel: "facility", Payload: []byte(
				`{"payload":{"event_name":"PlayerFacilityCapture","character_id":"p","facility_id":"222280","outfit_id":"333","timestamp":"100","zone_id":"2"},"service":"event","type":"serviceMessage"}`)}
			d.Process(ctx, frame)

			p, _ := store.Get("p")
			So(p.Stats.Get(gamedata.StatBaseCapture, 0), ShouldEqual, 1)
			So(len(captures.All()), ShouldEqual, 1)
			So(captures.All()[0].FacilityID, ShouldEqual, "222280")
		})

		Convey("Queued frames drain through the dispatch loop", func() {
			q := ingest.NewInMemoryQueue()
			store2 := tracker.NewStore()
			store2.Add(tracker.NewTrackedPlayer("p"))
			d2 := ingest.NewDispatcher(ingest.WithStore(store2), ingest.WithQueue(q))

			d2.Start(ctx)
			q.Enqueue(ctx, simpleFrame("PlayerLogin", "p", 100))
			d2.Stop()

			p, _ := store2.Get("p")
			So(p.Online, ShouldBeTrue)
		})
	})
}
