package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/opstrack/opstrack/internal/adapters/lookup"
	service "github.com/opstrack/opstrack/internal/app"
	"github.com/opstrack/opstrack/internal/domain/events"
	"github.com/opstrack/opstrack/internal/domain/tracker"
	. "github.com/smartystreets/goconvey/convey"
)

func deathFrame(attacker, attackerLoadout, victim, victimLoadout string, ts int64, headshot bool) []byte {
	hs := "0"
	if headshot {
		hs = "1"
	}
	return []byte(fmt.Sprintf(
		`{"payload":{"event_name":"Death","attacker_character_id":"%s","attacker_loadout_id":"%s","attacker_weapon_id":"7169","character_id":"%s","character_loadout_id":"%s","is_headshot":"%s","timestamp":"%d","zone_id":"2"},"service":"event","type":"serviceMessage"}`,
		attacker, attackerLoadout, victim, victimLoadout, hs, ts))
}

func loginFrame(characterID string, ts int64) []byte {
	return []byte(fmt.Sprintf(
		`{"payload":{"event_name":"PlayerLogin","character_id":"%s","timestamp":"%d"},"service":"event","type":"serviceMessage"}`,
		characterID, ts))
}

// awaitEvents subscribes before frames are pushed and blocks until n
// routed events have been observed or the deadline passes.
func awaitEvents(svc *service.Service, n int) func() bool {
	seen := make(chan struct{}, 64)
	svc.Bus().SubscribeAll(func(events.Event) {
		seen <- struct{}{}
	})
	return func() bool {
		deadline := time.After(5 * time.Second)
		for i := 0; i < n; i++ {
			select {
			case <-seen:
			case <-deadline:
				return false
			}
		}
		return true
	}
}

func TestServiceIntegration(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running service with two subscribed identities", t, func() {
		f := &stubFeed{}
		resolver := lookup.NewStaticResolver(
			lookup.WithCharacters(
				tracker.Character{ID: "100", Name: "Alpha", FactionID: "3", OutfitTag: "OPS"},
				tracker.Character{ID: "200", Name: "Bravo", FactionID: "1"},
			),
			lookup.WithItems(lookup.Record{ID: "7169", Name: "Emissary"}),
		)
		svc := service.New(
			service.WithFeed(f),
			service.WithResolver(resolver),
			service.WithQueueSize(100),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		res, err := svc.AddPlayers(ctx, []string{"100", "200"})
		So(err, ShouldBeNil)
		So(res.Added, ShouldResemble, []string{"100", "200"})
		So(f.sentCount(), ShouldEqual, 1)
		So(svc.StartSession(ctx), ShouldBeNil)

		Convey("When combat frames arrive on the feed", func() {
			wait := awaitEvents(svc, 4)

			// Login, then a headshot kill of Bravo by Alpha. The kill
			// routes one event to each log.
			svc.OnMessage("logins", loginFrame("100", 100))
			svc.OnMessage("logins", loginFrame("200", 100))
			svc.OnMessage("events", deathFrame("100", "13", "200", "18", 160, true))
			So(wait(), ShouldBeTrue)

			Convey("Then the personal report reflects the kill", func() {
				rep, err := svc.PersonalReport(ctx, "100")
				So(err, ShouldBeNil)
				So(rep.Name, ShouldEqual, "Alpha")
				So(rep.Kills, ShouldEqual, 1)
				So(rep.Headshots, ShouldEqual, 1)
				So(len(rep.Weapons), ShouldEqual, 1)
				So(rep.Weapons[0].Name, ShouldEqual, "Emissary")
			})

			Convey("And the victim report reflects the death", func() {
				rep, err := svc.PersonalReport(ctx, "200")
				So(err, ShouldBeNil)
				So(rep.Deaths, ShouldEqual, 1)
			})

			Convey("And the session report ranks the killer first", func() {
				So(svc.StopSession(ctx), ShouldBeNil)
				rep, err := svc.SessionReport(ctx)
				So(err, ShouldBeNil)
				So(len(rep.Players), ShouldEqual, 2)
				So(len(rep.Boards.Kills), ShouldBeGreaterThan, 0)
				So(rep.Boards.Kills[0].CharacterID, ShouldEqual, "100")
			})

			Convey("And status counts both identities online", func() {
				st := svc.Status(ctx)
				So(st.TrackedPlayers, ShouldEqual, 2)
				So(st.OnlinePlayers, ShouldEqual, 2)
			})
		})

		Convey("When a duplicate frame arrives", func() {
			wait := awaitEvents(svc, 2)
			frame := deathFrame("100", "13", "200", "18", 160, false)
			svc.OnMessage("events", frame)
			svc.OnMessage("events", frame)
			So(wait(), ShouldBeTrue)

			// Give the duplicate a moment to be dropped, then confirm only
			// one kill was recorded.
			time.Sleep(50 * time.Millisecond)
			rep, err := svc.PersonalReport(ctx, "100")
			So(err, ShouldBeNil)
			So(rep.Kills, ShouldEqual, 1)
		})

		Convey("When reports run while ingestion is still draining", func() {
			const frames = 60
			wait := awaitEvents(svc, 2+2*frames)

			svc.OnMessage("logins", loginFrame("100", 100))
			svc.OnMessage("logins", loginFrame("200", 100))

			done := make(chan struct{})
			go func() {
				defer close(done)
				for i := 0; i < frames; i++ {
					svc.OnMessage("events",
						deathFrame("100", "13", "200", "18", int64(200+i), i%2 == 0))
				}
			}()

			// Reports taken mid-stream come from store snapshots; they can
			// lag the log but must stay internally consistent.
			for i := 0; i < 50; i++ {
				rep, err := svc.PersonalReport(ctx, "100")
				So(err, ShouldBeNil)
				So(rep.Headshots, ShouldBeLessThanOrEqualTo, rep.Kills)
				So(rep.Kills, ShouldBeLessThanOrEqualTo, frames)
			}

			So(wait(), ShouldBeTrue)
			<-done

			rep, err := svc.PersonalReport(ctx, "100")
			So(err, ShouldBeNil)
			So(rep.Kills, ShouldEqual, frames)
			So(rep.Headshots, ShouldEqual, frames/2)
		})

		Convey("When an untracked identity is reported on", func() {
			rep, err := svc.PersonalReport(ctx, "999")
			So(err, ShouldBeNil)
			So(rep.Kills, ShouldEqual, 0)
		})
	})
}
