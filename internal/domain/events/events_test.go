package events

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseMessage(t *testing.T) {
	Convey("Given raw feed frames", t, func() {
		Convey("A death service message flattens into an event payload", func() {
			raw := []byte(`{
				"payload": {
					"event_name": "Death",
					"attacker_character_id": "5428010618035323201",
					"attacker_loadout_id": "13",
					"attacker_weapon_id": "7169",
					"character_id": "5428010618035323202",
					"character_loadout_id": "18",
					"is_headshot": "1",
					"timestamp": "1756300000",
					"world_id": "17",
					"zone_id": "2"
				},
				"service": "event",
				"type": "serviceMessage"
			}`)

			msg, err := ParseMessage(raw)
			So(err, ShouldBeNil)
			So(msg.Kind, ShouldEqual, KindEvent)
			So(msg.Payload.EventName, ShouldEqual, "Death")
			So(msg.Payload.AttackerCharacterID, ShouldEqual, "5428010618035323201")
			So(msg.Payload.CharacterID, ShouldEqual, "5428010618035323202")
			So(msg.Payload.Headshot, ShouldBeTrue)
			So(msg.Payload.Timestamp, ShouldEqual, int64(1756300000000))
		})

		Convey("An experience message converts its amount", func() {
			raw := []byte(`{
				"payload": {
					"event_name": "GainExperience",
					"experience_id": "7",
					"character_id": "1",
					"other_id": "2",
					"loadout_id": "18",
					"amount": "75",
					"timestamp": "1756300005",
					"zone_id": "2"
				},
				"service": "event",
				"type": "serviceMessage"
			}`)

			msg, err := ParseMessage(raw)
			So(err, ShouldBeNil)
			So(msg.Kind, ShouldEqual, KindEvent)
			So(msg.Payload.ExperienceID, ShouldEqual, "7")
			So(msg.Payload.Amount, ShouldEqual, 75)
			So(msg.Payload.OtherID, ShouldEqual, "2")
		})

		Convey("Heartbeats and subscription echoes are classified, not dropped", func() {
			hb, err := ParseMessage([]byte(`{"service":"event","type":"heartbeat","online":{}}`))
			So(err, ShouldBeNil)
			So(hb.Kind, ShouldEqual, KindHeartbeat)

			echo, err := ParseMessage([]byte(`{"subscription":{"characterCount":3}}`))
			So(err, ShouldBeNil)
			So(echo.Kind, ShouldEqual, KindSubscriptionEcho)
		})

		Convey("Frames without a recognized shape are ignored", func() {
			msg, err := ParseMessage([]byte(`{"send this":"help"}`))
			So(err, ShouldBeNil)
			So(msg.Kind, ShouldEqual, KindIgnored)
		})

		Convey("Non-JSON payloads return ErrMalformedMessage", func() {
			_, err := ParseMessage([]byte(`not json at all`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "malformed feed message")
		})

		Convey("A garbled timestamp returns ErrMalformedMessage", func() {
			raw := []byte(`{"payload":{"event_name":"Death","timestamp":"soon"},"type":"serviceMessage"}`)
			_, err := ParseMessage(raw)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "malformed feed message")
		})
	})
}

func TestBus(t *testing.T) {
	Convey("Given an event bus", t, func() {
		bus := NewBus()

		Convey("Handlers run synchronously in registration order", func() {
			var order []string
			bus.Subscribe(TypeKill, func(Event) { order = append(order, "first") })
			bus.Subscribe(TypeKill, func(Event) { order = append(order, "second") })

			err := bus.Publish(Event{Type: TypeKill})
			So(err, ShouldBeNil)
			So(order, ShouldResemble, []string{"first", "second"})
		})

		Convey("Handlers only see their own type", func() {
			var kills, deaths int
			bus.Subscribe(TypeKill, func(Event) { kills++ })
			bus.Subscribe(TypeDeath, func(Event) { deaths++ })

			So(bus.Publish(Event{Type: TypeKill}), ShouldBeNil)
			So(bus.Publish(Event{Type: TypeKill}), ShouldBeNil)
			So(bus.Publish(Event{Type: TypeDeath}), ShouldBeNil)
			So(kills, ShouldEqual, 2)
			So(deaths, ShouldEqual, 1)
		})

		Convey("SubscribeAll sees every type", func() {
			var seen int
			bus.SubscribeAll(func(Event) { seen++ })
			for _, typ := range Types {
				So(bus.Publish(Event{Type: typ}), ShouldBeNil)
			}
			So(seen, ShouldEqual, len(Types))
		})

		Convey("Publishing after Close returns ErrBusClosed", func() {
			bus.Close()
			So(bus.Publish(Event{Type: TypeKill}), ShouldEqual, ErrBusClosed)
		})

		Convey("Reset drops handlers and reopens", func() {
			var n int
			bus.Subscribe(TypeKill, func(Event) { n++ })
			bus.Close()
			bus.Reset()
			So(bus.Publish(Event{Type: TypeKill}), ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}
