package testevents

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opstrack/opstrack/internal/domain/events"
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

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		gen := NewGenerator(7, 4)
		stats := &Stats{}

		Convey("Then the cast has stable numeric identifiers", func() {
			ids := gen.CharacterIDs()
			So(len(ids), ShouldEqual, 4)
			So(ids[0], ShouldStartWith, "5428")
		})

		Convey("Then the first frames log the whole cast in", func() {
			for i := 0; i < 4; i++ {
				frame := gen.Next(stats)
				So(frame, ShouldContainSubstring, "PlayerLogin")
			}
			So(stats.Logins, ShouldEqual, 4)
		})

		Convey("Then every emitted frame parses as a feed message", func() {
			for i := 0; i < 200; i++ {
				frame := gen.Next(stats)
				_, err := events.ParseMessage([]byte(frame))
				So(err, ShouldBeNil)
			}
		})

		Convey("Then the same seed reproduces the same stream", func() {
			a, b := NewGenerator(42, 4), NewGenerator(42, 4)
			sa, sb := &Stats{}, &Stats{}
			for i := 0; i < 50; i++ {
				So(a.Next(sa), ShouldEqual, b.Next(sb))
			}
		})
	})
}

func TestServerBroadcast(t *testing.T) {
	Convey("Given a simulator server with one connection", t, func() {
		s := NewServer(":0")
		ts := httptest.NewServer(http.HandlerFunc(s.handleStream))
		defer ts.Close()

		url := "ws" + strings.TrimPrefix(ts.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		// First frame is the state announcement.
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		So(err, ShouldBeNil)
		So(string(msg), ShouldContainSubstring, "serviceStateChanged")

		Convey("When a frame is broadcast", func() {
			for s.ConnectionCount() == 0 {
				time.Sleep(5 * time.Millisecond)
			}
			s.Broadcast(`{"service":"event","type":"heartbeat"}`)

			_, msg, err := conn.ReadMessage()
			So(err, ShouldBeNil)
			So(string(msg), ShouldContainSubstring, "heartbeat")
		})

		Convey("When a subscription is sent", func() {
			err := conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"subscribe"}`))
			So(err, ShouldBeNil)

			_, msg, err := conn.ReadMessage()
			So(err, ShouldBeNil)
			So(string(msg), ShouldContainSubstring, `"subscription"`)
		})
	})
}
