package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/opstrack/opstrack/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWindowDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new window deduper", t, func() {
		Convey("When created with default options", func() {
			d := dedupe.NewWindowDeduper()

			Convey("Then the window starts empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When accepting payloads", func() {
			d := dedupe.NewWindowDeduper()

			Convey("A fresh payload is accepted", func() {
				So(d.Accept(ctx, `{"payload":"a"}`), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("The identical payload is rejected while in the window", func() {
				So(d.Accept(ctx, `{"payload":"a"}`), ShouldBeTrue)
				So(d.Accept(ctx, `{"payload":"a"}`), ShouldBeFalse)

				Convey("And rejection does not mutate the window", func() {
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("Distinct payloads are all accepted", func() {
				So(d.Accept(ctx, "a"), ShouldBeTrue)
				So(d.Accept(ctx, "b"), ShouldBeTrue)
				So(d.Accept(ctx, "c"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When the window overflows", func() {
			d := dedupe.NewWindowDeduper()

			for i := 0; i < dedupe.DefaultWindowSize; i++ {
				So(d.Accept(ctx, fmt.Sprintf("msg-%d", i)), ShouldBeTrue)
			}

			Convey("The oldest entry is evicted first", func() {
				So(d.Accept(ctx, "msg-new"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, dedupe.DefaultWindowSize)

				Convey("And the evicted payload is accepted again", func() {
					So(d.Accept(ctx, "msg-0"), ShouldBeTrue)
				})

				Convey("While younger entries are still rejected", func() {
					So(d.Accept(ctx, "msg-2"), ShouldBeFalse)
				})
			})
		})

		Convey("When using a custom window size", func() {
			d := dedupe.NewWindowDeduper(dedupe.WithWindowSize(2))

			So(d.Accept(ctx, "a"), ShouldBeTrue)
			So(d.Accept(ctx, "b"), ShouldBeTrue)
			So(d.Accept(ctx, "c"), ShouldBeTrue)

			Convey("Then a falls out after two newer payloads", func() {
				So(d.Accept(ctx, "a"), ShouldBeTrue)
				So(d.Accept(ctx, "c"), ShouldBeFalse)
			})
		})

		Convey("When resetting", func() {
			d := dedupe.NewWindowDeduper()
			So(d.Accept(ctx, "a"), ShouldBeTrue)
			d.Reset()

			Convey("Then the window forgets everything", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.Accept(ctx, "a"), ShouldBeTrue)
			})
		})

		Convey("When accessed concurrently", func() {
			d := dedupe.NewWindowDeduper(dedupe.WithWindowSize(1000))
			var wg sync.WaitGroup
			accepted := make([]bool, 100)

			for i := 0; i < 100; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					accepted[n] = d.Accept(ctx, fmt.Sprintf("msg-%d", n))
				}(i)
			}
			wg.Wait()

			Convey("Then every distinct payload is accepted exactly once", func() {
				for _, ok := range accepted {
					So(ok, ShouldBeTrue)
				}
				So(d.Size(), ShouldEqual, 100)
			})
		})
	})
}
