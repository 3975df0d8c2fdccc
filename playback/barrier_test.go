package playback

import (
	"testing"
	"time"

	"github.com/quadview-cli/quadview/group"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReadiness(t *testing.T) {
	Convey("Given a readiness barrier expecting 3 sessions", t, func() {
		var r readiness
		r.reset(7, 3)

		Convey("It should fire exactly once, on the third arrival", func() {
			So(r.arrive(7), ShouldBeFalse)
			So(r.arrive(7), ShouldBeFalse)
			So(r.arrive(7), ShouldBeTrue)
			So(r.arrive(7), ShouldBeFalse)
		})

		Convey("Arrivals of another generation should not count", func() {
			So(r.arrive(6), ShouldBeFalse)
			So(r.arrive(6), ShouldBeFalse)
			So(r.arrive(6), ShouldBeFalse)
			So(r.arrived, ShouldEqual, 0)
		})

		Convey("A failed session should lower the expectation", func() {
			So(r.arrive(7), ShouldBeFalse)
			So(r.arrive(7), ShouldBeFalse)
			So(r.fail(7), ShouldBeTrue)
		})

		Convey("It should be exhausted when every session failed", func() {
			So(r.fail(7), ShouldBeFalse)
			So(r.fail(7), ShouldBeFalse)
			So(r.fail(7), ShouldBeFalse)
			So(r.exhausted(), ShouldBeTrue)
		})

		Convey("A reset should discard previous arrivals", func() {
			r.arrive(7)
			r.arrive(7)
			r.reset(8, 1)
			So(r.arrive(7), ShouldBeFalse)
			So(r.arrive(8), ShouldBeTrue)
		})
	})

	Convey("Given a readiness barrier expecting nothing", t, func() {
		var r readiness
		r.reset(1, 0)

		Convey("It should never fire", func() {
			So(r.arrive(1), ShouldBeFalse)
			So(r.fail(1), ShouldBeFalse)
		})
	})
}

func TestSeekBarrier(t *testing.T) {
	Convey("Given a seek barrier", t, func() {
		var b seekBarrier
		var fired []string

		quad := group.Quad()

		Convey("An empty target set should complete immediately", func() {
			b.begin(nil, func() { fired = append(fired, "empty") })
			So(fired, ShouldResemble, []string{"empty"})
			So(b.active(), ShouldBeFalse)
		})

		Convey("Completion should wait for every target", func() {
			gen := b.begin(quad, func() { fired = append(fired, "t1") })

			for _, pos := range quad[:3] {
				b.ack(gen, pos)
			}
			So(fired, ShouldBeEmpty)

			b.ack(gen, quad[3])
			So(fired, ShouldResemble, []string{"t1"})

			Convey("And never run twice", func() {
				b.ack(gen, quad[3])
				So(b.expire(gen), ShouldBeFalse)
				So(fired, ShouldResemble, []string{"t1"})
			})
		})

		Convey("A superseded seek should never complete", func() {
			t1 := b.begin(quad, func() { fired = append(fired, "t1") })
			t2 := b.begin(quad, func() { fired = append(fired, "t2") })

			for _, pos := range quad {
				b.ack(t1, pos)
			}
			So(fired, ShouldBeEmpty)

			for _, pos := range quad {
				b.ack(t2, pos)
			}
			So(fired, ShouldResemble, []string{"t2"})
			So(b.expire(t1), ShouldBeFalse)
		})

		Convey("Acks of slots outside the target set should be ignored", func() {
			gen := b.begin([]group.Position{group.Front}, func() { fired = append(fired, "front") })
			b.ack(gen, group.Back)
			So(fired, ShouldBeEmpty)
			So(b.waiting(group.Front), ShouldBeTrue)
		})

		Convey("Dropping the last missing slot should complete with the rest", func() {
			gen := b.begin(quad, func() { fired = append(fired, "t1") })
			b.ack(gen, group.Front)
			b.ack(gen, group.Back)
			b.ack(gen, group.Left)
			b.drop(group.Right)
			So(fired, ShouldResemble, []string{"t1"})
		})

		Convey("Expiring should force completion once", func() {
			gen := b.begin(quad, func() { fired = append(fired, "t1") })
			So(b.expire(gen), ShouldBeTrue)
			So(b.expire(gen), ShouldBeFalse)
			So(fired, ShouldResemble, []string{"t1"})
		})

		Convey("Cancel should drop the completion", func() {
			gen := b.begin(quad, func() { fired = append(fired, "t1") })
			b.cancel()
			So(b.expire(gen), ShouldBeFalse)
			So(fired, ShouldBeEmpty)
		})
	})
}

func TestCropRetry(t *testing.T) {
	Convey("Given a crop retry budget of 3", t, func() {
		r := newCropRetry(RetryPolicy{Retries: 3, Delay: 200 * time.Millisecond})

		Convey("It should schedule at most 3 attempts", func() {
			for i := 0; i < 3; i++ {
				delay, ok := r.schedule()
				So(ok, ShouldBeTrue)
				So(delay, ShouldEqual, 200*time.Millisecond)
				r.fire()
			}

			_, ok := r.schedule()
			So(ok, ShouldBeFalse)
			So(r.exhausted, ShouldBeTrue)
			So(r.done(), ShouldBeTrue)
		})

		Convey("It should not schedule twice while an attempt is pending", func() {
			_, ok := r.schedule()
			So(ok, ShouldBeTrue)

			_, ok = r.schedule()
			So(ok, ShouldBeFalse)
			So(r.exhausted, ShouldBeFalse)
		})

		Convey("It should stop once applied", func() {
			r.succeed()
			_, ok := r.schedule()
			So(ok, ShouldBeFalse)
			So(r.done(), ShouldBeTrue)
		})
	})
}

func TestSpeedIndex(t *testing.T) {
	Convey("Given playback speeds", t, func() {
		Convey("Supported values should map to their index", func() {
			for i, s := range Speeds {
				index, ok := SpeedIndex(s)
				So(ok, ShouldBeTrue)
				So(index, ShouldEqual, i)
			}
		})

		Convey("Close values should snap to the nearest option", func() {
			index, ok := SpeedIndex(1.4)
			So(ok, ShouldBeTrue)
			So(Speeds[index], ShouldEqual, 1.5)

			index, ok = SpeedIndex(2.005)
			So(ok, ShouldBeTrue)
			So(Speeds[index], ShouldEqual, 2.0)
		})

		Convey("Out of range values should be rejected", func() {
			_, ok := SpeedIndex(0.25)
			So(ok, ShouldBeFalse)

			_, ok = SpeedIndex(3)
			So(ok, ShouldBeFalse)
		})
	})
}
