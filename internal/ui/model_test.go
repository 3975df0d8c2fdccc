package ui

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestModel(t *testing.T) {
	Convey("Given a notifier", t, func() {
		m := &Model{}

		Convey("Without a notification the view is untouched", func() {
			So(m.View("a\nb"), ShouldEqual, "a\nb")
		})

		Convey("A notification should be shown until cleared", func() {
			cmd := m.Update(Notify("speed 1.5x")())
			So(cmd, ShouldNotBeNil)
			So(m.Current(), ShouldEqual, "speed 1.5x")
			So(m.View("a\nb"), ShouldStartWith, "a\nb  ")
			So(m.View("a\nb"), ShouldContainSubstring, "speed 1.5x")

			m.Update(ClearNotificationMsg{notifiedAt: m.notifiedAt})
			So(m.Current(), ShouldBeEmpty)
		})

		Convey("A stale clear should keep the newer notification", func() {
			m.Update(Notify("first")())
			stale := ClearNotificationMsg{notifiedAt: m.notifiedAt}
			m.notifiedAt = m.notifiedAt.Add(time.Millisecond)

			m.Update(stale)
			So(m.Current(), ShouldEqual, "first")
		})
	})
}
