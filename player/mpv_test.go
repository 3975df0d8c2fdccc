package player

import (
	"errors"
	"testing"

	"github.com/quadview-cli/quadview/crop"
	"github.com/quadview-cli/quadview/group"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingListener struct {
	prepared  int
	sizes     [][2]int
	seeks     int
	completed int
	errs      []error
}

func (r *recordingListener) OnPrepared()          { r.prepared++ }
func (r *recordingListener) OnVideoSize(w, h int) { r.sizes = append(r.sizes, [2]int{w, h}) }
func (r *recordingListener) OnSeekComplete()      { r.seeks++ }
func (r *recordingListener) OnCompletion()        { r.completed++ }
func (r *recordingListener) OnError(err error)    { r.errs = append(r.errs, err) }

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("Given media paths", t, func() {
		Convey("Local paths should be cleaned", func() {
			p, err := sanitizeMediaTarget("  /videos/./20240101_120000_front.mp4 ")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, "/videos/20240101_120000_front.mp4")
		})

		Convey("file URLs should be reduced to their path", func() {
			p, err := sanitizeMediaTarget("file:///videos/a.mp4")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, "/videos/a.mp4")
		})

		Convey("Remote URLs should be rejected", func() {
			_, err := sanitizeMediaTarget("https://example.com/a.mp4")
			So(err, ShouldNotBeNil)
		})

		Convey("Flag-like and control-character paths should be rejected", func() {
			_, err := sanitizeMediaTarget("--script=evil.lua")
			So(err, ShouldNotBeNil)

			_, err = sanitizeMediaTarget("a\nb.mp4")
			So(err, ShouldNotBeNil)

			_, err = sanitizeMediaTarget("   ")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestMPV(t *testing.T) {
	Convey("Given an unprepared mpv decoder", t, func() {
		m := NewMPV("")
		listener := &recordingListener{}
		m.SetListener(listener)

		Convey("It should default to the mpv binary", func() {
			So(m.binary, ShouldEqual, "mpv")
		})

		Convey("PrepareAsync without a source should fail", func() {
			So(m.PrepareAsync(), ShouldEqual, errNoSource)
		})

		Convey("Commands should fail until the socket is known", func() {
			So(errors.Is(m.Start(), errNotPrepared), ShouldBeTrue)
			So(errors.Is(m.SeekTo(1000), errNotPrepared), ShouldBeTrue)
			So(m.seeks, ShouldEqual, 0)
			So(m.CurrentPosition(), ShouldEqual, 0)
			So(m.IsPlaying(), ShouldBeFalse)
		})

		Convey("Only windows can be attached", func() {
			So(m.AttachSurface(NewWindow(0, 0, 10, 10)), ShouldBeNil)
			So(m.AttachSurface(nil), ShouldNotBeNil)
		})

		Convey("Property changes should update state", func() {
			m.handleEvent("duration", 61.5)
			m.handleEvent("pause", false)
			So(m.Duration(), ShouldEqual, 61500)
			So(m.paused, ShouldBeFalse)
		})

		Convey("Video size should be reported once both dimensions are known", func() {
			m.handleEvent("width", 1920.0)
			So(listener.sizes, ShouldBeEmpty)

			m.handleEvent("height", 1080.0)
			m.handleEvent("height", 1080.0)
			So(listener.sizes, ShouldResemble, [][2]int{{1920, 1080}})

			w, h := m.VideoSize()
			So(w, ShouldEqual, 1920)
			So(h, ShouldEqual, 1080)
		})

		Convey("playback-restart should acknowledge every pending seek once", func() {
			m.handleEvent("playback-restart", nil)
			So(listener.seeks, ShouldEqual, 0)

			m.seeks = 2
			m.handleEvent("playback-restart", nil)
			m.handleEvent("playback-restart", nil)
			So(listener.seeks, ShouldEqual, 2)
		})

		Convey("End of file and load errors should be forwarded", func() {
			m.handleEvent("eof-reached", false)
			m.handleEvent("eof-reached", true)
			So(listener.completed, ShouldEqual, 1)

			m.handleEvent("end-file", map[string]interface{}{"reason": "eof"})
			So(listener.errs, ShouldBeEmpty)

			m.handleEvent("end-file", map[string]interface{}{"reason": "error", "file_error": "unrecognized file format"})
			So(listener.errs, ShouldHaveLength, 1)
		})

		Convey("file-loaded should prepare exactly once", func() {
			m.handleEvent("file-loaded", nil)
			m.handleEvent("file-loaded", nil)
			So(listener.prepared, ShouldEqual, 1)
		})

		Convey("Release should be idempotent and silence the listener", func() {
			So(m.Release(), ShouldBeNil)
			So(m.Release(), ShouldBeNil)

			m.handleEvent("eof-reached", true)
			So(listener.completed, ShouldEqual, 0)
		})
	})
}

func TestEventListener(t *testing.T) {
	Convey("Given an event listener", t, func() {
		var names []string
		el := NewEventListener("", func(name string, _ interface{}) {
			names = append(names, name)
		})

		Convey("Property changes should be dispatched by property name", func() {
			el.processEvent([]byte(`{"event":"property-change","id":2,"name":"width","data":1920}`))
			So(names, ShouldResemble, []string{"width"})
		})

		Convey("Other events should be dispatched by event name", func() {
			el.processEvent([]byte(`{"event":"playback-restart"}`))
			So(names, ShouldResemble, []string{"playback-restart"})
		})

		Convey("Command replies and garbage should be ignored", func() {
			el.processEvent([]byte(`{"data":null,"error":"success","request_id":0}`))
			el.processEvent([]byte(`not json`))
			So(names, ShouldBeEmpty)
		})
	})
}

func TestWindow(t *testing.T) {
	Convey("Given a 1920x1080 screen", t, func() {
		windows := Layout(1920, 1080)

		Convey("The quad windows should tile the screen", func() {
			So(windows[group.Front].Geometry(), ShouldEqual, "960x540+0+0")
			So(windows[group.Back].Geometry(), ShouldEqual, "960x540+960+0")
			So(windows[group.Left].Geometry(), ShouldEqual, "960x540+0+540")
			So(windows[group.Right].Geometry(), ShouldEqual, "960x540+960+540")
		})

		Convey("The single window should cover the whole screen", func() {
			w, h := windows[group.Single].Viewport()
			So(w, ShouldEqual, 1920)
			So(h, ShouldEqual, 1080)
		})

		Convey("An unbound window should remember its transform", func() {
			win := windows[group.Front]
			tr := crop.ForViewport(crop.Region{X: 0.5, Y: 0, W: 0.5, H: 0.5}, 960, 540)

			So(win.SetTransform(tr), ShouldEqual, errNotPrepared)
			So(win.Transform(), ShouldResemble, tr)
		})
	})
}
