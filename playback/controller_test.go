package playback

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quadview-cli/quadview/crop"
	"github.com/quadview-cli/quadview/group"
	"github.com/samber/lo"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

const testKey = "20240601_101500"

func quadGroup() *group.Group {
	g := group.New(testKey)
	for _, pos := range group.Quad() {
		_ = g.Add(pos, "/videos/"+testKey+"_"+pos.String()+".mp4")
	}
	return g
}

var quadrants = map[group.Position]crop.Region{
	group.Front: {X: 0, Y: 0, W: 0.5, H: 0.5},
	group.Back:  {X: 0.5, Y: 0, W: 0.5, H: 0.5},
	group.Left:  {X: 0, Y: 0.5, W: 0.5, H: 0.5},
	group.Right: {X: 0.5, Y: 0.5, W: 0.5, H: 0.5},
}

func quadrantCrops(_ string, pos group.Position) mo.Option[crop.Region] {
	r, ok := quadrants[pos]
	return lo.Ternary(ok, mo.Some(r), mo.None[crop.Region]())
}

func prepareAll(decoders []*fakeDecoder) {
	for _, d := range decoders {
		d.prepared()
	}
}

func ackAll(decoders []*fakeDecoder) {
	for _, d := range decoders {
		d.seekDone()
	}
}

func positions(decoders []*fakeDecoder, ms ...int) {
	for i, d := range decoders {
		d.setPosition(ms[i])
	}
}

func playingCount(decoders []*fakeDecoder) int {
	return lo.CountBy(decoders, func(d *fakeDecoder) bool { return d.snapshot().playing })
}

func lastSeek(d *fakeDecoder) int {
	seeks := d.snapshot().seeks
	if len(seeks) == 0 {
		return -1
	}
	return seeks[len(seeks)-1]
}

func TestController(t *testing.T) {
	Convey("Given a controller with four surfaces", t, func() {
		factory := newFakeFactory()
		factory.durations[group.Front] = 60000
		factory.durations[group.Back] = 61000
		factory.durations[group.Left] = 59000
		factory.durations[group.Right] = 60500

		surfaces, fakes := fakeSurfaces()
		listener := &recordingListener{}
		var focus atomic.Int32

		opts := Options{
			NewDecoder: factory.New,
			Surfaces:   surfaces,
			Listener:   listener,
			AudioFocus: func() { focus.Add(1) },
			CropRetry:  RetryPolicy{Retries: 3, Delay: 5 * time.Millisecond},
		}

		Convey("When a group with four angles is loaded", func() {
			c := New(opts)
			Reset(c.Release)

			c.LoadGroup(quadGroup())
			await(c)
			quad := factory.quad()

			Convey("One decoder per angle should be preparing", func() {
				So(quad, ShouldHaveLength, 4)
				for _, pos := range group.Quad() {
					d := factory.last(pos).snapshot()
					So(d.source, ShouldEqual, "/videos/"+testKey+"_"+pos.String()+".mp4")
					So(d.prepares, ShouldEqual, 1)
				}
				So(c.Snapshot().Phase, ShouldEqual, Loading)
				So(c.HasVideo(group.Left), ShouldBeTrue)
				So(c.HasVideo(group.Full), ShouldBeFalse)
			})

			Convey("Playback should not start before every decoder prepared", func() {
				prepareAll(quad[:3])
				await(c)

				So(listener.snapshot().prepared, ShouldBeEmpty)
				So(playingCount(quad), ShouldEqual, 0)
				So(c.Snapshot().IsPrepared, ShouldBeFalse)
			})

			Convey("Once every decoder prepared", func() {
				prepareAll(quad)
				await(c)

				Convey("It should report the longest duration and start every angle", func() {
					rec := listener.snapshot()
					So(rec.prepared, ShouldResemble, []int{61000})
					So(rec.states, ShouldResemble, []bool{true})
					So(playingCount(quad), ShouldEqual, 4)

					state := c.Snapshot()
					So(state.Phase, ShouldEqual, Playing)
					So(state.IsPlaying, ShouldBeTrue)
					So(state.DurationMs, ShouldEqual, 61000)
				})

				Convey("Decoders should be muted and follow the speed", func() {
					for _, d := range quad {
						s := d.snapshot()
						So(s.muted, ShouldBeTrue)
						So(s.speed, ShouldEqual, 1.0)
					}
				})

				Convey("Audio focus should be released once", func() {
					So(focus.Load(), ShouldEqual, 1)
				})

				Convey("Late duplicate prepared events should be ignored", func() {
					prepareAll(quad)
					await(c)
					So(listener.snapshot().prepared, ShouldHaveLength, 1)
				})

				Convey("Pause and play should act on every angle", func() {
					c.Pause()
					await(c)
					So(playingCount(quad), ShouldEqual, 0)
					So(c.Snapshot().Phase, ShouldEqual, Paused)

					c.TogglePlayPause()
					await(c)
					So(playingCount(quad), ShouldEqual, 4)
					So(listener.snapshot().states, ShouldResemble, []bool{true, false, true})
				})

				Convey("The position should be the smallest positive one", func() {
					positions(quad, 1000, 1200, 900, 1100)
					pos, err := c.CurrentPosition(context.Background())
					So(err, ShouldBeNil)
					So(pos, ShouldEqual, 900)

					positions(quad, 0, 1200, 900, 1100)
					pos, _ = c.CurrentPosition(context.Background())
					So(pos, ShouldEqual, 900)

					positions(quad, 0, 0, 0, 0)
					pos, _ = c.CurrentPosition(context.Background())
					So(pos, ShouldEqual, 0)
				})

				Convey("An angle that already ended should not hold the position back", func() {
					positions(quad, 60000, 60200, 59000, 60100)
					quad[2].completed()
					await(c)

					pos, _ := c.CurrentPosition(context.Background())
					So(pos, ShouldEqual, 60000)

					for _, d := range []*fakeDecoder{quad[0], quad[1], quad[3]} {
						d.completed()
					}
					await(c)

					pos, _ = c.CurrentPosition(context.Background())
					So(pos, ShouldEqual, 59000)
				})

				Convey("Speed cycling should visit every option and wrap", func() {
					So(c.CycleSpeed(), ShouldEqual, 1.5)
					So(c.CycleSpeed(), ShouldEqual, 2.0)
					So(c.CycleSpeed(), ShouldEqual, 0.5)
					await(c)
					for _, d := range quad {
						So(d.snapshot().speed, ShouldEqual, 0.5)
					}

					So(c.CycleSpeed(), ShouldEqual, 1.0)
					await(c)
					So(c.Snapshot().Speed, ShouldEqual, 1.0)
				})

				Convey("Unsupported speeds should be reported and ignored", func() {
					c.SetSpeed(4)
					await(c)
					So(errors.Is(listener.snapshot().errs[0], ErrUnsupportedSpeed), ShouldBeTrue)
					So(c.Snapshot().Speed, ShouldEqual, 1.0)

					c.SetSpeed(0.5)
					await(c)
					So(quad[0].snapshot().speed, ShouldEqual, 0.5)
				})

				Convey("A seek should complete once every angle acknowledged", func() {
					c.Pause()
					c.SeekTo(30000)
					await(c)

					for _, d := range quad {
						So(lastSeek(d), ShouldEqual, 30000)
					}

					ackAll(quad[:3])
					await(c)
					So(listener.snapshot().progress, ShouldBeEmpty)

					ackAll(quad[3:])
					await(c)
					So(listener.snapshot().progress, ShouldResemble, []int{30000})
				})

				Convey("A superseded seek should never complete", func() {
					c.Pause()
					c.SeekTo(10000)
					c.SeekTo(20000)
					await(c)

					// acknowledgements of the first seek
					ackAll(quad)
					await(c)
					So(listener.snapshot().progress, ShouldBeEmpty)

					ackAll(quad)
					await(c)
					So(listener.snapshot().progress, ShouldResemble, []int{20000})
				})

				Convey("A seek past the end should be clamped to the duration", func() {
					c.Pause()
					c.SeekTo(90000)
					await(c)
					So(lastSeek(quad[0]), ShouldEqual, 61000)
				})

				Convey("Completion should be reported once every angle finished", func() {
					for _, d := range quad[:3] {
						d.completed()
					}
					await(c)
					So(listener.snapshot().completions, ShouldEqual, 0)

					quad[3].completed()
					quad[3].completed()
					await(c)

					rec := listener.snapshot()
					So(rec.completions, ShouldEqual, 1)
					So(rec.states[len(rec.states)-1], ShouldBeFalse)
					So(c.Snapshot().Phase, ShouldEqual, Paused)
				})

				Convey("A runtime error should only drop that angle", func() {
					quad[1].failed(errors.New("decode error"))
					positions(quad, 1000, 500, 1100, 1200)
					await(c)

					So(listener.snapshot().errs, ShouldHaveLength, 1)
					So(quad[1].snapshot().releases, ShouldEqual, 1)

					pos, _ := c.CurrentPosition(context.Background())
					So(pos, ShouldEqual, 1000)
					So(c.Snapshot().Phase, ShouldEqual, Playing)
				})

				Convey("Reloading should release the previous decoders", func() {
					c.LoadGroup(quadGroup())
					await(c)

					for _, d := range quad {
						s := d.snapshot()
						So(s.stopped, ShouldBeTrue)
						So(s.releases, ShouldEqual, 1)
					}
					So(c.Snapshot().Phase, ShouldEqual, Loading)
					So(factory.count(group.Front), ShouldEqual, 2)
				})
			})

			Convey("Prepared events of a superseded load should be ignored", func() {
				c.LoadGroup(quadGroup())
				await(c)

				prepareAll(quad)
				await(c)
				So(listener.snapshot().prepared, ShouldBeEmpty)

				prepareAll(factory.quad())
				await(c)
				So(listener.snapshot().prepared, ShouldHaveLength, 1)
			})

			Convey("A decoder failing to prepare should not block the others", func() {
				quad[2].failed(errors.New("unsupported codec"))
				prepareAll([]*fakeDecoder{quad[0], quad[1], quad[3]})
				await(c)

				rec := listener.snapshot()
				So(rec.errs, ShouldHaveLength, 1)
				So(rec.prepared, ShouldResemble, []int{61000})
				So(playingCount(quad), ShouldEqual, 3)
			})

			Convey("Every decoder failing should report no media", func() {
				for _, d := range quad {
					d.failed(errors.New("broken"))
				}
				await(c)

				rec := listener.snapshot()
				So(rec.errs, ShouldHaveLength, 5)
				So(errors.Is(rec.errs[4], ErrNoMedia), ShouldBeTrue)
				So(c.Snapshot().Phase, ShouldEqual, Empty)
			})

			Convey("Play before readiness should be a no-op", func() {
				c.Play()
				await(c)
				So(playingCount(quad), ShouldEqual, 0)
				So(listener.snapshot().states, ShouldBeEmpty)
			})
		})

		Convey("When a group has no playable angle", func() {
			c := New(opts)
			Reset(c.Release)

			c.LoadGroup(group.New(testKey))
			c.Play()
			c.SeekTo(1000)
			await(c)

			Convey("It should report no media and stay unprepared", func() {
				rec := listener.snapshot()
				So(rec.errs, ShouldHaveLength, 1)
				So(errors.Is(rec.errs[0], ErrNoMedia), ShouldBeTrue)
				So(rec.states, ShouldBeEmpty)

				state := c.Snapshot()
				So(state.Phase, ShouldEqual, Empty)
				So(state.IsPrepared, ShouldBeFalse)
				So(factory.quad(), ShouldBeEmpty)
			})
		})

		Convey("When a surface is missing", func() {
			delete(surfaces, group.Back)
			c := New(opts)
			Reset(c.Release)

			c.LoadGroup(quadGroup())
			await(c)

			Convey("The angle should be skipped with an error", func() {
				So(errors.Is(listener.snapshot().errs[0], ErrNoSurface), ShouldBeTrue)
				So(factory.last(group.Back), ShouldBeNil)

				prepareAll(factory.quad())
				await(c)
				So(listener.snapshot().prepared, ShouldHaveLength, 1)
			})
		})

		Convey("When a panoramic group is loaded for a panoramic car", func() {
			opts.Profile = Profile{Model: "lynkco07", Panoramic: true}
			opts.Crops = CropProviderFunc(quadrantCrops)

			g := quadGroup()
			_ = g.Add(group.Full, "/videos/"+testKey+"_full.mp4")

			c := New(opts)
			Reset(c.Release)

			c.LoadGroup(g)
			await(c)
			quad := factory.quad()

			Convey("Every angle should decode the full file", func() {
				So(quad, ShouldHaveLength, 4)
				for _, d := range quad {
					So(d.snapshot().source, ShouldEqual, "/videos/"+testKey+"_full.mp4")
				}
			})

			Convey("Every angle should get its own crop once prepared", func() {
				prepareAll(quad)
				await(c)

				for _, pos := range group.Quad() {
					applied := fakes[pos].applied()
					So(applied, ShouldHaveLength, 1)
					So(applied[0], ShouldResemble, crop.ForViewport(quadrants[pos], 960, 540))
				}
			})
		})

		Convey("When a panoramic group is loaded for a regular car", func() {
			opts.Crops = CropProviderFunc(quadrantCrops)

			g := quadGroup()
			_ = g.Add(group.Full, "/videos/"+testKey+"_full.mp4")

			c := New(opts)
			Reset(c.Release)

			c.LoadGroup(g)
			await(c)
			prepareAll(factory.quad())
			await(c)

			Convey("The per-angle files should be played without crop", func() {
				So(factory.last(group.Front).snapshot().source, ShouldEqual, "/videos/"+testKey+"_front.mp4")
				So(fakes[group.Front].applied(), ShouldBeEmpty)
			})
		})

		Convey("When the frame size is not known at prepare time", func() {
			factory.noSize = true
			opts.CropRetry.Delay = 20 * time.Millisecond
			opts.Profile = Profile{Model: "lynkco07", Panoramic: true}
			opts.Crops = CropProviderFunc(quadrantCrops)

			g := group.New(testKey)
			_ = g.Add(group.Full, "/videos/"+testKey+"_full.mp4")

			c := New(opts)
			Reset(c.Release)

			c.LoadGroup(g)
			await(c)
			quad := factory.quad()
			prepareAll(quad)
			await(c)

			Convey("The crop should be applied once the size shows up", func() {
				So(fakes[group.Front].applied(), ShouldBeEmpty)

				quad[0].setSize(3840, 2160)
				ok := eventually(c, time.Second, func() bool {
					return len(fakes[group.Front].applied()) == 1
				})
				So(ok, ShouldBeTrue)
			})

			Convey("The full frame should stay once retries run out", func() {
				exhausted := func() bool {
					var done bool
					inspect(c, func() { done = c.sessions[group.Front].retry.exhausted })
					return done
				}
				So(eventually(c, time.Second, exhausted), ShouldBeTrue)

				quad[0].setSize(3840, 2160)
				quad[0].events().OnVideoSize(3840, 2160)
				await(c)
				So(fakes[group.Front].applied(), ShouldBeEmpty)

				var attempts int
				inspect(c, func() { attempts = c.sessions[group.Front].retry.attempts })
				So(attempts, ShouldEqual, 3)
			})
		})

		Convey("When playing", func() {
			opts.ProgressInterval = 10 * time.Millisecond
			c := New(opts)
			Reset(c.Release)

			c.LoadGroup(quadGroup())
			await(c)
			quad := factory.quad()
			positions(quad, 1500, 1400, 1600, 1700)
			prepareAll(quad)

			Convey("Progress should be polled periodically", func() {
				ok := eventually(c, time.Second, func() bool {
					return len(listener.snapshot().progress) >= 3
				})
				So(ok, ShouldBeTrue)
				So(listener.snapshot().progress[0], ShouldEqual, 1400)
			})

			Convey("Polling should stop when paused", func() {
				c.Pause()
				await(c)
				before := len(listener.snapshot().progress)

				time.Sleep(50 * time.Millisecond)
				await(c)
				So(listener.snapshot().progress, ShouldHaveLength, before)
			})
		})

		Convey("When acknowledgements never arrive", func() {
			opts.SeekTimeout = 20 * time.Millisecond
			c := New(opts)
			Reset(c.Release)

			c.LoadGroup(quadGroup())
			await(c)
			prepareAll(factory.quad())
			c.Pause()
			c.SeekTo(5000)

			Convey("The seek should still complete", func() {
				ok := eventually(c, time.Second, func() bool {
					return lo.Contains(listener.snapshot().progress, 5000)
				})
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When switching between the quad and the single view", func() {
			c := New(opts)
			Reset(c.Release)

			c.LoadGroup(quadGroup())
			await(c)
			quad := factory.quad()
			prepareAll(quad)
			await(c)
			positions(quad, 5000, 5000, 5000, 5000)

			Convey("Entering the single view while playing", func() {
				c.SetSingleMode(true, group.Left)
				await(c)
				single := factory.last(group.Single)

				Convey("It should pause the quad and load the angle file", func() {
					So(single, ShouldNotBeNil)
					So(single.snapshot().source, ShouldEqual, "/videos/"+testKey+"_left.mp4")
					So(playingCount(quad), ShouldEqual, 0)

					state := c.Snapshot()
					So(state.Mode, ShouldEqual, Single)
					So(state.SinglePosition, ShouldEqual, group.Left)
				})

				Convey("It should position the single view before starting it", func() {
					single.prepared()
					await(c)
					So(single.snapshot().seeks, ShouldResemble, []int{5000})
					So(single.snapshot().playing, ShouldBeFalse)
					So(listener.snapshot().singlePrepared, ShouldEqual, 0)

					single.seekDone()
					await(c)
					So(single.snapshot().playing, ShouldBeTrue)
					So(listener.snapshot().singlePrepared, ShouldEqual, 1)
					So(focus.Load(), ShouldEqual, 1)
				})

				Convey("Play before the single view is positioned should wait for it", func() {
					single.prepared()
					c.Pause()
					c.Play()
					await(c)

					So(single.snapshot().seeks, ShouldResemble, []int{5000})
					So(single.snapshot().playing, ShouldBeFalse)
					So(playingCount(quad), ShouldEqual, 0)
					So(c.Snapshot().Phase, ShouldEqual, Playing)

					single.seekDone()
					await(c)
					So(single.snapshot().playing, ShouldBeTrue)
					So(playingCount(quad), ShouldEqual, 0)
				})

				Convey("Pause before the single view is positioned should keep it paused", func() {
					single.prepared()
					c.Pause()
					await(c)

					single.seekDone()
					await(c)
					So(single.snapshot().playing, ShouldBeFalse)
					So(c.Snapshot().Phase, ShouldEqual, Paused)
				})

				Convey("The position should come from the matching angle until the single view runs", func() {
					quad[2].setPosition(5100)
					pos, _ := c.CurrentPosition(context.Background())
					So(pos, ShouldEqual, 5100)
				})

				Convey("Leaving it should resync the quad at the same position", func() {
					single.prepared()
					single.seekDone()
					await(c)

					c.SetSingleMode(false, group.Left)
					await(c)

					So(single.snapshot().releases, ShouldEqual, 1)
					for _, d := range quad {
						So(lastSeek(d), ShouldEqual, 5000)
					}
					So(playingCount(quad), ShouldEqual, 0)

					ackAll(quad)
					await(c)
					So(playingCount(quad), ShouldEqual, 4)

					state := c.Snapshot()
					So(state.Mode, ShouldEqual, Multi)
					So(state.Phase, ShouldEqual, Playing)
				})

				Convey("Play before the quad is resynced should wait for it", func() {
					single.prepared()
					single.seekDone()
					await(c)

					c.SetSingleMode(false, group.Left)
					c.Pause()
					c.Play()
					await(c)
					So(playingCount(quad), ShouldEqual, 0)
					So(c.Snapshot().Phase, ShouldEqual, Playing)

					ackAll(quad[:3])
					await(c)
					So(playingCount(quad), ShouldEqual, 0)

					quad[3].seekDone()
					await(c)
					So(playingCount(quad), ShouldEqual, 4)
				})

				Convey("A seek superseding the resync should still resume the quad", func() {
					single.prepared()
					single.seekDone()
					await(c)

					c.SetSingleMode(false, group.Left)
					c.SeekTo(7000)
					await(c)
					So(playingCount(quad), ShouldEqual, 0)

					ackAll(quad)
					await(c)
					So(playingCount(quad), ShouldEqual, 0)

					ackAll(quad)
					await(c)
					So(playingCount(quad), ShouldEqual, 4)
					for _, d := range quad {
						So(lastSeek(d), ShouldEqual, 7000)
					}
				})

				Convey("Transport controls should only drive the single view", func() {
					single.prepared()
					single.seekDone()
					await(c)

					c.SeekTo(8000)
					await(c)
					So(lastSeek(single), ShouldEqual, 8000)
					So(lastSeek(quad[0]), ShouldEqual, -1)

					c.Pause()
					c.Play()
					await(c)
					So(single.snapshot().playing, ShouldBeTrue)
					So(playingCount(quad), ShouldEqual, 0)
				})

				Convey("Switching angles should rebuild the single view", func() {
					c.SetSingleMode(true, group.Right)
					await(c)

					So(single.snapshot().releases, ShouldEqual, 1)
					So(factory.count(group.Single), ShouldEqual, 2)
					So(factory.last(group.Single).snapshot().source, ShouldEqual, "/videos/"+testKey+"_right.mp4")
				})
			})

			Convey("A round trip while paused should stay paused", func() {
				c.Pause()
				c.SetSingleMode(true, group.Front)
				await(c)

				single := factory.last(group.Single)
				single.prepared()
				single.seekDone()
				await(c)
				So(single.snapshot().playing, ShouldBeFalse)

				c.SetSingleMode(false, group.Front)
				await(c)
				ackAll(quad)
				await(c)

				So(playingCount(quad), ShouldEqual, 0)
				for _, d := range quad {
					So(d.snapshot().position, ShouldEqual, 5000)
				}

				rec := listener.snapshot()
				So(rec.states[len(rec.states)-1], ShouldBeFalse)
				So(c.Snapshot().Phase, ShouldEqual, Paused)
			})

			Convey("Bookkeeping updates should not touch any decoder", func() {
				c.UpdateSingleModePosition(true, group.Back)
				await(c)

				So(factory.last(group.Single), ShouldBeNil)
				So(c.Snapshot().Mode, ShouldEqual, Single)
				So(c.Snapshot().SinglePosition, ShouldEqual, group.Back)
			})
		})

		Convey("When a group is loaded in single view", func() {
			c := New(opts)
			Reset(c.Release)

			c.UpdateSingleModePosition(true, group.Right)
			c.LoadGroup(quadGroup())
			await(c)

			quad := factory.quad()
			single := factory.last(group.Single)

			Convey("The single view should start after the quad is ready", func() {
				So(single, ShouldNotBeNil)
				So(single.snapshot().source, ShouldEqual, "/videos/"+testKey+"_right.mp4")

				prepareAll(quad)
				single.prepared()
				single.seekDone()
				await(c)

				So(single.snapshot().seeks, ShouldResemble, []int{0})
				So(single.snapshot().playing, ShouldBeTrue)
				So(playingCount(quad), ShouldEqual, 0)
				So(c.Snapshot().Phase, ShouldEqual, Playing)
			})
		})

		Convey("When released", func() {
			c := New(opts)
			c.LoadGroup(quadGroup())
			await(c)
			quad := factory.quad()
			prepareAll(quad)

			c.Release()
			c.Release()
			<-c.Done()

			Convey("Every decoder should be released exactly once", func() {
				for _, d := range quad {
					So(d.snapshot().releases, ShouldEqual, 1)
				}
			})

			Convey("Further calls should be harmless", func() {
				c.Play()
				c.LoadGroup(quadGroup())
				c.Release()

				_, err := c.CurrentPosition(context.Background())
				So(err, ShouldEqual, ErrReleased)
				So(c.Snapshot().Phase, ShouldEqual, Empty)
				So(factory.count(group.Front), ShouldEqual, 1)
			})
		})
	})
}
