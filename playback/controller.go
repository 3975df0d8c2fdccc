// Package playback synchronizes several decoders into one multi-view recording.
//
// A Controller owns one session per camera angle and a goroutine that serializes
// everything touching them: public calls, decoder events, timers and the progress
// poll are all messages executed in order on that goroutine.
package playback

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quadview-cli/quadview/crop"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/player"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Controller plays a group of videos in sync, as a 2x2 quad or as a single enlarged view.
// Mutators return immediately; their outcome is delivered to the Listener.
type Controller struct {
	opts        Options
	inbox       *mailbox
	done        chan struct{}
	releaseOnce sync.Once
	speedIndex  atomic.Int32

	// owned by the loop goroutine
	listener       Listener
	surfaces       map[group.Position]player.Surface
	group          *group.Group
	panoramic      bool
	generation     uint64
	sessions       [group.PositionCount]*session
	ready          readiness
	seeks          seekBarrier
	phase          Phase
	mode           Mode
	singlePosition group.Position
	durationMs     int
	positionMs     int
	focusReleased  bool
	completionSent bool
	positioning    bool // a view switch is seeking its streams into place
	ticker         *time.Ticker
	released       bool

	mu    sync.RWMutex
	state State
}

// New creates a controller and starts its loop. Call Release to stop it.
func New(opts Options) *Controller {
	opts.setDefaults()

	c := &Controller{
		opts:           opts,
		inbox:          newMailbox(),
		done:           make(chan struct{}),
		listener:       opts.Listener,
		surfaces:       make(map[group.Position]player.Surface, len(opts.Surfaces)),
		singlePosition: opts.SinglePosition.OrElse(group.Front),
	}

	for pos, surface := range opts.Surfaces {
		c.surfaces[pos] = surface
	}

	index := DefaultSpeedIndex
	if opts.Speed != 0 {
		if i, ok := SpeedIndex(opts.Speed); ok {
			index = i
		} else {
			log.Warnf("unsupported initial speed %.2f, using %.1f", opts.Speed, Speeds[index])
		}
	}
	c.speedIndex.Store(int32(index))

	c.publish()
	go c.run()
	return c
}

func (c *Controller) run() {
	defer close(c.done)

	for {
		var tick <-chan time.Time
		if c.ticker != nil {
			tick = c.ticker.C
		}

		select {
		case <-c.inbox.wake:
			for _, fn := range c.inbox.drain() {
				fn()
				if c.released {
					c.publish()
					return
				}
			}
		case <-tick:
			c.tick()
		}

		c.publish()
	}
}

// post queues fn for the loop. Messages posted after Release are dropped.
func (c *Controller) post(fn func()) {
	c.inbox.post(fn)
}

func (c *Controller) publish() {
	state := State{
		Phase:          c.phase,
		Mode:           c.mode,
		SinglePosition: c.singlePosition,
		Speed:          c.speed(),
		IsPlaying:      c.phase == Playing,
		IsPrepared:     c.phase.prepared(),
		DurationMs:     c.durationMs,
		PositionMs:     c.positionMs,
		Group:          c.group,
	}

	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// Snapshot returns the state as of the last processed message.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()

	state.Speed = c.speed()
	return state
}

// Group returns the loaded group, nil if none.
func (c *Controller) Group() *group.Group {
	return c.Snapshot().Group
}

// HasVideo reports whether the loaded group has a file for position.
func (c *Controller) HasVideo(position group.Position) bool {
	return c.Snapshot().Group.HasVideo(position)
}

// Done is closed once the controller has released every session.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// LoadGroup replaces the current sessions with the sessions for g.
func (c *Controller) LoadGroup(g *group.Group) {
	c.post(func() { c.load(g) })
}

// SetSurfaces replaces the render surfaces used by sessions created afterwards.
func (c *Controller) SetSurfaces(surfaces map[group.Position]player.Surface) {
	copied := make(map[group.Position]player.Surface, len(surfaces))
	for pos, surface := range surfaces {
		copied[pos] = surface
	}
	c.post(func() { c.surfaces = copied })
}

func (c *Controller) Play() {
	c.post(c.play)
}

func (c *Controller) Pause() {
	c.post(c.pause)
}

func (c *Controller) TogglePlayPause() {
	c.post(func() {
		if c.phase == Playing {
			c.pause()
		} else {
			c.play()
		}
	})
}

// SeekTo moves every visible stream to ms. In the quad view the streams are
// seeked together and progress resumes once all of them acknowledged.
func (c *Controller) SeekTo(ms int) {
	c.post(func() { c.seekTo(ms) })
}

// SetSpeed snaps speed to the nearest supported rate and applies it to every session.
func (c *Controller) SetSpeed(speed float64) {
	index, ok := SpeedIndex(speed)
	if !ok {
		err := fmt.Errorf("%w: %.2f", ErrUnsupportedSpeed, speed)
		c.post(func() { c.report(err) })
		return
	}

	c.speedIndex.Store(int32(index))
	c.post(c.applySpeed)
}

// CycleSpeed advances to the next supported rate, wrapping around, and returns it.
func (c *Controller) CycleSpeed() float64 {
	for {
		old := c.speedIndex.Load()
		next := (old + 1) % int32(len(Speeds))
		if c.speedIndex.CompareAndSwap(old, next) {
			c.post(c.applySpeed)
			return Speeds[next]
		}
	}
}

// SetSingleMode switches between the quad view and the single view of position,
// keeping the playback position and the play/pause state.
func (c *Controller) SetSingleMode(enabled bool, position group.Position) {
	c.post(func() { c.setSingleMode(enabled, position) })
}

// UpdateSingleModePosition changes the mode bookkeeping without touching any session.
func (c *Controller) UpdateSingleModePosition(enabled bool, position group.Position) {
	c.post(func() {
		c.mode = lo.Ternary(enabled, Single, Multi)
		if position.IsQuad() {
			c.singlePosition = position
		}
	})
}

// CurrentPosition polls the sessions and returns the aggregate position in milliseconds.
// It must not be called from Listener callbacks.
func (c *Controller) CurrentPosition(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if !c.inbox.post(func() { reply <- c.position() }) {
		return 0, ErrReleased
	}

	select {
	case pos := <-reply:
		return pos, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-c.done:
		return 0, ErrReleased
	}
}

// Release stops and frees every session. It is safe to call repeatedly and from
// any goroutine, including Listener callbacks; wait on Done for completion.
func (c *Controller) Release() {
	c.releaseOnce.Do(func() {
		c.inbox.post(c.release)
		c.inbox.close()
	})
}

func (c *Controller) speed() float64 {
	return Speeds[c.speedIndex.Load()]
}

func (c *Controller) release() {
	c.teardown()
	c.group = nil
	c.phase = Empty
	c.listener = NopListener{}
	c.released = true
	log.Debug("playback controller released")
}

// current reports whether s still occupies its slot. Events of replaced sessions are dropped.
func (c *Controller) current(s *session) bool {
	return s != nil && c.sessions[s.position] == s
}

func (c *Controller) report(err error) {
	log.Error(err)
	c.listener.OnError(err)
}

func (c *Controller) load(g *group.Group) {
	c.teardown()

	c.generation++
	c.group = g
	c.phase = Empty
	c.durationMs = 0
	c.positionMs = 0
	c.focusReleased = false
	c.completionSent = false

	if g == nil {
		return
	}

	c.panoramic = c.opts.Profile.Panoramic && g.HasVideo(group.Full)
	log.Infof("loading group %s (panoramic: %t)", g.Key, c.panoramic)

	opened := 0
	for _, pos := range group.Quad() {
		source := c.sourceFor(pos)
		if source == "" {
			continue
		}
		if c.open(pos, source, c.regionFor(pos)) {
			opened++
		}
	}

	if opened == 0 {
		c.report(fmt.Errorf("group %s: %w", g.Key, ErrNoMedia))
		return
	}

	c.phase = Loading
	c.ready.reset(c.generation, opened)

	if c.mode == Single {
		c.openSingle(0)
	}
}

// sourceFor picks the file decoded for a position: the panoramic file for every
// angle of a panoramic group, otherwise the angle's own file.
func (c *Controller) sourceFor(pos group.Position) string {
	if c.panoramic {
		return c.group.VideoFile(group.Full)
	}
	return c.group.VideoFile(pos)
}

func (c *Controller) regionFor(pos group.Position) mo.Option[crop.Region] {
	if !c.panoramic {
		return mo.None[crop.Region]()
	}
	return c.opts.Crops.Region(c.opts.Profile.Model, pos)
}

// open creates and prepares the session of slot. Setup errors are reported and
// the slot stays empty.
func (c *Controller) open(slot group.Position, source string, region mo.Option[crop.Region]) bool {
	surface, ok := c.surfaces[slot]
	if !ok || surface == nil {
		c.report(fmt.Errorf("%s: %w", slot, ErrNoSurface))
		return false
	}

	s := newSession(slot, c.generation, source, c.opts.NewDecoder(slot), surface)
	s.region = region
	s.retry = newCropRetry(c.opts.CropRetry)

	if err := s.prepare(sessionListener{c: c, s: s}); err != nil {
		s.release()
		c.report(err)
		return false
	}

	c.sessions[slot] = s
	s.log.Debugf("preparing %s", source)
	return true
}

// openSingle rebuilds the single view session positioned at target.
func (c *Controller) openSingle(target int) {
	c.releaseSlot(group.Single)

	if c.group == nil {
		return
	}

	source := c.sourceFor(c.singlePosition)
	if source == "" {
		c.report(fmt.Errorf("%s: %w", c.singlePosition, ErrNoMedia))
		return
	}

	if c.open(group.Single, source, c.regionFor(c.singlePosition)) {
		c.sessions[group.Single].seekTarget = mo.Some(target)
		c.positioning = true
	}
}

func (c *Controller) releaseSlot(slot group.Position) {
	s := c.sessions[slot]
	if s == nil {
		return
	}

	c.sessions[slot] = nil
	c.seeks.drop(slot)
	s.release()

	if slot == group.Single {
		c.positioning = false
	}
}

// teardown releases every session and invalidates pending barriers.
func (c *Controller) teardown() {
	c.stopTicker()
	c.seeks.cancel()
	c.positioning = false

	for slot := range c.sessions {
		c.releaseSlot(group.Position(slot))
	}
}

// quadSessions returns the active sessions of the four angles.
func (c *Controller) quadSessions() []*session {
	return lo.FilterMap(group.Quad(), func(pos group.Position, _ int) (*session, bool) {
		s := c.sessions[pos]
		return s, s != nil && s.active()
	})
}

// activeSessions returns every active session, the single view included.
func (c *Controller) activeSessions() []*session {
	return lo.Filter(c.sessions[:], func(s *session, _ int) bool {
		return s != nil && s.active()
	})
}

// visibleSessions returns the sessions transport controls act on in the current mode.
func (c *Controller) visibleSessions() []*session {
	if c.mode == Single {
		if s := c.sessions[group.Single]; s != nil && s.active() {
			return []*session{s}
		}
		return nil
	}
	return c.quadSessions()
}

func (c *Controller) handlePrepared(s *session) {
	if !c.current(s) || s.state != statePreparing {
		return
	}

	s.onPrepared(c.speed())
	s.log.Debugf("prepared, duration %dms", s.durationMs)
	c.applyCrop(s)

	if s.position == group.Single {
		c.singlePrepared(s)
		return
	}

	if s.durationMs > c.durationMs {
		c.durationMs = s.durationMs
	}

	if c.ready.arrive(s.generation) {
		c.allPrepared()
	}
}

// allPrepared releases the audio focus and starts playback.
func (c *Controller) allPrepared() {
	log.Infof("all sessions prepared, duration %dms", c.durationMs)

	c.phase = Ready
	c.releaseAudioFocus()
	c.listener.OnPrepared(c.durationMs)
	c.play()
}

func (c *Controller) releaseAudioFocus() {
	if c.focusReleased {
		return
	}
	c.focusReleased = true

	if c.opts.AudioFocus != nil {
		c.opts.AudioFocus()
	}
}

// singlePrepared positions the single view before it is shown, so it never
// flashes the first frame.
func (c *Controller) singlePrepared(s *session) {
	c.releaseAudioFocus()

	target := s.seekTarget.OrElse(0)
	s.seekTarget = mo.None[int]()

	c.syncSeek([]*session{s}, target, func() { c.showSingle(s) })
}

func (c *Controller) showSingle(s *session) {
	if !c.current(s) {
		return
	}

	c.positioning = false
	c.listener.OnSingleVideoPrepared()

	if c.mode != Single || !c.phase.prepared() {
		return
	}

	if c.phase == Playing {
		s.start()
		c.listener.OnPlaybackStateChanged(true)
	} else {
		s.pause()
		c.listener.OnPlaybackStateChanged(false)
	}
}

func (c *Controller) handleVideoSize(s *session, width, height int) {
	if !c.current(s) || !s.active() {
		return
	}

	s.log.Debugf("video size %dx%d", width, height)
	c.applyCrop(s)
}

// applyCrop sets the crop transform of s, retrying on a bounded schedule while
// the frame or viewport size is unknown. Once retries run out the full frame stays.
func (c *Controller) applyCrop(s *session) {
	region, ok := s.region.Get()
	if !ok || s.retry.done() {
		return
	}

	if t, ok := s.transform(region); ok {
		err := s.surface.SetTransform(t)
		if err == nil {
			s.retry.succeed()
			s.log.Debugf("crop %s applied", region)
			return
		}
		s.log.Debugf("set transform: %v", err)
	}

	delay, ok := s.retry.schedule()
	if !ok {
		if s.retry.exhausted {
			s.log.Debugf("crop not applied after %d retries, showing full frame", s.retry.attempts)
		}
		return
	}

	time.AfterFunc(delay, func() {
		c.post(func() {
			if !c.current(s) {
				return
			}
			s.retry.fire()
			c.applyCrop(s)
		})
	})
}

func (c *Controller) handleSeekComplete(s *session) {
	if !c.current(s) {
		return
	}

	if s.pendingSeeks == 0 {
		return
	}
	// Only the acknowledgement of the latest seek counts.
	s.pendingSeeks--
	if s.pendingSeeks > 0 {
		return
	}

	c.seeks.ack(s.seekGeneration, s.position)
}

func (c *Controller) handleCompletion(s *session) {
	if !c.current(s) || !s.active() {
		return
	}

	s.log.Debugf("completed")
	s.completed = true
	s.state = statePaused

	visible := c.visibleSessions()
	if c.completionSent || len(visible) == 0 {
		return
	}
	if !lo.EveryBy(visible, func(s *session) bool { return s.completed }) {
		return
	}

	c.completionSent = true
	c.stopTicker()
	c.phase = Paused
	c.listener.OnPlaybackStateChanged(false)
	c.listener.OnCompletion()
}

func (c *Controller) handleError(s *session, err error) {
	if !c.current(s) || s.state == stateFailed {
		return
	}

	preparing := s.state == stateCreated || s.state == statePreparing
	s.fail()
	c.seeks.drop(s.position)
	c.report(fmt.Errorf("%s: %w", s.position, err))

	if s.position == group.Single {
		c.positioning = false
		return
	}
	if !preparing {
		return
	}

	if c.ready.fail(s.generation) {
		c.allPrepared()
		return
	}

	if c.ready.exhausted() {
		c.phase = Empty
		c.report(fmt.Errorf("group %s: %w", c.group.Key, ErrNoMedia))
	}
}

func (c *Controller) play() {
	if !c.phase.prepared() {
		log.Debugf("play ignored while %s", c.phase)
		return
	}

	// While a view switch positions its streams only the intent is recorded;
	// settle or showSingle starts them once they are in place.
	if !c.positioning {
		for _, s := range c.visibleSessions() {
			s.start()
		}
	}

	c.completionSent = false
	c.phase = Playing
	c.listener.OnPlaybackStateChanged(true)
	c.startTicker()
}

func (c *Controller) pause() {
	if !c.phase.prepared() {
		log.Debugf("pause ignored while %s", c.phase)
		return
	}

	for _, s := range c.activeSessions() {
		s.pause()
	}

	c.stopTicker()
	c.phase = Paused
	c.listener.OnPlaybackStateChanged(false)
}

func (c *Controller) seekTo(ms int) {
	if !c.phase.prepared() {
		log.Debugf("seek ignored while %s", c.phase)
		return
	}

	ms = max(ms, 0)
	if c.durationMs > 0 {
		ms = min(ms, c.durationMs)
	}
	c.positionMs = ms
	c.completionSent = false

	if c.mode == Single {
		if s := c.sessions[group.Single]; s != nil {
			if !s.active() {
				s.seekTarget = mo.Some(ms)
				return
			}
			// Nothing to keep in step with: a plain seek.
			if err := s.seek(ms); err != nil {
				log.Warn(err)
			}
			return
		}
	}

	c.syncSeek(c.quadSessions(), ms, func() {
		log.Debugf("synchronized seek to %dms completed", ms)
		c.listener.OnProgressUpdate(ms)
		c.settle()
	})
}

// syncSeek seeks every session to ms and runs onComplete on the loop once all of
// them acknowledged. A newer syncSeek supersedes it; a watchdog bounds the wait.
func (c *Controller) syncSeek(sessions []*session, ms int, onComplete func()) {
	var slots []group.Position
	for _, s := range sessions {
		if err := s.seek(ms); err != nil {
			log.Warn(err)
			continue
		}
		slots = append(slots, s.position)
	}

	generation := c.seeks.begin(slots, onComplete)
	if !c.seeks.active() || c.seeks.generation != generation {
		return
	}

	for _, s := range sessions {
		if c.seeks.waiting(s.position) {
			s.seekGeneration = generation
		}
	}

	time.AfterFunc(c.opts.SeekTimeout, func() {
		c.post(func() {
			if c.seeks.expire(generation) {
				log.Warnf("seek to %dms not acknowledged within %s", ms, c.opts.SeekTimeout)
			}
		})
	})
}

func (c *Controller) applySpeed() {
	speed := c.speed()
	for _, s := range c.activeSessions() {
		s.setSpeed(speed)
	}
	log.Debugf("speed set to %.1fx", speed)
}

func (c *Controller) setSingleMode(enabled bool, position group.Position) {
	if !position.IsQuad() {
		position = c.singlePosition
	}

	if !c.phase.prepared() {
		c.mode = lo.Ternary(enabled, Single, Multi)
		c.singlePosition = position

		switch {
		case !enabled:
			c.releaseSlot(group.Single)
		case c.phase == Loading:
			c.openSingle(0)
		}
		return
	}

	if enabled {
		captured := c.position()
		c.mode = Single
		c.singlePosition = position

		for _, s := range c.quadSessions() {
			s.pause()
		}

		log.Infof("single view of %s at %dms", position, captured)
		c.openSingle(captured)
		return
	}

	if c.mode == Multi {
		return
	}

	captured := c.position()
	c.releaseSlot(group.Single)
	c.mode = Multi

	log.Infof("quad view at %dms", captured)
	c.positioning = true
	c.syncSeek(c.quadSessions(), captured, c.settle)
}

// settle ends a quad view switch once its streams acknowledged the seek and
// applies the play/pause state recorded meanwhile. A later seek superseding the
// switch settles it instead.
func (c *Controller) settle() {
	if !c.positioning || c.mode != Multi {
		return
	}
	c.positioning = false

	if c.phase == Playing {
		c.play()
	} else {
		c.pause()
	}
}

// position returns the aggregate playback position. The single view reports its
// own position, falling back to the matching angle. The quad view reports the
// smallest positive position, so progress never runs ahead of any stream.
// Angles that reached their end are left out while another one still plays.
func (c *Controller) position() int {
	if c.mode == Single {
		if s := c.sessions[group.Single]; s != nil {
			if pos := s.currentPositionMs(); pos > 0 {
				return pos
			}
		}
		if s := c.sessions[c.singlePosition]; s != nil {
			if pos := s.currentPositionMs(); pos > 0 {
				return pos
			}
		}
	}

	quad := c.quadSessions()
	if running := lo.Reject(quad, func(s *session, _ int) bool { return s.completed }); len(running) > 0 {
		if pos := minPositive(running); pos > 0 {
			return pos
		}
	}
	return minPositive(quad)
}

func minPositive(sessions []*session) int {
	positions := lo.FilterMap(sessions, func(s *session, _ int) (int, bool) {
		pos := s.currentPositionMs()
		return pos, pos > 0
	})
	if len(positions) == 0 {
		return 0
	}
	return lo.Min(positions)
}

func (c *Controller) tick() {
	if c.phase != Playing {
		c.stopTicker()
		return
	}

	c.positionMs = c.position()
	c.listener.OnProgressUpdate(c.positionMs)
}

func (c *Controller) startTicker() {
	if c.ticker == nil {
		c.ticker = time.NewTicker(c.opts.ProgressInterval)
	}
}

func (c *Controller) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}
