package playback

import (
	"fmt"

	"github.com/quadview-cli/quadview/crop"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/player"
	"github.com/samber/mo"
)

type sessionState int

const (
	stateCreated sessionState = iota
	statePreparing
	statePrepared
	statePlaying
	statePaused
	stateFailed
	stateReleased
)

func (s sessionState) String() string {
	return [...]string{"created", "preparing", "prepared", "playing", "paused", "failed", "released"}[s]
}

// session owns one decoder rendering into one surface for one position.
type session struct {
	position   group.Position
	generation uint64
	source     string
	decoder    player.Decoder
	surface    player.Surface
	region     mo.Option[crop.Region]
	retry      cropRetry

	state          sessionState
	durationMs     int
	lastPositionMs int
	completed      bool

	// seekTarget is applied once the session prepares; used by the single view.
	seekTarget mo.Option[int]

	pendingSeeks   int
	seekGeneration uint64

	log *log.Entry
}

func newSession(position group.Position, generation uint64, source string, decoder player.Decoder, surface player.Surface) *session {
	return &session{
		position:   position,
		generation: generation,
		source:     source,
		decoder:    decoder,
		surface:    surface,
		state:      stateCreated,
		log:        log.WithFields(log.Fields{"position": position.String(), "generation": generation}),
	}
}

// prepare wires the decoder and starts asynchronous preparation.
func (s *session) prepare(listener player.Listener) error {
	s.decoder.SetListener(listener)

	if err := s.decoder.SetSource(s.source); err != nil {
		return fmt.Errorf("%s: set source: %w", s.position, err)
	}
	if err := s.decoder.AttachSurface(s.surface); err != nil {
		return fmt.Errorf("%s: attach surface: %w", s.position, err)
	}
	if err := s.decoder.PrepareAsync(); err != nil {
		return fmt.Errorf("%s: prepare: %w", s.position, err)
	}

	s.state = statePreparing
	return nil
}

// onPrepared mutes the decoder, applies the speed and records the duration.
func (s *session) onPrepared(speed float64) {
	s.state = statePrepared
	s.durationMs = s.decoder.Duration()

	if err := s.decoder.SetMuted(true); err != nil {
		s.log.Warnf("mute: %v", err)
	}
	s.setSpeed(speed)
}

// active reports whether the session takes part in playback.
func (s *session) active() bool {
	switch s.state {
	case statePrepared, statePlaying, statePaused:
		return true
	default:
		return false
	}
}

func (s *session) start() {
	if !s.active() || (s.isPlaying() && !s.completed) {
		return
	}
	if err := s.decoder.Start(); err != nil {
		s.log.Warnf("start: %v", err)
		return
	}
	s.state = statePlaying
}

func (s *session) pause() {
	if !s.active() {
		return
	}
	if err := s.decoder.Pause(); err != nil {
		s.log.Warnf("pause: %v", err)
		return
	}
	s.state = statePaused
}

func (s *session) seek(ms int) error {
	if !s.active() {
		return fmt.Errorf("%s: seek in state %s", s.position, s.state)
	}
	s.completed = false
	if err := s.decoder.SeekTo(ms); err != nil {
		return fmt.Errorf("%s: seek: %w", s.position, err)
	}
	s.pendingSeeks++
	s.lastPositionMs = ms
	return nil
}

func (s *session) setSpeed(speed float64) {
	if !s.active() {
		return
	}
	if err := s.decoder.SetSpeed(speed); err != nil {
		s.log.Warnf("set speed %.1f: %v", speed, err)
	}
}

// currentPositionMs polls the decoder and remembers the answer.
func (s *session) currentPositionMs() int {
	if !s.active() {
		return 0
	}
	s.lastPositionMs = s.decoder.CurrentPosition()
	return s.lastPositionMs
}

func (s *session) isPlaying() bool {
	return s.state == statePlaying
}

// fail abandons the session and frees its decoder; it is never retried.
func (s *session) fail() {
	s.release()
	s.state = stateFailed
}

// release stops and frees the decoder. Errors are logged and swallowed.
func (s *session) release() {
	if s.state == stateReleased || s.state == stateFailed {
		return
	}
	if s.active() {
		if err := s.decoder.Stop(); err != nil {
			s.log.Debugf("stop: %v", err)
		}
	}
	if err := s.decoder.Release(); err != nil {
		s.log.Debugf("release: %v", err)
	}
	s.state = stateReleased
}

// transform computes the crop transform, reporting false while sizes are unknown.
func (s *session) transform(region crop.Region) (crop.Transform, bool) {
	fw, fh := s.decoder.VideoSize()
	vw, vh := s.surface.Viewport()
	if fw <= 0 || fh <= 0 || vw <= 0 || vh <= 0 {
		return crop.Identity, false
	}
	return crop.ForViewport(region, vw, vh), true
}

// sessionListener forwards decoder events of one session into the controller loop.
type sessionListener struct {
	c *Controller
	s *session
}

func (l sessionListener) OnPrepared() {
	l.c.post(func() { l.c.handlePrepared(l.s) })
}

func (l sessionListener) OnVideoSize(width, height int) {
	l.c.post(func() { l.c.handleVideoSize(l.s, width, height) })
}

func (l sessionListener) OnSeekComplete() {
	l.c.post(func() { l.c.handleSeekComplete(l.s) })
}

func (l sessionListener) OnCompletion() {
	l.c.post(func() { l.c.handleCompletion(l.s) })
}

func (l sessionListener) OnError(err error) {
	l.c.post(func() { l.c.handleError(l.s, err) })
}
