package playback

import (
	"errors"
	"sync"
	"time"

	"github.com/quadview-cli/quadview/crop"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/player"
)

type decoderState struct {
	source    string
	surface   player.Surface
	listener  player.Listener
	prepares  int
	playing   bool
	muted     bool
	speed     float64
	seeks     []int
	stopped   bool
	releases  int
	position  int
	duration  int
	width     int
	height    int
	sourceErr error
}

type fakeDecoder struct {
	mu sync.Mutex
	decoderState
}

func (d *fakeDecoder) SetSource(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.source = path
	return d.sourceErr
}

func (d *fakeDecoder) AttachSurface(surface player.Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.surface = surface
	return nil
}

func (d *fakeDecoder) PrepareAsync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prepares++
	return nil
}

func (d *fakeDecoder) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = true
	return nil
}

func (d *fakeDecoder) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
	return nil
}

func (d *fakeDecoder) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
	d.stopped = true
	return nil
}

func (d *fakeDecoder) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.releases++
	return errors.New("release errors are swallowed")
}

func (d *fakeDecoder) SeekTo(ms int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seeks = append(d.seeks, ms)
	d.position = ms
	return nil
}

func (d *fakeDecoder) SetSpeed(speed float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speed = speed
	return nil
}

func (d *fakeDecoder) SetMuted(muted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted = muted
	return nil
}

func (d *fakeDecoder) CurrentPosition() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

func (d *fakeDecoder) Duration() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duration
}

func (d *fakeDecoder) VideoSize() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

func (d *fakeDecoder) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

func (d *fakeDecoder) SetListener(listener player.Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listener = listener
}

// The helpers below play the decoder side of the contract.

func (d *fakeDecoder) events() player.Listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listener
}

func (d *fakeDecoder) prepared()      { d.events().OnPrepared() }
func (d *fakeDecoder) seekDone()      { d.events().OnSeekComplete() }
func (d *fakeDecoder) completed()     { d.events().OnCompletion() }
func (d *fakeDecoder) failed(e error) { d.events().OnError(e) }

func (d *fakeDecoder) setPosition(ms int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.position = ms
}

func (d *fakeDecoder) setSize(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.width, d.height = width, height
}

func (d *fakeDecoder) snapshot() decoderState {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.decoderState
	state.seeks = append([]int(nil), d.seeks...)
	return state
}

// fakeFactory builds fake decoders and remembers them per slot, newest last.
type fakeFactory struct {
	mu        sync.Mutex
	created   map[group.Position][]*fakeDecoder
	durations map[group.Position]int
	noSize    bool
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		created:   make(map[group.Position][]*fakeDecoder),
		durations: make(map[group.Position]int),
	}
}

func (f *fakeFactory) New(pos group.Position) player.Decoder {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := &fakeDecoder{decoderState: decoderState{duration: f.durations[pos], width: 3840, height: 2160}}
	if f.noSize {
		d.width, d.height = 0, 0
	}
	f.created[pos] = append(f.created[pos], d)
	return d
}

func (f *fakeFactory) last(pos group.Position) *fakeDecoder {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.created[pos]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

func (f *fakeFactory) count(pos group.Position) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created[pos])
}

func (f *fakeFactory) quad() []*fakeDecoder {
	decoders := make([]*fakeDecoder, 0, 4)
	for _, pos := range group.Quad() {
		if d := f.last(pos); d != nil {
			decoders = append(decoders, d)
		}
	}
	return decoders
}

type fakeSurface struct {
	mu         sync.Mutex
	width      int
	height     int
	transforms []crop.Transform
}

func (s *fakeSurface) Viewport() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *fakeSurface) SetTransform(t crop.Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transforms = append(s.transforms, t)
	return nil
}

func (s *fakeSurface) applied() []crop.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]crop.Transform(nil), s.transforms...)
}

func fakeSurfaces() (map[group.Position]player.Surface, map[group.Position]*fakeSurface) {
	surfaces := make(map[group.Position]player.Surface)
	fakes := make(map[group.Position]*fakeSurface)
	for _, pos := range append(group.Quad(), group.Single) {
		s := &fakeSurface{width: 960, height: 540}
		if pos == group.Single {
			s.width, s.height = 1920, 1080
		}
		surfaces[pos] = s
		fakes[pos] = s
	}
	return surfaces, fakes
}

type recorded struct {
	prepared       []int
	progress       []int
	states         []bool
	completions    int
	errs           []error
	singlePrepared int
}

type recordingListener struct {
	mu sync.Mutex
	recorded
}

func (r *recordingListener) OnPrepared(durationMs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared = append(r.prepared, durationMs)
}

func (r *recordingListener) OnProgressUpdate(positionMs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, positionMs)
}

func (r *recordingListener) OnPlaybackStateChanged(playing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, playing)
}

func (r *recordingListener) OnCompletion() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions++
}

func (r *recordingListener) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingListener) OnSingleVideoPrepared() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.singlePrepared++
}

func (r *recordingListener) snapshot() recorded {
	r.mu.Lock()
	defer r.mu.Unlock()

	return recorded{
		prepared:       append([]int(nil), r.prepared...),
		progress:       append([]int(nil), r.progress...),
		states:         append([]bool(nil), r.states...),
		completions:    r.completions,
		errs:           append([]error(nil), r.errs...),
		singlePrepared: r.singlePrepared,
	}
}

// await returns once the loop has processed everything posted before the call.
func await(c *Controller) {
	done := make(chan struct{})
	if !c.inbox.post(func() { close(done) }) {
		<-c.Done()
		return
	}
	select {
	case <-done:
	case <-c.Done():
	}
}

// eventually polls cond on the loop until it holds or the timeout passes.
func eventually(c *Controller, timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		await(c)
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// inspect runs fn on the loop and waits for it.
func inspect(c *Controller, fn func()) {
	done := make(chan struct{})
	if c.inbox.post(func() { fn(); close(done) }) {
		<-done
	}
}
