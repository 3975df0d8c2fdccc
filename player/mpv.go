package player

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/quadview-cli/quadview/log"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

var (
	errNotPrepared = errors.New("decoder not prepared")
	errNoSource    = errors.New("no source set")
)

// Available reports whether the mpv binary can be found in PATH.
func Available(binary string) error {
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", binary, err)
	}
	return nil
}

// MPV implements Decoder with one mpv process per decoder, controlled over JSON-IPC.
// The process is launched idle and paused; the source is loaded once the event
// listener is connected so that no load event can be missed.
type MPV struct {
	binary     string
	source     string
	window     *Window
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when the mpv process exits
	events     *EventListener
	ipcMu      sync.Mutex // serializes IPC commands

	mu       sync.Mutex // protects the fields below
	listener Listener
	duration int
	width    int
	height   int
	sizeSent bool
	paused   bool
	prepared bool
	seeks    int // seeks issued since the last playback-restart
	released bool
	lastPos  int
}

// NewMPV creates a decoder backed by the given mpv binary. Nothing is started until PrepareAsync.
func NewMPV(binary string) *MPV {
	if binary == "" {
		binary = "mpv"
	}
	return &MPV{
		binary: binary,
		exited: make(chan struct{}),
		paused: true,
	}
}

// SetSource validates and stores the media file to play. Only local files are accepted.
func (m *MPV) SetSource(path string) error {
	safe, err := sanitizeMediaTarget(path)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}
	m.source = safe
	return nil
}

// AttachSurface binds an mpv Window. Other Surface implementations cannot host mpv output.
func (m *MPV) AttachSurface(surface Surface) error {
	w, ok := surface.(*Window)
	if !ok {
		return fmt.Errorf("mpv cannot render into %T", surface)
	}
	m.window = w
	w.bind(m)
	return nil
}

// SetListener registers the receiver of decoder events.
func (m *MPV) SetListener(listener Listener) {
	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()
}

// PrepareAsync launches mpv in the background and loads the source.
func (m *MPV) PrepareAsync() error {
	if m.source == "" {
		return errNoSource
	}

	go func() {
		if err := m.prepare(); err != nil {
			log.Errorf("mpv prepare %s: %v", m.source, err)
			m.notify(func(l Listener) { l.OnError(err) })
		}
	}()
	return nil
}

func (m *MPV) prepare() error {
	socketPath, err := newSocketPath()
	if err != nil {
		return err
	}

	// The source is loaded later through IPC; mpv stays idle until then.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
		"--idle=yes",
		"--pause=yes",
		"--keep-open=yes",
		"--keepaspect=no",
		"--force-window=yes",
		"--no-border",
		fmt.Sprintf("--title=%s", sanitizeTitle(filepath.Base(m.source))),
	}
	if m.window != nil {
		args = append(args, fmt.Sprintf("--geometry=%s", m.window.Geometry()))
	}

	cmd := exec.Command(m.binary, args...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		_ = killProcess(cmd)
		return nil
	}
	m.cmd = cmd
	m.exited = make(chan struct{})
	exited := m.exited
	m.mu.Unlock()

	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	if err := waitForSocket(socketPath, exited); err != nil {
		select {
		case <-exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.ipcMu.Lock()
	m.socketPath = socketPath
	m.ipcMu.Unlock()

	m.events = NewEventListener(socketPath, m.handleEvent)
	if err := m.events.Start(); err != nil {
		return err
	}

	if _, err := m.sendCommand("loadfile", m.source, "replace"); err != nil {
		return fmt.Errorf("load %s: %w", m.source, err)
	}
	return nil
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func waitForSocket(socketPath string, exited <-chan struct{}) error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", socketPath, socketWaitRetries)
}

// handleEvent translates mpv notifications into Listener callbacks.
func (m *MPV) handleEvent(name string, data interface{}) {
	switch name {
	case "file-loaded":
		duration, err := m.getFloatProperty("duration")
		if err != nil {
			log.Debugf("mpv %s: duration unknown at load: %v", m.source, err)
		}

		m.mu.Lock()
		if duration > 0 {
			m.duration = int(duration * 1000)
		}
		first := !m.prepared
		m.prepared = true
		m.mu.Unlock()

		if first {
			m.notify(func(l Listener) { l.OnPrepared() })
		}
	case "duration":
		if v, ok := data.(float64); ok {
			m.mu.Lock()
			m.duration = int(v * 1000)
			m.mu.Unlock()
		}
	case "width", "height":
		v, ok := data.(float64)
		if !ok {
			return
		}

		m.mu.Lock()
		if name == "width" {
			m.width = int(v)
		} else {
			m.height = int(v)
		}
		w, h := m.width, m.height
		report := w > 0 && h > 0 && !m.sizeSent
		if report {
			m.sizeSent = true
		}
		m.mu.Unlock()

		if report {
			m.notify(func(l Listener) { l.OnVideoSize(w, h) })
		}
	case "pause":
		if v, ok := data.(bool); ok {
			m.mu.Lock()
			m.paused = v
			m.mu.Unlock()
		}
	case "eof-reached":
		if v, ok := data.(bool); ok && v {
			m.notify(func(l Listener) { l.OnCompletion() })
		}
	case "playback-restart":
		// mpv coalesces queued seeks into one restart, which settles all of them.
		m.mu.Lock()
		acked := m.seeks
		m.seeks = 0
		m.mu.Unlock()

		for i := 0; i < acked; i++ {
			m.notify(func(l Listener) { l.OnSeekComplete() })
		}
	case "end-file":
		event, _ := data.(map[string]interface{})
		if reason, _ := event["reason"].(string); reason == "error" {
			err := fmt.Errorf("mpv: %v", event["file_error"])
			m.notify(func(l Listener) { l.OnError(err) })
		}
	}
}

// notify invokes fn with the current listener outside of the state lock.
func (m *MPV) notify(fn func(Listener)) {
	m.mu.Lock()
	l := m.listener
	released := m.released
	m.mu.Unlock()

	if l != nil && !released {
		fn(l)
	}
}

// Start resumes playback.
func (m *MPV) Start() error {
	return m.Set("pause", false)
}

// Pause suspends playback.
func (m *MPV) Pause() error {
	return m.Set("pause", true)
}

// Stop halts playback and unloads the file while keeping the process alive.
func (m *MPV) Stop() error {
	_, err := m.sendCommand("stop")
	return err
}

// SeekTo moves playback to the given absolute position in milliseconds.
func (m *MPV) SeekTo(ms int) error {
	// Counted before sending: the restart event can beat the command reply.
	m.mu.Lock()
	m.seeks++
	m.mu.Unlock()

	if _, err := m.sendCommand("seek", float64(ms)/1000, "absolute+exact"); err != nil {
		m.mu.Lock()
		m.seeks = max(m.seeks-1, 0)
		m.mu.Unlock()
		return err
	}
	return nil
}

// SetSpeed sets the playback rate.
func (m *MPV) SetSpeed(speed float64) error {
	return m.Set("speed", speed)
}

// SetMuted toggles audio output.
func (m *MPV) SetMuted(muted bool) error {
	return m.Set("mute", muted)
}

// CurrentPosition returns the playback position in milliseconds, falling back to
// the last successful reading when mpv cannot answer.
func (m *MPV) CurrentPosition() int {
	pos, err := m.getFloatProperty("time-pos")

	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		m.lastPos = int(pos * 1000)
	}
	return m.lastPos
}

// Duration returns the media duration in milliseconds.
func (m *MPV) Duration() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

// VideoSize returns the native frame size reported by mpv.
func (m *MPV) VideoSize() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

// IsPlaying reports whether a file is loaded and not paused.
func (m *MPV) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prepared && !m.paused
}

// Release shuts down the mpv process and cleans up the socket.
func (m *MPV) Release() error {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return nil
	}
	m.released = true
	cmd := m.cmd
	exited := m.exited
	m.mu.Unlock()

	if m.events != nil {
		m.events.Stop()
	}

	if cmd == nil {
		return nil
	}

	_, _ = m.sendCommand("quit")

	select {
	case <-exited:
	case <-time.After(quitTimeout):
		_ = killProcess(cmd)
	}

	if m.socketPath != "" {
		_ = os.Remove(m.socketPath)
	}
	return nil
}

// Set writes an mpv property.
func (m *MPV) Set(property string, value interface{}) error {
	_, err := m.sendCommand("set_property", property, value)
	return err
}

// getFloatProperty is a helper to retrieve a float64 mpv property via IPC.
func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand("get_property", name)
	if err != nil {
		return 0, err
	}

	if data == nil {
		return 0, fmt.Errorf("property %s: nil response", name)
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}

	return val, nil
}

// sanitizeMediaTarget validates that a path is a local file safe to pass to mpv.
// Flag injection and remote URLs are rejected.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in path")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("path must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		if strings.ToLower(u.Scheme) != "file" {
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
		return filepath.Clean(u.Path), nil
	}

	return filepath.Clean(l), nil
}

// sanitizeTitle cleans up a window title for mpv.
func sanitizeTitle(title string) string {
	t := strings.ReplaceAll(title, "\n", " ")
	t = strings.ReplaceAll(t, "\r", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	t = strings.ReplaceAll(t, "\x00", "")
	return strings.TrimSpace(t)
}
