package mini

import (
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/playback"
)

type event struct {
	prepared   bool
	completed  bool
	durationMs int
	err        error
}

// eventListener keeps the controller events the prompts care about.
type eventListener struct {
	playback.NopListener
	events chan event
}

func newEventListener() *eventListener {
	return &eventListener{events: make(chan event, 16)}
}

func (l *eventListener) send(e event) {
	select {
	case l.events <- e:
	default:
		log.Warnf("dropping playback event %+v", e)
	}
}

func (l *eventListener) OnPrepared(durationMs int) {
	l.send(event{prepared: true, durationMs: durationMs})
}

func (l *eventListener) OnCompletion() {
	l.send(event{completed: true})
}

func (l *eventListener) OnError(err error) {
	l.send(event{err: err})
}

// pending drains the queued events without blocking.
func (l *eventListener) pending() []event {
	var events []event
	for {
		select {
		case e := <-l.events:
			events = append(events, e)
		default:
			return events
		}
	}
}
