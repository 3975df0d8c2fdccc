package playback

import "github.com/quadview-cli/quadview/group"

// readiness gates auto-start until every session of the current load has prepared.
// Arrivals from an older generation are ignored.
type readiness struct {
	generation uint64
	expected   int
	arrived    int
	fired      bool
}

func (r *readiness) reset(generation uint64, expected int) {
	*r = readiness{generation: generation, expected: expected}
}

// arrive counts one prepared session and reports whether the barrier fired.
func (r *readiness) arrive(generation uint64) bool {
	if generation != r.generation || r.fired {
		return false
	}
	r.arrived++
	return r.check()
}

// fail removes a session that will never prepare and reports whether the
// remaining sessions now satisfy the barrier.
func (r *readiness) fail(generation uint64) bool {
	if generation != r.generation || r.fired || r.expected == 0 {
		return false
	}
	r.expected--
	return r.check()
}

// exhausted reports whether every expected session failed.
func (r *readiness) exhausted() bool {
	return !r.fired && r.expected == 0 && r.arrived == 0
}

func (r *readiness) check() bool {
	if r.expected > 0 && r.arrived >= r.expected {
		r.fired = true
		return true
	}
	return false
}

// seekBarrier runs a completion once every targeted session acknowledged a seek.
// Beginning a new seek supersedes the pending one and its completion is dropped.
type seekBarrier struct {
	generation uint64
	pending    map[group.Position]bool
	onComplete func()
}

// begin starts a new barrier over targets and returns its generation.
// With no targets the completion runs immediately.
func (b *seekBarrier) begin(targets []group.Position, onComplete func()) uint64 {
	b.generation++
	b.pending = make(map[group.Position]bool, len(targets))
	for _, t := range targets {
		b.pending[t] = true
	}
	b.onComplete = onComplete

	generation := b.generation
	b.check()
	return generation
}

// ack records the acknowledgement of slot for the given generation.
func (b *seekBarrier) ack(generation uint64, slot group.Position) {
	if generation != b.generation || !b.pending[slot] {
		return
	}
	delete(b.pending, slot)
	b.check()
}

// drop forgets a slot whose session disappeared so the rest can still complete.
func (b *seekBarrier) drop(slot group.Position) {
	if !b.pending[slot] {
		return
	}
	delete(b.pending, slot)
	b.check()
}

// expire force-completes the barrier of the given generation.
func (b *seekBarrier) expire(generation uint64) bool {
	if generation != b.generation || b.onComplete == nil {
		return false
	}
	b.pending = nil
	b.complete()
	return true
}

// cancel drops the pending barrier without running its completion.
func (b *seekBarrier) cancel() {
	b.generation++
	b.pending = nil
	b.onComplete = nil
}

// waiting reports whether slot still owes an acknowledgement.
func (b *seekBarrier) waiting(slot group.Position) bool {
	return b.onComplete != nil && b.pending[slot]
}

func (b *seekBarrier) active() bool {
	return b.onComplete != nil
}

func (b *seekBarrier) check() {
	if b.onComplete != nil && len(b.pending) == 0 {
		b.complete()
	}
}

func (b *seekBarrier) complete() {
	fn := b.onComplete
	b.onComplete = nil
	fn()
}
