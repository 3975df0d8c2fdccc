package playback

import "time"

// cropRetry is the bounded state machine behind crop transform application.
// It moves from idle to waiting while sizes are unknown, and ends in applied or
// exhausted. No more than max attempts are ever scheduled.
type cropRetry struct {
	max       int
	delay     time.Duration
	attempts  int
	scheduled bool
	applied   bool
	exhausted bool
}

func newCropRetry(policy RetryPolicy) cropRetry {
	return cropRetry{max: policy.Retries, delay: policy.Delay}
}

// done reports whether no further application should be attempted.
func (r *cropRetry) done() bool {
	return r.applied || r.exhausted
}

// schedule reserves the next attempt. It reports false when one is already
// pending or the budget is spent; the latter makes the state exhausted.
func (r *cropRetry) schedule() (time.Duration, bool) {
	if r.done() || r.scheduled {
		return 0, false
	}
	if r.attempts >= r.max {
		r.exhausted = true
		return 0, false
	}
	r.attempts++
	r.scheduled = true
	return r.delay, true
}

// fire marks a scheduled attempt as running.
func (r *cropRetry) fire() {
	r.scheduled = false
}

func (r *cropRetry) succeed() {
	r.applied = true
	r.scheduled = false
}
