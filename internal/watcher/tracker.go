package watcher

import (
	"time"
)

// TrackerConfig bounds the adaptive polling policy. The backoff is
// linear, not exponential: writes to the movement table are bursty but
// frequent, so returning to MinInterval the moment anything shows up
// matters more than a smooth ramp-down.
type TrackerConfig struct {
	MinInterval   time.Duration
	MaxInterval   time.Duration
	Step          time.Duration
	IdleThreshold int
}

// Tracker owns the poll watermark and the current interval. It is
// mutated only by the Poller's single loop goroutine and needs no
// locking.
type Tracker struct {
	cfg TrackerConfig

	lastID     int64
	lastChange time.Time

	interval   time.Duration
	emptyPolls int
}

func NewTracker(cfg TrackerConfig, startID int64, startChange time.Time) *Tracker {
	return &Tracker{
		cfg:        cfg,
		lastID:     startID,
		lastChange: startChange,
		interval:   cfg.MinInterval,
	}
}

func (t *Tracker) LastID() int64 {
	return t.lastID
}

func (t *Tracker) LastChange() time.Time {
	return t.lastChange
}

func (t *Tracker) Interval() time.Duration {
	return t.interval
}

// Advance moves the watermark forward. Both fields are monotonic; a
// stale value never regresses them.
func (t *Tracker) Advance(observedID int64, observedChange time.Time) {
	if observedID > t.lastID {
		t.lastID = observedID
	}

	if observedChange.After(t.lastChange) {
		t.lastChange = observedChange
	}
}

// NextInterval applies the linear backoff policy and returns the delay
// before the next poll. Any hit snaps back to MinInterval; after
// IdleThreshold consecutive empty polls the interval jumps straight to
// MaxInterval instead of creeping up by Step.
func (t *Tracker) NextInterval(hadResults bool) time.Duration {
	if hadResults {
		t.emptyPolls = 0
		t.interval = t.cfg.MinInterval

		return t.interval
	}

	t.emptyPolls++

	if t.emptyPolls >= t.cfg.IdleThreshold {
		t.interval = t.cfg.MaxInterval

		return t.interval
	}

	t.interval = min(t.interval+t.cfg.Step, t.cfg.MaxInterval)

	return t.interval
}

// Penalize jumps the interval to MaxInterval after a cycle error, so a
// failing dependency is not hammered at the fast-follow rate. Distinct
// from the idle path: the empty-poll counter is left alone.
func (t *Tracker) Penalize() time.Duration {
	t.interval = t.cfg.MaxInterval

	return t.interval
}

// EmptyPolls is exposed for the watcher's debug logging.
func (t *Tracker) EmptyPolls() int {
	return t.emptyPolls
}
