// SPDX-License-Identifier: Apache-2.0

// Package tracker turns the stream of per-item status callbacks from an
// in-flight apply into timed action records with periodic heartbeat output.
// One Tracker serves exactly one apply invocation.
package tracker

import (
	"sync"
	"time"

	"github.com/canopyhq/canopy/internal/clock"
	"github.com/canopyhq/canopy/internal/core/models"
)

// DefaultHeartbeatInterval is how often a live action reports progress.
const DefaultHeartbeatInterval = 5 * time.Second

// Notifier receives the human-readable notifications the tracker emits.
// render.Printer implements it.
type Notifier interface {
	ActionStarted(item models.PlanItem)
	ActionInProgress(item models.PlanItem, elapsed time.Duration)
	ActionFinished(item models.PlanItem, elapsed time.Duration)
	ActionFailed(item models.PlanItem, detail string)
	ActionCancelled(key, parentKey string)
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop()
}

// Scheduler arms timers. The seam exists so tests can drive heartbeats
// explicitly instead of sleeping.
type Scheduler interface {
	Schedule(d time.Duration, f func()) Timer
}

type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() { r.t.Stop() }

type realScheduler struct{}

func (realScheduler) Schedule(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

// action is the runtime record for one live plan item.
type action struct {
	item  models.PlanItem
	start time.Time
	timer Timer
}

// Tracker owns the map of live actions. The mutex confines all state so a
// heartbeat can never fire after the terminal callback for its key: terminal
// transitions remove the key and stop the timer under the same lock the
// heartbeat checks before emitting.
type Tracker struct {
	mu       sync.Mutex
	actions  map[string]*action
	seen     map[string]models.PlanItem
	notifier Notifier
	clk      clock.Clock
	sched    Scheduler
	interval time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

func WithClock(c clock.Clock) Option {
	return func(t *Tracker) { t.clk = c }
}

func WithScheduler(s Scheduler) Option {
	return func(t *Tracker) { t.sched = s }
}

func WithHeartbeatInterval(d time.Duration) Option {
	return func(t *Tracker) { t.interval = d }
}

// New creates a Tracker for a single apply invocation.
func New(n Notifier, opts ...Option) *Tracker {
	t := &Tracker{
		actions:  make(map[string]*action),
		seen:     make(map[string]models.PlanItem),
		notifier: n,
		clk:      clock.System{},
		sched:    realScheduler{},
		interval: DefaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Started records a new live action, emits the start notification and arms
// its heartbeat. A key that is already live is rejected silently; correct
// callers never send a duplicate start.
func (t *Tracker) Started(key string, item models.PlanItem) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, live := t.actions[key]; live {
		return
	}

	a := &action{item: item, start: t.clk.Now()}
	t.actions[key] = a
	t.seen[key] = item
	t.notifier.ActionStarted(item)
	a.timer = t.sched.Schedule(t.interval, func() { t.heartbeat(key) })
}

// heartbeat emits an in-progress line for a still-live key and re-arms the
// timer. A key retired by a terminal callback is a no-op.
func (t *Tracker) heartbeat(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, live := t.actions[key]
	if !live {
		return
	}
	t.notifier.ActionInProgress(a.item, t.clk.Now().Sub(a.start))
	a.timer = t.sched.Schedule(t.interval, func() { t.heartbeat(key) })
}

// Finished retires a live action with a done notification. Unknown keys are
// a no-op, defending against duplicate or out-of-order callbacks.
func (t *Tracker) Finished(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, live := t.actions[key]
	if !live {
		return
	}
	a.timer.Stop()
	delete(t.actions, key)
	t.notifier.ActionFinished(a.item, t.clk.Now().Sub(a.start))
}

// Errored retires a live action with an error notification. Unknown keys
// are a no-op.
func (t *Tracker) Errored(key, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, live := t.actions[key]
	if !live {
		return
	}
	a.timer.Stop()
	delete(t.actions, key)
	t.notifier.ActionFailed(a.item, detail)
}

// Cancelled always notifies, whether or not the key ever started:
// cancellation reaches items whose parent failed before they ran.
func (t *Tracker) Cancelled(key, parentKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if a, live := t.actions[key]; live {
		a.timer.Stop()
		delete(t.actions, key)
	}
	t.notifier.ActionCancelled(key, parentKey)
}

// Shutdown disarms any straggling timers. Correct callers terminate every
// action before the apply returns, so this clears nothing in practice.
func (t *Tracker) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, a := range t.actions {
		a.timer.Stop()
		delete(t.actions, key)
	}
}

// LiveCount returns the number of actions with an armed heartbeat.
func (t *Tracker) LiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.actions)
}

// TrackedCount returns how many distinct keys were ever started.
func (t *Tracker) TrackedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

// Outcome splits the tracked keys into succeeded and failed counts given
// the error list of the deploy result, keyed by element identity.
func (t *Tracker) Outcome(errors []models.DeployError) (succeeded, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	failedElements := make(map[string]bool, len(errors))
	for _, de := range errors {
		failedElements[de.Element] = true
	}
	for _, item := range t.seen {
		if failedElements[item.Element] {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}
