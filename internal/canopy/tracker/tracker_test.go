// SPDX-License-Identifier: Apache-2.0

package tracker_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/canopyhq/canopy/internal/canopy/tracker"
	"github.com/canopyhq/canopy/internal/clock"
	"github.com/canopyhq/canopy/internal/core/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures notifications as readable strings.
type recorder struct {
	lines []string
}

func (r *recorder) ActionStarted(item models.PlanItem) {
	r.lines = append(r.lines, fmt.Sprintf("started %s", item.Element))
}

func (r *recorder) ActionInProgress(item models.PlanItem, elapsed time.Duration) {
	r.lines = append(r.lines, fmt.Sprintf("progress %s %s", item.Element, elapsed))
}

func (r *recorder) ActionFinished(item models.PlanItem, elapsed time.Duration) {
	r.lines = append(r.lines, fmt.Sprintf("finished %s %s", item.Element, elapsed))
}

func (r *recorder) ActionFailed(item models.PlanItem, detail string) {
	r.lines = append(r.lines, fmt.Sprintf("failed %s %s", item.Element, detail))
}

func (r *recorder) ActionCancelled(key, parentKey string) {
	r.lines = append(r.lines, fmt.Sprintf("cancelled %s parent %s", key, parentKey))
}

// manualScheduler arms timers that only fire when the test says so.
type manualScheduler struct {
	timers []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() { t.stopped = true }

func (s *manualScheduler) Schedule(_ time.Duration, f func()) tracker.Timer {
	t := &manualTimer{f: f}
	s.timers = append(s.timers, t)
	return t
}

// Fire runs every armed timer once. Re-armed timers are not fired again in
// the same call.
func (s *manualScheduler) Fire() {
	pending := make([]*manualTimer, 0, len(s.timers))
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			pending = append(pending, t)
		}
	}
	for _, t := range pending {
		t.fired = true
		t.f()
	}
}

// Armed counts timers that are neither stopped nor already fired.
func (s *manualScheduler) Armed() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func newTracker(t *testing.T) (*tracker.Tracker, *recorder, *manualScheduler, *clock.Fake) {
	t.Helper()
	rec := &recorder{}
	sched := &manualScheduler{}
	clk := clock.NewFake(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	tr := tracker.New(rec, tracker.WithClock(clk), tracker.WithScheduler(sched))
	return tr, rec, sched, clk
}

func item(element string) models.PlanItem {
	return models.PlanItem{Element: element, Service: "crm", Kind: models.ActionModify, GroupKey: "crm/" + element}
}

func TestLifecycleWithHeartbeats(t *testing.T) {
	tr, rec, sched, clk := newTracker(t)

	tr.Started("k1", item("price-rules"))
	require.Equal(t, []string{"started price-rules"}, rec.lines)
	assert.Equal(t, 1, tr.LiveCount())
	assert.Equal(t, 1, sched.Armed())

	clk.Advance(5 * time.Second)
	sched.Fire()
	assert.Equal(t, "progress price-rules 5s", rec.lines[1])
	assert.Equal(t, 1, sched.Armed(), "heartbeat re-arms itself")

	clk.Advance(7 * time.Second)
	tr.Finished("k1")
	assert.Equal(t, "finished price-rules 12s", rec.lines[2])
	assert.Equal(t, 0, tr.LiveCount())
	assert.Equal(t, 0, sched.Armed())
}

func TestHeartbeatNeverFiresAfterTermination(t *testing.T) {
	tr, rec, sched, clk := newTracker(t)

	tr.Started("k1", item("price-rules"))
	tr.Finished("k1")
	lines := len(rec.lines)

	// Even a timer that was armed before termination must stay silent.
	clk.Advance(time.Minute)
	sched.Fire()
	sched.Fire()
	assert.Equal(t, lines, len(rec.lines))
}

func TestHeartbeatNeverFiresAfterError(t *testing.T) {
	tr, rec, sched, _ := newTracker(t)

	tr.Started("k1", item("price-rules"))
	before := len(rec.lines)
	tr.Errored("k1", "remote rejected update")
	assert.Equal(t, "failed price-rules remote rejected update", rec.lines[before])

	sched.Fire()
	assert.Len(t, rec.lines, before+1)
	assert.Equal(t, 0, tr.LiveCount())
}

func TestDuplicateStartRejectedSilently(t *testing.T) {
	tr, rec, _, _ := newTracker(t)

	tr.Started("k1", item("price-rules"))
	tr.Started("k1", item("price-rules"))

	assert.Equal(t, []string{"started price-rules"}, rec.lines)
	assert.Equal(t, 1, tr.TrackedCount())
	assert.Equal(t, 1, tr.LiveCount())
}

func TestTerminalCallbacksForUnknownKeysAreNoOps(t *testing.T) {
	tr, rec, _, _ := newTracker(t)

	tr.Finished("ghost")
	tr.Errored("ghost", "boom")

	assert.Empty(t, rec.lines)
	assert.Equal(t, 0, tr.TrackedCount())
}

func TestCancelledAlwaysNotifies(t *testing.T) {
	tr, rec, sched, _ := newTracker(t)

	// Never started: still reported.
	tr.Cancelled("k2", "k1")
	assert.Equal(t, []string{"cancelled k2 parent k1"}, rec.lines)

	// Started then cancelled: heartbeat disarmed.
	tr.Started("k3", item("tax-table"))
	tr.Cancelled("k3", "k1")
	assert.Equal(t, 0, tr.LiveCount())
	assert.Equal(t, 0, sched.Armed())
}

func TestShutdownClearsStragglers(t *testing.T) {
	tr, _, sched, _ := newTracker(t)

	tr.Started("k1", item("a"))
	tr.Started("k2", item("b"))
	assert.Equal(t, 2, sched.Armed())

	tr.Shutdown()
	assert.Equal(t, 0, tr.LiveCount())
	assert.Equal(t, 0, sched.Armed())
}

func TestOutcome(t *testing.T) {
	tr, _, _, _ := newTracker(t)

	tr.Started("k1", item("a"))
	tr.Started("k2", item("b"))
	tr.Started("k3", item("c"))
	tr.Finished("k1")
	tr.Finished("k2")
	tr.Errored("k3", "boom")

	succeeded, failed := tr.Outcome([]models.DeployError{{Element: "c", Message: "boom"}})
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
}
