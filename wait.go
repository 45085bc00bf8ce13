// SPDX-License-Identifier: Apache-2.0

package rtcore

import (
	"runtime"
	"time"

	"github.com/rtcore-project/rtcore/internal/tlocal"
	"github.com/rtcore-project/rtcore/pkg/severity"
)

// Wait is the one function a task entry calls each cycle, after it has
// finished its per-cycle work. It resolves the calling goroutine's task
// through thread-local state; a task body must never pass its own handle.
//
// If the task has been stopped or deleted, Wait never returns: it
// terminates the calling goroutine via runtime.Goexit, the Go analogue of
// pthread_exit from inside the worker routine, running the worker's
// deferred cleanup on the way out.
func Wait() {
	bound, ok := tlocal.Current().(*boundTask)
	if !ok || bound == nil {
		panic("rtcore: Wait called from a goroutine with no bound task")
	}

	bound.rt.wait(bound.id)
}

func (rt *Runtime) wait(id int) {
	rec, ok := rt.tasks.get(id)
	if !ok {
		return
	}

	if rec.deleted || rec.destroyed {
		runtime.Goexit()
	}

	deadline := rec.nextWake
	// Lateness is judged by when the task reaches its wait: a wakeup always
	// lands at or just after its target, so a clock read taken after the
	// sleep would flag every cycle.
	arrived := time.Now()
	sleepAbsolute(deadline, rec.deadlineSched)

	next := addDuration(deadline, rec.period)
	rt.tasks.mutate(id, func(r *taskRecord) {
		r.nextWake = next
	})

	// The deadline we just missed is the pre-advance one: compare against
	// `deadline`, not `next`. Comparing against the advanced value would
	// mean the check almost never fires.
	if arrived.After(deadline) {
		rt.recordDeadlineMiss(id, rec, arrived.Sub(deadline))
	}
}

func addDuration(t time.Time, d time.Duration) time.Time {
	return t.Add(d)
}

// recordDeadlineMiss increments the task's failure counter, refreshes its
// resource-usage stats, reports at a severity decided by the miss count,
// and invokes the exception handler (realtime flavor only).
func (rt *Runtime) recordDeadlineMiss(id int, rec taskRecord, lateBy time.Duration) {
	var missCount int64
	rt.tasks.mutate(id, func(r *taskRecord) {
		r.missedDeadlines++
		missCount = r.missedDeadlines
	})

	stats, _ := rt.updateStats(id)

	if rt.metrics != nil {
		rt.metrics.RecordDeadlineMiss(rec.name, lateBy)
	}

	level := rt.severity.Severity(int(missCount))
	switch level {
	case severity.LevelError:
		rt.logger.Error("deadline missed", "task", id, "name", rec.name, "late_by", lateBy, "count", missCount)
	case severity.LevelWarn:
		rt.logger.Warn("deadline missed", "task", id, "name", rec.name, "late_by", lateBy, "count", missCount)
	case severity.LevelSilent:
		// Chronically missing; already reported enough, keep counting.
	}

	if rt.isRealtimeFlavor() && rt.exceptionHandler != nil {
		rt.exceptionHandler(ExceptionDeadlineMissed, ExceptionDetail{
			TaskID: id,
			Stats:  stats,
		})
	}
}
