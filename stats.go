// SPDX-License-Identifier: Apache-2.0

package rtcore

import (
	"context"
	"time"

	"github.com/rtcore-project/rtcore/pkg/rterr"
)

// TaskStats is the per-task resource-usage snapshot C5 maintains: CPU
// time, context switches, signals, and page faults, sourced from the
// owning thread's own resource-usage counters.
type TaskStats struct {
	TaskID int

	UserTime   time.Duration
	SystemTime time.Duration

	VoluntaryContextSwitches   int64
	InvoluntaryContextSwitches int64
	Signals                    int64

	MinorFaults int64
	MajorFaults int64

	// StartupFaults is the sum of the thread's minor and major page-fault
	// counts sampled immediately after the init barrier opens and before
	// the task's entry function runs: the faults taken while the worker
	// was being set up. MinorFaults and MajorFaults count from this
	// baseline.
	StartupFaults int64

	MissedDeadlines int64

	Updates int64
}

// RefreshStats returns task id's most recently published resource-usage
// snapshot. Per-thread counters (RUSAGE_THREAD) can only be sampled
// correctly by the thread they describe, so an actual OS-level resample
// only ever happens inside the task's own wait loop (updateStats, called
// from recordDeadlineMiss and from the worker at startup); this is the
// out-of-band read path internal/diag polls between a task's wakeups,
// equivalent to TaskStatsByID but with the ctx/error shape diag expects.
func (rt *Runtime) RefreshStats(ctx context.Context, id int) (TaskStats, error) {
	rec, ok := rt.tasks.get(id)
	if !ok {
		return TaskStats{}, rterr.BadHandle("task handle out of range")
	}

	return rec.stats, nil
}

// updateStats samples the calling thread's resource usage and stores it on
// the task record, returning the refreshed snapshot. Only ever called from
// the task's own worker thread (RUSAGE_THREAD is inherently thread-local).
func (rt *Runtime) updateStats(id int) (TaskStats, error) {
	usage, err := threadResourceUsage(id)
	if err != nil {
		rt.logger.Error("getrusage failed", "task", id, "error", err)
		return TaskStats{}, err
	}

	var out TaskStats
	rt.tasks.mutate(id, func(r *taskRecord) {
		prevMinor, prevMajor := r.stats.MinorFaults, r.stats.MajorFaults
		minor, major := pageFaultDelta(r, usage)
		if usage.minorFaults < r.minFaultBaseline || usage.majorFaults < r.majFaultBaseline {
			rt.logger.Error("pagefault counter below baseline, resetting to zero",
				"task", id, "minor", usage.minorFaults, "major", usage.majorFaults,
				"min_baseline", r.minFaultBaseline, "maj_baseline", r.majFaultBaseline)
		}

		r.stats = TaskStats{
			TaskID:                     id,
			UserTime:                   usage.userTime,
			SystemTime:                 usage.systemTime,
			VoluntaryContextSwitches:   usage.voluntaryCtxSwitches,
			InvoluntaryContextSwitches: usage.involuntaryCtxSwitches,
			Signals:                    usage.signals,
			MinorFaults:                minor,
			MajorFaults:                major,
			StartupFaults:              r.startupMinFaults + r.startupMajFaults,
			MissedDeadlines:            r.missedDeadlines,
			Updates:                    r.stats.Updates + 1,
		}
		out = r.stats

		if rt.metrics != nil {
			rt.metrics.RecordPageFaults(r.name, max(minor-prevMinor, 0), max(major-prevMajor, 0))
		}
	})

	return out, nil
}

// pageFaultDelta returns (current - baseline) for both fault counters,
// per resetPagefaultCount/getPagefaultCount's semantics. If a sample is
// below its baseline it is treated as a counter reset: the function
// returns zero for that counter, never a negative count (updateStats logs
// the inversion).
func pageFaultDelta(r *taskRecord, usage threadUsage) (minor, major int64) {
	if usage.minorFaults < r.minFaultBaseline {
		minor = 0
	} else {
		minor = usage.minorFaults - r.minFaultBaseline
	}

	if usage.majorFaults < r.majFaultBaseline {
		major = 0
	} else {
		major = usage.majorFaults - r.majFaultBaseline
	}

	return minor, major
}

// resetPagefaultCount stores the minor/major fault counts of a usage
// sample taken by the caller as the task's baseline.
func (rt *Runtime) resetPagefaultCount(id int, usage threadUsage) {
	rt.tasks.mutate(id, func(r *taskRecord) {
		if r.minFaultBaseline != usage.minorFaults || r.majFaultBaseline != usage.majorFaults {
			r.minFaultBaseline = usage.minorFaults
			r.majFaultBaseline = usage.majorFaults
		}
	})
}
