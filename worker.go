// SPDX-License-Identifier: Apache-2.0

package rtcore

import (
	"runtime"
	"time"

	"github.com/rtcore-project/rtcore/internal/tlocal"
	"github.com/rtcore-project/rtcore/pkg/logging"
)

// boundTask is what tlocal binds for the lifetime of a worker goroutine:
// enough to resolve Wait() calls back to this runtime and this task's
// slot index without the task body ever passing its own handle.
type boundTask struct {
	rt *Runtime
	id int
}

// spawnWorker starts the goroutine that will run task id's realtime
// worker routine. The goroutine locks itself to its OS thread for its
// entire lifetime, matching "one thread per task."
func (rt *Runtime) spawnWorker(id int) {
	done := make(chan struct{})
	rt.tasks.mutate(id, func(r *taskRecord) {
		r.join = func() { <-done }
	})

	go func() {
		defer close(done)
		// The worker renames its thread and mutates its affinity and
		// scheduling policy. Exiting with the lock still held makes the
		// runtime discard the polluted thread instead of recycling it.
		runtime.LockOSThread()
		rt.runWorker(id)
	}()
}

// runWorker is the realtime worker routine: bind thread-local state, pin
// affinity, negotiate scheduling policy, signal the barrier, seed
// next-wake, reset fault counters, publish initial stats, and invoke the
// task entry. If the entry function returns, that is itself an error: a
// realtime loop must not terminate on its own.
func (rt *Runtime) runWorker(id int) {
	rec, ok := rt.tasks.get(id)
	if !ok {
		return
	}

	tlocal.Bind(&boundTask{rt: rt, id: id})
	defer tlocal.Unbind()

	logger := logging.WithTask(rt.logger, id, rec.name)

	nameThread(rec.name)

	tick := rt.clockTick()
	period := rec.period
	if period < tick {
		period = tick
	}
	ratio := int64(period / tick)

	osTID := currentThreadID()

	rt.tasks.mutate(id, func(r *taskRecord) {
		r.period = period
		r.ratio = ratio
		r.osThreadID = osTID
	})

	barrier := rec.barrier

	if err := setWorkerAffinity(rec.cpu, rec.name); err != nil {
		logger.Error("failed to set CPU affinity", "error", err)
		rt.failInit(id, barrier)
		return
	}

	deadlineScheduling := false
	if rt.isRealtimeFlavor() {
		installOverrunHandler(rt.logger)
		var err error
		deadlineScheduling, err = setWorkerScheduling(rec.prio, period, rt.config.DeadlineRuntimeBudget)
		if err != nil {
			logger.Error("failed to set scheduling policy", "error", err)
			rt.failInit(id, barrier)
			return
		}
	}

	rt.tasks.mutate(id, func(r *taskRecord) {
		r.deadlineSched = deadlineScheduling
	})

	barrier.arrive()

	now := time.Now()
	rt.tasks.mutate(id, func(r *taskRecord) {
		r.nextWake = now.Add(period)
	})

	usage, err := threadResourceUsage(id)
	if err == nil {
		rt.resetPagefaultCount(id, usage)
		rt.tasks.mutate(id, func(r *taskRecord) {
			r.startupMinFaults = usage.minorFaults
			r.startupMajFaults = usage.majorFaults
		})
	}
	rt.updateStats(id)

	if rt.metrics != nil {
		rt.metrics.RecordTaskStart(rec.name)
	}

	rec, _ = rt.tasks.get(id)
	rec.entry(rec.arg)

	logger.Error("realtime thread for task returned unexpectedly")
	rt.tasks.mutate(id, func(r *taskRecord) {
		r.deleted = true
		r.state = taskDraining
	})
	if rt.metrics != nil {
		rt.metrics.RecordTaskStop(rec.name)
	}
}

// failInit marks the task deleted and opens the barrier so the starter
// observes the failure instead of blocking forever.
func (rt *Runtime) failInit(id int, barrier *initBarrier) {
	rt.tasks.mutate(id, func(r *taskRecord) {
		r.deleted = true
		r.state = taskDraining
	})
	barrier.arrive()
}

// isRealtimeFlavor reports whether this runtime should negotiate elevated
// scheduling and dispatch exceptions: the realtime flavor on Linux, unless
// the caller explicitly forced the simulator flavor.
func (rt *Runtime) isRealtimeFlavor() bool {
	return hasRealtimeScheduling() && !rt.config.Simulator
}
