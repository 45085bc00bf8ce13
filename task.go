// SPDX-License-Identifier: Apache-2.0

package rtcore

import (
	"time"

	"github.com/rtcore-project/rtcore/pkg/rterr"
)

// minStackSize is the 16 KiB floor every task's stack is clamped to.
const minStackSize = 16 * 1024

// TaskFunc is the entry function a task runs. It receives the opaque
// argument supplied to NewTask and must call Wait once per cycle;
// it must never return except on a genuine, logged error.
type TaskFunc func(arg any)

// taskState tracks where a task slot is in its lifecycle: configured,
// running, draining (free is simply "unoccupied slot").
type taskState int

const (
	taskConfigured taskState = iota
	taskRunning
	taskDraining
)

// taskRecord is the data stored in a task slot: canonical fields set at
// New, and extended fields mutated across the task's lifetime.
type taskRecord struct {
	// Canonical fields.
	name    string
	owner   int
	entry   TaskFunc
	arg     any
	prio    int
	cpu     int
	stack   []byte
	usesFP  bool
	period  time.Duration
	ratio   int64

	// Extended fields.
	state             taskState
	barrier           *initBarrier
	join              func()
	osThreadID        int
	nextWake          time.Time
	deadlineSched     bool
	destroyed         bool
	deleted           bool
	missedDeadlines   int64
	minFaultBaseline  int64
	majFaultBaseline  int64
	startupMinFaults  int64
	startupMajFaults  int64
	stats             TaskStats
}

// NewTask admits a task specification: it clamps and allocates the stack,
// reserves a task slot, validates the requested priority, and records the
// description. No thread is created; the task is in the configured state.
func (rt *Runtime) NewTask(entry TaskFunc, arg any, prio, owner int, stack int, usesFP bool, name string, cpu int) (int, error) {
	stackSize := stack
	if stackSize < minStackSize {
		stackSize = minStackSize
	}
	buf := rt.pool.Get(stackSize)

	idx, ok := rt.tasks.allocate(taskRecord{})
	if !ok {
		rt.pool.Put(buf)
		return 0, rterr.New(rterr.CodeNoMemory, "no free task slot")
	}

	highest, lowest := rt.PrioHighest(), rt.PrioLowest()
	if prio < lowest || prio > highest {
		rt.tasks.free(idx)
		rt.pool.Put(buf)
		rt.logger.Error("invalid task priority",
			"task", idx, "name", name, "prio", prio, "highest", highest, "lowest", lowest)
		return 0, rterr.InvalidArgument("priority out of range")
	}

	if len(name) > rt.config.NameLen {
		name = name[:rt.config.NameLen]
	}

	rec := taskRecord{
		name:   name,
		owner:  owner,
		entry:  entry,
		arg:    arg,
		prio:   prio,
		cpu:    cpu,
		stack:  buf,
		usesFP: usesFP,
		state:  taskConfigured,
	}
	rec.stats.TaskID = idx
	rt.tasks.update(idx, rec)

	rt.logger.Debug("task created", "task", idx, "name", name, "prio", prio, "cpu", cpu)

	return idx, nil
}

// DeleteTask validates the slot, joins the worker thread if it is still
// active, frees the stack, and clears the slot. After return the id is
// reusable.
func (rt *Runtime) DeleteTask(id int) error {
	rec, ok := rt.tasks.get(id)
	if !ok {
		return rterr.BadHandle("task handle out of range")
	}

	if rec.state == taskRunning || rec.state == taskDraining {
		rt.tasks.mutate(id, func(r *taskRecord) {
			r.deleted = true
			r.state = taskDraining
		})
		if rec.join != nil {
			rec.join()
		}
	}

	if buf := rec.stack; buf != nil {
		rt.pool.Put(buf)
	}
	rt.tasks.free(id)

	rt.logger.Debug("task deleted", "task", id)

	return nil
}

// StartTask spawns the realtime worker for task id with the given period,
// clamped upward to the clock tick, and waits for the worker to finish its
// init handshake.
func (rt *Runtime) StartTask(id int, periodNs time.Duration) error {
	if _, ok := rt.tasks.get(id); !ok {
		return rterr.BadHandle("task handle out of range")
	}

	tick := rt.clockTick()
	if periodNs < tick {
		periodNs = tick
	}

	barrier := newInitBarrier()
	rt.tasks.mutate(id, func(r *taskRecord) {
		r.period = periodNs
		r.deleted = false
		r.destroyed = false
		r.barrier = barrier
		r.state = taskRunning
	})

	rt.spawnWorker(id)

	barrier.arrive()

	// The handshake is over; the barrier is single-use.
	rt.tasks.mutate(id, func(r *taskRecord) {
		r.barrier = nil
	})

	rec, _ := rt.tasks.get(id)
	if rec.deleted {
		rt.logger.Error("realtime thread initialization failed", "task", id)
		return rterr.New(rterr.CodeNoMemory, "worker initialization failed")
	}

	return nil
}

// StopTask validates the handle and sets the destroyed flag. It does not
// join the thread; joining is DeleteTask's responsibility. The worker observes
// destroyed or deleted at its next wait and exits its loop.
func (rt *Runtime) StopTask(id int) error {
	ok := rt.tasks.mutate(id, func(r *taskRecord) {
		r.destroyed = true
		if r.state == taskRunning {
			r.state = taskDraining
		}
	})
	if !ok {
		return rterr.BadHandle("task handle out of range")
	}
	return nil
}

// SetTaskPeriod updates the period field only, clamped upward to the clock
// tick; it takes effect on the task's next wait, not immediately.
func (rt *Runtime) SetTaskPeriod(id int, period time.Duration) error {
	if tick := rt.clockTick(); period < tick {
		period = tick
	}
	ok := rt.tasks.mutate(id, func(r *taskRecord) {
		r.period = period
	})
	if !ok {
		return rterr.BadHandle("task handle out of range")
	}
	return nil
}

// PauseTask validates the handle and returns an unsupported error; pause is
// reserved for API symmetry with a higher-level system but never
// implemented, per spec.
func (rt *Runtime) PauseTask(id int) error {
	if _, ok := rt.tasks.get(id); !ok {
		return rterr.BadHandle("task handle out of range")
	}
	return rterr.Unsupported("task pause is not supported")
}

// ResumeTask validates the handle and returns an unsupported error,
// mirroring PauseTask.
func (rt *Runtime) ResumeTask(id int) error {
	if _, ok := rt.tasks.get(id); !ok {
		return rterr.BadHandle("task handle out of range")
	}
	return rterr.Unsupported("task resume is not supported")
}
