// SPDX-License-Identifier: Apache-2.0

package rtcore

import "time"

// TaskState mirrors the internal configured/running/draining lifecycle,
// exported for observers (internal/diag, CLI reports) that only ever read
// it, never drive it.
type TaskState int

const (
	// TaskConfigured marks a task admitted by NewTask but not yet started.
	TaskConfigured TaskState = iota

	// TaskRunning marks a task whose worker has completed its init
	// handshake and is in its periodic loop.
	TaskRunning

	// TaskDraining marks a task that has been stopped or has self-deleted
	// but not yet reaped by DeleteTask.
	TaskDraining
)

func (s TaskState) String() string {
	switch s {
	case TaskConfigured:
		return "configured"
	case TaskRunning:
		return "running"
	case TaskDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// ModuleInfo is a read-only view of one occupied module slot.
type ModuleInfo struct {
	Handle int
	Name   string
	State  ModuleState
}

// Modules returns a point-in-time snapshot of every occupied module slot,
// in slot order. It walks the same mutex-guarded table the registry
// itself uses and never blocks longer than that table's short critical
// section.
func (rt *Runtime) Modules() []ModuleInfo {
	var out []ModuleInfo
	rt.modules.each(func(idx int, rec moduleRecord) {
		out = append(out, ModuleInfo{
			Handle: idx + moduleOffset,
			Name:   rec.name,
			State:  rec.state,
		})
	})
	return out
}

// TaskInfo is a read-only view of one occupied task slot's canonical and
// lifecycle fields, without the mutable internals (barrier, join func)
// an external observer has no business touching.
type TaskInfo struct {
	ID                 int
	Name               string
	Owner              int
	State              TaskState
	CPU                int
	Priority           int
	Period             time.Duration
	Ratio              int64
	DeadlineScheduling bool
	OSThreadID         int
	MissedDeadlines    int64
	Destroyed          bool
	Deleted            bool
}

func taskInfoFromRecord(id int, rec taskRecord) TaskInfo {
	return TaskInfo{
		ID:                 id,
		Name:               rec.name,
		Owner:              rec.owner,
		State:              TaskState(rec.state),
		CPU:                rec.cpu,
		Priority:           rec.prio,
		Period:             rec.period,
		Ratio:              rec.ratio,
		DeadlineScheduling: rec.deadlineSched,
		OSThreadID:         rec.osThreadID,
		MissedDeadlines:    rec.missedDeadlines,
		Destroyed:          rec.destroyed,
		Deleted:            rec.deleted,
	}
}

// Tasks returns a point-in-time snapshot of every occupied task slot, in
// slot order (slot index doubles as task id).
func (rt *Runtime) Tasks() []TaskInfo {
	var out []TaskInfo
	rt.tasks.each(func(idx int, rec taskRecord) {
		out = append(out, taskInfoFromRecord(idx, rec))
	})
	return out
}

// TaskInfoByID returns the snapshot view of a single task, or false if the
// handle does not resolve to an occupied slot.
func (rt *Runtime) TaskInfoByID(id int) (TaskInfo, bool) {
	rec, ok := rt.tasks.get(id)
	if !ok {
		return TaskInfo{}, false
	}
	return taskInfoFromRecord(id, rec), true
}

// TaskStatsByID returns the most recently published resource-usage
// snapshot for task id, without forcing a refresh. RefreshStats returns
// the same snapshot; only the task's own worker thread resamples it.
func (rt *Runtime) TaskStatsByID(id int) (TaskStats, bool) {
	rec, ok := rt.tasks.get(id)
	if !ok {
		return TaskStats{}, false
	}
	return rec.stats, true
}
