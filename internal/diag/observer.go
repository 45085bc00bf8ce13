// SPDX-License-Identifier: Apache-2.0

// Package diag is rtcore's observability surface: a read-only observer of
// a *rtcore.Runtime's already-public state, exposed over HTTP and
// WebSocket. It never participates in task admission, start, wait, or
// teardown, and lives in its own package the core never imports.
package diag

import (
	"context"
	"time"

	"github.com/rtcore-project/rtcore"
	"github.com/rtcore-project/rtcore/pkg/logging"
)

// SnapshotReport is a point-in-time view of every occupied module and task slot,
// stamped with a request id for log correlation.
type SnapshotReport struct {
	RequestID   string              `json:"request_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Modules     []rtcore.ModuleInfo `json:"modules"`
	Tasks       []rtcore.TaskInfo   `json:"tasks"`
}

// Observer walks a Runtime's slot tables through its public accessors —
// no new locking, no access to unexported state. A Snapshot is a single
// pass over already mutex-guarded reads, never a lock held across I/O.
type Observer struct {
	rt     *rtcore.Runtime
	logger logging.Logger
}

// NewObserver creates an Observer for rt. A nil logger uses
// logging.NoOpLogger.
func NewObserver(rt *rtcore.Runtime, logger logging.Logger) *Observer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Observer{rt: rt, logger: logger}
}

// Snapshot returns the current modules and tasks, stamped with the given
// request id.
func (o *Observer) Snapshot(requestID string) SnapshotReport {
	return SnapshotReport{
		RequestID:   requestID,
		GeneratedAt: time.Now(),
		Modules:     o.rt.Modules(),
		Tasks:       o.rt.Tasks(),
	}
}

// TaskStats returns a single task's most recently published resource-usage
// stats: the out-of-band read path for polling a task between its own
// wakeups.
func (o *Observer) TaskStats(id int) (rtcore.TaskStats, error) {
	return o.rt.RefreshStats(context.Background(), id)
}
