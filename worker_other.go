// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package rtcore

import (
	"time"

	"github.com/rtcore-project/rtcore/pkg/logging"
)

// hasRealtimeScheduling is false on non-Linux builds: no affinity or
// scheduling-policy APIs are negotiated, matching the non-privileged
// simulator flavor.
func hasRealtimeScheduling() bool { return false }

// The portable SCHED_FIFO range (1-99) is used as a fixed bound since
// there is no scheduler to query on this flavor.
func schedFIFOHighest() int { return 99 }
func schedFIFOLowest() int  { return 1 }

// nameThread is a no-op: there is no portable thread-naming facility this
// flavor can rely on.
func nameThread(name string) {}

// currentThreadID has no portable analogue outside Linux; zero signals
// "not applicable" to diagnostics consumers.
func currentThreadID() int { return 0 }

// setWorkerAffinity is a no-op on the simulator flavor: best-effort
// pinning beyond what the Go scheduler already does is not available
// portably.
func setWorkerAffinity(cpu int, name string) error { return nil }

// setWorkerScheduling never runs on this flavor: isRealtimeFlavor is
// always false when hasRealtimeScheduling is false, so this exists only to
// satisfy callers that type-check against it in shared code.
func setWorkerScheduling(prio int, period time.Duration, runtimeBudget time.Duration) (bool, error) {
	return false, nil
}

// installOverrunHandler is a no-op: only the SCHED_DEADLINE path has a
// runtime budget for the kernel to signal overruns of.
func installOverrunHandler(logger logging.Logger) {}
