// SPDX-License-Identifier: Apache-2.0

//go:build linux

package rtcore

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/rtcore-project/rtcore/pkg/logging"
)

// hasRealtimeScheduling reports that this build can negotiate elevated
// scheduling policies at all; Config.Simulator still gates whether a given
// Runtime actually does.
func hasRealtimeScheduling() bool { return true }

func schedFIFOHighest() int {
	prio, err := unix.SchedGetPriorityMax(unix.SCHED_FIFO)
	if err != nil {
		return 99
	}
	return prio
}

func schedFIFOLowest() int {
	prio, err := unix.SchedGetPriorityMin(unix.SCHED_FIFO)
	if err != nil {
		return 1
	}
	return prio
}

// nameThread sets the calling OS thread's name via prctl(PR_SET_NAME) so
// the worker is identifiable in ps/top.
func nameThread(name string) {
	if name == "" {
		return
	}
	if len(name) > 15 {
		name = name[:15]
	}
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(firstByte(name)), 0, 0, 0)
}

// firstByte returns a pointer to a NUL-terminated copy of s, suitable for
// passing to Prctl's name argument.
func firstByte(s string) uintptr {
	b := append([]byte(s), 0)
	return uintptr(unsafe.Pointer(&b[0]))
}

func currentThreadID() int {
	return unix.Gettid()
}

// setWorkerAffinity pins the calling thread to a single CPU: the
// caller-requested one if set, or the highest-numbered CPU in the
// thread's current allowed set otherwise.
func setWorkerAffinity(cpu int, name string) error {
	var current unix.CPUSet
	if err := unix.SchedGetaffinity(0, &current); err != nil {
		return fmt.Errorf("getaffinity: %w", err)
	}

	useCPU := -1
	if cpu > -1 {
		if !current.IsSet(cpu) {
			return fmt.Errorf("CPU %d not available for task %s", cpu, name)
		}
		useCPU = cpu
	} else {
		for n := int(unsafe.Sizeof(current))*8 - 1; n >= 0; n-- {
			if current.IsSet(n) {
				useCPU = n
				break
			}
		}
		if useCPU < 0 {
			return fmt.Errorf("unable to determine default CPU for task %s", name)
		}
	}

	var set unix.CPUSet
	set.Set(useCPU)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("setaffinity CPU %d: %w", useCPU, err)
	}
	return nil
}

// sched_attr mirrors struct sched_attr from <linux/sched/types.h>; there
// is no x/sys/unix wrapper for SCHED_DEADLINE, so the syscall is invoked
// directly with a hand-built struct, the same approach used elsewhere in
// the ecosystem for syscalls x/sys doesn't cover.
type schedAttr struct {
	size       uint32
	policy     uint32
	flags      uint64
	nice       int32
	priority   uint32
	runtime    uint64
	deadline   uint64
	period     uint64
}

const (
	schedDeadline = 6

	// SCHED_FLAG_DL_OVERRUN asks the kernel to deliver SIGXCPU when a
	// SCHED_DEADLINE task exceeds its runtime budget.
	schedFlagDLOverrun = 0x04
)

// The overrun handler is installed process-wide exactly once; on delivery
// it writes only the already-printed flag and one log line.
var (
	overrunOnce    sync.Once
	overrunPrinted atomic.Bool
)

func installOverrunHandler(logger logging.Logger) {
	overrunOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, unix.SIGXCPU)
		go func() {
			for range ch {
				if overrunPrinted.CompareAndSwap(false, true) {
					logger.Warn("deadline runtime budget overrun (SIGXCPU)")
				}
			}
		}()
	})
}

// setWorkerScheduling attempts SCHED_DEADLINE first; on any failure it
// falls back to fixed-priority SCHED_FIFO, which is fatal if it too
// fails.
func setWorkerScheduling(prio int, period time.Duration, runtimeBudget time.Duration) (deadlineScheduling bool, err error) {
	attr := schedAttr{
		size:     uint32(unsafe.Sizeof(schedAttr{})),
		policy:   schedDeadline,
		flags:    schedFlagDLOverrun,
		runtime:  uint64(runtimeBudget.Nanoseconds()),
		deadline: uint64(period.Nanoseconds()),
		period:   uint64(period.Nanoseconds()),
	}

	_, _, errno := unix.Syscall(sysSchedSetattr, 0, uintptr(unsafe.Pointer(&attr)), 0)
	if errno == 0 {
		return true, nil
	}

	var schedp unix.SchedParam
	schedp.Priority = int32(prio)
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, &schedp); err != nil {
		return false, fmt.Errorf("SCHED_FIFO rejected: %w", err)
	}
	return false, nil
}
