// SPDX-License-Identifier: Apache-2.0

//go:build linux

package rtcore

import (
	"time"

	"golang.org/x/sys/unix"
)

// threadUsage is the subset of per-thread resource usage C5 accounts for.
type threadUsage struct {
	userTime               time.Duration
	systemTime             time.Duration
	voluntaryCtxSwitches   int64
	involuntaryCtxSwitches int64
	signals                int64
	minorFaults            int64
	majorFaults            int64
}

// monotonicResolution queries CLOCK_MONOTONIC's resolution, the divisor
// clock_set_period rounds requested periods against.
func monotonicResolution() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGetres(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Microsecond
	}
	d := time.Duration(ts.Sec)*time.Second + time.Duration(ts.Nsec)
	if d <= 0 {
		return time.Nanosecond
	}
	return d
}

// sleepAbsolute sleeps until deadline on CLOCK_MONOTONIC. The deadline
// carries Go's monotonic reading, so the remaining duration is mapped onto
// the kernel's monotonic timeline and slept to absolutely; EINTR restarts
// resume the same absolute target rather than accumulating drift. Under
// SCHED_DEADLINE the kernel's own interval-wait primitive isn't exposed by
// x/sys/unix, so the absolute clock_nanosleep path serves both scheduling
// strategies; it gives the same target-time semantics the dedicated
// primitive would.
func sleepAbsolute(deadline time.Time, deadlineScheduling bool) {
	d := time.Until(deadline)
	if d <= 0 {
		return
	}

	var now unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &now); err != nil {
		time.Sleep(d)
		return
	}

	target := unix.NsecToTimespec(unix.TimespecToNsec(now) + d.Nanoseconds())
	for {
		err := unix.ClockNanosleep(unix.CLOCK_MONOTONIC, unix.TIMER_ABSTIME, &target, nil)
		if err != unix.EINTR {
			return
		}
	}
}

// threadResourceUsage samples the calling thread's own resource usage via
// RUSAGE_THREAD. The task id is accepted for interface symmetry with the
// non-Linux flavor, which has no per-thread usage call at all.
func threadResourceUsage(id int) (threadUsage, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_THREAD, &ru); err != nil {
		return threadUsage{}, err
	}

	return threadUsage{
		userTime:               time.Duration(ru.Utime.Sec)*time.Second + time.Duration(ru.Utime.Usec)*time.Microsecond,
		systemTime:             time.Duration(ru.Stime.Sec)*time.Second + time.Duration(ru.Stime.Usec)*time.Microsecond,
		voluntaryCtxSwitches:   int64(ru.Nvcsw),
		involuntaryCtxSwitches: int64(ru.Nivcsw),
		signals:                int64(ru.Nsignals),
		minorFaults:            int64(ru.Minflt),
		majorFaults:            int64(ru.Majflt),
	}, nil
}
