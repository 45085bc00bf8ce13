// SPDX-License-Identifier: Apache-2.0

package rtcore

import (
	"time"

	"github.com/rtcore-project/rtcore/pkg/rterr"
)

// ClockSetPeriod sets the system-wide clock tick used to round every
// task's period. If ns is zero it returns the current period (zero if
// unset) without changing anything. Otherwise it requires the period to be
// currently unset, rounds ns down to the nearest multiple of the
// monotonic clock's resolution, floors the result to one resolution tick,
// and stores it.
func (rt *Runtime) ClockSetPeriod(ns time.Duration) (time.Duration, error) {
	rt.clockMu.Lock()
	defer rt.clockMu.Unlock()

	if ns == 0 {
		return rt.clockPeriod, nil
	}

	if rt.clockSet {
		rt.logger.Error("attempt to set clock period twice")
		return 0, rterr.InvalidArgument("clock period already set")
	}

	res := monotonicResolution()
	period := (ns / res) * res
	if period < 1 {
		period = res
	}

	rt.clockPeriod = period
	rt.clockSet = true

	rt.logger.Debug("clock period set", "resolution", res, "period", period)

	return period, nil
}

// clockTick returns the currently stored clock period, or the runtime's
// configured default tick if the period has not been explicitly set.
func (rt *Runtime) clockTick() time.Duration {
	rt.clockMu.Lock()
	defer rt.clockMu.Unlock()

	if rt.clockSet {
		return rt.clockPeriod
	}
	return rt.config.ClockTick
}

// processEpoch anchors GetTime's arbitrary epoch. time.Since reads the
// monotonic clock, so GetTime is immune to wall-clock steps.
var processEpoch = time.Now()

// GetTime returns monotonic nanoseconds since an arbitrary epoch.
func GetTime() int64 {
	return time.Since(processEpoch).Nanoseconds()
}
