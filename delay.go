// SPDX-License-Identifier: Apache-2.0

package rtcore

import "time"

// Delay sleeps for a relative duration, independent of any task's
// periodic wait loop. It has no interaction with the task tables and is
// safe to call from any goroutine, including outside a task entry
// function, for short in-cycle delays.
func Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
