// SPDX-License-Identifier: Apache-2.0

package rtcore

import "sync"

// initBarrier is a one-shot, two-party rendezvous used only during
// task_start: the starter and the worker each arrive once, and the
// barrier is discarded immediately after both have. sync.WaitGroup
// initialized to 2 gives exactly that shape without a dedicated barrier
// type.
type initBarrier struct {
	wg sync.WaitGroup
}

// newInitBarrier creates a barrier for exactly two parties.
func newInitBarrier() *initBarrier {
	b := &initBarrier{}
	b.wg.Add(2)
	return b
}

// arrive signals this party has reached the barrier and blocks until the
// other party has too.
func (b *initBarrier) arrive() {
	b.wg.Done()
	b.wg.Wait()
}
