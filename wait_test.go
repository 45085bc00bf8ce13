// SPDX-License-Identifier: Apache-2.0

package rtcore

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtcore-project/rtcore/pkg/rtconfig"
)

// TestDeadlineAccounting drives (*Runtime).wait directly with deadlines
// already in the past, so sleepAbsolute never actually blocks: every
// iteration is an unambiguous, deterministic miss. This checks the whole
// deadline-accounting path (failure counter, exception dispatch, task id
// correlation) for a chronically overloaded task without depending on real
// scheduler wake-up precision.
func TestDeadlineAccounting(t *testing.T) {
	cfg := rtconfig.NewDefault()
	cfg.Simulator = false // isRealtimeFlavor requires this on a Linux build

	var mu sync.Mutex
	var invocations []ExceptionDetail

	rt, err := New(cfg, WithoutStackJanitor(), WithExceptionHandler(func(kind ExceptionKind, detail ExceptionDetail) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, ExceptionDeadlineMissed, kind)
		invocations = append(invocations, detail)
	}))
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	const period = 10 * time.Millisecond
	const cycles = 12

	id, ok := rt.tasks.allocate(taskRecord{
		name:     "overloaded",
		period:   period,
		nextWake: time.Now().Add(-(cycles + 1) * period), // every deadline of the run is already due
	})
	require.True(t, ok)

	for i := 0; i < cycles; i++ {
		rt.wait(id)
	}

	info, ok := rt.TaskInfoByID(id)
	require.True(t, ok)
	assert.EqualValues(t, cycles, info.MissedDeadlines, "every cycle of a chronically overloaded task must be counted")

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, invocations, cycles)
	for _, d := range invocations {
		assert.Equal(t, id, d.TaskID)
	}
}

// TestWait_ComparesAgainstPreAdvanceDeadline pins down which deadline miss
// detection uses: the deadline just slept to (pre-advance) must be what's
// compared against, not the deadline just computed for the next cycle
// (post-advance). The fixture is built so the two give opposite answers:
// the pre-advance deadline already lies in the past, but the post-advance
// one (pre-advance + period) still lies in the future.
func TestWait_ComparesAgainstPreAdvanceDeadline(t *testing.T) {
	rt := newTestRuntime(t, nil)

	const period = 100 * time.Millisecond
	preAdvance := time.Now().Add(-40 * time.Millisecond)
	postAdvance := preAdvance.Add(period) // 60ms in the future

	id, ok := rt.tasks.allocate(taskRecord{
		name:     "late-once",
		period:   period,
		nextWake: preAdvance,
	})
	require.True(t, ok)

	require.True(t, time.Now().Before(postAdvance), "fixture invariant: the post-advance deadline must still be in the future")

	rt.wait(id)

	info, ok := rt.TaskInfoByID(id)
	require.True(t, ok)
	assert.EqualValues(t, 1, info.MissedDeadlines, "comparing against the pre-advance deadline must detect this as late")

	rec, ok := rt.tasks.get(id)
	require.True(t, ok)
	assert.WithinDuration(t, postAdvance, rec.nextWake, time.Millisecond)
}

// TestWait_OnTimeCycleIsNotCounted checks the converse: a task whose
// pre-advance deadline is still ahead of the current time must not be
// flagged, regardless of how far in the future it lies.
func TestWait_OnTimeCycleIsNotCounted(t *testing.T) {
	rt := newTestRuntime(t, nil)

	const period = 5 * time.Millisecond

	id, ok := rt.tasks.allocate(taskRecord{
		name:     "on-time",
		period:   period,
		nextWake: time.Now().Add(period),
	})
	require.True(t, ok)

	rt.wait(id)

	info, ok := rt.TaskInfoByID(id)
	require.True(t, ok)
	assert.EqualValues(t, 0, info.MissedDeadlines)
}
