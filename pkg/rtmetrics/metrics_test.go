// SPDX-License-Identifier: Apache-2.0

package rtmetrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCollector_TaskLifecycle(t *testing.T) {
	c := NewInMemoryCollector()

	c.RecordTaskStart("servo")
	c.RecordTaskStart("encoder")
	c.RecordTaskStop("servo")

	stats := c.GetStats()
	assert.EqualValues(t, 2, stats.TotalTaskStarts)
	assert.EqualValues(t, 1, stats.ActiveTasks)
}

func TestInMemoryCollector_DeadlineMisses(t *testing.T) {
	c := NewInMemoryCollector()

	c.RecordDeadlineMiss("servo", 2*time.Millisecond)
	c.RecordDeadlineMiss("servo", 4*time.Millisecond)
	c.RecordDeadlineMiss("encoder", time.Millisecond)

	stats := c.GetStats()
	assert.EqualValues(t, 3, stats.TotalDeadlineMisses)
	assert.EqualValues(t, 2, stats.DeadlineMissesByTask["servo"])
	assert.EqualValues(t, 1, stats.DeadlineMissesByTask["encoder"])

	lateness := stats.LatenessByTask["servo"]
	assert.EqualValues(t, 2, lateness.Count)
	assert.Equal(t, 2*time.Millisecond, lateness.Min)
	assert.Equal(t, 4*time.Millisecond, lateness.Max)
	assert.Equal(t, 3*time.Millisecond, lateness.Average)
}

func TestInMemoryCollector_PageFaults(t *testing.T) {
	c := NewInMemoryCollector()

	c.RecordPageFaults("servo", 10, 1)
	c.RecordPageFaults("encoder", 5, 0)

	stats := c.GetStats()
	assert.EqualValues(t, 15, stats.TotalMinorFaults)
	assert.EqualValues(t, 1, stats.TotalMajorFaults)
}

func TestInMemoryCollector_Reset(t *testing.T) {
	c := NewInMemoryCollector()

	c.RecordTaskStart("servo")
	c.RecordDeadlineMiss("servo", time.Millisecond)
	c.RecordPageFaults("servo", 3, 0)

	c.Reset()

	stats := c.GetStats()
	assert.EqualValues(t, 0, stats.TotalTaskStarts)
	assert.EqualValues(t, 0, stats.TotalDeadlineMisses)
	assert.EqualValues(t, 0, stats.TotalMinorFaults)
	assert.Empty(t, stats.DeadlineMissesByTask)
}

func TestInMemoryCollector_ConcurrentAccess(t *testing.T) {
	c := NewInMemoryCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordDeadlineMiss("shared", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	stats := c.GetStats()
	assert.EqualValues(t, 800, stats.TotalDeadlineMisses)
	assert.EqualValues(t, 800, stats.DeadlineMissesByTask["shared"])
}

func TestDefaultCollector(t *testing.T) {
	original := GetDefaultCollector()
	t.Cleanup(func() { SetDefaultCollector(original) })

	c := NewInMemoryCollector()
	SetDefaultCollector(c)
	assert.Same(t, c, GetDefaultCollector())

	SetDefaultCollector(nil)
	require.NotNil(t, GetDefaultCollector())
	assert.IsType(t, &NoOpCollector{}, GetDefaultCollector())
}
