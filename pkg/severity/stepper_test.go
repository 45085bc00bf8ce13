// SPDX-License-Identifier: Apache-2.0

package severity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountStepper_Sequence(t *testing.T) {
	s := NewCountStepper()

	want := []Level{
		LevelError, // 1
		LevelWarn, LevelWarn, LevelWarn, LevelWarn, LevelWarn, LevelWarn, LevelWarn, LevelWarn, // 2..9
		LevelSilent, LevelSilent, LevelSilent, // 10, 11, 12
	}

	for i, level := range want {
		missCount := i + 1
		assert.Equal(t, level, s.Severity(missCount), "miss count %d", missCount)
	}
}

func TestCountStepper_CustomThreshold(t *testing.T) {
	s := &CountStepper{WarnThreshold: 2}

	assert.Equal(t, LevelError, s.Severity(1))
	assert.Equal(t, LevelWarn, s.Severity(2))
	assert.Equal(t, LevelSilent, s.Severity(3))
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "silent", LevelSilent.String())
	assert.Equal(t, "unknown", Level(99).String())
}
