// SPDX-License-Identifier: Apache-2.0

// Package severity decides how loudly rtcore should report a task's
// deadline misses as they accumulate: the first miss is always reported,
// the next several are downgraded, and a chronically-missing task goes
// quiet rather than flooding its exception handler.
package severity

// Level is the severity a Stepper assigns to one deadline miss.
type Level int

const (
	// LevelError is returned for a task's first observed deadline miss.
	LevelError Level = iota

	// LevelWarn is returned while a task is still within its warning
	// budget after the first miss.
	LevelWarn

	// LevelSilent is returned once a task has exceeded its warning budget;
	// the miss is still counted but not reported.
	LevelSilent
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// Stepper is the interface for deadline-miss severity decisions.
type Stepper interface {
	// Severity returns the level for the nth deadline miss of a task,
	// where missCount is 1 for the first miss, 2 for the second, and so
	// on.
	Severity(missCount int) Level
}

// CountStepper implements the stock rtcore policy: miss 1 is an error,
// misses 2 through warnThreshold are warnings, everything after that is
// silent.
type CountStepper struct {
	// WarnThreshold is the last miss count still reported as a warning.
	WarnThreshold int
}

// NewCountStepper creates a stepper with rtcore's default budget: the
// first miss is loud, the next eight are warnings, the rest are silent.
func NewCountStepper() *CountStepper {
	return &CountStepper{WarnThreshold: 9}
}

// Severity implements Stepper.
func (s *CountStepper) Severity(missCount int) Level {
	switch {
	case missCount <= 1:
		return LevelError
	case missCount <= s.WarnThreshold:
		return LevelWarn
	default:
		return LevelSilent
	}
}
