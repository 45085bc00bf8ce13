// SPDX-License-Identifier: Apache-2.0

package rtconfig

import "errors"

var (
	// ErrInvalidMaxModules is returned when the module slot-table capacity
	// is not positive.
	ErrInvalidMaxModules = errors.New("max modules must be greater than 0")

	// ErrInvalidMaxTasks is returned when the task slot-table capacity is
	// not positive.
	ErrInvalidMaxTasks = errors.New("max tasks must be greater than 0")

	// ErrInvalidNameLen is returned when the name length limit is not
	// positive.
	ErrInvalidNameLen = errors.New("name length must be greater than 0")

	// ErrInvalidClockTick is returned when the clock tick is not positive.
	ErrInvalidClockTick = errors.New("clock tick must be greater than 0")

	// ErrInvalidDeadlineBudget is returned when the deadline runtime budget
	// is negative.
	ErrInvalidDeadlineBudget = errors.New("deadline runtime budget must not be negative")
)
