// SPDX-License-Identifier: Apache-2.0

package rtcore

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rtcore-project/rtcore/pkg/rterr"
)

// moduleOffset is added to a module's slot index to produce its external
// handle, keeping module and task ids from overlapping in caller-facing
// APIs.
const moduleOffset = 32768

// ModuleState describes a module slot's lifecycle state.
type ModuleState int

const (
	// ModuleFree marks an unoccupied module slot.
	ModuleFree ModuleState = iota

	// ModuleRealtime marks a module slot reserved by init.
	ModuleRealtime
)

// moduleRecord is the data stored in a module slot.
type moduleRecord struct {
	state ModuleState
	name  string
}

// Init reserves a module slot and returns its external handle (slot index
// plus moduleOffset). If name is empty, a name of the form "ULMOD%03d" is
// synthesized from the slot index. The stored name is truncated to the
// runtime's configured NameLen.
func (rt *Runtime) Init(name string) (int, error) {
	idx, ok := rt.modules.allocate(moduleRecord{})
	if !ok {
		return 0, rterr.NoRoom("no free module slot")
	}

	if name == "" {
		name = fmt.Sprintf("ULMOD%03d", idx)
	}
	if len(name) > rt.config.NameLen {
		name = name[:rt.config.NameLen]
	}

	rt.modules.update(idx, moduleRecord{state: ModuleRealtime, name: name})

	handle := idx + moduleOffset
	rt.logger.Debug("module loaded", "module", name, "handle", handle)

	return handle, nil
}

// Exit releases the module slot identified by handle. It reports only
// whether the handle was in range; there is no other failure mode.
func (rt *Runtime) Exit(handle int) error {
	idx := handle - moduleOffset
	if idx < 0 || idx >= rt.modules.capacity() {
		return rterr.BadHandle("module handle out of range")
	}

	rt.modules.free(idx)
	rt.logger.Debug("module unloaded", "handle", handle)

	return nil
}

// ModuleName returns the display name for a module handle, including
// synthesized names, title-cased for human-facing output.
func (rt *Runtime) ModuleName(handle int) (string, error) {
	idx := handle - moduleOffset
	rec, ok := rt.modules.get(idx)
	if !ok || rec.state != ModuleRealtime {
		return "", rterr.BadHandle("module handle out of range")
	}

	caser := cases.Title(language.English)
	return caser.String(rec.name), nil
}
