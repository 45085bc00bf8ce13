// SPDX-License-Identifier: Apache-2.0

package rtcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtcore-project/rtcore/pkg/rtconfig"
)

func newTestRuntime(t *testing.T, mutate func(*rtconfig.Config)) *Runtime {
	t.Helper()

	cfg := rtconfig.NewDefault()
	cfg.Simulator = true
	if mutate != nil {
		mutate(cfg)
	}

	rt, err := New(cfg, WithoutStackJanitor())
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

func TestInitExit_RoundTrip(t *testing.T) {
	rt := newTestRuntime(t, nil)

	before := rt.modules.count()

	handle, err := rt.Init("controller")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, handle, moduleOffset)

	name, err := rt.ModuleName(handle)
	require.NoError(t, err)
	assert.Equal(t, "Controller", name)

	require.NoError(t, rt.Exit(handle))
	assert.Equal(t, before, rt.modules.count(), "init/exit must leave the module slot count unchanged")

	_, err = rt.ModuleName(handle)
	assert.Error(t, err, "a released handle must no longer resolve")
}

func TestInit_SynthesizesNameWhenEmpty(t *testing.T) {
	rt := newTestRuntime(t, nil)

	handle, err := rt.Init("")
	require.NoError(t, err)

	name, err := rt.ModuleName(handle)
	require.NoError(t, err)
	assert.Regexp(t, `^Ulmod\d{3}$`, name)
}

func TestExit_RejectsUnknownHandle(t *testing.T) {
	rt := newTestRuntime(t, nil)

	err := rt.Exit(12345)
	assert.Error(t, err)
}

func TestInit_NameTruncatedToConfiguredLength(t *testing.T) {
	rt := newTestRuntime(t, func(c *rtconfig.Config) { c.NameLen = 4 })

	handle, err := rt.Init("averylongmodulename")
	require.NoError(t, err)

	name, err := rt.ModuleName(handle)
	require.NoError(t, err)
	assert.Len(t, name, 4)
}
