// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rtcore-project/rtcore"
	"github.com/rtcore-project/rtcore/pkg/rtconfig"
)

// newTestRuntime builds a simulator-flavor runtime with one module and one
// running task, matching the shape cmd/rtcorectl's demo runtime uses.
func newTestRuntime(t *testing.T) (*rtcore.Runtime, int) {
	t.Helper()

	cfg := rtconfig.NewDefault()
	cfg.Simulator = true

	rt, err := rtcore.New(cfg, rtcore.WithoutStackJanitor())
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	owner, err := rt.Init("diag-test")
	require.NoError(t, err)

	id, err := rt.NewTask(func(any) { rtcore.Wait() }, nil, rt.PrioLowest(), owner, 0, false, "watched", -1)
	require.NoError(t, err)
	require.NoError(t, rt.StartTask(id, 5*time.Millisecond))

	t.Cleanup(func() {
		_ = rt.StopTask(id)
		_ = rt.DeleteTask(id)
		_ = rt.Exit(owner)
	})

	return rt, id
}

func TestObserver_Snapshot(t *testing.T) {
	rt, id := newTestRuntime(t)
	observer := NewObserver(rt, nil)

	report := observer.Snapshot("req-1")
	require.Equal(t, "req-1", report.RequestID)
	require.Len(t, report.Modules, 1)
	require.Len(t, report.Tasks, 1)
	require.Equal(t, id, report.Tasks[0].ID)
}

func TestObserver_TaskStats(t *testing.T) {
	rt, id := newTestRuntime(t)
	observer := NewObserver(rt, nil)

	stats, err := observer.TaskStats(id)
	require.NoError(t, err)
	require.Equal(t, id, stats.TaskID)

	_, err = observer.TaskStats(id + 1000)
	require.Error(t, err)
}

func TestServer_HandleModules(t *testing.T) {
	rt, _ := newTestRuntime(t)
	server := NewServer(NewObserver(rt, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/modules", nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	var body struct {
		Modules []rtcore.ModuleInfo `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Modules, 1)
}

func TestServer_HandleTasks(t *testing.T) {
	rt, id := newTestRuntime(t)
	server := NewServer(NewObserver(rt, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var report SnapshotReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	require.Len(t, report.Tasks, 1)
	require.Equal(t, id, report.Tasks[0].ID)
}

func TestServer_HandleTaskStats(t *testing.T) {
	rt, id := newTestRuntime(t)
	server := NewServer(NewObserver(rt, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/tasks/bogus/stats", nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/tasks/"+strconv.Itoa(id)+"/stats", nil)
	rr = httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}
