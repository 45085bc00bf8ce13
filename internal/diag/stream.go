// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// DefaultWatchInterval is how often a task-stats watch pushes a frame
// when the caller doesn't override it via the ?interval_ms= query
// parameter.
const DefaultWatchInterval = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// watchFrame is one message pushed down a task-stats watch connection.
type watchFrame struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error,omitempty"`
	Stats     any    `json:"stats,omitempty"`
}

// handleTaskWatch serves GET /v1/tasks/{id}/watch: a WebSocket endpoint
// that reads and pushes a task's most recently published stats once per
// tick until the client disconnects.
func (s *Server) handleTaskWatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "task id must be an integer")
		return
	}

	interval := DefaultWatchInterval
	if raw := r.URL.Query().Get("interval_ms"); raw != "" {
		if ms, convErr := strconv.Atoi(raw); convErr == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "task", id, "error", err)
		return
	}
	defer conn.Close()

	requestID := requestIDFrom(r)
	s.pollTaskStats(r.Context(), conn, id, interval, requestID)
}

// pollTaskStats is the watch connection's poll loop: one tick, one
// read, one frame, until the client disconnects or the ticker's
// context is cancelled.
func (s *Server) pollTaskStats(ctx context.Context, conn *websocket.Conn, id int, interval time.Duration, requestID string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.writeFrame(conn, id, requestID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.writeFrame(conn, id, requestID) {
				return
			}
		}
	}
}

// writeFrame reads task id's published stats and writes one frame; it reports
// false if the connection should be torn down (write failure).
func (s *Server) writeFrame(conn *websocket.Conn, id int, requestID string) bool {
	frame := watchFrame{RequestID: requestID}

	stats, err := s.observer.TaskStats(id)
	if err != nil {
		frame.Error = err.Error()
	} else {
		frame.Stats = stats
	}

	if err := conn.WriteJSON(frame); err != nil {
		s.logger.Debug("watch connection closed", "task", id, "error", err)
		return false
	}
	return true
}
