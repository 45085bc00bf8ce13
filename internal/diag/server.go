// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rtcore-project/rtcore"
	"github.com/rtcore-project/rtcore/pkg/logging"
)

// Server exposes an Observer's read-only view of a Runtime over a small,
// fixed, code-defined JSON API. No generated schema, no RPC into the
// core itself.
type Server struct {
	observer *Observer
	logger   logging.Logger
	router   *mux.Router
}

// NewServer builds a Server wrapping observer. A nil logger uses
// logging.NoOpLogger.
func NewServer(observer *Observer, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	s := &Server{observer: observer, logger: logger}
	s.router = mux.NewRouter().StrictSlash(true)
	s.router.Use(s.requestIDMiddleware)

	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/modules", s.handleModules).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.handleTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/stats", s.handleTaskStats).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/watch", s.handleTaskWatch).Methods(http.MethodGet)

	return s
}

// Router returns the server's HTTP handler, suitable for
// http.ListenAndServe or embedding in a larger mux.
func (s *Server) Router() http.Handler {
	return s.router
}

type requestIDKey struct{}

// requestIDMiddleware stamps every response with a request id for
// cross-referencing a diagnostics call with its log lines.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode diagnostics response", "error", err)
	}
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, status, errorResponse{RequestID: requestIDFrom(r), Error: message})
}

// handleModules serves GET /v1/modules.
func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, struct {
		RequestID string              `json:"request_id"`
		Modules   []rtcore.ModuleInfo `json:"modules"`
	}{
		RequestID: requestIDFrom(r),
		Modules:   s.observer.rt.Modules(),
	})
}

// handleTasks serves GET /v1/tasks.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.observer.Snapshot(requestIDFrom(r)))
}

// handleTaskStats serves GET /v1/tasks/{id}/stats with the task's most
// recently published resource-usage snapshot.
func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "task id must be an integer")
		return
	}

	stats, err := s.observer.TaskStats(id)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		RequestID string           `json:"request_id"`
		Stats     rtcore.TaskStats `json:"stats"`
	}{
		RequestID: requestIDFrom(r),
		Stats:     stats,
	})
}
