// Package benchmarkapi exposes a small REST surface to launch and poll
// solving sessions against a named benchmark CAPTCHA kind, the Go analogue
// of the original implementation's benchmark/apis Flask result-recording
// routes.
package benchmarkapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/halligan-ai/halligan/internal/sessionstore"
)

// Solver launches a solving session for a benchmark kind and returns the
// completed SessionRecord. cmd/benchmarkserver wires this to the
// frame/stages orchestration; the server itself only depends on this
// narrow interface, keeping HTTP concerns isolated from solving concerns.
type Solver interface {
	Solve(ctx context.Context, kind string) (*sessionstore.SessionRecord, error)
}

// Server is a stdlib-only REST server, mirroring the teacher's
// http.ServeMux + slog.Logger server shape.
type Server struct {
	store  sessionstore.Store
	solver Solver
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer constructs a Server and registers its routes.
func NewServer(store sessionstore.Store, solver Solver, logger *slog.Logger) *Server {
	s := &Server{store: store, solver: solver, mux: http.NewServeMux(), logger: logger}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("GET /api/v1/sessions", s.handleListSessions)
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("request received", "method", r.Method, "path", r.URL.Path)
	s.mux.ServeHTTP(w, r)
}

type createSessionRequest struct {
	Kind string `json:"kind"`
}

// handleCreateSession starts a solving session synchronously and records
// its outcome. Stage progress for a running session is observed separately
// via internal/wsstream, not through this endpoint's response.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Kind == "" {
		http.Error(w, "missing or invalid 'kind'", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	rec, err := s.solver.Solve(ctx, req.Kind)
	if rec == nil {
		rec = &sessionstore.SessionRecord{ID: uuid.New(), Kind: req.Kind, Status: sessionstore.StatusFailed, StartedAt: time.Now()}
	}
	if err != nil {
		rec.Status = sessionstore.StatusFailed
		rec.ErrorMsg = err.Error()
	}
	if saveErr := s.store.Save(ctx, rec); saveErr != nil {
		s.logger.Error("failed to save session record", "error", saveErr)
	}

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
	} else {
		w.WriteHeader(http.StatusCreated)
	}
	if encErr := json.NewEncoder(w).Encode(rec); encErr != nil {
		s.logger.Error("failed to encode session record", "error", encErr)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		s.logger.Error("failed to encode session record", "error", err)
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		s.logger.Error("failed to encode session list", "error", err)
	}
}
