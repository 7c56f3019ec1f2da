// Package api exposes the service surface: model binding, the websocket
// keypoint stream, and classification listings.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/strideworks/streampose/internal/config"
	"github.com/strideworks/streampose/internal/db"
	"github.com/strideworks/streampose/internal/model"
	"github.com/strideworks/streampose/internal/pose"
	"github.com/strideworks/streampose/internal/security"
)

// Server handles the HTTP and websocket API. The bound model is shared by
// every stream connection and may be replaced at runtime; sessions pick up
// the replacement on their next observation.
type Server struct {
	cfg      *config.Config
	store    *db.DB
	actuator pose.Actuator

	mu       sync.RWMutex
	model    model.Model
	modelGen int
}

// NewServer creates an API server. The store and actuator may be nil; the
// corresponding features are then disabled.
func NewServer(cfg *config.Config, store *db.DB, actuator pose.Actuator) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		actuator: actuator,
	}
}

// ServeMux returns the route table for the API.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/model", s.setModelHandler)
	mux.HandleFunc("/classifications", s.listClassifications)
	mux.HandleFunc("/stream", s.streamHandler)
	mux.HandleFunc("/", s.statusHandler)
	return mux
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Server Ready"))
}

// currentModel snapshots the bound model and its generation counter. The
// generation lets long-lived stream sessions notice model replacement.
func (s *Server) currentModel() (model.Model, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model, s.modelGen
}

// SetModel binds a classifier for all subsequent observations.
func (s *Server) SetModel(m model.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
	s.modelGen++
}

type setModelRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) setModelHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req setModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No filename"})
		return
	}

	// The filename comes from the client; keep it inside the models dir.
	path, err := security.ResolveWithinDirectory(req.Filename, s.cfg.GetModelsDir())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	m, err := model.Load(path)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.SetModel(m)
	writeJSON(w, http.StatusOK, map[string]string{
		"result": fmt.Sprintf("Server Ready: classifier set to %s.", req.Filename),
	})
}

func (s *Server) listClassifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no event store configured"})
		return
	}

	events, err := s.store.RecentClassifications(500)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve classifications: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// newSession builds a pipeline session bound to the given model, using the
// deployment's transformer configuration.
func (s *Server) newSession(m model.Model) (*pose.Session, error) {
	transformer := pose.NewFlatColumnTransformer(pose.TransformerConfig{
		IncludeJoints:     s.cfg.GetIncludeJoints(),
		IncludeNormalized: s.cfg.GetIncludeNormalized(),
		IncludeAngles:     s.cfg.GetIncludeAngles(),
		IncludeDistances:  s.cfg.GetIncludeDistances(),
	})

	return pose.NewSession(pose.SessionConfig{
		FrameWindow:      s.cfg.GetFrameWindow(),
		Source:           "web",
		Transformer:      transformer,
		Columns:          m.Columns(),
		Classifier:       m,
		IncludeGeometry:  s.cfg.GetIncludeGeometry(),
		Actuator:         s.actuator,
		ActuationCommand: s.cfg.GetActuationCommand(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
