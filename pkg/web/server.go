// Package web exposes the engine over HTTP: JSON endpoints for node context,
// actions, layout and dependency queries plus SSE streams of graph changes.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/PROACTIVA-US/VISLZR/pkg/engine"
	"github.com/PROACTIVA-US/VISLZR/pkg/layout"
	"github.com/PROACTIVA-US/VISLZR/pkg/lens"
	"github.com/PROACTIVA-US/VISLZR/pkg/logging"
	"github.com/PROACTIVA-US/VISLZR/pkg/metrics"
	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/pubsub"
	"github.com/gorilla/mux"
)

const (
	defaultFocusDepth   = 2
	defaultHistoryLimit = 50
	shutdownTimeout     = 5 * time.Second
)

// Server represents the web server
type Server struct {
	router    *mux.Router
	engine    *engine.Engine
	publisher pubsub.Publisher
	metrics   *metrics.Metrics
}

// NewServer creates a new web server. m may be nil, in which case /metrics is not served.
func NewServer(e *engine.Engine, publisher pubsub.Publisher, m *metrics.Metrics) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		engine:    e,
		publisher: publisher,
		metrics:   m,
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler, request logging included
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoint
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	// more specific routes must come first
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/graph", s.handleGraph).Methods("GET")
	api.HandleFunc("/cycles", s.handleCycles).Methods("GET")
	api.HandleFunc("/history", s.handleRecentHistory).Methods("GET")
	api.HandleFunc("/nodes/{id}/context", s.handleContext).Methods("GET")
	api.HandleFunc("/nodes/{id}/actions/groups/{group}", s.handleGroupActions).Methods("GET")
	api.HandleFunc("/nodes/{id}/actions/{action}", s.handleExecute).Methods("POST")
	api.HandleFunc("/nodes/{id}/actions", s.handleActions).Methods("GET")
	api.HandleFunc("/nodes/{id}/layout", s.handleLayout).Methods("POST")
	api.HandleFunc("/nodes/{id}/focus", s.handleFocus).Methods("GET")
	api.HandleFunc("/nodes/{id}/view", s.handleView).Methods("GET")
	api.HandleFunc("/nodes/{id}/dependencies", s.handleDependencies).Methods("GET")
	api.HandleFunc("/nodes/{id}/history", s.handleHistory).Methods("GET")

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if !pubsub.Known(topic) {
		http.Error(w, fmt.Sprintf("Unknown topic: %s", topic), http.StatusNotFound)
		return
	}
	pubsub.Stream(w, r, s.publisher, topic)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.engine.Graph())
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.engine.Cycles())
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	nc, err := s.engine.Context(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nc)
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	ds, err := s.engine.Actions(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ds)
}

func (s *Server) handleGroupActions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ds, err := s.engine.GroupActions(vars["id"], vars["group"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ds)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req engine.ExecuteRequest
	if !readJSON(w, r, &req) {
		return
	}
	result, err := s.engine.Execute(r.Context(), vars["id"], vars["action"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// layoutBody is the flat request body of the layout endpoint
type layoutBody struct {
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Radius   float64         `json:"radius"`
	Entities []layout.Entity `json:"entities"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var body layoutBody
	if !readJSON(w, r, &body) {
		return
	}
	placed, err := s.engine.Layout(mux.Vars(r)["id"], engine.LayoutRequest{
		Focal:    layout.Focal{X: body.X, Y: body.Y, Radius: body.Radius},
		Entities: body.Entities,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, placed)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	depth, ok := intQuery(w, r, "depth", defaultFocusDepth)
	if !ok {
		return
	}
	g, err := s.engine.Focus(mux.Vars(r)["id"], depth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, g)
}

// handleView renders a lens around the node. Query: depth, hideCompleted,
// edgeType (repeatable) and collapse (repeatable node ids).
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	cfg := lens.DefaultConfig()
	depth, ok := intQuery(w, r, "depth", cfg.Depth)
	if !ok {
		return
	}
	cfg.Depth = depth

	q := r.URL.Query()
	if raw := q.Get("hideCompleted"); raw != "" {
		hide, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid hideCompleted: %q", raw), http.StatusBadRequest)
			return
		}
		cfg.HideCompleted = hide
	}
	for _, t := range q["edgeType"] {
		cfg.EdgeTypes = append(cfg.EdgeTypes, model.EdgeType(t))
	}
	cfg.Collapse = q["collapse"]

	view, err := s.engine.View(mux.Vars(r)["id"], cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	deps, err := s.engine.Dependencies(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deps)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if _, err := s.engine.Context(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.engine.History(id, limit))
}

func (s *Server) handleRecentHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, s.engine.RecentHistory(limit))
}

func intQuery(w http.ResponseWriter, r *http.Request, key string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid %s: %q", key, raw), http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// readJSON decodes an optional request body. An empty body leaves v untouched.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WarnContext(r.Context(), "failed to encode response", "path", r.URL.Path, "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, engine.ErrNodeNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// Start serves on port until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// open SSE streams end when the publisher closes
	if err := s.publisher.Close(); err != nil && !errors.Is(err, pubsub.ErrClosed) {
		logging.Warn("closing publisher", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logging.Info("web server stopped")
	return nil
}
