// Package server exposes flowviz over HTTP: parse, validate, layout, and
// render endpoints, scene store CRUD, and live simulation sessions streamed
// as Server-Sent Events.
//
// Each session runs one ticker goroutine that owns its scheduler and one
// broadcast goroutine that fans frames out to SSE subscribers. Subscribers
// that fall behind lose frames rather than stalling the simulation.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flowviz/flowviz/pkg/config"
	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/pipeline"
	"github.com/flowviz/flowviz/pkg/scene"
	"github.com/flowviz/flowviz/pkg/store"
	"github.com/flowviz/flowviz/pkg/topology"
)

// shutdownTimeout bounds how long a graceful shutdown waits for in-flight
// requests.
const shutdownTimeout = 10 * time.Second

// Deps carries the server's collaborators. Store must be non-nil. A nil
// Runner gets a cacheless default and a nil Logger falls back to
// log.Default().
type Deps struct {
	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger
}

// Server is the flowviz HTTP API.
type Server struct {
	cfg      *config.Config
	runner   *pipeline.Runner
	store    store.Store
	sessions *sessionManager
	logger   *log.Logger
}

// New assembles a server from its dependencies.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	runner := deps.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Server{
		cfg:      cfg,
		runner:   runner,
		store:    deps.Store,
		sessions: newSessionManager(cfg, logger),
		logger:   logger,
	}
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealthz)

	r.Post("/api/v1/parse", s.handleParse)
	r.Post("/api/v1/validate", s.handleValidate)
	r.Post("/api/v1/layout", s.handleLayout)
	r.Post("/api/v1/render", s.handleRender)

	r.Post("/api/v1/scenes", s.handleCreateScene)
	r.Get("/api/v1/scenes", s.handleListScenes)
	r.Get("/api/v1/scenes/{id}", s.handleGetScene)
	r.Delete("/api/v1/scenes/{id}", s.handleDeleteScene)

	r.Post("/api/v1/sessions", s.handleCreateSession)
	r.Get("/api/v1/sessions/{id}/stream", s.handleStreamSession)
	r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)

	return r
}

// ListenAndServe runs the HTTP server until ctx is canceled, then shuts
// down gracefully: live sessions are terminated and in-flight requests get
// shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	// No write timeout: SSE streams stay open indefinitely.
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", "addr", s.cfg.Server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close terminates every live session. ListenAndServe calls it during
// shutdown; tests that serve Handler directly call it themselves.
func (s *Server) Close() {
	s.sessions.Shutdown()
}

// logRequests logs every completed request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// =============================================================================
// Request and Response Types
// =============================================================================

type sourceRequest struct {
	Source string `json:"source"`
}

type layoutRequest struct {
	Source  string           `json:"source"`
	Name    string           `json:"name"`
	Options pipeline.Options `json:"options"`
}

type renderRequest struct {
	Source   string `json:"source"`
	Format   string `json:"format"`
	Graphviz bool   `json:"graphviz"`
}

type sceneRequest struct {
	Name    string           `json:"name"`
	Source  string           `json:"source"`
	Options pipeline.Options `json:"options"`
}

type sessionRequest struct {
	Source string  `json:"source"`
	Speed  float64 `json:"speed"`
	FPS    int     `json:"fps"`
}

type sessionResponse struct {
	ID     string  `json:"id"`
	Speed  float64 `json:"speed"`
	FPS    int     `json:"fps"`
	Stream string  `json:"stream"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Source == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "source is required"))
		return
	}
	topo := s.runner.Parse(r.Context(), req.Source, pipeline.Options{})
	writeJSON(w, http.StatusOK, topo)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Source == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "source is required"))
		return
	}
	topo := s.runner.Parse(r.Context(), req.Source, pipeline.Options{})
	writeJSON(w, http.StatusOK, topology.Validate(topo))
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Source == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "source is required"))
		return
	}
	name := req.Name
	if name == "" {
		name = "untitled"
	}
	topo := s.runner.Parse(r.Context(), req.Source, req.Options)
	lay := s.runner.ComputeLayout(r.Context(), topo, req.Options)
	writeJSON(w, http.StatusOK, scene.New(name, req.Source, topo, lay))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Source == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "source is required"))
		return
	}
	format := req.Format
	if format == "" {
		format = pipeline.DefaultFormat
	}
	opts := pipeline.Options{Formats: []string{format}, Graphviz: req.Graphviz}
	result, err := s.runner.Execute(r.Context(), req.Source, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", artifactContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

func (s *Server) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	var req sceneRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Source == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "source is required"))
		return
	}
	name := req.Name
	if name == "" {
		name = "untitled"
	}
	topo := s.runner.Parse(r.Context(), req.Source, req.Options)
	lay := s.runner.ComputeLayout(r.Context(), topo, req.Options)
	sc := scene.New(name, req.Source, topo, lay)
	if err := s.store.Put(r.Context(), sc); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	sc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Source == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "source is required"))
		return
	}
	if req.Speed < 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "speed must be positive"))
		return
	}
	if req.FPS < 0 || req.FPS > 240 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "fps must be between 1 and 240"))
		return
	}
	sess, err := s.sessions.Create(req.Source, req.Speed, req.FPS)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:     sess.id,
		Speed:  sess.speed,
		FPS:    sess.fps,
		Stream: "/api/v1/sessions/" + sess.id + "/stream",
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStreamSession streams a session's frames as Server-Sent Events,
// one "frame" event per tick, until the client disconnects or the session
// ends.
func (s *Server) handleStreamSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sub, ok := sess.hub.subscribe()
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s already ended", id))
		return
	}
	defer sess.hub.unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, ": session %s\n\n", sess.id)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-sub.frames:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: frame\ndata: %s\n\n", frame)
			flusher.Flush()
		}
	}
}

// =============================================================================
// Helpers
// =============================================================================

// decodeJSON decodes a request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding request body")
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to its HTTP status and writes the JSON body.
// Validation problems answer 400, missing resources 404, a full session
// manager 429, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if limitErr, ok := err.(*errors.SessionLimitError); ok {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error: limitErr.Error(),
			Code:  limitErr.Code(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidScene, errors.ErrCodeInvalidConfig:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound,
		errors.ErrCodeSceneNotFound, errors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeSessionLimit:
		status = http.StatusTooManyRequests
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  errors.GetCode(err),
	})
}

// artifactContentType maps a render format to its MIME type.
func artifactContentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}
