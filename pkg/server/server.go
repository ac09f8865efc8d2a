// Package server exposes the network engine over HTTP.
//
// The API is a thin JSON layer over the manager: every query endpoint maps
// onto one manager operation and inherits its staleness handling, so a
// request never reads from an outdated graph. Error responses carry the
// engine's machine-readable error codes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sewerflow/sewerflow/pkg/errors"
	"github.com/sewerflow/sewerflow/pkg/manager"
	"github.com/sewerflow/sewerflow/pkg/netio"
	"github.com/sewerflow/sewerflow/pkg/render"
)

// Server serves the network query API.
type Server struct {
	manager *manager.Manager
	logger  *log.Logger
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server over the given manager.
func New(m *manager.Manager, opts ...Option) *Server {
	s := &Server{
		manager: m,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/network", func(r chi.Router) {
		r.Get("/", s.handleNetwork)
		r.Get("/svg", s.handleSVG)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/path", s.handlePath)
		r.Get("/tree", s.handleTree)
		r.Get("/geometry", s.handleGeometry)
	})
	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"dirty":    s.manager.Dirty(),
		"snapshot": s.manager.SnapshotID(),
	})
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	g, err := s.manager.Graph(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := netio.WriteJSON(g, s.manager.SnapshotID(), w); err != nil {
		s.logger.Error("write network", "err", err)
	}
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	g, err := s.manager.Graph(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	svg, err := render.RenderSVG(render.ToDOT(g, render.Options{Detailed: r.URL.Query().Get("detailed") == "true"}))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Rebuild(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot": s.manager.SnapshotID(),
		"report":   s.manager.Report(),
	})
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from, err := queryID(r, "from")
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := queryID(r, "to")
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.manager.ShortestPath(r.Context(), from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes":  res.Nodes,
		"edges":  res.Edges,
		"weight": res.TotalWeight(),
		"found":  !res.Empty(),
	})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	node, err := queryID(r, "node")
	if err != nil {
		s.writeError(w, err)
		return
	}
	reverse := r.URL.Query().Get("reverse") == "true"

	res, err := s.manager.Tree(r.Context(), node, reverse)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	from, err := queryID(r, "from")
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := queryID(r, "to")
	if err != nil {
		s.writeError(w, err)
		return
	}

	line, err := s.manager.EdgeGeometry(r.Context(), from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"wkt":    line.String(),
		"points": line,
	})
}

// queryID parses a required int64 query parameter.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "missing query parameter %q", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "parameter %q", name)
	}
	return id, nil
}

// errorResponse is the JSON shape of every error reply.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidGeometry:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound, errors.ErrCodeFeatureNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeLayerUnset:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
