// Package server exposes photo sessions and their reports over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"photobox/internal/core"
	"photobox/internal/pipeline"
)

// Server routes session, history and report requests to a pipeline.Runner.
type Server struct {
	runner *pipeline.Runner
	logger *slog.Logger
	ctx    context.Context // sessions outlive the request that started them
	router *chi.Mux
}

// New builds the router. ctx bounds every session the server starts.
func New(ctx context.Context, runner *pipeline.Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{runner: runner, logger: logger, ctx: ctx}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/sessions", s.handleStartSession)
	r.Get("/sessions/current", s.handleSessionStatus)
	r.Get("/history", s.handleHistory)
	r.Get("/history/verify", s.handleVerifyHistory)
	r.Get("/report", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/report/", http.StatusMovedPermanently)
	})
	r.Get("/report/*", s.handleReport)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// POST /sessions
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.runner.Start(s.ctx, nil)
	switch {
	case errors.Is(err, pipeline.ErrSessionRunning):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		s.logger.Error("server: cannot start session", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("server: session started", "session", sess.ID())
	writeJSON(w, http.StatusAccepted, sess.Status())
}

// GET /sessions/current
func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := s.runner.Status()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no session has run yet"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GET /history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.runner.Config()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	ledger, err := pipeline.OpenHistory(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.Entries())
}

// GET /history/verify
func (s *Server) handleVerifyHistory(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.runner.Config()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	ledger, err := pipeline.OpenHistory(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	trusted, err := pipeline.TrustedKey(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := ledger.VerifyChain(trusted); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "entries": len(ledger.Entries())})
}

// GET /report/* serves index.html and the img/ tree of the working root.
// Nothing else under the root is reachable: options.json carries credentials.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.runner.Config()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	root := cfg.RootPath
	if root == "" {
		root = "./"
	}
	layout := core.Layout{Root: core.NormalizeRoot(root)}

	rel := path.Clean("/" + strings.TrimPrefix(r.URL.Path, "/report/"))
	switch {
	case rel == "/" || rel == "/index.html":
		serveIndex(w, r, layout.Index())
	case strings.HasPrefix(rel, "/img/"):
		r2 := new(http.Request)
		*r2 = *r
		u := *r.URL
		u.Path = strings.TrimPrefix(rel, "/img")
		u.RawPath = ""
		r2.URL = &u
		http.FileServer(http.Dir(layout.ImageRoot())).ServeHTTP(w, r2)
	default:
		http.NotFound(w, r)
	}
}

func serveIndex(w http.ResponseWriter, r *http.Request, name string) {
	f, err := os.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, "index.html", info.ModTime(), f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
