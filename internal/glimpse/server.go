package glimpse

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes rendered dashboard pages over HTTP. It reads snapshots from
// the manager; fetching stays entirely on the scheduler side.
type Server struct {
	manager  *Manager
	renderer *Renderer
	router   *chi.Mux
}

func NewServer(m *Manager) (*Server, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	s := &Server{manager: m, renderer: renderer}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/pages/{slug}", s.handlePage)
	r.Get("/healthz", s.handleHealthz)

	s.router = r
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	pages := s.manager.Pages()
	http.Redirect(w, r, "/pages/"+pages[0].Slug, http.StatusFound)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, ok := s.manager.PageBySlug(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}

	snap := s.manager.Snapshot(page)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderPage(w, snap); err != nil {
		slog.Error("page render failed", "page", slug, "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
