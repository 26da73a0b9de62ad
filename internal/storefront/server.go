package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/Sternrassler/catalog-storefront/pkg/logging"
	"github.com/Sternrassler/catalog-storefront/pkg/metrics"
	"github.com/Sternrassler/catalog-storefront/pkg/pagination"
	"github.com/Sternrassler/catalog-storefront/pkg/resource"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ReadyChecker reports whether backing services are reachable.
// *client.Client satisfies it.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Server renders the storefront pages.
type Server struct {
	api      CatalogAPI
	ready    ReadyChecker
	renderer *Renderer
	logger   zerolog.Logger
}

// NewServer creates a server on top of api. ready may be nil.
func NewServer(api CatalogAPI, ready ReadyChecker) (*Server, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Server{
		api:      api,
		ready:    ready,
		renderer: renderer,
		logger:   logging.NewLogger("storefront"),
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(AccessLog(s.logger))
	r.Use(Recoverer(s.logger))

	r.Get("/", s.handleProductList)
	r.Get("/product/{id}", s.handleProductDetail)
	r.Get("/departments", s.handleDepartmentsList)
	r.Get("/departments/{id}", s.handleDepartment)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Gatherer, promhttp.HandlerOpts{}))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(staticFiles())))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "page not found", http.StatusNotFound)
	})

	return r
}

func (s *Server) handleProductList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cursor := pagination.ParseCursor(r.URL.Query().Get("page"))

	page := NewProductListPage(s.api)
	page.SetPage(r.Context(), cursor.Page)
	view := page.View()

	s.respond(w, r, PageProductList, start, view.State, view.Err, view)
}

func (s *Server) handleProductDetail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	page := NewProductDetailPage(s.api, chi.URLParam(r, "id"))
	page.Mount(r.Context())
	view := page.View(backURL(r))

	s.respond(w, r, PageProductDetail, start, view.State, view.Err, view)
}

func (s *Server) handleDepartmentsList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	page := NewDepartmentsListPage(s.api)
	page.Mount(r.Context())
	view := page.View()

	s.respond(w, r, PageDepartmentsList, start, view.State, view.Err, view)
}

func (s *Server) handleDepartment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cursor := pagination.ParseCursor(r.URL.Query().Get("page"))

	page := NewDepartmentPage(s.api, chi.URLParam(r, "id"))
	page.SetPage(r.Context(), cursor.Page)
	view := page.View()

	s.respond(w, r, PageDepartment, start, view.State, view.Err, view)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, page string, start time.Time, state resource.State, loadErr error, view any) {
	status := http.StatusOK
	if state == resource.Error {
		status = errorStatus(loadErr)
		s.logger.Warn().
			Err(loadErr).
			Str("page", page).
			Str("path", r.URL.Path).
			Int("status", status).
			Msg("Page load failed")
	}

	if err := s.renderer.Render(w, status, page, view); err != nil {
		s.logger.Error().Err(err).Str("page", page).Msg("Render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pageViewsTotal.WithLabelValues(page, state.String()).Inc()
	pageDuration.WithLabelValues(page).Observe(time.Since(start).Seconds())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.ready.Ready(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// backURL is the previous history entry: the Referer when it points at
// another page of this site, otherwise the home page.
func backURL(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host != r.Host || u.Path == r.URL.Path {
		return "/"
	}
	back := u.EscapedPath()
	if back == "" {
		back = "/"
	}
	if u.RawQuery != "" {
		back += "?" + u.RawQuery
	}
	return back
}
