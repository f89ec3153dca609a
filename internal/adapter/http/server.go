package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/childcare-availability/internal/domain"
	"github.com/couchcryptid/childcare-availability/internal/pipeline"
)

// Session is the subset of the pipeline session the API serves.
type Session interface {
	sharedobs.ReadinessChecker
	Load(ctx context.Context) error
	Apply(q pipeline.Query) (domain.Result, error)
	Detail(id string, q pipeline.Query) (domain.Detail, domain.Style, bool, error)
	Options(origin *domain.LatLon) (pipeline.Options, error)
}

// Server exposes the facility API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	session    Session
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api routes.
func NewServer(addr string, session Session, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		session: session,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(session))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/options", s.handleOptions)
	mux.HandleFunc("GET /api/facilities", s.handleFacilities)
	mux.HandleFunc("GET /api/facilities/{id}", s.handleFacility)
	mux.HandleFunc("POST /api/reload", s.handleReload)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	origin, err := parseOrigin(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opts, err := s.session.Options(origin)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, opts)
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.session.Apply(q)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, res)
}

type facilityResponse struct {
	Style  domain.Style  `json:"style"`
	Detail domain.Detail `json:"detail"`
}

func (s *Server) handleFacility(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id := r.PathValue("id")
	detail, style, ok, err := s.session.Detail(id, q)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{
			"error": "facility " + id + " not found",
		})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, facilityResponse{Style: style, Detail: detail})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Load(r.Context()); err != nil {
		s.logger.Error("reload failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	opts, err := s.session.Options(nil)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"stats":  opts.Stats,
	})
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrNotLoaded) {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
