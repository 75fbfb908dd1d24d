// Package server exposes editing sessions over HTTP.
//
// Each session is one editor: clients post canvas events, edit attributes
// and fetch renderings. Routes:
//
//	POST   /sessions                      create a session
//	GET    /sessions/{id}                 session state
//	DELETE /sessions/{id}                 close a session
//	POST   /sessions/{id}/events          dispatch canvas events
//	POST   /sessions/{id}/tool            toggle a tool
//	GET    /sessions/{id}/properties      attribute tree of an entity
//	PUT    /sessions/{id}/properties      edit an attribute tree
//	GET    /sessions/{id}/document        export the document
//	PUT    /sessions/{id}/document        import a document
//	GET    /sessions/{id}/canvas.svg      editor view
//	GET    /sessions/{id}/diagram.{fmt}   Graphviz rendering (svg, png, dot)
//	GET    /version                       build information
//
// Errors are JSON objects {"code": ..., "error": ...} whose HTTP status
// follows the error code.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/linkboard/pkg/cache"
	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/observability"
	"github.com/matzehuels/linkboard/pkg/session"
)

// maxBodyBytes bounds request bodies, documents included.
const maxBodyBytes = 8 << 20

// Server routes HTTP requests to the sessions of a registry.
type Server struct {
	registry *session.Registry
	cache    cache.Cache
	logger   *log.Logger
	validate *validator.Validate
}

// Option configures a [Server].
type Option func(*Server)

// WithCache caches diagram renderings. The default is no caching.
func WithCache(c cache.Cache) Option {
	return func(s *Server) { s.cache = c }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server over reg.
func New(reg *session.Registry, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		cache:    cache.NewNullCache(),
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	r.Get("/version", s.handleVersion)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/events", s.handleEvents)
			r.Post("/tool", s.handleTool)
			r.Get("/properties", s.handleGetProperties)
			r.Put("/properties", s.handlePutProperties)
			r.Get("/document", s.handleExport)
			r.Put("/document", s.handleImport)
			r.Get("/canvas.svg", s.handleCanvas)
			r.Get("/diagram.{format}", s.handleDiagram)
		})
	})
	return r
}

// observe logs each request and reports it to the HTTP hooks under its
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		observability.HTTP().OnRequest(r.Context(), r.Method, route)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, ww.Status(), time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	respondJSON(w, status, errorResponse{Code: code, Error: strings.TrimPrefix(err.Error(), string(code)+": ")})
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.ClassOf(err) {
	case errors.ClassInput:
		return http.StatusBadRequest
	case errors.ClassConflict:
		return http.StatusConflict
	case errors.ClassNotFound:
		return http.StatusNotFound
	case errors.ClassUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if err := s.validate.Struct(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request")
	}
	return nil
}
