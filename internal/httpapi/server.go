// Package httpapi serves the planner over JSON/HTTP for browser and
// scripting clients.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"

	"github.com/signalsfoundry/coverage-planner/internal/logging"
	"github.com/signalsfoundry/coverage-planner/internal/plannersvc"
)

// RequestIDHeader carries a caller supplied request id and is echoed on
// every response.
const RequestIDHeader = "X-Request-ID"

// MaxRequestBytes bounds request bodies.
const MaxRequestBytes = 8 << 20

// Route names, used as the method label of request metrics.
const (
	RoutePlan          = "PlanCoverage"
	RouteListMissions  = "ListMissions"
	RouteGetMission    = "GetMission"
	RouteDeleteMission = "DeleteMission"
	RouteExportMission = "ExportMission"
	RouteHealth        = "Health"
)

// RequestObserver records completed HTTP requests.
type RequestObserver interface {
	ObserveHTTP(route string, statusCode int, elapsed time.Duration)
}

// Server routes HTTP requests to a plannersvc.Service.
type Server struct {
	svc       *plannersvc.Service
	validator *Validator
	log       logging.Logger
	observer  RequestObserver
	router    *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the base logger for request logging.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRequestObserver records each request through o.
func WithRequestObserver(o RequestObserver) Option {
	return func(s *Server) { s.observer = o }
}

// New builds the router for svc.
func New(svc *plannersvc.Service, opts ...Option) (*Server, error) {
	validator, err := NewPlanRequestValidator()
	if err != nil {
		return nil, err
	}
	s := &Server{
		svc:       svc,
		validator: validator,
		log:       logging.Noop(),
		router:    mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(s.requestContext, s.observe)
	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet).Name(RouteHealth)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/plans", s.plan).Methods(http.MethodPost).Name(RoutePlan)
	v1.HandleFunc("/missions", s.listMissions).Methods(http.MethodGet).Name(RouteListMissions)
	v1.HandleFunc("/missions/{name}", s.getMission).Methods(http.MethodGet).Name(RouteGetMission)
	v1.HandleFunc("/missions/{name}", s.deleteMission).Methods(http.MethodDelete).Name(RouteDeleteMission)
	v1.HandleFunc("/missions/{name}/export", s.exportMission).Methods(http.MethodGet).Name(RouteExportMission)
	return s, nil
}

// Handler returns the traced HTTP handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "Planner/http")
}

// ServeHTTP implements http.Handler without tracing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(RequestIDHeader); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		route := ""
		if cur := mux.CurrentRoute(r); cur != nil {
			route = cur.GetName()
		}
		if route != "" {
			trace.SpanFromContext(ctx).SetName("Planner/http/" + route)
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, s.log.With(logging.String("route", route)))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		w.Header().Set(RequestIDHeader, logging.RequestIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil && cur.GetName() != "" {
			route = cur.GetName()
		}
		if s.observer != nil {
			s.observer.ObserveHTTP(route, m.Code, m.Duration)
		}
		logging.FromContext(r.Context(), s.log).Debug(r.Context(), "http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", m.Code),
			logging.Duration("elapsed", m.Duration),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) plan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", plannersvc.ErrInvalidRequest, err))
		return
	}
	if err := s.validator.ValidateBytes(body); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req plannersvc.PlanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", plannersvc.ErrInvalidRequest, err))
		return
	}

	view, err := s.svc.PlanCoverage(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code := http.StatusCreated
	if !view.Stored {
		code = http.StatusOK
	}
	writeJSON(w, code, view)
}

func (s *Server) listMissions(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListMissions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getMission(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.GetMission(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) deleteMission(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteMission(r.Context(), mux.Vars(r)["name"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportMission(w http.ResponseWriter, r *http.Request) {
	enc, err := s.svc.ExportMission(r.Context(), mux.Vars(r)["name"], r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", enc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", enc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(enc.Body)
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusCode maps a planner error onto an HTTP status.
func StatusCode(err error) int {
	if errors.Is(err, ErrSchema) {
		return http.StatusBadRequest
	}
	switch plannersvc.Code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled, codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	code := plannersvc.Code(err)
	if errors.Is(err, ErrSchema) {
		code = codes.InvalidArgument
	}
	log := logging.FromContext(r.Context(), s.log)
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", logging.Err(err))
	} else {
		log.Debug(r.Context(), "request rejected", logging.Err(err))
	}
	writeJSON(w, status, errorBody{
		Error:     err.Error(),
		Code:      code.String(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
