// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/marks/internal/adapters/sheet"
	service "github.com/okian/marks/internal/app"
	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/internal/domain/model"
	"github.com/okian/marks/pkg/logger"
	"github.com/okian/marks/pkg/metrics"
)

// Dependencies is the service surface the handlers use.
type Dependencies interface {
	StatsProvider

	Load(ctx context.Context, headers []string, ds model.Dataset) (service.SessionInfo, error)
	Session() (service.SessionInfo, error)
	Clear(ctx context.Context) error

	Convert(ctx context.Context, explicit caps.Explicit, percentage *float64) (service.Snapshot, error)
	Regrade(ctx context.Context, percentage *float64) (service.Snapshot, error)
	Snapshot() service.Snapshot

	Export(ctx context.Context, which string) ([]sheet.Sheet, error)
	Template() sheet.Sheet
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps           Dependencies
	maxUploadBytes int64
	logger         logger.Logger
	now            func() time.Time
	started        time.Time
	metrics        http.Handler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		maxUploadBytes: defaultMaxUploadBytes,
		now:            time.Now,
		metrics:        promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.started = s.now()
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"/healthz", s.HandleHealth},
		{"/stats", s.HandleStats},
		{"/datasets", s.HandleDatasets},
		{"/convert", s.HandleConvert},
		{"/regrade", s.HandleRegrade},
		{"/results", s.HandleResults},
		{"/export/", s.HandleExport},
		{"/template", s.HandleTemplate},
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.pattern, s.instrument(strings.Trim(rt.pattern, "/"), rt.handler))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before writing the status, so an unencodable value
// becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal", Message: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service error to its status and code.
func (s *Server) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	case errors.Is(err, ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
		return
	case errors.Is(err, ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, service.KindUnsupportedFormat, err)
		return
	}

	kind := service.ErrorKind(err)
	status := http.StatusInternalServerError
	switch kind {
	case service.KindIncompleteCaps, service.KindInvalidCap, service.KindInvalidThreshold, service.KindInvalidScore:
		status = http.StatusBadRequest
	case service.KindEmptyDataset, service.KindNoResult, service.KindStaleResult, service.KindSuperseded:
		status = http.StatusConflict
	case service.KindUnsupportedFormat:
		status = http.StatusUnsupportedMediaType
	case service.KindNotStarted, service.KindCancelled:
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, kind, Wrap(op, err))
}
