// Package chi exposes the proximity and text search services over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/plzgeo/internal/domain"
	domprox "github.com/kailas-cloud/plzgeo/internal/domain/proximity"
	logpkg "github.com/kailas-cloud/plzgeo/internal/logger"
	healthuc "github.com/kailas-cloud/plzgeo/internal/usecase/health"
	proximityuc "github.com/kailas-cloud/plzgeo/internal/usecase/proximity"
	textuc "github.com/kailas-cloud/plzgeo/internal/usecase/textsearch"
)

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest         = "bad_request"
	ErrorCodeStorageUnavailable = "storage_unavailable"
	ErrorCodeTimeout            = "timeout"
	ErrorCodeInternalError      = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server implements ServerInterface.
type Server struct {
	proximity     *proximityuc.Service
	text          *textuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	proximity *proximityuc.Service,
	text *textuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		proximity: proximity,
		text:      text,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		invalidArgumentHandler,
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, ErrorCodeTimeout),
		sentinelHandler(domain.ErrStorageUnavailable, http.StatusServiceUnavailable, ErrorCodeStorageUnavailable),
	}
	return s
}

// Nearby handles GET /{code}/{radiusKm}.
func (s *Server) Nearby(w http.ResponseWriter, r *http.Request, code string, radiusKm float64) {
	res, found, err := s.proximity.Nearby(r.Context(), code, radiusKm)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}

	if res.Strategy == domprox.Eager {
		writeJSON(w, http.StatusOK, eagerResponseFrom(&res))
		return
	}
	writeJSON(w, http.StatusOK, lazyResponseFrom(&res))
}

// Search handles GET /{query}.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, query string) {
	records, err := s.text.Search(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]LocationResponse, len(records))
	for i := range records {
		items[i] = locationResponseFrom(&records[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// Root handles GET /. A query or zip code is required.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "zip code and radius, or a search query, are required")
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees the sentinel message only.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// invalidArgumentHandler echoes the validation reason, which never carries internals.
func invalidArgumentHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrInvalidArgument) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	if errors.Is(err, domain.ErrInvalidArgument) {
		log.Debug("invalid request", zap.Error(err))
	} else {
		log.Warn("domain error", zap.Error(err))
	}
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
