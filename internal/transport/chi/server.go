package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
	logpkg "github.com/kailas-cloud/vecrec/internal/logger"
	"github.com/kailas-cloud/vecrec/internal/metrics"
	healthuc "github.com/kailas-cloud/vecrec/internal/usecase/health"
	"github.com/kailas-cloud/vecrec/internal/usecase/pipeline"
	"github.com/kailas-cloud/vecrec/internal/version"
)

const (
	// MaxTopN caps the number of results a caller may ask for.
	MaxTopN      = 50
	maxBodyBytes = 64 << 10
	maxQueryLen  = 1000
)

// Recommender runs the recommendation pipeline.
type Recommender interface {
	RunWithOptions(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// TraceReader looks up finished traces.
type TraceReader interface {
	Get(requestID string) (domtrace.Record, error)
}

// HealthReporter aggregates dependency checks.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// Server is the HTTP API.
type Server struct {
	recommender Recommender
	traces      TraceReader
	health      HealthReporter
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(rec Recommender, traces TraceReader, health HealthReporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{recommender: rec, traces: traces, health: health, logger: logger}
}

// Routes builds the router with the full middleware chain.
func (s *Server) Routes(apiKeys []string) http.Handler {
	r := chirouter.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chirouter.Router) {
		r.Post("/recommendations", s.Recommend)
		r.Get("/traces/{requestID}", s.GetTrace)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	return r
}

// Recommend handles POST /v1/recommendations.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var body recommendationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, msg := s.buildRequest(r, body)
	if msg != "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, msg)
		return
	}

	res, err := s.recommender.RunWithOptions(r.Context(), req)
	if err != nil {
		status, resp := errorBody(err)
		log := logpkg.FromContext(r.Context())
		if status >= http.StatusInternalServerError {
			log.Error("Recommendation failed", zap.Error(err))
		} else {
			log.Warn("Recommendation rejected", zap.Error(err))
		}
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(res))
}

// buildRequest merges the body with the optional limit and include_out_of_stock
// query parameters, which win over the body. A non-empty message is a validation error.
func (s *Server) buildRequest(r *http.Request, body recommendationRequest) (pipeline.Request, string) {
	query := strings.TrimSpace(body.Query)
	switch {
	case query == "":
		return pipeline.Request{}, "query is required"
	case len(query) > maxQueryLen:
		return pipeline.Request{}, fmt.Sprintf("query exceeds %d bytes", maxQueryLen)
	}

	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		return pipeline.Request{}, "invalid limit: " + err.Error()
	}
	var includeOOS *bool
	if err := runtime.BindQueryParameter(
		"form", true, false, "include_out_of_stock", r.URL.Query(), &includeOOS,
	); err != nil {
		return pipeline.Request{}, "invalid include_out_of_stock: " + err.Error()
	}
	if limit == nil {
		limit = body.TopN
	}
	if includeOOS == nil {
		includeOOS = body.IncludeOutOfStock
	}

	req := pipeline.Request{
		Query:     query,
		RequestID: chiMiddleware.GetReqID(r.Context()),
		SessionID: body.SessionID,
	}
	if limit != nil {
		if *limit < 1 || *limit > MaxTopN {
			return pipeline.Request{}, fmt.Sprintf("limit must be between 1 and %d", MaxTopN)
		}
		req.TopN = *limit
	}
	if includeOOS != nil {
		req.IncludeOutOfStock = *includeOOS
	}
	return req, ""
}

// GetTrace handles GET /v1/traces/{requestID}.
func (s *Server) GetTrace(w http.ResponseWriter, r *http.Request) {
	var requestID string
	if err := runtime.BindStyledParameterWithOptions(
		"simple", "requestID", chirouter.URLParam(r, "requestID"), &requestID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true},
	); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request id: "+err.Error())
		return
	}

	rec, err := s.traces.Get(requestID)
	if err != nil {
		status, resp := errorBody(err)
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, traceToDTO(rec))
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	rep := s.health.Check(r.Context())
	checks := make(map[string]string, len(rep.Checks))
	for k, v := range rep.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if rep.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:  string(rep.Status),
		Version: version.Version,
		Build:   version.String(),
		Checks:  checks,
	})
}
