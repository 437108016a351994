package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
	logpkg "github.com/kailas-cloud/vecrec/internal/logger"
	"github.com/kailas-cloud/vecrec/internal/metrics"
)

const (
	tracerName       = "vecrec/pipeline"
	sinkTimeout      = 2 * time.Second
	detailFallback   = "fallback"
	detailNotWired   = "disabled"
	spanAttrStage    = "vecrec.stage"
	spanAttrRequest  = "vecrec.request_id"
	spanAttrPolicy   = "vecrec.policy"
	spanAttrDetail   = "vecrec.detail"
	spanAttrFallback = "vecrec.fallback"
)

// Request is one recommendation call.
type Request struct {
	Query             string
	RequestID         string
	SessionID         string
	TopN              int
	IncludeOutOfStock bool
}

// Result is a completed run.
type Result struct {
	RequestID    string
	Intent       intent.Intent
	Context      enrichment.Context
	Constraints  constraint.Set
	Inventory    constraint.Summary
	Candidates   int
	Ranked       []recommendation.RankedResult
	ResponseText string
	Trace        domtrace.Record
}

// Deps are the stage collaborators. IntentFallback and ResponseFallback must never fail.
type Deps struct {
	Intent           IntentExtractor
	IntentFallback   IntentExtractor
	Context          ContextEnricher
	Constraints      ConstraintResolver
	Embedder         Embedder
	Retriever        Retriever
	Ranker           Ranker
	Response         Synthesizer
	ResponseFallback Synthesizer
	Recorder         TraceRecorder
	Sink             TraceSink
}

// Orchestrator sequences the recommendation stages for each request.
type Orchestrator struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

// New validates dependencies and creates an orchestrator.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Orchestrator, error) {
	switch {
	case deps.IntentFallback == nil:
		return nil, errors.New("pipeline: intent fallback is required")
	case deps.Constraints == nil, deps.Embedder == nil, deps.Retriever == nil, deps.Ranker == nil:
		return nil, errors.New("pipeline: constraint, embedding, retrieval and ranking stages are required")
	case deps.ResponseFallback == nil:
		return nil, errors.New("pipeline: response fallback is required")
	case deps.Recorder == nil:
		return nil, errors.New("pipeline: trace recorder is required")
	}
	if deps.Intent == nil {
		deps.Intent = deps.IntentFallback
	}
	if deps.Response == nil {
		deps.Response = deps.ResponseFallback
	}
	if cfg.CandidatePool <= 0 {
		cfg.CandidatePool = DefaultCandidatePool
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps, cfg: cfg, logger: logger}, nil
}

// Run executes the pipeline with default options.
func (o *Orchestrator) Run(ctx context.Context, query, requestID string) (*Result, error) {
	return o.RunWithOptions(ctx, Request{Query: query, RequestID: requestID})
}

// RunWithOptions executes the pipeline. On abort or cancellation it returns a
// *domain.StageError and no partial result; the finished trace still reaches the sink.
func (o *Orchestrator) RunWithOptions(ctx context.Context, req Request) (*Result, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.TopN <= 0 {
		req.TopN = o.cfg.TopN
	}

	h, err := o.deps.Recorder.Start(req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("start trace: %w", err)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.run")
	span.SetAttributes(attribute.String(spanAttrRequest, req.RequestID))
	defer span.End()

	r := &run{
		o:      o,
		req:    req,
		handle: h,
		logger: logpkg.FromContextOr(ctx, o.logger).With(zap.String("request_id", req.RequestID)),
		res:    &Result{RequestID: req.RequestID},
	}
	runErr := r.execute(ctx)

	rec, err := h.Finish()
	if err != nil {
		return nil, errors.Join(runErr, fmt.Errorf("finish trace: %w", err))
	}
	o.publish(ctx, rec)
	metrics.PipelineRunsTotal.WithLabelValues(string(rec.Outcome)).Inc()

	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		r.logger.Warn("Recommendation run failed", zap.Error(runErr))
		return nil, runErr
	}

	r.res.Trace = rec
	r.logger.Info("Recommendation run completed",
		zap.Int("candidates", r.res.Candidates),
		zap.Int("results", len(r.res.Ranked)),
		zap.Duration("duration", rec.Finished.Sub(rec.Started)),
	)
	return r.res, nil
}

func (o *Orchestrator) publish(ctx context.Context, rec domtrace.Record) {
	if o.deps.Sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()
	if err := o.deps.Sink.Publish(ctx, rec); err != nil {
		o.logger.Warn("Trace publish failed",
			zap.String("request_id", rec.RequestID),
			zap.Error(err),
		)
	}
}
