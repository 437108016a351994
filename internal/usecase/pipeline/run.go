package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
	"github.com/kailas-cloud/vecrec/internal/metrics"
	tracing "github.com/kailas-cloud/vecrec/internal/usecase/trace"
)

// stageFunc runs one stage and returns a short detail for the trace.
type stageFunc func(ctx context.Context) (string, error)

// run holds the state of a single request.
type run struct {
	o      *Orchestrator
	req    Request
	handle *tracing.Handle
	logger *zap.Logger
	res    *Result

	candidates []recommendation.Candidate
}

func (r *run) execute(ctx context.Context) error {
	d := r.o.deps
	steps := []struct {
		stage    domtrace.Stage
		primary  stageFunc
		fallback stageFunc
	}{
		{domtrace.StageIntent, r.intentWith(d.Intent), r.intentWith(d.IntentFallback)},
		{domtrace.StageContext, r.enrich, nil},
		{domtrace.StageConstraint, r.constrain, nil},
		{domtrace.StageCandidate, r.retrieve, nil},
		{domtrace.StageRank, r.rank, nil},
		{domtrace.StageResponse, r.respondWith(d.Response), r.respondWith(d.ResponseFallback)},
	}
	for _, s := range steps {
		if err := r.stage(ctx, s.stage, s.primary, s.fallback); err != nil {
			return err
		}
	}
	return nil
}

// stage runs one step under its own budget and applies the failure policy.
func (r *run) stage(ctx context.Context, st domtrace.Stage, primary, fallback stageFunc) error {
	log := r.logger.With(zap.String("stage", string(st)))
	if ctx.Err() != nil {
		return r.cancelled(st, time.Now(), log)
	}

	start := time.Now()
	policy := PolicyFor(st)
	sctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline."+string(st))
	defer span.End()
	span.SetAttributes(
		attribute.String(spanAttrStage, string(st)),
		attribute.String(spanAttrPolicy, string(policy)),
	)

	detail, err := r.timed(sctx, st, primary)
	if err == nil {
		span.SetAttributes(attribute.String(spanAttrDetail, detail))
		r.record(st, start, domtrace.StatusSuccess, "", detail, log)
		return nil
	}
	if ctx.Err() != nil {
		span.SetStatus(codes.Error, domtrace.CancelledError)
		return r.cancelled(st, start, log)
	}
	span.RecordError(err)

	switch {
	case policy == PolicyFallback && fallback != nil:
		metrics.PipelineFallbacksTotal.WithLabelValues(string(st), string(policy)).Inc()
		log.Warn("Stage failed, using fallback", zap.Error(err))
		if _, ferr := fallback(ctx); ferr != nil {
			span.SetStatus(codes.Error, ferr.Error())
			r.record(st, start, domtrace.StatusFailed, errors.Join(err, ferr).Error(), detailFallback, log)
			return domain.NewStageError(string(st), r.req.RequestID, errors.Join(err, ferr))
		}
		span.SetAttributes(attribute.Bool(spanAttrFallback, true))
		r.record(st, start, domtrace.StatusSuccess, err.Error(), detailFallback, log)
		return nil

	case policy == PolicySkip:
		metrics.PipelineFallbacksTotal.WithLabelValues(string(st), string(policy)).Inc()
		log.Warn("Stage failed, skipping", zap.Error(err))
		r.discard(st)
		r.record(st, start, domtrace.StatusSkipped, err.Error(), "", log)
		return nil

	default:
		span.SetStatus(codes.Error, err.Error())
		r.record(st, start, domtrace.StatusFailed, err.Error(), detail, log)
		return domain.NewStageError(string(st), r.req.RequestID, err)
	}
}

// discard drops whatever a skipped stage wrote before it failed or overran,
// so later stages see the zero output.
func (r *run) discard(st domtrace.Stage) {
	if st == domtrace.StageContext {
		r.res.Context = enrichment.Context{}
	}
}

// timed runs fn under the stage budget. A blown budget is reported as ErrStageTimeout.
func (r *run) timed(ctx context.Context, st domtrace.Stage, fn stageFunc) (string, error) {
	budget := r.o.cfg.Timeouts.For(st)
	sctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	detail, err := fn(sctx)
	if err == nil && sctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		err = sctx.Err()
	}
	if err != nil && errors.Is(sctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return detail, fmt.Errorf("%w: %s exceeded %s: %w", domain.ErrStageTimeout, st, budget, err)
	}
	return detail, err
}

func (r *run) cancelled(st domtrace.Stage, start time.Time, log *zap.Logger) error {
	r.record(st, start, domtrace.StatusFailed, domtrace.CancelledError, "", log)
	return domain.NewStageError(string(st), r.req.RequestID, domain.ErrCancelled)
}

func (r *run) record(
	st domtrace.Stage, start time.Time, status domtrace.Status, errText, detail string, log *zap.Logger,
) {
	ev := domtrace.StageEvent{
		Name:     st,
		Start:    start,
		Duration: time.Since(start),
		Status:   status,
		Error:    errText,
		Detail:   detail,
	}
	metrics.PipelineStageDuration.WithLabelValues(string(st), string(status)).Observe(ev.Duration.Seconds())
	if err := r.handle.Record(ev); err != nil {
		log.Error("Trace record failed", zap.Error(err))
	}
	log.Debug("Stage finished",
		zap.String("status", string(status)),
		zap.Duration("duration", ev.Duration),
		zap.String("detail", detail),
	)
}
