package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/metrics"
)

func (r *run) intentWith(x IntentExtractor) stageFunc {
	return func(ctx context.Context) (string, error) {
		in, err := x.Extract(ctx, r.req.Query)
		if err != nil {
			return "", err
		}
		r.res.Intent = in
		return fmt.Sprintf("source=%s confidence=%.2f", in.Source(), in.Confidence()), nil
	}
}

func (r *run) enrich(ctx context.Context) (string, error) {
	if r.o.deps.Context == nil {
		return detailNotWired, nil
	}
	c, err := r.o.deps.Context.Enrich(ctx, r.res.Intent, r.req.SessionID)
	if err != nil {
		return "", err
	}
	r.res.Context = c
	return fmt.Sprintf("weather=%s tags=%d history=%d", c.Weather.Source, len(c.WeatherTags), len(c.History)), nil
}

func (r *run) constrain(ctx context.Context) (string, error) {
	set, sum, err := r.o.deps.Constraints.Resolve(ctx, r.res.Intent, constraint.Options{
		IncludeOutOfStock: r.req.IncludeOutOfStock || r.o.cfg.IncludeOutOfStock,
	})
	if err != nil {
		return "", err
	}
	r.res.Constraints, r.res.Inventory = set, sum
	return fmt.Sprintf("%s matching=%d in_stock=%d", set, sum.TotalMatching, sum.InStockCount), nil
}

func (r *run) retrieve(ctx context.Context) (string, error) {
	text := SearchText(r.res.Intent, r.res.Context.WeatherTags)
	emb, err := r.o.deps.Embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed search text: %w", err)
	}
	cands, err := r.o.deps.Retriever.Retrieve(ctx, emb.Embedding, r.res.Constraints, r.o.cfg.CandidatePool)
	if err != nil {
		return "", err
	}
	r.candidates = cands
	r.res.Candidates = len(cands)
	metrics.PipelineCandidates.Observe(float64(len(cands)))
	return "candidates=" + strconv.Itoa(len(cands)), nil
}

func (r *run) rank(_ context.Context) (string, error) {
	ranked, err := r.o.deps.Ranker.Rank(r.candidates, r.res.Intent, r.res.Inventory, r.req.TopN)
	if err != nil {
		return "", err
	}
	r.res.Ranked = ranked
	if len(r.candidates) == 0 {
		return domain.ErrEmptyCandidateSet.Error(), nil
	}
	return "ranked=" + strconv.Itoa(len(ranked)), nil
}

func (r *run) respondWith(s Synthesizer) stageFunc {
	return func(ctx context.Context) (string, error) {
		text, err := s.Synthesize(ctx, r.res.Ranked, r.res.Intent, r.res.Context)
		if err != nil {
			return "", err
		}
		r.res.ResponseText = text
		return "", nil
	}
}
