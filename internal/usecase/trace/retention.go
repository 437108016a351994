package trace

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/vecrec/internal/domain"
	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
)

const defaultRetention = 1000

// Retention keeps the most recent finished traces for lookup.
type Retention struct {
	cache *lru.Cache[string, domtrace.Record]
}

// NewRetention creates a retention buffer of the given size.
func NewRetention(size int) (*Retention, error) {
	if size <= 0 {
		size = defaultRetention
	}
	c, err := lru.New[string, domtrace.Record](size)
	if err != nil {
		return nil, fmt.Errorf("create trace cache: %w", err)
	}
	return &Retention{cache: c}, nil
}

// Publish implements Sink.
func (r *Retention) Publish(_ context.Context, rec domtrace.Record) error {
	r.cache.Add(rec.RequestID, rec.Clone())
	return nil
}

// Get returns a retained trace.
func (r *Retention) Get(requestID string) (domtrace.Record, error) {
	rec, ok := r.cache.Get(requestID)
	if !ok {
		return domtrace.Record{}, fmt.Errorf("trace %s: %w", requestID, domain.ErrNotFound)
	}
	return rec.Clone(), nil
}

// MultiSink fans a record out to several sinks, joining their errors.
type MultiSink []Sink

// Publish implements Sink.
func (m MultiSink) Publish(ctx context.Context, rec domtrace.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
