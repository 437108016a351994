package trace

import (
	"context"

	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
)

// Sink receives every finished trace record.
type Sink interface {
	Publish(ctx context.Context, rec domtrace.Record) error
}
