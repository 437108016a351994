package constraint

import (
	"context"

	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
)

// Inventory summarizes catalog items behind a predicate.
type Inventory interface {
	Stats(ctx context.Context, set constraint.Set) (constraint.Summary, error)
}
