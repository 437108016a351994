package ingest

import (
	"context"

	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
)

// Writer persists catalog items.
type Writer interface {
	Upsert(ctx context.Context, items []domcat.Item) error
}

// SchemaEnsurer is implemented by stores that need an index or collection before writes.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}
