package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	domcat "github.com/kailas-cloud/vecrec/internal/domain/catalog"
	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
)

// MemoryRepo keeps the whole catalog in process. Similarity is left to the retriever.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]domcat.Item
	order []string
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]domcat.Item)}
}

// LoadFile reads a JSON-lines catalog file.
func LoadFile(path string) (*MemoryRepo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	items, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	repo := NewMemory()
	if err := repo.Upsert(context.Background(), items); err != nil {
		return nil, err
	}
	return repo, nil
}

// ReadRecords decodes JSON-lines records into validated items. Blank lines are skipped.
func ReadRecords(r io.Reader) ([]domcat.Item, error) {
	var items []domcat.Item
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		it, err := rec.ToItem()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, it)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// WriteRecords encodes items as JSON lines, the format ReadRecords accepts.
func WriteRecords(w io.Writer, items []domcat.Item) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, it := range items {
		if err := enc.Encode(RecordFromItem(it)); err != nil {
			return fmt.Errorf("encode %s: %w", it.SKU(), err)
		}
	}
	return bw.Flush()
}

// Upsert inserts or replaces items by SKU.
func (r *MemoryRepo) Upsert(_ context.Context, items []domcat.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range items {
		if _, ok := r.items[it.SKU()]; !ok {
			r.order = append(r.order, it.SKU())
		}
		r.items[it.SKU()] = it
	}
	return nil
}

// FilteredScan returns every item satisfying set, in insertion order.
func (r *MemoryRepo) FilteredScan(ctx context.Context, set constraint.Set) ([]domcat.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domcat.Item, 0, len(r.order))
	for _, sku := range r.order {
		if it := r.items[sku]; set.Matches(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Stats summarizes items satisfying set.
func (r *MemoryRepo) Stats(ctx context.Context, set constraint.Set) (constraint.Summary, error) {
	items, err := r.FilteredScan(ctx, set)
	if err != nil {
		return constraint.Summary{}, err
	}
	var s constraint.Summary
	for _, it := range items {
		s.Accumulate(it)
	}
	return s, nil
}

// Ping always succeeds.
func (r *MemoryRepo) Ping(context.Context) error { return nil }

// Items returns all items in insertion order.
func (r *MemoryRepo) Items() []domcat.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domcat.Item, 0, len(r.order))
	for _, sku := range r.order {
		out = append(out, r.items[sku])
	}
	return out
}

// Len returns the number of items.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
