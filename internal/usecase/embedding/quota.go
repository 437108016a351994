package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/domain"
	"github.com/kailas-cloud/vecrec/internal/metrics"
)

// Action is what Allow does once a window is exhausted.
type Action string

// Quota actions.
const (
	ActionWarn   Action = "warn"
	ActionReject Action = "reject"
)

// Period is the length of a quota window.
type Period string

// Quota periods. Windows are aligned to UTC calendar boundaries.
const (
	Daily   Period = "daily"
	Monthly Period = "monthly"
)

// Window is a token limit over one period. Limit 0 means unlimited.
type Window struct {
	Period Period
	Limit  int64
}

// CounterStore persists window counters across restarts.
type CounterStore interface {
	Add(ctx context.Context, key string, n int64, ttl time.Duration) error
	Load(ctx context.Context, key string) (int64, error)
}

type window struct {
	Window
	used  int64
	start time.Time
}

// Quota tracks token usage of one provider. Allow is answered from memory;
// Consume writes through to the store when one is attached.
type Quota struct {
	mu       sync.Mutex
	provider string
	action   Action
	windows  []*window
	store    CounterStore
	now      func() time.Time
	logger   *zap.Logger
}

// NewQuota creates a quota with the given windows.
func NewQuota(provider string, action Action, windows []Window, logger *zap.Logger) *Quota {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Quota{provider: provider, action: action, now: time.Now, logger: logger}
	now := q.now().UTC()
	for _, w := range windows {
		q.windows = append(q.windows, &window{Window: w, start: periodStart(w.Period, now)})
	}
	return q
}

// WithStore attaches persistent counters and loads the current windows from them.
func (q *Quota) WithStore(ctx context.Context, store CounterStore) *Quota {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.store = store
	now := q.now().UTC()
	for _, w := range q.windows {
		used, err := store.Load(ctx, q.key(w, now))
		if err != nil {
			q.logger.Warn("Quota counter load failed", zap.String("period", string(w.Period)), zap.Error(err))
			continue
		}
		w.used = used
	}
	return q
}

// Allow reports whether a new request may be sent.
func (q *Quota) Allow(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.roll()

	for _, w := range q.windows {
		if w.Limit == 0 || w.used < w.Limit {
			continue
		}
		if q.action == ActionReject {
			return fmt.Errorf("%w: %s %s window used %d of %d",
				domain.ErrEmbeddingQuotaExceeded, q.provider, w.Period, w.used, w.Limit)
		}
		q.logger.Warn("Token quota exceeded",
			zap.String("provider", q.provider),
			zap.String("period", string(w.Period)),
			zap.Int64("used", w.used),
			zap.Int64("limit", w.Limit),
		)
	}
	return nil
}

// Consume adds tokens to every window.
func (q *Quota) Consume(tokens int64) {
	if tokens <= 0 {
		return
	}
	q.mu.Lock()
	q.roll()
	now := q.now().UTC()
	type write struct {
		key string
		ttl time.Duration
	}
	writes := make([]write, 0, len(q.windows))
	for _, w := range q.windows {
		w.used += tokens
		metrics.BudgetTokensRemaining.WithLabelValues(q.provider, string(w.Period)).
			Set(float64(remaining(w)))
		writes = append(writes, write{q.key(w, now), 2 * periodLength(w.Period)})
	}
	store := q.store
	q.mu.Unlock()

	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, wr := range writes {
		if err := store.Add(ctx, wr.key, tokens, wr.ttl); err != nil {
			q.logger.Warn("Quota counter write failed", zap.String("key", wr.key), zap.Error(err))
		}
	}
}

// Remaining returns tokens left in the window of period p, or -1 when unlimited or unknown.
func (q *Quota) Remaining(p Period) int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.roll()
	for _, w := range q.windows {
		if w.Period == p {
			return remaining(w)
		}
	}
	return -1
}

// Used returns tokens consumed in the current window of period p.
func (q *Quota) Used(p Period) int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.roll()
	for _, w := range q.windows {
		if w.Period == p {
			return w.used
		}
	}
	return 0
}

func (q *Quota) roll() {
	now := q.now().UTC()
	for _, w := range q.windows {
		if s := periodStart(w.Period, now); s.After(w.start) {
			w.start, w.used = s, 0
		}
	}
}

func (q *Quota) key(w *window, now time.Time) string {
	layout := "2006-01-02"
	if w.Period == Monthly {
		layout = "2006-01"
	}
	return fmt.Sprintf("vecrec:quota:%s:%s:%s", q.provider, w.Period, now.Format(layout))
}

func remaining(w *window) int64 {
	if w.Limit == 0 {
		return -1
	}
	return max(w.Limit-w.used, 0)
}

func periodStart(p Period, t time.Time) time.Time {
	if p == Monthly {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func periodLength(p Period) time.Duration {
	if p == Monthly {
		return 31 * 24 * time.Hour
	}
	return 24 * time.Hour
}
