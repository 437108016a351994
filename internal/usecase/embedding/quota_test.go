package embedding

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/vecrec/internal/domain"
)

// --- Mocks ---

type mockCounterStore struct {
	mu     sync.Mutex
	values map[string]int64
	ttls   map[string]time.Duration
	loadFn func(key string) (int64, error)
}

func newMockCounterStore() *mockCounterStore {
	return &mockCounterStore{values: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (m *mockCounterStore) Add(_ context.Context, key string, n int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] += n
	m.ttls[key] = ttl
	return nil
}

func (m *mockCounterStore) Load(_ context.Context, key string) (int64, error) {
	if m.loadFn != nil {
		return m.loadFn(key)
	}
	return m.values[key], nil
}

func fixedClock(q *Quota, t time.Time) *time.Time {
	now := t
	q.now = func() time.Time { return now }
	for _, w := range q.windows {
		w.start = periodStart(w.Period, now)
	}
	return &now
}

// --- Tests ---

func TestQuota_RejectWhenDailyExhausted(t *testing.T) {
	q := NewQuota("openai", ActionReject, []Window{{Daily, 100}}, nil)
	q.Consume(100)

	if err := q.Allow(context.Background()); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected ErrEmbeddingQuotaExceeded, got %v", err)
	}
}

func TestQuota_WarnLetsRequestsThrough(t *testing.T) {
	q := NewQuota("openai", ActionWarn, []Window{{Daily, 100}}, nil)
	q.Consume(500)

	if err := q.Allow(context.Background()); err != nil {
		t.Fatalf("expected nil for warn action, got %v", err)
	}
}

func TestQuota_MonthlyWindow(t *testing.T) {
	q := NewQuota("openai", ActionReject, []Window{{Daily, 0}, {Monthly, 50}}, nil)
	q.Consume(50)

	if err := q.Allow(context.Background()); err == nil {
		t.Fatal("expected monthly window to reject")
	}
	if got := q.Remaining(Daily); got != -1 {
		t.Errorf("expected unlimited daily window, got %d", got)
	}
	if got := q.Remaining(Monthly); got != 0 {
		t.Errorf("expected 0 monthly remaining, got %d", got)
	}
}

func TestQuota_Remaining(t *testing.T) {
	q := NewQuota("openai", ActionWarn, []Window{{Daily, 1000}, {Monthly, 10000}}, nil)
	q.Consume(300)

	if got := q.Remaining(Daily); got != 700 {
		t.Errorf("expected daily 700, got %d", got)
	}
	if got := q.Remaining(Monthly); got != 9700 {
		t.Errorf("expected monthly 9700, got %d", got)
	}
	if got := q.Remaining("weekly"); got != -1 {
		t.Errorf("expected -1 for unknown period, got %d", got)
	}
}

func TestQuota_DayRollover(t *testing.T) {
	q := NewQuota("openai", ActionReject, []Window{{Daily, 100}, {Monthly, 1000}}, nil)
	now := fixedClock(q, time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC))
	q.Consume(100)

	*now = time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC)
	if err := q.Allow(context.Background()); err != nil {
		t.Fatalf("expected reset after midnight, got %v", err)
	}
	if got := q.Used(Daily); got != 0 {
		t.Errorf("expected daily reset, got %d", got)
	}
	if got := q.Used(Monthly); got != 100 {
		t.Errorf("expected monthly kept, got %d", got)
	}
}

func TestQuota_PersistsAndLoads(t *testing.T) {
	store := newMockCounterStore()
	q := NewQuota("openai", ActionWarn, []Window{{Daily, 1000}, {Monthly, 0}}, nil)
	fixedClock(q, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	q.WithStore(context.Background(), store)
	q.Consume(42)

	daily := "vecrec:quota:openai:daily:2026-03-10"
	monthly := "vecrec:quota:openai:monthly:2026-03"
	if store.values[daily] != 42 || store.values[monthly] != 42 {
		t.Fatalf("unexpected stored values: %v", store.values)
	}
	if store.ttls[daily] != 48*time.Hour {
		t.Errorf("unexpected daily ttl %s", store.ttls[daily])
	}

	q2 := NewQuota("openai", ActionWarn, []Window{{Daily, 1000}}, nil)
	fixedClock(q2, time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC))
	q2.WithStore(context.Background(), store)
	if got := q2.Used(Daily); got != 42 {
		t.Errorf("expected loaded usage 42, got %d", got)
	}
}

func TestQuota_LoadErrorKeepsZero(t *testing.T) {
	store := newMockCounterStore()
	store.loadFn = func(string) (int64, error) { return 0, errors.New("down") }
	q := NewQuota("openai", ActionWarn, []Window{{Daily, 10}}, nil).WithStore(context.Background(), store)
	if got := q.Used(Daily); got != 0 {
		t.Errorf("expected 0 after failed load, got %d", got)
	}
}

func TestQuota_ErrorNamesWindow(t *testing.T) {
	q := NewQuota("openai", ActionReject, []Window{{Monthly, 1}}, nil)
	q.Consume(1)
	err := q.Allow(context.Background())
	if err == nil || !strings.Contains(err.Error(), "monthly") {
		t.Errorf("expected monthly in error, got %v", err)
	}
}

func TestQuota_ConcurrentConsume(t *testing.T) {
	q := NewQuota("openai", ActionWarn, []Window{{Daily, 0}}, nil)
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Consume(1)
			_ = q.Allow(context.Background())
		}()
	}
	wg.Wait()
	if got := q.Used(Daily); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}
