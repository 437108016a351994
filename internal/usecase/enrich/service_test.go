package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
)

// --- Mocks ---

type mockWeather struct {
	w   enrichment.Weather
	err error
}

func (m *mockWeather) Current(context.Context, string) (enrichment.Weather, error) {
	return m.w, m.err
}

type mockSessions struct {
	history  []enrichment.Interaction
	appended []enrichment.Interaction
	limit    int
}

func (m *mockSessions) History(_ string, limit int) []enrichment.Interaction {
	m.limit = limit
	return m.history
}

func (m *mockSessions) Append(_ string, it enrichment.Interaction) {
	m.appended = append(m.appended, it)
}

func newService(w WeatherProvider, s SessionStore) *Service {
	svc := New(w, s, Config{}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

// --- Tests ---

func TestEnrich_LiveWeather(t *testing.T) {
	svc := newService(&mockWeather{w: enrichment.Weather{TempC: 12, Condition: "Light rain", Source: "wttr.in"}}, nil)
	in, _ := intent.New(intent.Params{})

	got, err := svc.Enrich(context.Background(), in, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Weather.Source != "wttr.in" || got.Weather.Season != "summer" {
		t.Errorf("unexpected weather %+v", got.Weather)
	}
	if got.WeatherTags[0] != "autumn" {
		t.Errorf("expected temperature-driven tags, got %v", got.WeatherTags)
	}
	if got.Location != DefaultLocation {
		t.Errorf("expected default location, got %q", got.Location)
	}
}

func TestEnrich_SimulatedOnWeatherFailure(t *testing.T) {
	svc := newService(&mockWeather{err: errors.New("timeout")}, nil)
	in, _ := intent.New(intent.Params{})

	got, err := svc.Enrich(context.Background(), in, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Weather.Source != "simulated" || got.Weather.TempC != 32 {
		t.Errorf("expected simulated southern summer, got %+v", got.Weather)
	}
}

func TestEnrich_Session(t *testing.T) {
	prev := []enrichment.Interaction{{Category: "Home & Living"}}
	sessions := &mockSessions{history: prev}
	svc := newService(nil, sessions)
	in, _ := intent.New(intent.Params{PrimaryCategory: "Clothing", ProductType: "Sneakers"})

	got, err := svc.Enrich(context.Background(), in, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.History) != 1 || got.History[0].Category != "Home & Living" {
		t.Errorf("expected prior history, got %+v", got.History)
	}
	if sessions.limit != 5 {
		t.Errorf("expected history limit 5, got %d", sessions.limit)
	}
	if len(sessions.appended) != 1 || sessions.appended[0].ProductType != "Sneakers" {
		t.Errorf("expected current query appended, got %+v", sessions.appended)
	}
}

func TestEnrich_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in, _ := intent.New(intent.Params{})
	if _, err := newService(nil, nil).Enrich(ctx, in, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
