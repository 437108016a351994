package enrichment

import (
	"slices"
	"testing"
	"time"
)

func TestWeatherTags(t *testing.T) {
	tests := []struct {
		name string
		w    Weather
		want []string
	}{
		{"hot and sunny", Weather{TempC: 32, Condition: "Sunny"},
			[]string{"summer", "lightweight", "breathable", "cooling", "uv protection", "sun protection", "outdoor"}},
		{"mild", Weather{TempC: 20, Condition: "Partly Cloudy"}, []string{"spring", "light layers", "comfortable"}},
		{"cool and windy", Weather{TempC: 15, Condition: "Windy"}, []string{"autumn", "layering", "warm", "windproof"}},
		{"cold rain dedupes", Weather{TempC: 4, Condition: "Light rain"},
			[]string{"winter", "insulated", "warm", "waterproof", "rain gear"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeatherTags(tt.w); !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSeason(t *testing.T) {
	if s := Season(time.January, Southern); s != "summer" {
		t.Errorf("expected southern January summer, got %s", s)
	}
	if s := Season(time.January, Northern); s != "winter" {
		t.Errorf("expected northern January winter, got %s", s)
	}
	if s := Season(time.April, Southern); s != "autumn" {
		t.Errorf("expected southern April autumn, got %s", s)
	}
}

func TestNewTemporal(t *testing.T) {
	ts := time.Date(2026, time.October, 17, 14, 30, 0, 0, time.UTC) // Saturday
	got := NewTemporal(ts, Southern)
	if got.Date != "2026-10-17" || got.DayOfWeek != "Saturday" || !got.IsWeekend {
		t.Errorf("unexpected calendar fields %+v", got)
	}
	if got.TimeOfDay != "afternoon" || got.Season != "spring" {
		t.Errorf("unexpected time of day/season %+v", got)
	}
}
