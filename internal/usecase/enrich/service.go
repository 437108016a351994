package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
)

const (
	// DefaultLocation is used when the request carries none.
	DefaultLocation    = "Melbourne, AU"
	defaultHistorySize = 5
)

// Seasonal weather used when the live provider is unavailable.
var simulated = map[string]enrichment.Weather{
	"summer": {TempC: 32, Condition: "Sunny", Humidity: 45},
	"winter": {TempC: 8, Condition: "Cloudy", Humidity: 70},
	"spring": {TempC: 20, Condition: "Partly Cloudy", Humidity: 55},
	"autumn": {TempC: 15, Condition: "Windy", Humidity: 60},
}

// Config tunes the enrichment service.
type Config struct {
	Location    string
	Hemisphere  enrichment.Hemisphere
	HistorySize int
}

// Service adds weather, calendar and session context to an intent.
type Service struct {
	weather  WeatherProvider
	sessions SessionStore
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// New creates an enrichment service. weather and sessions may be nil.
func New(weather WeatherProvider, sessions SessionStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.Location == "" {
		cfg.Location = DefaultLocation
	}
	if cfg.Hemisphere == "" {
		cfg.Hemisphere = enrichment.Southern
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = defaultHistorySize
	}
	return &Service{weather: weather, sessions: sessions, cfg: cfg, logger: logger, now: time.Now}
}

// Enrich builds the context for one request. Weather failures fall back to the
// seasonal simulation, so only cancellation makes it fail.
func (s *Service) Enrich(ctx context.Context, in intent.Intent, sessionID string) (enrichment.Context, error) {
	now := s.now()
	temporal := enrichment.NewTemporal(now, s.cfg.Hemisphere)
	w := s.currentWeather(ctx, temporal.Season)
	if err := ctx.Err(); err != nil {
		return enrichment.Context{}, err
	}

	out := enrichment.Context{
		Location:    s.cfg.Location,
		Weather:     w,
		WeatherTags: enrichment.WeatherTags(w),
		Temporal:    temporal,
	}

	if s.sessions != nil && sessionID != "" {
		out.History = s.sessions.History(sessionID, s.cfg.HistorySize)
		s.sessions.Append(sessionID, enrichment.Interaction{
			Category:    in.PrimaryCategory(),
			ProductType: in.ProductType(),
			At:          now,
		})
	}
	return out, nil
}

func (s *Service) currentWeather(ctx context.Context, season string) enrichment.Weather {
	if s.weather != nil {
		w, err := s.weather.Current(ctx, s.cfg.Location)
		if err == nil {
			w.Season = season
			return w
		}
		s.logger.Debug("Weather unavailable, using seasonal simulation",
			zap.String("location", s.cfg.Location),
			zap.Error(err),
		)
	}
	w := simulated[season]
	w.Location = s.cfg.Location
	w.Season = season
	w.Source = "simulated"
	return w
}
