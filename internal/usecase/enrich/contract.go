package enrich

import (
	"context"

	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
)

// WeatherProvider fetches live weather.
type WeatherProvider interface {
	Current(ctx context.Context, location string) (enrichment.Weather, error)
}

// SessionStore keeps recent interactions per session.
type SessionStore interface {
	History(sessionID string, limit int) []enrichment.Interaction
	Append(sessionID string, it enrichment.Interaction)
}
