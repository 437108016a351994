package enrichment

import (
	"slices"
	"strings"
	"time"
)

// Weather is the current weather at the shopper's location.
type Weather struct {
	Location  string
	TempC     int
	Condition string
	Humidity  int
	Season    string
	// Source is "wttr.in" for live data or "simulated" for the seasonal fallback.
	Source string
}

// Temporal is the shopper's calendar context.
type Temporal struct {
	Date      string
	DayOfWeek string
	Hour      int
	TimeOfDay string
	IsWeekend bool
	Season    string
}

// Interaction is one past query in a session.
type Interaction struct {
	Category    string
	ProductType string
	At          time.Time
}

// Context is everything the CONTEXT stage adds to an intent.
type Context struct {
	Location    string
	Weather     Weather
	WeatherTags []string
	Temporal    Temporal
	History     []Interaction
}

// Clone returns a deep copy.
func (c Context) Clone() Context {
	c.WeatherTags = slices.Clone(c.WeatherTags)
	c.History = slices.Clone(c.History)
	return c
}

// WeatherTags maps weather to product tags, most relevant first, without duplicates.
func WeatherTags(w Weather) []string {
	var tags []string
	switch {
	case w.TempC >= 30:
		tags = []string{"summer", "lightweight", "breathable", "cooling", "uv protection"}
	case w.TempC >= 20:
		tags = []string{"spring", "light layers", "comfortable"}
	case w.TempC >= 10:
		tags = []string{"autumn", "layering", "warm"}
	default:
		tags = []string{"winter", "insulated", "warm", "waterproof"}
	}

	cond := strings.ToLower(w.Condition)
	if strings.Contains(cond, "rain") {
		tags = append(tags, "waterproof", "rain gear")
	}
	if strings.Contains(cond, "sun") {
		tags = append(tags, "sun protection", "outdoor")
	}
	if strings.Contains(cond, "wind") {
		tags = append(tags, "windproof")
	}

	out := tags[:0]
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Hemisphere selects the season calendar.
type Hemisphere string

// Hemispheres.
const (
	Southern Hemisphere = "southern"
	Northern Hemisphere = "northern"
)

// Season returns the season name for a month.
func Season(m time.Month, h Hemisphere) string {
	north := map[time.Month]string{
		time.December: "winter", time.January: "winter", time.February: "winter",
		time.March: "spring", time.April: "spring", time.May: "spring",
		time.June: "summer", time.July: "summer", time.August: "summer",
		time.September: "autumn", time.October: "autumn", time.November: "autumn",
	}
	s := north[m]
	if h == Northern {
		return s
	}
	switch s {
	case "winter":
		return "summer"
	case "summer":
		return "winter"
	case "spring":
		return "autumn"
	default:
		return "spring"
	}
}

// NewTemporal derives calendar context from a timestamp.
func NewTemporal(t time.Time, h Hemisphere) Temporal {
	var tod string
	switch hr := t.Hour(); {
	case hr < 5:
		tod = "night"
	case hr < 12:
		tod = "morning"
	case hr < 17:
		tod = "afternoon"
	case hr < 21:
		tod = "evening"
	default:
		tod = "night"
	}
	wd := t.Weekday()
	return Temporal{
		Date:      t.Format(time.DateOnly),
		DayOfWeek: wd.String(),
		Hour:      t.Hour(),
		TimeOfDay: tod,
		IsWeekend: wd == time.Saturday || wd == time.Sunday,
		Season:    Season(t.Month(), h),
	}
}
