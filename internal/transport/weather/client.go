package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
)

const (
	// DefaultBaseURL is the public wttr.in endpoint.
	DefaultBaseURL = "https://wttr.in"
	defaultTimeout = 5 * time.Second
	sourceName     = "wttr.in"
)

// Client fetches current conditions from a wttr.in compatible service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a weather client. every and burst configure the request rate;
// zero values use one request per 200ms with a burst of 5.
func New(baseURL string, every time.Duration, burst int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if every <= 0 {
		every = 200 * time.Millisecond
	}
	if burst <= 0 {
		burst = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(every), burst),
	}
}

// j1Response is the subset of the format=j1 document we read.
type j1Response struct {
	CurrentCondition []struct {
		TempC       string `json:"temp_C"`
		Humidity    string `json:"humidity"`
		WeatherDesc []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}

// Current returns the current weather at location.
func (c *Client) Current(ctx context.Context, location string) (enrichment.Weather, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return enrichment.Weather{}, fmt.Errorf("weather rate limit: %w", err)
	}

	u := c.baseURL + "/" + url.PathEscape(location) + "?format=j1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return enrichment.Weather{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return enrichment.Weather{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return enrichment.Weather{}, fmt.Errorf("weather request: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return enrichment.Weather{}, fmt.Errorf("read weather response: %w", err)
	}

	var doc j1Response
	if err := json.Unmarshal(body, &doc); err != nil {
		return enrichment.Weather{}, fmt.Errorf("decode weather response: %w", err)
	}
	if len(doc.CurrentCondition) == 0 {
		return enrichment.Weather{}, fmt.Errorf("weather response: no current condition")
	}

	cur := doc.CurrentCondition[0]
	temp, err := strconv.Atoi(cur.TempC)
	if err != nil {
		return enrichment.Weather{}, fmt.Errorf("weather response: temp_C %q", cur.TempC)
	}
	humidity, _ := strconv.Atoi(cur.Humidity)

	w := enrichment.Weather{
		Location: location,
		TempC:    temp,
		Humidity: humidity,
		Source:   sourceName,
	}
	if len(cur.WeatherDesc) > 0 {
		w.Condition = strings.TrimSpace(cur.WeatherDesc[0].Value)
	}
	return w, nil
}
