package chi

import (
	"time"

	"github.com/kailas-cloud/vecrec/internal/domain/constraint"
	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
	"github.com/kailas-cloud/vecrec/internal/domain/intent"
	"github.com/kailas-cloud/vecrec/internal/domain/recommendation"
	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
	"github.com/kailas-cloud/vecrec/internal/usecase/pipeline"
)

type recommendationRequest struct {
	Query             string `json:"query"`
	SessionID         string `json:"session_id,omitempty"`
	TopN              *int   `json:"top_n,omitempty"`
	IncludeOutOfStock *bool  `json:"include_out_of_stock,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type intentDTO struct {
	PrimaryCategory string            `json:"primary_category,omitempty"`
	Subcategory     string            `json:"subcategory,omitempty"`
	ProductType     string            `json:"product_type,omitempty"`
	PriceMin        *float64          `json:"price_min,omitempty"`
	PriceMax        *float64          `json:"price_max,omitempty"`
	Urgency         string            `json:"urgency"`
	TimelineDays    *int              `json:"timeline_days,omitempty"`
	Filters         map[string]string `json:"filters,omitempty"`
	UseCase         string            `json:"use_case,omitempty"`
	Confidence      float64           `json:"confidence"`
	Source          string            `json:"source"`
}

type weatherDTO struct {
	Location  string `json:"location"`
	TempC     int    `json:"temp_c"`
	Condition string `json:"condition"`
	Humidity  int    `json:"humidity"`
	Season    string `json:"season"`
	Source    string `json:"source"`
}

type temporalDTO struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"day_of_week"`
	TimeOfDay string `json:"time_of_day"`
	IsWeekend bool   `json:"is_weekend"`
	Season    string `json:"season"`
}

type contextDTO struct {
	Location    string      `json:"location,omitempty"`
	Weather     *weatherDTO `json:"weather,omitempty"`
	WeatherTags []string    `json:"weather_tags,omitempty"`
	Temporal    temporalDTO `json:"temporal"`
	HistorySize int         `json:"history_size"`
}

type constraintsDTO struct {
	Category string   `json:"category,omitempty"`
	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
	MinStock int      `json:"min_stock"`
}

type inventoryDTO struct {
	TotalMatching int     `json:"total_matching"`
	InStockCount  int     `json:"in_stock_count"`
	MinPrice      float64 `json:"min_price"`
	MaxPrice      float64 `json:"max_price"`
}

type breakdownDTO struct {
	Similarity  float64 `json:"similarity"`
	PriceFit    float64 `json:"price_fit"`
	StockLevel  float64 `json:"stock_level"`
	FilterMatch float64 `json:"filter_match"`
	Popularity  float64 `json:"popularity"`
}

type resultDTO struct {
	Rank          int          `json:"rank"`
	SKU           string       `json:"sku"`
	Title         string       `json:"title"`
	Brand         string       `json:"brand,omitempty"`
	Category      string       `json:"category"`
	Price         float64      `json:"price"`
	StockQuantity int          `json:"stock_quantity"`
	Similarity    float64      `json:"similarity"`
	FinalScore    float64      `json:"final_score"`
	Breakdown     breakdownDTO `json:"breakdown"`
}

type eventDTO struct {
	Stage      string    `json:"stage"`
	Start      time.Time `json:"start"`
	DurationMS float64   `json:"duration_ms"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

type traceDTO struct {
	RequestID string     `json:"request_id"`
	Outcome   string     `json:"outcome"`
	Started   time.Time  `json:"started"`
	Finished  time.Time  `json:"finished"`
	Events    []eventDTO `json:"events"`
}

type recommendationResponse struct {
	RequestID   string         `json:"request_id"`
	Intent      intentDTO      `json:"intent"`
	Context     contextDTO     `json:"context"`
	Constraints constraintsDTO `json:"constraints"`
	Inventory   inventoryDTO   `json:"inventory"`
	Candidates  int            `json:"candidates"`
	Results     []resultDTO    `json:"results"`
	Response    string         `json:"response"`
	Trace       traceDTO       `json:"trace"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Build   string            `json:"build"`
	Checks  map[string]string `json:"checks"`
}

func optFloat(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func intentToDTO(in intent.Intent) intentDTO {
	d := intentDTO{
		PrimaryCategory: in.PrimaryCategory(),
		Subcategory:     in.Subcategory(),
		ProductType:     in.ProductType(),
		PriceMin:        optFloat(in.PriceMin()),
		PriceMax:        optFloat(in.PriceMax()),
		Urgency:         string(in.Urgency()),
		Filters:         in.Filters(),
		UseCase:         in.UseCase(),
		Confidence:      in.Confidence(),
		Source:          string(in.Source()),
	}
	if days, ok := in.TimelineDays(); ok {
		d.TimelineDays = &days
	}
	return d
}

func contextToDTO(c enrichment.Context) contextDTO {
	d := contextDTO{
		Location:    c.Location,
		WeatherTags: c.WeatherTags,
		Temporal: temporalDTO{
			Date:      c.Temporal.Date,
			DayOfWeek: c.Temporal.DayOfWeek,
			TimeOfDay: c.Temporal.TimeOfDay,
			IsWeekend: c.Temporal.IsWeekend,
			Season:    c.Temporal.Season,
		},
		HistorySize: len(c.History),
	}
	if w := c.Weather; w.Source != "" {
		d.Weather = &weatherDTO{
			Location: w.Location, TempC: w.TempC, Condition: w.Condition,
			Humidity: w.Humidity, Season: w.Season, Source: w.Source,
		}
	}
	return d
}

func constraintsToDTO(s constraint.Set) constraintsDTO {
	return constraintsDTO{
		Category: s.Category(),
		PriceMin: optFloat(s.PriceMin()),
		PriceMax: optFloat(s.PriceMax()),
		MinStock: s.MinStock(),
	}
}

func resultsToDTO(rs []recommendation.RankedResult) []resultDTO {
	out := make([]resultDTO, 0, len(rs))
	for i, r := range rs {
		it := r.Item
		out = append(out, resultDTO{
			Rank:          i + 1,
			SKU:           it.SKU(),
			Title:         it.Title(),
			Brand:         it.Brand(),
			Category:      it.Category(),
			Price:         it.Price(),
			StockQuantity: it.StockQuantity(),
			Similarity:    r.Similarity,
			FinalScore:    r.FinalScore,
			Breakdown: breakdownDTO{
				Similarity:  r.Breakdown.Similarity,
				PriceFit:    r.Breakdown.PriceFit,
				StockLevel:  r.Breakdown.StockLevel,
				FilterMatch: r.Breakdown.FilterMatch,
				Popularity:  r.Breakdown.Popularity,
			},
		})
	}
	return out
}

func traceToDTO(rec domtrace.Record) traceDTO {
	d := traceDTO{
		RequestID: rec.RequestID,
		Outcome:   string(rec.Outcome),
		Started:   rec.Started,
		Finished:  rec.Finished,
		Events:    make([]eventDTO, 0, len(rec.Events)),
	}
	for _, ev := range rec.Events {
		d.Events = append(d.Events, eventDTO{
			Stage:      string(ev.Name),
			Start:      ev.Start,
			DurationMS: ev.DurationMS(),
			Status:     string(ev.Status),
			Error:      ev.Error,
			Detail:     ev.Detail,
		})
	}
	return d
}

func resultToResponse(res *pipeline.Result) recommendationResponse {
	return recommendationResponse{
		RequestID:   res.RequestID,
		Intent:      intentToDTO(res.Intent),
		Context:     contextToDTO(res.Context),
		Constraints: constraintsToDTO(res.Constraints),
		Inventory: inventoryDTO{
			TotalMatching: res.Inventory.TotalMatching,
			InStockCount:  res.Inventory.InStockCount,
			MinPrice:      res.Inventory.MinPrice,
			MaxPrice:      res.Inventory.MaxPrice,
		},
		Candidates: res.Candidates,
		Results:    resultsToDTO(res.Ranked),
		Response:   res.ResponseText,
		Trace:      traceToDTO(res.Trace),
	}
}
