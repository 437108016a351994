package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upstream model APIs, used as the "api" label.
const (
	APIEmbeddings = "embeddings"
	APIChat       = "chat"
)

// Model provider Prometheus metrics, shared by the embedding and chat clients.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrec",
			Name:      "provider_requests_total",
			Help:      "Model provider requests by API and outcome",
		},
		[]string{"api", "provider", "model", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecrec",
			Name:      "provider_request_duration_seconds",
			Help:      "Model provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"api", "provider", "model"},
	)

	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrec",
			Name:      "provider_tokens_total",
			Help:      "Tokens billed by model providers",
		},
		[]string{"api", "provider", "model", "type"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrec",
			Name:      "provider_errors_total",
			Help:      "Model provider failures by kind",
		},
		[]string{"api", "provider", "error_type"},
	)

	BudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vecrec",
			Name:      "embedding_budget_tokens_remaining",
			Help:      "Embedding tokens left in the current quota window",
		},
		[]string{"provider", "period"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrec",
			Name:      "embedding_cache_total",
			Help:      "Query embedding cache lookups",
		},
		[]string{"result"}, // hit, miss
	)
)

// ProviderCall times one upstream request. Call Done exactly once.
type ProviderCall struct {
	api, provider, model string
	start                time.Time
}

// StartProviderCall begins timing a request to provider.
func StartProviderCall(api, provider, model string) ProviderCall {
	return ProviderCall{api: api, provider: provider, model: model, start: time.Now()}
}

// Done records duration and outcome. errorType is empty on success.
func (c ProviderCall) Done(errorType string) {
	ProviderRequestDuration.WithLabelValues(c.api, c.provider, c.model).Observe(time.Since(c.start).Seconds())
	if errorType != "" {
		ProviderRequestsTotal.WithLabelValues(c.api, c.provider, c.model, "error").Inc()
		ProviderErrorsTotal.WithLabelValues(c.api, c.provider, errorType).Inc()
		return
	}
	ProviderRequestsTotal.WithLabelValues(c.api, c.provider, c.model, "success").Inc()
}

// Tokens adds billed prompt and total token counts.
func (c ProviderCall) Tokens(prompt, total int) {
	ProviderTokensTotal.WithLabelValues(c.api, c.provider, c.model, "prompt").Add(float64(prompt))
	ProviderTokensTotal.WithLabelValues(c.api, c.provider, c.model, "total").Add(float64(total))
}

var providerMetricsRegistered bool

// RegisterProviderMetrics registers model provider metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		ProviderRequestsTotal,
		ProviderRequestDuration,
		ProviderTokensTotal,
		ProviderErrorsTotal,
		BudgetTokensRemaining,
		EmbeddingCacheTotal,
	)
	providerMetricsRegistered = true
}
