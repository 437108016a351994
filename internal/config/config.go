package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported catalog drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverQdrant = "qdrant"
)

// Config holds the vecrec service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Context   ContextConfig   `yaml:"context"`
	Trace     TraceConfig     `yaml:"trace"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds catalog store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis, valkey, qdrant (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Collection       string   `yaml:"collection"`   // qdrant collection
	CatalogFile      string   `yaml:"catalog_file"` // JSON lines, memory driver
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers     map[string]ProviderConfig `yaml:"providers"`
	Vectorizer    VectorizerConfig          `yaml:"vectorizer"`
	CacheTTLHours int                       `yaml:"cache_ttl_hours"` // redis/valkey only
	MaxBatch      int                       `yaml:"max_batch"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string       `yaml:"api_key"`
	BaseURL string       `yaml:"base_url"`
	Budget  BudgetConfig `yaml:"budget"`
}

// VectorizerConfig selects the model used for items and queries.
type VectorizerConfig struct {
	Provider            string `yaml:"provider"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// LLMConfig holds chat model settings for intent extraction and synthesis.
type LLMConfig struct {
	Enabled     bool    `yaml:"enabled"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// TimeoutsConfig holds per-stage budgets in milliseconds. Zero keeps the built-in default.
type TimeoutsConfig struct {
	IntentMS     int `yaml:"intent_ms"`
	ContextMS    int `yaml:"context_ms"`
	ConstraintMS int `yaml:"constraint_ms"`
	CandidateMS  int `yaml:"candidate_ms"`
	RankMS       int `yaml:"rank_ms"`
	ResponseMS   int `yaml:"response_ms"`
}

// PipelineConfig tunes the recommendation pipeline.
type PipelineConfig struct {
	Timeouts          TimeoutsConfig `yaml:"timeouts"`
	CandidatePool     int            `yaml:"candidate_pool"`
	TopN              int            `yaml:"top_n"`
	ScanParallelism   int            `yaml:"scan_parallelism"`
	PriceCap          float64        `yaml:"price_cap"`
	IncludeOutOfStock bool           `yaml:"include_out_of_stock"`
}

// WeightsConfig holds the ranking blend. All zero means "use defaults".
type WeightsConfig struct {
	Similarity  float64 `yaml:"similarity"`
	PriceFit    float64 `yaml:"price_fit"`
	FilterMatch float64 `yaml:"filter_match"`
	StockLevel  float64 `yaml:"stock_level"`
	Popularity  float64 `yaml:"popularity"`
}

// IsZero reports whether no weight was configured.
func (w WeightsConfig) IsZero() bool {
	return w == WeightsConfig{}
}

// RankingConfig holds ranking settings.
type RankingConfig struct {
	Weights         WeightsConfig `yaml:"weights"`
	StockSaturation float64       `yaml:"stock_saturation"` // 0: largest stock among candidates
}

// ContextConfig holds context enrichment settings.
type ContextConfig struct {
	WeatherURL       string `yaml:"weather_url"`
	WeatherEnabled   bool   `yaml:"weather_enabled"`
	WeatherEveryMS   int    `yaml:"weather_every_ms"`
	WeatherBurst     int    `yaml:"weather_burst"`
	Location         string `yaml:"location"`
	Hemisphere       string `yaml:"hemisphere"` // northern, southern
	HistorySize      int    `yaml:"history_size"`
	MaxSessions      int    `yaml:"max_sessions"`
	SessionsDisabled bool   `yaml:"sessions_disabled"`
}

// TraceConfig holds trace retention and export settings.
type TraceConfig struct {
	Retention   int    `yaml:"retention"`
	NATSURL     string `yaml:"nats_url"` // empty disables export
	NATSSubject string `yaml:"nats_subject"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.Collection == "" {
		c.Database.Collection = "catalog"
	}
	if c.Database.HNSWM <= 0 {
		c.Database.HNSWM = 32
	}
	if c.Database.HNSWEFConstruct <= 0 {
		c.Database.HNSWEFConstruct = 400
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 24 * 30
	}
	if c.Embedding.MaxBatch <= 0 {
		c.Embedding.MaxBatch = 256
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 512
	}
	if c.Pipeline.CandidatePool <= 0 {
		c.Pipeline.CandidatePool = 50
	}
	if c.Pipeline.TopN <= 0 {
		c.Pipeline.TopN = 5
	}
	if c.Pipeline.ScanParallelism <= 0 {
		c.Pipeline.ScanParallelism = 4
	}
	if c.Pipeline.PriceCap <= 0 {
		c.Pipeline.PriceCap = 10000
	}
	if c.Context.Hemisphere == "" {
		c.Context.Hemisphere = "southern"
	}
	if c.Context.HistorySize <= 0 {
		c.Context.HistorySize = 5
	}
	if c.Context.MaxSessions <= 0 {
		c.Context.MaxSessions = 10000
	}
	if c.Trace.Retention <= 0 {
		c.Trace.Retention = 1000
	}
	if c.Trace.NATSSubject == "" {
		c.Trace.NATSSubject = "vecrec.traces"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMemory:
		if c.Database.CatalogFile == "" {
			return fmt.Errorf("database.catalog_file is required for the memory driver")
		}
	case DriverRedis, DriverValkey, DriverQdrant:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	default:
		return fmt.Errorf("database.driver must be one of memory, redis, valkey, qdrant, got %q", c.Database.Driver)
	}
	for name, p := range c.Embedding.Providers {
		switch p.Budget.Action {
		case "", "warn", "reject":
			// ok
		default:
			return fmt.Errorf(
				"embedding.providers.%s.budget.action must be \"warn\" or \"reject\", got %q",
				name, p.Budget.Action,
			)
		}
	}
	if v := c.Embedding.Vectorizer; v.Provider != "" {
		if _, ok := c.Embedding.Providers[v.Provider]; !ok {
			return fmt.Errorf("embedding.vectorizer.provider %q is not configured", v.Provider)
		}
		if v.Dimensions <= 0 {
			return fmt.Errorf("embedding.vectorizer.dimensions must be positive")
		}
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required when llm is enabled")
	}
	if c.Pipeline.TopN > c.Pipeline.CandidatePool {
		return fmt.Errorf("pipeline.top_n (%d) must not exceed candidate_pool (%d)",
			c.Pipeline.TopN, c.Pipeline.CandidatePool)
	}
	switch c.Context.Hemisphere {
	case "northern", "southern":
	default:
		return fmt.Errorf("context.hemisphere must be \"northern\" or \"southern\", got %q", c.Context.Hemisphere)
	}
	return nil
}

// StageTimeout converts a millisecond setting into a duration.
func StageTimeout(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// findConfigPath locates the config file. CONFIG_PATH wins when set.
func findConfigPath(env string) string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
