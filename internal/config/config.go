package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the propsearch API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	NLU       NLUConfig       `yaml:"nlu"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Index     IndexConfig     `yaml:"index"`
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

// DatabaseConfig holds document store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds key layout settings.
type StorageConfig struct {
	KeyPrefix         string `yaml:"key_prefix"`
	DefaultCollection string `yaml:"default_collection"`
}

// IndexConfig holds vector index build parameters.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construct"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	MaxInFlight int    `yaml:"max_in_flight"` // global concurrency gate for embed calls
	RetryMax    int    `yaml:"retry_max"`     // retries after a throttling signal
	TimeoutMS   int    `yaml:"timeout_ms"`    // per embed call
	RetryBaseMS int    `yaml:"retry_base_ms"` // first backoff delay, doubles per retry
}

// NLUConfig holds constraint extraction and query expansion settings.
// Both collaborators are optional; the keyword fallback and single-query
// execution cover their absence.
type NLUConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// SearchConfig holds retrieval and fusion tuning.
type SearchConfig struct {
	StrategyTimeoutMS    int     `yaml:"strategy_timeout_ms"`   // per retrieval strategy
	OverallDeadlineMS    int     `yaml:"overall_deadline_ms"`   // whole search request
	MaxBoost             float64 `yaml:"max_boost"`             // tag-boost multiplier cap
	MustHaveBoost        float64 `yaml:"must_have_boost"`       // boost weight for required features
	NiceToHaveBoost      float64 `yaml:"nice_to_have_boost"`    // boost weight for optional features
	MaxSubQueries        int     `yaml:"max_sub_queries"`       // multi-query expansion cap
	ExpansionConcurrency int     `yaml:"expansion_concurrency"` // parallel sub-query pipelines
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "propsearch:"
	}
	if c.Storage.DefaultCollection == "" {
		c.Storage.DefaultCollection = "listings"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Embedding.MaxInFlight <= 0 {
		c.Embedding.MaxInFlight = 8
	}
	if c.Embedding.RetryMax <= 0 {
		c.Embedding.RetryMax = 3
	}
	if c.Embedding.TimeoutMS <= 0 {
		c.Embedding.TimeoutMS = 5000
	}
	if c.Embedding.RetryBaseMS <= 0 {
		c.Embedding.RetryBaseMS = 200
	}
	if c.NLU.TimeoutMS <= 0 {
		c.NLU.TimeoutMS = 4000
	}
	if c.Search.StrategyTimeoutMS <= 0 {
		c.Search.StrategyTimeoutMS = 2000
	}
	if c.Search.OverallDeadlineMS <= 0 {
		c.Search.OverallDeadlineMS = 10000
	}
	if c.Search.MaxBoost <= 0 {
		c.Search.MaxBoost = 1.6
	}
	if c.Search.MustHaveBoost <= 0 {
		c.Search.MustHaveBoost = 0.5
	}
	if c.Search.NiceToHaveBoost <= 0 {
		c.Search.NiceToHaveBoost = 0.15
	}
	if c.Search.MaxSubQueries <= 0 {
		c.Search.MaxSubQueries = 4
	}
	if c.Search.ExpansionConcurrency <= 0 {
		c.Search.ExpansionConcurrency = 2
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.APIKey != "" && c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required when embedding.api_key is set")
	}
	if c.Search.MaxBoost < 1 {
		return fmt.Errorf("search.max_boost must be >= 1, got %g", c.Search.MaxBoost)
	}
	if c.Search.MaxSubQueries > 8 {
		return fmt.Errorf("search.max_sub_queries must be <= 8, got %d", c.Search.MaxSubQueries)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
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
