// Package config loads the per-environment YAML configuration.
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

// Config holds the resumerag API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Store       StoreConfig       `yaml:"store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Index       IndexConfig       `yaml:"index"`
	Ask         AskConfig         `yaml:"ask"`
	Matching    MatchingConfig    `yaml:"matching"`
	RateLimit   RateLimitConfig   `yaml:"ratelimit"`
	Idempotency IdempotencyConfig `yaml:"idempotency"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// APIKeyConfig binds one API key to its principal.
type APIKeyConfig struct {
	Key     string `yaml:"key"`
	OwnerID string `yaml:"owner_id"`
	Role    string `yaml:"role"` // viewer, recruiter
}

// AuthConfig holds API authentication settings. An empty key list disables
// authentication (local development).
type AuthConfig struct {
	Keys []APIKeyConfig `yaml:"keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig holds record store settings.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // openai, local (default: local)
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Retries    int    `yaml:"retries"`
	BackoffMs  int    `yaml:"backoff_ms"`
}

// IndexConfig holds chunking settings for ingestion.
type IndexConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// AskConfig holds answer synthesis settings.
type AskConfig struct {
	SimilarityFloor float64 `yaml:"similarity_floor"`
	AnswerMaxLen    int     `yaml:"answer_max_len"`
}

// MatchingConfig holds match scorer settings.
type MatchingConfig struct {
	RequirementThreshold float64 `yaml:"requirement_threshold"`
	CoverageWeight       float64 `yaml:"coverage_weight"`
}

// RateLimitConfig holds per-owner rate limiter settings.
type RateLimitConfig struct {
	Capacity     int `yaml:"capacity"`
	RefillPerSec int `yaml:"refill_per_sec"`
	IdleAfterSec int `yaml:"idle_after_sec"`
}

// IdempotencyConfig holds idempotency record settings.
type IdempotencyConfig struct {
	RetentionHours int `yaml:"retention_hours"`
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "local"
	}
	if c.Embedding.Retries <= 0 {
		c.Embedding.Retries = 3
	}
	if c.Embedding.BackoffMs <= 0 {
		c.Embedding.BackoffMs = 200
	}
	if c.Index.ChunkSize <= 0 {
		c.Index.ChunkSize = 1200
	}
	if c.Index.ChunkOverlap <= 0 {
		c.Index.ChunkOverlap = 150
	}
	if c.Ask.SimilarityFloor <= 0 {
		c.Ask.SimilarityFloor = 0.2
	}
	if c.Ask.AnswerMaxLen <= 0 {
		c.Ask.AnswerMaxLen = 600
	}
	if c.Matching.RequirementThreshold <= 0 {
		c.Matching.RequirementThreshold = 0.35
	}
	if c.Matching.CoverageWeight <= 0 {
		c.Matching.CoverageWeight = 0.5
	}
	if c.RateLimit.Capacity <= 0 {
		c.RateLimit.Capacity = 60
	}
	if c.RateLimit.RefillPerSec <= 0 {
		c.RateLimit.RefillPerSec = 1
	}
	if c.RateLimit.IdleAfterSec <= 0 {
		c.RateLimit.IdleAfterSec = 600
	}
	if c.Idempotency.RetentionHours <= 0 {
		c.Idempotency.RetentionHours = 24
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case "memory":
	case "redis":
		if len(c.Store.Addrs) == 0 {
			return fmt.Errorf("store.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("store.driver must be \"memory\" or \"redis\", got %q", c.Store.Driver)
	}
	switch c.Embedding.Provider {
	case "local":
	case "openai":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for the openai provider")
		}
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for the openai provider")
		}
	default:
		return fmt.Errorf("embedding.provider must be \"local\" or \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be smaller than index.chunk_size")
	}
	for i, k := range c.Auth.Keys {
		if k.Key == "" || k.OwnerID == "" {
			return fmt.Errorf("auth.keys[%d]: key and owner_id are required", i)
		}
		switch k.Role {
		case "viewer", "recruiter":
		default:
			return fmt.Errorf("auth.keys[%d].role must be \"viewer\" or \"recruiter\", got %q", i, k.Role)
		}
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
