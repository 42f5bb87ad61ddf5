package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Documents   DocumentsConfig `toml:"documents"`
	Logging     LoggingConfig   `toml:"logging"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Analysis    AnalysisConfig  `toml:"analysis"`
	Cache       CacheConfig     `toml:"cache"`
}

type ServerConfig struct {
	Port         int    `toml:"port"`
	Host         string `toml:"host"`
	ReadTimeout  string `toml:"read_timeout"`  // e.g. "60s" - uploads up to the document ceiling
	WriteTimeout string `toml:"write_timeout"` // e.g. "10m" - covers a full pipeline run
}

type StorageConfig struct {
	DataDir string `toml:"data_dir"` // Uploaded documents and executive-summary artifacts
}

// DocumentsConfig controls document validation before extraction
type DocumentsConfig struct {
	MaxSizeBytes int64 `toml:"max_size_bytes"` // Upload ceiling (default: 10 MB)
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`       // default: "gemini-2.5-flash"
	Temperature float32 `toml:"temperature"` // default: 0.2
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`       // default: "claude-sonnet-4-20250514"
	MaxTokens   int     `toml:"max_tokens"`  // default: 4096
	Temperature float32 `toml:"temperature"` // default: 0.2
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains provider selection and transport retry settings
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "claude" or "gemini"
	Timeout         string      `toml:"timeout"`          // Per-call timeout (default: "60s")
	MaxRetries      int         `toml:"max_retries"`      // Transport-level retries per call (default: 3)
	InitialBackoff  string      `toml:"initial_backoff"`  // Backoff before first rate-limit retry (default: "5s")
	MaxBackoff      string      `toml:"max_backoff"`      // Backoff cap (default: "30s")
}

// RoleLimits overrides the iteration cap and requests-per-minute ceiling of one analyst role
type RoleLimits struct {
	MaxIter int `toml:"max_iter"`
	MaxRPM  int `toml:"max_rpm"`
}

// AnalysisConfig contains pipeline settings
type AnalysisConfig struct {
	DefaultQuery      string     `toml:"default_query"`
	FinancialAnalyst  RoleLimits `toml:"financial_analyst"`
	InvestmentAdvisor RoleLimits `toml:"investment_advisor"`
	RiskAssessor      RoleLimits `toml:"risk_assessor"`
}

// CacheConfig controls the in-memory tool result cache
type CacheConfig struct {
	Enabled       bool   `toml:"enabled"`
	TTL           string `toml:"ttl"`            // e.g. "1h"
	PurgeSchedule string `toml:"purge_schedule"` // cron spec for dropping expired entries (default: "@every 30m")
}

// DefaultQuery is used when the caller supplies no (or a blank) query
const DefaultQuery = "Analyze this financial document for investment insights"

// ResolveQuery trims query and falls back to fallback, then DefaultQuery, when it is blank
func ResolveQuery(query, fallback string) string {
	if q := strings.TrimSpace(query); q != "" {
		return q
	}
	if f := strings.TrimSpace(fallback); f != "" {
		return f
	}
	return DefaultQuery
}

// DefaultMaxDocumentSize is the upload ceiling (10 MB)
const DefaultMaxDocumentSize int64 = 10 * 1024 * 1024

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:         8000,
			Host:         "0.0.0.0",
			ReadTimeout:  "60s",
			WriteTimeout: "10m",
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Documents: DocumentsConfig{
			MaxSizeBytes: DefaultMaxDocumentSize,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
			Timeout:         "60s",
			MaxRetries:      3,
			InitialBackoff:  "5s",
			MaxBackoff:      "30s",
		},
		Analysis: AnalysisConfig{
			DefaultQuery:      DefaultQuery,
			FinancialAnalyst:  RoleLimits{MaxIter: 15, MaxRPM: 10},
			InvestmentAdvisor: RoleLimits{MaxIter: 12, MaxRPM: 8},
			RiskAssessor:      RoleLimits{MaxIter: 10, MaxRPM: 6},
		},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           "1h",
			PurgeSchedule: "@every 30m",
		},
	}
}

// LoadFromFile loads configuration from a single file (empty path = defaults + env)
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINANALYZER_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("FINANALYZER_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("FINANALYZER_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if dataDir := os.Getenv("FINANALYZER_DATA_DIR"); dataDir != "" {
		config.Storage.DataDir = dataDir
	}

	// Logging configuration
	if level := os.Getenv("FINANALYZER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// LLM configuration
	if provider := os.Getenv("FINANALYZER_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if retries := os.Getenv("FINANALYZER_LLM_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.LLM.MaxRetries = r
		}
	}
	if model := os.Getenv("FINANALYZER_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if model := os.Getenv("FINANALYZER_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// Cache configuration
	if enabled := os.Getenv("FINANALYZER_CACHE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Cache.Enabled = e
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks values that cannot be defaulted sensibly
func (c *Config) Validate() error {
	if c.LLM.DefaultProvider != LLMProviderClaude && c.LLM.DefaultProvider != LLMProviderGemini {
		return fmt.Errorf("invalid llm.default_provider '%s': must be 'claude' or 'gemini'", c.LLM.DefaultProvider)
	}
	if c.Documents.MaxSizeBytes <= 0 {
		return fmt.Errorf("documents.max_size_bytes must be greater than 0, got %d", c.Documents.MaxSizeBytes)
	}
	for name, d := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"llm.timeout":          c.LLM.Timeout,
		"llm.initial_backoff":  c.LLM.InitialBackoff,
		"llm.max_backoff":      c.LLM.MaxBackoff,
		"cache.ttl":            c.Cache.TTL,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid duration for %s '%s': %w", name, d, err)
		}
	}
	return nil
}

// ParseDurationOr parses a duration string, returning fallback when empty or invalid
func ParseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// ResolveAPIKey resolves an API key by name with environment variable priority
func ResolveAPIKey(name string, configFallback string) (string, error) {
	// Order: project-specific name first, then the provider's standard variable
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"FINANALYZER_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"anthropic_api_key": {"FINANALYZER_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
