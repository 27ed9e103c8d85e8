// Package config loads the esmemory service configuration from config/<env>.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/esmemory/internal/domain"
)

// Database drivers.
const (
	DriverElasticsearch = "elasticsearch"
	DriverMemory        = "memory"
)

// Config holds the esmemory service configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Search        SearchConfig        `yaml:"search"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Cache         CacheConfig         `yaml:"cache"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
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

// DatabaseConfig selects the search engine backend.
type DatabaseConfig struct {
	Driver           string `yaml:"driver"` // elasticsearch, memory (default: elasticsearch)
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// ElasticsearchConfig holds the search engine connection and index layout settings.
type ElasticsearchConfig struct {
	Endpoint               string `yaml:"endpoint"`
	Username               string `yaml:"username"`
	Password               string `yaml:"password"`
	CertificateFingerprint string `yaml:"certificate_fingerprint"`
	IndexPrefix            string `yaml:"index_prefix"`
	VectorSize             int    `yaml:"vector_size"`
	StrictVectorSize       bool   `yaml:"strict_vector_size"`
	Shards                 int    `yaml:"shards"`
	Replicas               *int   `yaml:"replicas"` // nil keeps the engine default
	Refresh                string `yaml:"refresh"`  // "", true, false, wait_for
	TagValueType           string `yaml:"tag_value_type"`
	WriteMode              string `yaml:"write_mode"`
}

// SearchConfig tunes similarity search.
type SearchConfig struct {
	MinRelevanceMode   string `yaml:"min_relevance_mode"` // client, engine
	CandidatePoolExtra int    `yaml:"candidate_pool_extra"`
	DefaultLimit       int    `yaml:"default_limit"`
}

// EmbeddingConfig holds the query embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutSec       int    `yaml:"timeout_sec"`
}

// CacheConfig holds the embedding cache settings.
type CacheConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addrs     []string `yaml:"addrs"` // empty keeps only the local tier
	Password  string   `yaml:"password"`
	TTLSec    int      `yaml:"ttl_sec"`
	LocalSize int      `yaml:"local_size"`
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

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverElasticsearch
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Elasticsearch.VectorSize <= 0 {
		c.Elasticsearch.VectorSize = domain.DefaultVectorSize
	}
	if c.Elasticsearch.TagValueType == "" {
		c.Elasticsearch.TagValueType = "keyword"
	}
	if c.Elasticsearch.WriteMode == "" {
		c.Elasticsearch.WriteMode = "update"
	}
	if c.Search.MinRelevanceMode == "" {
		c.Search.MinRelevanceMode = "client"
	}
	if c.Search.CandidatePoolExtra <= 0 {
		c.Search.CandidatePoolExtra = 100
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = domain.DefaultVectorConfig().Model
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
}

// Validate checks the configuration for correctness. Every error wraps domain.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		add("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverElasticsearch:
		es := c.Elasticsearch
		if es.Endpoint == "" {
			add("elasticsearch.endpoint is required")
		}
		if es.Username == "" {
			add("elasticsearch.username is required")
		}
		if es.Password == "" {
			add("elasticsearch.password is required")
		}
	case DriverMemory:
	default:
		add("database.driver must be %q or %q, got %q", DriverElasticsearch, DriverMemory, c.Database.Driver)
	}

	es := c.Elasticsearch
	if es.Shards < 0 {
		add("elasticsearch.shards must be non-negative, got %d", es.Shards)
	}
	if es.Replicas != nil && *es.Replicas < 0 {
		add("elasticsearch.replicas must be non-negative, got %d", *es.Replicas)
	}
	if !slices.Contains([]string{"", "true", "false", "wait_for"}, es.Refresh) {
		add("elasticsearch.refresh must be one of true, false, wait_for, got %q", es.Refresh)
	}
	if es.TagValueType != "keyword" && es.TagValueType != "text" {
		add("elasticsearch.tag_value_type must be \"keyword\" or \"text\", got %q", es.TagValueType)
	}
	if es.WriteMode != "update" && es.WriteMode != "index" {
		add("elasticsearch.write_mode must be \"update\" or \"index\", got %q", es.WriteMode)
	}
	if es.VectorSize > 4096 {
		add("elasticsearch.vector_size must be at most 4096, got %d", es.VectorSize)
	}

	if c.Search.MinRelevanceMode != "client" && c.Search.MinRelevanceMode != "engine" {
		add("search.min_relevance_mode must be \"client\" or \"engine\", got %q", c.Search.MinRelevanceMode)
	}
	if c.Search.DefaultLimit > 10000 {
		add("search.default_limit must be at most 10000, got %d", c.Search.DefaultLimit)
	}

	if c.Embedding.Provider != "openai" {
		add("embedding.provider must be \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.APIKey == "" {
		add("embedding.api_key is required")
	}
	if c.Embedding.Dimensions < 0 {
		add("embedding.dimensions must be non-negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.Dimensions > 0 && c.Embedding.Dimensions != es.VectorSize {
		add("embedding.dimensions (%d) must match elasticsearch.vector_size (%d)", c.Embedding.Dimensions, es.VectorSize)
	}

	if c.Cache.LocalSize < 0 {
		add("cache.local_size must be non-negative, got %d", c.Cache.LocalSize)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

// CacheTTL returns the embedding cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
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
