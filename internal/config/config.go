package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	SearXNG    SearXNGConfig    `yaml:"searxng" mapstructure:"searxng"`
	Crawler    CrawlerConfig    `yaml:"crawler" mapstructure:"crawler"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" mapstructure:"embeddings"`
	Vector     VectorConfig     `yaml:"vector" mapstructure:"vector"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SearXNGConfig holds SearXNG metasearch instance settings.
type SearXNGConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// CrawlerConfig holds crawl service settings.
type CrawlerConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings for the extraction agent.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EmbeddingsConfig holds embedding provider settings. Disabled by default:
// the pipeline degrades silently when no embedding backend is configured.
type EmbeddingsConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Model     string `yaml:"model" mapstructure:"model"`
	Dimension int    `yaml:"dimension" mapstructure:"dimension"`
}

// VectorConfig holds Milvus vector index settings.
type VectorConfig struct {
	Address    string `yaml:"address" mapstructure:"address"`
	Collection string `yaml:"collection" mapstructure:"collection"`
}

// CacheConfig holds the optional Redis seen-URL cache settings.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// DiscoveryConfig configures the discovery pipeline stages.
type DiscoveryConfig struct {
	MaxURLs            int    `yaml:"max_urls" mapstructure:"max_urls"`
	MaxResultsPerQuery int    `yaml:"max_results_per_query" mapstructure:"max_results_per_query"`
	CrawlConcurrency   int    `yaml:"crawl_concurrency" mapstructure:"crawl_concurrency"`
	ExtractConcurrency int    `yaml:"extract_concurrency" mapstructure:"extract_concurrency"`
	MinContentChars    int    `yaml:"min_content_chars" mapstructure:"min_content_chars"`
	DenylistFile       string `yaml:"denylist_file" mapstructure:"denylist_file"`
}

// ServerConfig configures the discovery HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("searxng.base_url", "http://localhost:8080")
	v.SetDefault("searxng.timeout_secs", 30)
	v.SetDefault("searxng.rate_limit", 5)
	v.SetDefault("crawler.base_url", "http://localhost:11235")
	v.SetDefault("crawler.timeout_secs", 60)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("embeddings.enabled", false)
	v.SetDefault("embeddings.model", "text-embedding-3-small")
	v.SetDefault("embeddings.dimension", 1536)
	v.SetDefault("vector.collection", "opportunities")
	v.SetDefault("cache.ttl_hours", 72)
	v.SetDefault("discovery.max_urls", 10)
	v.SetDefault("discovery.max_results_per_query", 10)
	v.SetDefault("discovery.crawl_concurrency", 6)
	v.SetDefault("discovery.extract_concurrency", 5)
	v.SetDefault("discovery.min_content_chars", 100)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger. The logger writes to
// stderr so the NDJSON event stream on stdout stays machine-parseable.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.OutputPaths = []string{"stderr"}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
