// Package config loads application configuration from config.yaml and
// ENRICH_-prefixed environment variables, and initializes the global
// logger.
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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	CUIT    CUITConfig    `yaml:"cuit" mapstructure:"cuit"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Scorer  ScorerConfig  `yaml:"scorer" mapstructure:"scorer"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SearchConfig configures website discovery.
type SearchConfig struct {
	Surfaces            []string `yaml:"surfaces" mapstructure:"surfaces"`
	ResultsPerQuery     int      `yaml:"results_per_query" mapstructure:"results_per_query"`
	MinDelayMs          int      `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	MaxDelayMs          int      `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	SurfaceDelaySecs    int      `yaml:"surface_delay_secs" mapstructure:"surface_delay_secs"`
	QueryTimeoutSecs    int      `yaml:"query_timeout_secs" mapstructure:"query_timeout_secs"`
	VerifyLiveness      bool     `yaml:"verify_liveness" mapstructure:"verify_liveness"`
	LivenessTimeoutSecs int      `yaml:"liveness_timeout_secs" mapstructure:"liveness_timeout_secs"`
}

// ScrapeConfig configures page loading and contact extraction.
type ScrapeConfig struct {
	UserAgent              string `yaml:"user_agent" mapstructure:"user_agent"`
	PageTimeoutSecs        int    `yaml:"page_timeout_secs" mapstructure:"page_timeout_secs"`
	ContactPageTimeoutSecs int    `yaml:"contact_page_timeout_secs" mapstructure:"contact_page_timeout_secs"`
	FollowContactPage      bool   `yaml:"follow_contact_page" mapstructure:"follow_contact_page"`
}

// BatchConfig configures the batch scheduler.
type BatchConfig struct {
	Size          int `yaml:"size" mapstructure:"size"`
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	DelaySecs     int `yaml:"delay_secs" mapstructure:"delay_secs"`
}

// RetryConfig configures transient-error retries.
type RetryConfig struct {
	MaxAttempts  int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMs  int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelaySecs int `yaml:"max_delay_secs" mapstructure:"max_delay_secs"`
}

// CUITConfig configures the tax registry lookup.
type CUITConfig struct {
	BaseURL             string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs         int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	Enabled             bool    `yaml:"enabled" mapstructure:"enabled"`
}

// GeocodeConfig configures the location lookup.
type GeocodeConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Region      string `yaml:"region" mapstructure:"region"`
	Language    string `yaml:"language" mapstructure:"language"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
}

// ScorerConfig configures candidate scoring.
type ScorerConfig struct {
	// KeywordsFile points to an optional YAML file overriding the
	// built-in keyword sets.
	KeywordsFile string `yaml:"keywords_file" mapstructure:"keywords_file"`
}

// ServerConfig configures the progress HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads config.yaml from the working directory (optional) and
// applies ENRICH_-prefixed environment overrides on top of defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "enrich.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("search.surfaces", []string{"duckduckgo", "bing"})
	v.SetDefault("search.results_per_query", 5)
	v.SetDefault("search.min_delay_ms", 1000)
	v.SetDefault("search.max_delay_ms", 2500)
	v.SetDefault("search.surface_delay_secs", 5)
	v.SetDefault("search.query_timeout_secs", 10)
	v.SetDefault("search.verify_liveness", true)
	v.SetDefault("search.liveness_timeout_secs", 5)
	v.SetDefault("scrape.user_agent", "")
	v.SetDefault("scrape.page_timeout_secs", 20)
	v.SetDefault("scrape.contact_page_timeout_secs", 15)
	v.SetDefault("scrape.follow_contact_page", true)
	v.SetDefault("batch.size", 5)
	v.SetDefault("batch.max_concurrent", 3)
	v.SetDefault("batch.delay_secs", 2)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 500)
	v.SetDefault("retry.max_delay_secs", 30)
	v.SetDefault("cuit.base_url", "https://www.cuitonline.com")
	v.SetDefault("cuit.timeout_secs", 10)
	v.SetDefault("cuit.similarity_threshold", 0.55)
	v.SetDefault("cuit.enabled", false)
	v.SetDefault("geocode.region", "ar")
	v.SetDefault("geocode.language", "es")
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.enabled", false)
	v.SetDefault("scorer.keywords_file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// InitLogger builds the global zap logger from the log config.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

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
