// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Server, Postgres, Redis, Kafka, Query, Suggest,
// Analytics, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Query     QueryConfig     `yaml:"query"`
	Suggest   SuggestConfig   `yaml:"suggest"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	ContentChanged  string `yaml:"contentChanged"`
	ContentDeleted  string `yaml:"contentDeleted"`
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// IndexerConfig controls index maintenance and ranked search limits.
type IndexerConfig struct {
	ContentTypes []string `yaml:"contentTypes"`
	MaxPageSize  int      `yaml:"maxPageSize"`
}

// PunctuationPolicy selects how tokenization treats punctuation inside
// words (hyphens, quotes, ampersands, decimal points).
type PunctuationPolicy string

const (
	PunctuationRemove  PunctuationPolicy = "remove"
	PunctuationToSpace PunctuationPolicy = "space"
	PunctuationKeep    PunctuationPolicy = "keep"
)

// QueryConfig holds query-processing word lists and normalization policy.
type QueryConfig struct {
	StopWords     []string          `yaml:"stopWords"`
	BoostWords    []string          `yaml:"boostWords"`
	MinWordLength int               `yaml:"minWordLength"`
	DefaultLimit  int               `yaml:"defaultLimit"`
	Punctuation   PunctuationPolicy `yaml:"punctuation"`
}

// SuggestConfig controls the autocomplete suggestion engine.
type SuggestConfig struct {
	MaxTerms         int           `yaml:"maxTerms"`
	TitleTermLimit   int           `yaml:"titleTermLimit"`
	MinTermLength    int           `yaml:"minTermLength"`
	MinQueryLength   int           `yaml:"minQueryLength"`
	DefaultLimit     int           `yaml:"defaultLimit"`
	RebuildFrequency string        `yaml:"rebuildFrequency"`
	DebounceTTL      time.Duration `yaml:"debounceTTL"`
}

// AnalyticsConfig controls search-event capture and reporting.
type AnalyticsConfig struct {
	BufferSize  int `yaml:"bufferSize"`
	WindowDays  int `yaml:"windowDays"`
	PopularTopN int `yaml:"popularTopN"`
	ZeroTopN    int `yaml:"zeroTopN"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment
// variable overrides. It returns a Config populated with sensible defaults
// for any missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Query.Punctuation {
	case PunctuationRemove, PunctuationToSpace, PunctuationKeep:
	default:
		return fmt.Errorf("invalid punctuation policy %q", c.Query.Punctuation)
	}
	switch c.Suggest.RebuildFrequency {
	case "daily", "weekly", "monthly":
	default:
		return fmt.Errorf("invalid suggestion rebuild frequency %q", c.Suggest.RebuildFrequency)
	}
	return nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "sitesearch",
			User:            "sitesearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "sitesearch-group",
			Topics: KafkaTopics{
				ContentChanged:  "content-changed",
				ContentDeleted:  "content-deleted",
				AnalyticsEvents: "search-analytics",
			},
		},
		Indexer: IndexerConfig{
			ContentTypes: []string{"article", "page"},
			MaxPageSize:  100,
		},
		Query: QueryConfig{
			StopWords: []string{
				"a", "an", "and", "are", "as", "at", "be", "by", "for",
				"from", "has", "in", "is", "it", "of", "on", "or", "that",
				"the", "to", "was", "were", "will", "with",
			},
			BoostWords:    nil,
			MinWordLength: 2,
			DefaultLimit:  50,
			Punctuation:   PunctuationToSpace,
		},
		Suggest: SuggestConfig{
			MaxTerms:         1000,
			TitleTermLimit:   500,
			MinTermLength:    3,
			MinQueryLength:   2,
			DefaultLimit:     5,
			RebuildFrequency: "daily",
			DebounceTTL:      60 * time.Second,
		},
		Analytics: AnalyticsConfig{
			BufferSize:  10000,
			WindowDays:  30,
			PopularTopN: 20,
			ZeroTopN:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SITESEARCH_* environment variables and overrides
// the corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SITESEARCH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SITESEARCH_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SITESEARCH_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SITESEARCH_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SITESEARCH_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SITESEARCH_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SITESEARCH_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("SITESEARCH_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SITESEARCH_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SITESEARCH_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SITESEARCH_STOP_WORDS"); v != "" {
		cfg.Query.StopWords = strings.Split(v, ",")
	}
	if v := os.Getenv("SITESEARCH_BOOST_WORDS"); v != "" {
		cfg.Query.BoostWords = strings.Split(v, ",")
	}
	if v := os.Getenv("SITESEARCH_SUGGEST_FREQUENCY"); v != "" {
		cfg.Suggest.RebuildFrequency = v
	}
	if v := os.Getenv("SITESEARCH_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SITESEARCH_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
