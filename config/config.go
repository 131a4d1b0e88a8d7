package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Sources  SourcesConfig
	Pipeline PipelineConfig
	Lexicon  LexiconConfig
	Insights InsightsConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Host                    string
	Port                    int
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	GracefulShutdownTimeout time.Duration
	RateLimitPerMinute      int
	CORSOrigins             []string
}

// DatabaseConfig selects the persistence backend. When URL is set the store
// uses PostgreSQL; otherwise SQLitePath selects the local SQLite fallback;
// with neither, advisories live in memory only.
type DatabaseConfig struct {
	URL             string
	SQLitePath      string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type RedisConfig struct {
	URL string
}

// SourcesConfig wires the built-in advisory sources. The RSS source covers
// feed-publishing agencies; the HTML source scrapes one listing page and is
// enabled only when its URL is set.
type SourcesConfig struct {
	RSSName string
	RSSURLs []string

	HTMLName        string
	HTMLURL         string
	HTMLRow         string
	HTMLCountry     string
	HTMLRiskLevel   string
	HTMLDate        string
	HTMLDescription string
	HTMLLink        string
}

type PipelineConfig struct {
	RateLimit     float64
	WorkerCount   int
	BatchSize     int
	RetryAttempts int
	RetryDelay    time.Duration
	PollInterval  time.Duration
}

// LexiconConfig points at the directory holding the newline-delimited
// keyword lists (security.txt, safety.txt, serenity.txt, corpus.txt).
// Missing files are tolerated; the lexicon falls back to built-in defaults.
type LexiconConfig struct {
	Dir         string
	MaxKeywords int
}

type InsightsConfig struct {
	LookbackDays int
	CacheTTL     time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
}

type MetricsConfig struct {
	Enabled bool
	Port    int
	Path    string
}

type AdminConfig struct {
	AdminSecret string
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:                    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:                    getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:             getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:            getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:             getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			GracefulShutdownTimeout: getEnvDuration("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", 30*time.Second),
			RateLimitPerMinute:      getEnvInt("SERVER_RATE_LIMIT_PER_MINUTE", 120),
			CORSOrigins:             getEnvList("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", ""),
			MaxConns:        getEnvInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", 1*time.Hour),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Sources: SourcesConfig{
			RSSName: getEnv("SOURCE_RSS_NAME", "state_dept"),
			RSSURLs: getEnvList("SOURCE_RSS_URLS", []string{
				"https://travel.state.gov/_res/rss/TAsTWs.xml",
			}),
			HTMLName:        getEnv("SOURCE_HTML_NAME", "gov_listing"),
			HTMLURL:         getEnv("SOURCE_HTML_URL", ""),
			HTMLRow:         getEnv("SOURCE_HTML_ROW_SELECTOR", "tr.advisory"),
			HTMLCountry:     getEnv("SOURCE_HTML_COUNTRY_SELECTOR", "td.country"),
			HTMLRiskLevel:   getEnv("SOURCE_HTML_RISK_SELECTOR", "td.level"),
			HTMLDate:        getEnv("SOURCE_HTML_DATE_SELECTOR", "td.date"),
			HTMLDescription: getEnv("SOURCE_HTML_DESCRIPTION_SELECTOR", "td.summary"),
			HTMLLink:        getEnv("SOURCE_HTML_LINK_SELECTOR", "td.country a"),
		},
		Pipeline: PipelineConfig{
			RateLimit:     getEnvFloat("PIPELINE_RATE_LIMIT", 5.0),
			WorkerCount:   getEnvInt("PIPELINE_WORKER_COUNT", 4),
			BatchSize:     getEnvInt("PIPELINE_BATCH_SIZE", 100),
			RetryAttempts: getEnvInt("PIPELINE_RETRY_ATTEMPTS", 3),
			RetryDelay:    getEnvDuration("PIPELINE_RETRY_DELAY", 5*time.Second),
			PollInterval:  getEnvDuration("PIPELINE_POLL_INTERVAL", 6*time.Hour),
		},
		Lexicon: LexiconConfig{
			Dir:         getEnv("LEXICON_DIR", "data/wordlists"),
			MaxKeywords: getEnvInt("LEXICON_MAX_KEYWORDS", 10),
		},
		Insights: InsightsConfig{
			LookbackDays: getEnvInt("INSIGHTS_LOOKBACK_DAYS", 365),
			CacheTTL:     getEnvDuration("INSIGHTS_CACHE_TTL", 10*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Admin: AdminConfig{
			AdminSecret: getEnv("ADMIN_SECRET", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}
	if c.Pipeline.WorkerCount < 1 {
		return fmt.Errorf("pipeline worker count must be at least 1")
	}
	if c.Lexicon.MaxKeywords < 1 {
		return fmt.Errorf("lexicon max keywords must be at least 1")
	}
	if c.Insights.LookbackDays < 1 {
		return fmt.Errorf("insights lookback days must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var list []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
		if len(list) > 0 {
			return list
		}
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
