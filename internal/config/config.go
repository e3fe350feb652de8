package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAvatarURL  = "https://s.yimg.jp/images/sportsnavi/common/apple-touch-icon.png"
	DefaultListingURL = "https://sports.yahoo.co.jp/list/news/npb?genre=npb&team=5"
)

type Config struct {
	// Webhook settings
	WebhookURL        string
	AvatarURL         string
	WebhookRetries    int
	WebhookRetryDelay time.Duration

	// Dedupe registry settings
	DedupeBackend    string // service | postgres | file | memory
	DedupeBatchURL   string
	DedupeURL        string
	DedupeServiceKey string
	DatabaseURL      string
	CacheFilePath    string
	CacheTTLHours    int

	// Listing settings
	ListingSource  string // html | rss
	ListingURL     string
	ListingFeedURL string
	RulesFile      string

	// Fetch settings
	UserAgent       string
	RequestTimeout  time.Duration
	FetchRPS        float64
	RespectRobots   bool
	ArticleMaxPages int

	// Run settings
	ItemDelay       time.Duration
	RunInterval     time.Duration
	RegisterMode    string // before | after
	ContinueOnError bool

	// App settings
	Debug                bool
	LogFile              string
	EnableHTTPMonitoring bool
	MonitoringPort       string
}

// Load reads a .env file if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		AvatarURL:         getEnvOrDefault("WEBHOOK_AVATAR_URL", DefaultAvatarURL),
		WebhookRetries:    getEnvIntOrDefault("WEBHOOK_RETRY_ATTEMPTS", 1),
		WebhookRetryDelay: getEnvDurationOrDefault("WEBHOOK_RETRY_DELAY", 2*time.Second),

		DedupeBackend:    getEnvOrDefault("DEDUPE_BACKEND", "service"),
		DedupeBatchURL:   os.Getenv("DEDUPE_BATCH_URL"),
		DedupeURL:        os.Getenv("DEDUPE_URL"),
		DedupeServiceKey: os.Getenv("DEDUPE_SERVICE_KEY"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		CacheFilePath:    getEnvOrDefault("CACHE_FILE_PATH", "registered_news.json"),
		CacheTTLHours:    getEnvIntOrDefault("CACHE_TTL_HOURS", 720),

		ListingSource:  getEnvOrDefault("LISTING_SOURCE", "html"),
		ListingURL:     getEnvOrDefault("LISTING_URL", DefaultListingURL),
		ListingFeedURL: os.Getenv("LISTING_FEED_URL"),
		RulesFile:      os.Getenv("RULES_FILE"),

		UserAgent:       getEnvOrDefault("USER_AGENT", "toranews/1.0"),
		RequestTimeout:  getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		FetchRPS:        getEnvFloatOrDefault("FETCH_RPS", 2),
		RespectRobots:   os.Getenv("RESPECT_ROBOTS") == "true",
		ArticleMaxPages: getEnvIntOrDefault("ARTICLE_MAX_PAGES", 5),

		ItemDelay:       getEnvDurationOrDefault("ITEM_DELAY", time.Second),
		RunInterval:     getEnvDurationOrDefault("RUN_INTERVAL", time.Minute),
		RegisterMode:    getEnvOrDefault("REGISTER_MODE", "before"),
		ContinueOnError: os.Getenv("CONTINUE_ON_ERROR") == "true",

		Debug:                os.Getenv("DEBUG") == "true",
		LogFile:              os.Getenv("LOG_FILE"),
		EnableHTTPMonitoring: os.Getenv("ENABLE_HTTP_MONITORING") == "true",
		MonitoringPort:       getEnvOrDefault("MONITORING_PORT", "8080"),
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("90s") or bare seconds ("90").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("WEBHOOK_URL is required")
	}
	if c.WebhookRetries < 1 {
		return fmt.Errorf("WEBHOOK_RETRY_ATTEMPTS must be at least 1")
	}

	switch c.DedupeBackend {
	case "service":
		if c.DedupeBatchURL == "" || c.DedupeURL == "" || c.DedupeServiceKey == "" {
			return fmt.Errorf("DEDUPE_BATCH_URL, DEDUPE_URL and DEDUPE_SERVICE_KEY are required for the service backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case "file":
		if c.CacheFilePath == "" {
			return fmt.Errorf("CACHE_FILE_PATH is required for the file backend")
		}
	case "memory":
	default:
		return fmt.Errorf("DEDUPE_BACKEND must be 'service', 'postgres', 'file' or 'memory'")
	}

	switch c.ListingSource {
	case "html":
	case "rss":
		if c.ListingFeedURL == "" {
			return fmt.Errorf("LISTING_FEED_URL is required when LISTING_SOURCE is 'rss'")
		}
	default:
		return fmt.Errorf("LISTING_SOURCE must be 'html' or 'rss'")
	}

	if c.RegisterMode != "before" && c.RegisterMode != "after" {
		return fmt.Errorf("REGISTER_MODE must be 'before' or 'after'")
	}
	if c.ArticleMaxPages < 1 {
		return fmt.Errorf("ARTICLE_MAX_PAGES must be at least 1")
	}
	if c.RunInterval <= 0 {
		return fmt.Errorf("RUN_INTERVAL must be positive")
	}
	return nil
}
