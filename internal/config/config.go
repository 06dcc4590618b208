// ABOUTME: Centralized configuration for the review insights pipeline
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// DefaultBankApps is the study's default set of banks and their store ids
const DefaultBankApps = "CBE=com.combanketh.mobilebanking,BOA=com.boa.apollo,Dashen=com.dashen.dashensuperapp"

// BankApp ties a bank to its app listings
type BankApp struct {
	Bank        string
	PlayStoreID string
	AppStoreID  string
}

// Config holds all configuration for the pipeline
type Config struct {
	// Paths
	DataDir   string
	ReportDir string

	// Relational store
	DBDriver   string
	SQLitePath string
	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDatabase string
	PGSSLMode  string
	Table      string

	// Scraping
	BankApps       []BankApp
	ReviewsPerBank int
	Lang           string
	Country        string
	ScrapeRPS      float64

	// Thematic clustering
	Clusters int
	MinDF    string
	MaxDF    string
	NgramMin int
	NgramMax int
	TopTerms int
	Seed     uint64
	MaxIter  int

	// Sentiment
	SentimentBackend string
	OpenAIKey        string
	ChatModel        string
	Timeout          time.Duration
	MaxRetries       int
	RetryDelay       time.Duration

	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	apps, err := ParseBankApps(getEnv("REVIEWS_BANK_APPS", DefaultBankApps))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:          getEnv("REVIEWS_DATA_DIR", "data"),
		ReportDir:        getEnv("REVIEWS_REPORT_DIR", "reports"),
		DBDriver:         getEnv("REVIEWS_DB_DRIVER", "sqlite"),
		SQLitePath:       getEnv("REVIEWS_SQLITE_PATH", DefaultSQLitePath()),
		PGHost:           getEnv("PG_HOST", "localhost"),
		PGPort:           getEnvInt("PG_PORT", 5432),
		PGUser:           getEnv("PG_USER", "postgres"),
		PGPassword:       os.Getenv("PG_PASSWORD"),
		PGDatabase:       getEnv("PG_DATABASE", "bank_reviews"),
		PGSSLMode:        getEnv("PG_SSLMODE", "disable"),
		Table:            getEnv("REVIEWS_TABLE", "fintech_reviews"),
		BankApps:         apps,
		ReviewsPerBank:   getEnvInt("REVIEWS_PER_BANK", 500),
		Lang:             getEnv("REVIEWS_LANG", "en"),
		Country:          getEnv("REVIEWS_COUNTRY", "et"),
		ScrapeRPS:        getEnvFloat("SCRAPE_RPS", 2),
		Clusters:         getEnvInt("THEME_CLUSTERS", 7),
		MinDF:            getEnv("THEME_MIN_DF", "5"),
		MaxDF:            getEnv("THEME_MAX_DF", "0.85"),
		NgramMin:         getEnvInt("THEME_NGRAM_MIN", 1),
		NgramMax:         getEnvInt("THEME_NGRAM_MAX", 2),
		TopTerms:         getEnvInt("THEME_TOP_TERMS", 6),
		Seed:             uint64(getEnvInt("THEME_SEED", 42)),
		MaxIter:          getEnvInt("THEME_MAX_ITER", 100),
		SentimentBackend: getEnv("SENTIMENT_BACKEND", "lexicon"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		ChatModel:        getEnv("REVIEWS_OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:          getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:       getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:       getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return fmt.Errorf("REVIEWS_DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.ReviewsPerBank <= 0 {
		return fmt.Errorf("REVIEWS_PER_BANK must be positive, got %d", c.ReviewsPerBank)
	}
	if c.ScrapeRPS <= 0 {
		return fmt.Errorf("SCRAPE_RPS must be positive, got %f", c.ScrapeRPS)
	}
	if c.Clusters < 1 {
		return fmt.Errorf("THEME_CLUSTERS must be at least 1, got %d", c.Clusters)
	}
	if c.NgramMin < 1 || c.NgramMax < c.NgramMin {
		return fmt.Errorf("invalid n-gram range %d..%d", c.NgramMin, c.NgramMax)
	}
	if c.TopTerms < 1 {
		return fmt.Errorf("THEME_TOP_TERMS must be positive, got %d", c.TopTerms)
	}
	if c.MaxIter < 1 {
		return fmt.Errorf("THEME_MAX_ITER must be positive, got %d", c.MaxIter)
	}
	if c.SentimentBackend != "lexicon" && c.SentimentBackend != "openai" {
		return fmt.Errorf("SENTIMENT_BACKEND must be lexicon or openai, got %q", c.SentimentBackend)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	return nil
}

// DataPath returns the path of a pipeline file inside the data directory
func (c *Config) DataPath(name string) string {
	return filepath.Join(c.DataDir, name)
}

// DefaultSQLitePath returns the XDG location of the review database.
// XDG_DATA_HOME is honoured so tests can redirect it.
func DefaultSQLitePath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "review-insights", "reviews.db")
}

// ParseBankApps parses "BANK=playID[|appStoreID],..." into bank apps
func ParseBankApps(s string) ([]BankApp, error) {
	var apps []BankApp
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		bank, ids, ok := strings.Cut(entry, "=")
		bank = strings.TrimSpace(bank)
		if !ok || bank == "" {
			return nil, fmt.Errorf("invalid bank app entry %q, want BANK=playID[|appStoreID]", entry)
		}
		play, apple, _ := strings.Cut(ids, "|")
		app := BankApp{
			Bank:        bank,
			PlayStoreID: strings.TrimSpace(play),
			AppStoreID:  strings.TrimSpace(apple),
		}
		if app.PlayStoreID == "" && app.AppStoreID == "" {
			return nil, fmt.Errorf("bank %s has no store ids", bank)
		}
		apps = append(apps, app)
	}
	if len(apps) == 0 {
		return nil, fmt.Errorf("no bank apps configured")
	}
	return apps, nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
