package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Log       LogConfig
	Refresh   RefreshConfig
	Providers ProvidersConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port   string
	Host   string
	Addr   string // Combined host:port for convenience
	APIKey string
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string
	Pretty bool
}

// RefreshConfig controls the incremental scheduler.
type RefreshConfig struct {
	Cron    string // six-field cron expression, seconds first
	Workers int
	// GapTolerance is how far back an equity close may be forward-filled.
	GapTolerance time.Duration
}

// ProvidersConfig holds the external data feed settings.
type ProvidersConfig struct {
	Timeout       time.Duration
	Retries       int
	Backoff       time.Duration
	YahooBaseURL  string
	NBPBaseURL    string
	BondRatesFile string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:   getEnv("SERVER_PORT", "5001"),
			Host:   getEnv("SERVER_HOST", "localhost"),
			APIKey: getEnv("INTERNAL_API_KEY", ""),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/invest_tracker.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		Refresh: RefreshConfig{
			Cron:         getEnv("REFRESH_CRON", "0 30 18 * * *"),
			Workers:      getEnvAsInt("REFRESH_WORKERS", 4),
			GapTolerance: time.Duration(getEnvAsInt("PRICE_GAP_TOLERANCE_DAYS", 7)) * 24 * time.Hour,
		},
		Providers: ProvidersConfig{
			Timeout:       getEnvAsDuration("PROVIDER_TIMEOUT", 15*time.Second),
			Retries:       getEnvAsInt("PROVIDER_RETRIES", 3),
			Backoff:       getEnvAsDuration("PROVIDER_BACKOFF", 500*time.Millisecond),
			YahooBaseURL:  getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			NBPBaseURL:    getEnv("NBP_BASE_URL", "https://api.nbp.pl"),
			BondRatesFile: getEnv("BOND_RATES_FILE", "./data/bond_rates.yaml"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the refresh pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Refresh.Workers < 1 {
		return fmt.Errorf("REFRESH_WORKERS must be positive, got %d", c.Refresh.Workers)
	}
	if c.Refresh.GapTolerance < 0 {
		return fmt.Errorf("PRICE_GAP_TOLERANCE_DAYS cannot be negative")
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", c.Providers.Timeout)
	}
	if c.Providers.Retries < 0 {
		return fmt.Errorf("PROVIDER_RETRIES cannot be negative, got %d", c.Providers.Retries)
	}
	if c.Providers.Backoff <= 0 {
		return fmt.Errorf("PROVIDER_BACKOFF must be positive, got %s", c.Providers.Backoff)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.Refresh.Cron); err != nil {
		return fmt.Errorf("invalid REFRESH_CRON %q: %w", c.Refresh.Cron, err)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// getEnvAsList splits a comma separated variable.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
