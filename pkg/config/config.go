package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (sales warehouse + analysis run store)
	Database DatabaseConfig

	// Redis (analysis result cache)
	Redis RedisConfig

	// Weather source
	Weather WeatherConfig

	// Causal analysis tunables
	Analysis AnalysisConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Server-side cap on a single query; 0 leaves the server default
	StatementTimeout time.Duration
}

// WeatherConfig holds the Open-Meteo archive API settings
type WeatherConfig struct {
	BaseURL   string
	Timezone  string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	Enabled   bool    // false forces the synthetic generator
}

// AnalysisConfig holds the gates and knobs of the causal pipeline.
// The heterogeneity gates have no derivation behind them, so they stay tunable.
type AnalysisConfig struct {
	Seed              int64
	TestFraction      float64
	CIAlpha           float64
	MinEffectSample   int
	MinCellCount      int
	MinStoreRows      int
	MinStoreTreated   int
	MinWeatherRows    int
	MinWeatherTreated int
	MinCategoryRows   int
	MinForecastDays   int
	ForecastHorizon   int
	Parallelism       int
	DefaultRegion     string
	CacheTTL          time.Duration
	LookbackDays      int
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only caller of os.Getenv
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:              getEnv("DATABASE_URL", ""),
			MaxConns:         getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", "60s"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Weather: WeatherConfig{
			BaseURL:   getEnv("WEATHER_BASE_URL", "https://archive-api.open-meteo.com/v1/archive"),
			Timezone:  getEnv("WEATHER_TIMEZONE", "America/Los_Angeles"),
			Timeout:   getEnvAsDuration("WEATHER_TIMEOUT", "30s"),
			RateLimit: getEnvAsFloat("WEATHER_RATE_LIMIT", 5),
			Enabled:   getEnvAsBool("WEATHER_ENABLED", true),
		},

		Analysis: DefaultAnalysisConfig(),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	a := &cfg.Analysis
	a.Seed = int64(getEnvAsInt("ANALYSIS_SEED", int(a.Seed)))
	a.TestFraction = getEnvAsFloat("ANALYSIS_TEST_FRACTION", a.TestFraction)
	a.CIAlpha = getEnvAsFloat("ANALYSIS_CI_ALPHA", a.CIAlpha)
	a.MinEffectSample = getEnvAsInt("ANALYSIS_MIN_EFFECT_SAMPLE", a.MinEffectSample)
	a.MinCellCount = getEnvAsInt("ANALYSIS_MIN_CELL_COUNT", a.MinCellCount)
	a.MinStoreRows = getEnvAsInt("ANALYSIS_MIN_STORE_ROWS", a.MinStoreRows)
	a.MinStoreTreated = getEnvAsInt("ANALYSIS_MIN_STORE_TREATED", a.MinStoreTreated)
	a.MinWeatherRows = getEnvAsInt("ANALYSIS_MIN_WEATHER_ROWS", a.MinWeatherRows)
	a.MinWeatherTreated = getEnvAsInt("ANALYSIS_MIN_WEATHER_TREATED", a.MinWeatherTreated)
	a.MinCategoryRows = getEnvAsInt("ANALYSIS_MIN_CATEGORY_ROWS", a.MinCategoryRows)
	a.MinForecastDays = getEnvAsInt("ANALYSIS_MIN_FORECAST_DAYS", a.MinForecastDays)
	a.ForecastHorizon = getEnvAsInt("ANALYSIS_FORECAST_HORIZON", a.ForecastHorizon)
	a.Parallelism = getEnvAsInt("ANALYSIS_PARALLELISM", a.Parallelism)
	a.DefaultRegion = getEnv("ANALYSIS_DEFAULT_REGION", a.DefaultRegion)
	a.CacheTTL = getEnvAsDuration("ANALYSIS_CACHE_TTL", a.CacheTTL.String())
	a.LookbackDays = getEnvAsInt("ANALYSIS_LOOKBACK_DAYS", a.LookbackDays)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// DefaultAnalysisConfig returns the thresholds the analysis was calibrated with
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Seed:              42,
		TestFraction:      0.2,
		CIAlpha:           0.05,
		MinEffectSample:   50,
		MinCellCount:      5,
		MinStoreRows:      30,
		MinStoreTreated:   5,
		MinWeatherRows:    20,
		MinWeatherTreated: 3,
		MinCategoryRows:   10,
		MinForecastDays:   30,
		ForecastHorizon:   7,
		Parallelism:       1,
		DefaultRegion:     "CA",
		CacheTTL:          time.Hour,
		LookbackDays:      90,
	}
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return c.Analysis.Validate()
}

// Validate checks the analysis knobs for values the pipeline cannot run with
func (a AnalysisConfig) Validate() error {
	if a.TestFraction <= 0 || a.TestFraction >= 1 {
		return fmt.Errorf("ANALYSIS_TEST_FRACTION must be in (0, 1), got %v", a.TestFraction)
	}
	if a.CIAlpha <= 0 || a.CIAlpha >= 1 {
		return fmt.Errorf("ANALYSIS_CI_ALPHA must be in (0, 1), got %v", a.CIAlpha)
	}
	if a.MinEffectSample < 2 {
		return fmt.Errorf("ANALYSIS_MIN_EFFECT_SAMPLE must be at least 2")
	}
	if a.Parallelism < 1 {
		return fmt.Errorf("ANALYSIS_PARALLELISM must be at least 1")
	}
	if len(a.DefaultRegion) != 2 {
		return fmt.Errorf("ANALYSIS_DEFAULT_REGION must be a two-letter code")
	}
	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
