package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Portfolio settings
	ReportingCurrency string
	BenchmarkSymbol   string
	TargetCAGR        float64

	// Market data settings
	PriceCacheTTL    time.Duration
	FxCacheTTL       time.Duration
	DividendCacheTTL time.Duration
	YahooTimeout     time.Duration

	// Upload limits
	MaxUploadSizeBytes int64

	// History rebuild schedule (cron spec, empty disables the job)
	HistoryRebuildSpec string

	// Frontend URL for reference (e.g., CORS)
	FrontendBaseURL string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from /backend)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	// --- File Size Limits ---
	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	reportingCurrency := strings.ToUpper(getEnv("REPORTING_CURRENCY", "CAD"))
	if money.GetCurrency(reportingCurrency) == nil {
		log.Printf("WARNING: REPORTING_CURRENCY '%s' is not an ISO 4217 code. Using CAD.", reportingCurrency)
		reportingCurrency = "CAD"
	}

	// --- Populate the Global Config Struct ---
	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./holdings.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Portfolio
		ReportingCurrency: reportingCurrency,
		BenchmarkSymbol:   getEnv("BENCHMARK_SYMBOL", "XEQT.TO"),
		TargetCAGR:        getEnvAsFloat("TARGET_CAGR", 0.08),

		// Market data
		PriceCacheTTL:    getEnvAsDuration("PRICE_CACHE_TTL", 15*time.Minute),
		FxCacheTTL:       getEnvAsDuration("FX_CACHE_TTL", 1*time.Hour),
		DividendCacheTTL: getEnvAsDuration("DIVIDEND_CACHE_TTL", 24*time.Hour),
		YahooTimeout:     getEnvAsDuration("YAHOO_TIMEOUT", 10*time.Second),

		// Uploads
		MaxUploadSizeBytes: maxUploadSizeBytes,

		// Jobs
		HistoryRebuildSpec: getEnv("HISTORY_REBUILD_SPEC", "15 2 * * *"),

		// URLs
		FrontendBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, ReportingCurrency=%s, Benchmark=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.ReportingCurrency, Cfg.BenchmarkSymbol)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %f", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
