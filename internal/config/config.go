package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for an export run and the report server.
type Config struct {
	// Kustomer API
	APIKey            string
	BaseURL           string
	PageSize          int
	MaxRetries        int
	RequestTimeout    time.Duration
	RequestsPerSecond float64

	// Reporting window
	StartDate time.Time
	EndDate   time.Time
	TimeZone  string

	// Output
	OutputDir       string
	IncludeUserTime bool
	S3Bucket        string
	S3Prefix        string
	S3Region        string

	// Report server
	Port           string
	AllowedOrigins []string
	AuthIssuerURL  string

	LogLevel string
}

const dateLayout = "2006-01-02"

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		APIKey:         os.Getenv("KUSTOMER_API_KEY"),
		BaseURL:        getEnv("KUSTOMER_BASE_URL", "https://api.kustomerapp.com"),
		TimeZone:       getEnv("REPORT_TIME_ZONE", "Europe/Amsterdam"),
		OutputDir:      getEnv("OUTPUT_DIR", "."),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Prefix:       getEnv("S3_PREFIX", "reports"),
		S3Region:       getEnv("S3_REGION", "eu-west-1"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		AuthIssuerURL:  os.Getenv("AUTH_ISSUER_URL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("KUSTOMER_API_KEY is required")
	}

	pageSize, err := strconv.Atoi(getEnv("PAGE_SIZE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAGE_SIZE: %w", err)
	}
	config.PageSize = pageSize

	maxRetries, err := strconv.Atoi(getEnv("MAX_RETRIES", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_RETRIES: %w", err)
	}
	config.MaxRetries = maxRetries

	timeout, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	config.RequestTimeout = time.Duration(timeout) * time.Second

	rps, err := strconv.ParseFloat(getEnv("REQUESTS_PER_SECOND", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid REQUESTS_PER_SECOND: %w", err)
	}
	config.RequestsPerSecond = rps

	start, err := time.Parse(dateLayout, getEnv("START_DATE", time.Now().UTC().Format(dateLayout)))
	if err != nil {
		return nil, fmt.Errorf("invalid START_DATE: %w", err)
	}
	config.StartDate = start

	end, err := time.Parse(dateLayout, getEnv("END_DATE", time.Now().UTC().Format(dateLayout)))
	if err != nil {
		return nil, fmt.Errorf("invalid END_DATE: %w", err)
	}
	config.EndDate = end

	if config.EndDate.Before(config.StartDate) {
		return nil, fmt.Errorf("END_DATE %s is before START_DATE %s",
			config.EndDate.Format(dateLayout), config.StartDate.Format(dateLayout))
	}

	config.IncludeUserTime = getEnv("INCLUDE_USER_TIME", "false") == "true"

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
