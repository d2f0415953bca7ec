package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	DatabaseURL          string
	HTTPPort             string
	OpenAIAPIKey         string
	OpenAIModel          string
	CompressionThreshold int
	ExtractionCacheTTL   time.Duration
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Don't fail if .env is not present, might be in production
	}

	port := getEnv("HTTP_PORT", "8080")
	dbURL := getEnv("DATABASE_URL", "") // No default, should fail if not set
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set.")
	}

	apiKey := getEnv("OPENAI_API_KEY", "")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is not set.")
	}
	model := getEnv("OPENAI_MODEL", "gpt-4o-mini")

	threshold := getEnvInt("COMPRESSION_THRESHOLD", 10)
	ttlSeconds := getEnvInt("EXTRACTION_CACHE_TTL_SECONDS", 300)

	cfg := &Config{
		HTTPPort:             port,
		DatabaseURL:          dbURL,
		OpenAIAPIKey:         apiKey,
		OpenAIModel:          model,
		CompressionThreshold: threshold,
		ExtractionCacheTTL:   time.Duration(ttlSeconds) * time.Second,
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, Model=%s, CompressionThreshold=%d, CacheTTL=%s",
		cfg.HTTPPort, cfg.OpenAIModel, cfg.CompressionThreshold, cfg.ExtractionCacheTTL)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, strconv.Itoa(fallback))
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s', using default %d. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return value
}
