package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Env                 string
	LogLevel            string
	Port                string
	AWSRegion           string
	Bucket              string
	LanguageCode        string
	SentimentPrefix     string
	ComprehendRoleARN   string
	SyncLimitBytes      int
	TranscribeJobPrefix string
	ObjectStoreType     string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load(".env", "cmd/.env")

	return Config{
		Env:                 normalizeEnv(getEnv("ENV", "dev")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Port:                getEnv("PORT", "8080"),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		Bucket:              getEnv("BUCKET_NAME", "yerttle-tours"),
		LanguageCode:        getEnv("LANGUAGE_CODE", "en-US"),
		SentimentPrefix:     getEnv("SENTIMENT_PREFIX", "sentiment/"),
		ComprehendRoleARN:   getEnv("COMPREHEND_ROLE_ARN", ""),
		SyncLimitBytes:      getEnvInt("SYNC_LIMIT_BYTES", 5000),
		TranscribeJobPrefix: getEnv("TRANSCRIBE_JOB_PREFIX", "yerttle"),
		ObjectStoreType:     normalizeStoreType(getEnv("OBJECT_STORE", "s3")),
	}
}

// BaseLanguage strips the region suffix from a language code, e.g. en-US -> en.
// The asynchronous analytics jobs accept only the base language.
func (c Config) BaseLanguage() string {
	code, _, _ := strings.Cut(c.LanguageCode, "-")
	return code
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "memory":
		return "memory"
	default:
		return "s3"
	}
}
