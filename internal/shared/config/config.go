package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string
	Env             string

	// Manuscript intake limits.
	MinWords          int
	MaxWords          int
	MaxUploadBytes    int64
	MaxFilesPerUpload int

	// Package assembly and delivery.
	PackagesDir   string
	PublicBaseURL string
	PackageTTL    time.Duration

	// External generation engine.
	EngineWebhookURL string
	EngineTimeout    time.Duration
	CallbackBaseURL  string

	// Purge analysis LLM.
	LLMProvider string
	LLMModel    string

	// Delivery notifications.
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:              getEnv("PORT", "8002"),
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:       dbURL,
		Env:               env,
		MinWords:          getEnvInt("MIN_WORDS", 500),
		MaxWords:          getEnvInt("MAX_WORDS", 200000),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_SIZE", 50<<20)),
		MaxFilesPerUpload: getEnvInt("MAX_FILES_PER_UPLOAD", 7),
		PackagesDir:       getEnv("PACKAGES_DIR", "./data/packages"),
		PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8002"), "/"),
		PackageTTL:        getEnvDuration("PACKAGE_TTL", 7*24*time.Hour),
		EngineWebhookURL:  getEnv("ENGINE_WEBHOOK_URL", "http://localhost:5678/webhook/shadow7-generate"),
		EngineTimeout:     getEnvDuration("ENGINE_TIMEOUT", 30*time.Second),
		CallbackBaseURL:   strings.TrimRight(getEnv("CALLBACK_BASE_URL", "http://localhost:8002"), "/"),
		LLMProvider:       getEnv("LLM_PROVIDER", ""),
		LLMModel:          getEnv("LLM_MODEL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnvInt("SMTP_PORT", 587),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPass:          getEnv("SMTP_PASSWORD", ""),
		FromEmail:         getEnv("FROM_EMAIL", "publisher@localhost"),
	}
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
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config env %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config env %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
