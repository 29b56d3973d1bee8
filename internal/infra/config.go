package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	StorageBaseURL string
	StoragePath    string
	GeoIPDBPath    string

	DBMaxConns        int
	DBMinConns        int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	GeminiAPIKey  string
	GeminiModel   string
	GeminiVision  string
	GeminiBaseURL string

	GroqAPIKey  string
	GroqModel   string
	GroqVision  string
	GroqBaseURL string

	ShotstackAPIKey  string
	ShotstackBaseURL string

	TemplateAPIKey  string
	TemplateBaseURL string

	PosterRendererURL string

	MediaProbeTimeout time.Duration
	MediaFetchTimeout time.Duration

	DiversityMaxAttempts int
	CritiqueMaxAttempts  int

	HTTPReadTimeout       time.Duration
	HTTPReadHeaderTimeout time.Duration
	HTTPWriteTimeout      time.Duration
	HTTPIdleTimeout       time.Duration
	RateLimitPerMin       int
	AllowedOrigins        []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),

		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 1),
		DBConnMaxLifetime: time.Minute * time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 60)),
		DBConnMaxIdleTime: time.Minute * time.Duration(getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 30)),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiVision:  getEnv("GEMINI_VISION_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		GroqAPIKey:  os.Getenv("GROQ_API_KEY"),
		GroqModel:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqVision:  getEnv("GROQ_VISION_MODEL", "llama-3.2-11b-vision-preview"),
		GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),

		ShotstackAPIKey:  os.Getenv("SHOTSTACK_API_KEY"),
		ShotstackBaseURL: getEnv("SHOTSTACK_BASE_URL", "https://api.shotstack.io/v1"),

		TemplateAPIKey:  os.Getenv("APITEMPLATE_API_KEY"),
		TemplateBaseURL: getEnv("APITEMPLATE_BASE_URL", "https://rest.apitemplate.io/v2"),

		PosterRendererURL: getEnv("POSTER_RENDERER_URL", "http://localhost:3000/api/render-post"),

		MediaProbeTimeout: time.Second * time.Duration(getEnvInt("MEDIA_PROBE_TIMEOUT_SECONDS", 10)),
		MediaFetchTimeout: time.Second * time.Duration(getEnvInt("MEDIA_FETCH_TIMEOUT_SECONDS", 15)),

		DiversityMaxAttempts: getEnvInt("DIVERSITY_MAX_ATTEMPTS", 2),
		CritiqueMaxAttempts:  getEnvInt("CRITIQUE_MAX_ATTEMPTS", 3),

		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPReadHeaderTimeout: time.Second * time.Duration(getEnvInt("HTTP_READ_HEADER_TIMEOUT_SECONDS", 5)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:        splitEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.GeminiAPIKey == "" && cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("at least one of GEMINI_API_KEY or GROQ_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
