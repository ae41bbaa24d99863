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
	RedisAddr      string
	JWTSecret      string
	StoragePath    string
	StorageBaseURL string
	GeoIPDBPath    string

	ReplicateAPIToken string
	ReplicateBaseURL  string
	ReplicateModel    string
	FalAPIKey         string
	FalBaseURL        string
	FalModel          string
	CoverArtModel     string

	MusicPrice    int
	CoverArtPrice int

	PollInterval     time.Duration
	PollMaxAttempts  int
	SubmitMaxRetries int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),

		ReplicateAPIToken: os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateBaseURL:  getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateModel:    getEnv("REPLICATE_MUSIC_MODEL", "minimax/music-1.5"),
		FalAPIKey:         os.Getenv("FAL_KEY"),
		FalBaseURL:        getEnv("FAL_BASE_URL", "https://queue.fal.run"),
		FalModel:          getEnv("FAL_MUSIC_MODEL", "fal-ai/minimax-music/v2"),
		CoverArtModel:     getEnv("COVER_ART_MODEL", "prunaai/z-image-turbo"),

		MusicPrice:    getEnvInt("MUSIC_PRICE_CREDITS", 2),
		CoverArtPrice: getEnvInt("COVER_ART_PRICE_CREDITS", 1),

		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 2)),
		PollMaxAttempts:  getEnvInt("POLL_MAX_ATTEMPTS", 150),
		SubmitMaxRetries: getEnvInt("SUBMIT_MAX_RETRIES", 4),

		HTTPReadTimeout: time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		// The generation stream stays open for the full polling loop;
		// NewHTTPServer raises this to the polling horizon when set shorter.
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 330)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
