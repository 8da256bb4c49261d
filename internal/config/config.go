package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// placeholderKeys are credential values left over from setup templates.
// They count as "not configured".
var placeholderKeys = map[string]bool{
	"your_actual_api_key_here":      true,
	"your_google_maps_api_key_here": true,
}

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Map provider credential. Optional at boot: when empty or a
	// placeholder, the API reports setup-required until one is posted.
	MapsAPIKey string

	// Leaderboard backends. PostgresURL and RedisURL are optional; with
	// neither set the local blob is the only tier.
	PostgresURL    string
	RedisURL       string
	LocalStorePath string
	ReadyWait      time.Duration
	CacheTTL       time.Duration

	// Game rules
	Rounds        int
	RoundSeconds  int
	PenaltyMeters float64
	SessionTTL    time.Duration
}

// Load reads configuration from environment variables. Nothing is fatal:
// every value has a default and missing backends degrade to the local tier.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		MapsAPIKey: os.Getenv("MAPS_API_KEY"),

		PostgresURL:    os.Getenv("POSTGRES_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		LocalStorePath: getEnv("LOCAL_STORE_PATH", "placechase_highscores.json"),
		ReadyWait:      getEnvDuration("LEADERBOARD_READY_WAIT", 5*time.Second),
		CacheTTL:       getEnvDuration("LEADERBOARD_CACHE_TTL", 30*time.Second),

		Rounds:        getEnvInt("GAME_ROUNDS", 3),
		RoundSeconds:  getEnvInt("GAME_ROUND_SECONDS", 30),
		PenaltyMeters: getEnvFloat("GAME_PENALTY_METERS", 2000),
		SessionTTL:    getEnvDuration("GAME_SESSION_TTL", 30*time.Minute),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	if placeholderKeys[cfg.MapsAPIKey] {
		cfg.MapsAPIKey = ""
	}

	return cfg, nil
}

// MapsConfigured reports whether a usable map credential is present.
func (c *Config) MapsConfigured() bool {
	return c.MapsAPIKey != ""
}

// ValidMapsKey rejects empty and placeholder credentials.
func ValidMapsKey(key string) bool {
	return key != "" && !placeholderKeys[key]
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
