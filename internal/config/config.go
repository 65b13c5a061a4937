package config

import (
	"errors"
	"os"
	"strconv"
)

type Config struct {
	Port     string
	Prod     bool
	MongoURI string
	MongoDB  string

	// identity provider
	AuthJWKSURL      string
	AuthIssuer       string
	AuthAudience     string
	JWKSCacheSeconds int

	// pricing model
	GeminiAPIKey string
	GeminiModel  string

	// optional collaborators
	RabbitURL               string // пусто → Noop publisher
	RedisAddr               string // пусто → без кэша лидерборда
	LeaderboardCacheSeconds int

	RateLimitPerMin int // публичный /api/generate
}

func Load() Config {
	return Config{
		Port:                    getenv("APP_PORT", "8080"),
		Prod:                    getenv("APP_ENV", "dev") == "prod",
		MongoURI:                getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                 getenv("MONGO_DB", "taskboard"),
		AuthJWKSURL:             os.Getenv("AUTH_JWKS_URL"),
		AuthIssuer:              os.Getenv("AUTH_ISSUER"),
		AuthAudience:            os.Getenv("AUTH_AUDIENCE"),
		JWKSCacheSeconds:        atoi(getenv("JWKS_CACHE_SECONDS", "300")),
		GeminiAPIKey:            os.Getenv("GEMINI_API_KEY"),
		GeminiModel:             getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		RabbitURL:               os.Getenv("RABBIT_URL"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		LeaderboardCacheSeconds: atoi(getenv("LEADERBOARD_CACHE_SECONDS", "10")),
		RateLimitPerMin:         atoi(getenv("RATE_LIMIT_PER_MIN", "10")),
	}
}

// Validate отказывает в старте вместо тихой деградации в
// неаутентифицированный режим.
func (c Config) Validate() error {
	if c.AuthJWKSURL == "" {
		return errors.New("AUTH_JWKS_URL is required")
	}
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	if c.JWKSCacheSeconds <= 0 {
		return errors.New("JWKS_CACHE_SECONDS must be positive")
	}
	return nil
}

func atoi(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
