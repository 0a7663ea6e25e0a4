package shared

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"flex_reviews/internal/domain"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	SelectionsPath string
	Workers        int
	HTTPRps        int
	CacheTTL       time.Duration
	PlaceMappings  map[string]domain.PlaceMapping
}

func Load() Config {
	// optional .env for local development; absence is fine
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/flexrev?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		SelectionsPath: env("SELECTIONS_PATH", "data/selections.json"),
		Workers:        atoi("INGEST_WORKERS", 4),
		HTTPRps:        atoi("HTTP_RPS", 20),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		PlaceMappings:  placeMappings(),
	}
	return c
}

// placeMappings parses GOOGLE_PLACE_MAPPINGS, a JSON object of
// listing slug -> {placeId, propertyName}. Invalid JSON disables the
// places source rather than failing startup.
func placeMappings() map[string]domain.PlaceMapping {
	raw := os.Getenv("GOOGLE_PLACE_MAPPINGS")
	if raw == "" {
		return nil
	}
	var m map[string]domain.PlaceMapping
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		log.Warn().Err(err).Msg("invalid GOOGLE_PLACE_MAPPINGS, skipping places source")
		return nil
	}
	return m
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
