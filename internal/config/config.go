package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Routing provider. Empty OSRMEndpoint enables the straight-line
	// estimator fallback.
	OSRMEndpoint    string
	RoutingCacheTTL time.Duration

	// Geocoding (openrouteservice). Empty key disables address intake.
	ORSAPIKey  string
	ORSCountry string

	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string

	KafkaBrokers []string
	KafkaTopic   string

	PGDSN string

	WebhookEndpoint string

	// Matcher knobs exposed to operators; scoring weights stay internal.
	MatchTimeWindowMin  float64
	MatchCorridorMeters float64
	MatchLimit          int
	MatchWorkers        int
	// Radius for the coarse geo-index trim before the exact prefilter.
	IndexRadiusKm float64

	LogLevel      string
	RunMigrations bool
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:            ":8080",
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        15 * time.Second,
		IdleTimeout:         120 * time.Second,
		ShutdownTimeout:     15 * time.Second,
		RoutingCacheTTL:     10 * time.Minute,
		ORSCountry:          "NL",
		RedisGeoKey:         "offers_geo",
		KafkaTopic:          "route-offers",
		MatchTimeWindowMin:  45,
		MatchCorridorMeters: 600,
		MatchLimit:          20,
		MatchWorkers:        4,
		IndexRadiusKm:       50,
		LogLevel:            "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	cfg.OSRMEndpoint = strings.TrimSpace(os.Getenv("OSRM_ENDPOINT"))
	setDurationFromEnv(&cfg.RoutingCacheTTL, "ROUTING_CACHE_TTL", &errs)

	cfg.ORSAPIKey = strings.TrimSpace(os.Getenv("ORS_API_KEY"))
	setStringFromEnv(&cfg.ORSCountry, "ORS_COUNTRY")

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")

	cfg.WebhookEndpoint = strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK"))

	setFloatFromEnv(&cfg.MatchTimeWindowMin, "MATCH_TIME_WINDOW_MIN", &errs)
	setFloatFromEnv(&cfg.MatchCorridorMeters, "MATCH_CORRIDOR_METERS", &errs)
	setIntFromEnv(&cfg.MatchLimit, "MATCH_LIMIT", &errs)
	setIntFromEnv(&cfg.MatchWorkers, "MATCH_WORKERS", &errs)
	setFloatFromEnv(&cfg.IndexRadiusKm, "INDEX_RADIUS_KM", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	if cfg.MatchLimit <= 0 {
		errs = append(errs, fmt.Errorf("MATCH_LIMIT must be > 0"))
	}
	if cfg.MatchWorkers <= 0 {
		errs = append(errs, fmt.Errorf("MATCH_WORKERS must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
