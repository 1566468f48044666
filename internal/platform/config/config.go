package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Empty DSN/URL/broker values
// select the in-memory or no-op implementation of the respective concern so
// the server runs standalone in development.
type Config struct {
	Addr string

	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	KafkaTopic   string

	// JWTSigningKey enables bearer-token auth on the transition endpoints
	// when set. Empty means actor identity comes from the request body
	// (development only).
	JWTSigningKey string

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:            getenv("CERTITRACK_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("CERTITRACK_POSTGRES_DSN"),
		RedisURL:        os.Getenv("CERTITRACK_REDIS_URL"),
		KafkaTopic:      getenv("CERTITRACK_KAFKA_TOPIC", "certitrack.request-history"),
		JWTSigningKey:   os.Getenv("CERTITRACK_JWT_SIGNING_KEY"),
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := os.Getenv("CERTITRACK_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
