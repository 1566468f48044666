package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "certitrack.request-history", cfg.KafkaTopic)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CERTITRACK_ADDR", ":9999")
	t.Setenv("CERTITRACK_POSTGRES_DSN", "postgres://localhost/certitrack")
	t.Setenv("CERTITRACK_KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")

	cfg := FromEnv()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "postgres://localhost/certitrack", cfg.PostgresDSN)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
}
