package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"IDENTHUB_ADDR", "IDENTHUB_STORAGE", "IDENTHUB_MODULES", "IDENTHUB_POLL_INTERVAL",
		"IDENTHUB_RESEND_COOLDOWN", "IDENTHUB_DEFAULT_RETRIES", "IDENTHUB_KAFKA_BROKERS",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, []string{"core", "bank", "fourthline", "qes"}, cfg.Modules)
	assert.Equal(t, 3*time.Second, cfg.Flow.PollInterval)
	assert.Equal(t, 20*time.Second, cfg.Flow.ResendCooldown)
	assert.Equal(t, 5, cfg.Flow.DefaultRetries)
	assert.Empty(t, cfg.Audit.KafkaBrokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("IDENTHUB_STORAGE", "redis")
	t.Setenv("IDENTHUB_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("IDENTHUB_MODULES", "core, QES")
	t.Setenv("IDENTHUB_POLL_INTERVAL", "500ms")
	t.Setenv("IDENTHUB_DEFAULT_RETRIES", "not-a-number")
	t.Setenv("IDENTHUB_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := FromEnv()
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis().URL)
	assert.Equal(t, []string{"core", "qes"}, cfg.Modules)
	assert.Equal(t, 500*time.Millisecond, cfg.Flow.PollInterval)
	assert.Equal(t, 5, cfg.Flow.DefaultRetries, "invalid values fall back to defaults")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.KafkaBrokers)
}
