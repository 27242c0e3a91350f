package config

import (
	"os"
	"strconv"
	"time"

	pstrings "identhub/pkg/platform/strings"
)

// Storage backend names accepted by IDENTHUB_STORAGE.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Server captures host process configuration.
type Server struct {
	Addr      string
	LogLevel  string
	LogFormat string
}

// Backend points the verification client at the identification API. An empty
// BaseURL means the host of each session URL.
type Backend struct {
	BaseURL string
	Timeout time.Duration
}

// Storage selects and configures the session state backend.
type Storage struct {
	Driver      string
	RedisURL    string
	SQLitePath  string
	PostgresDSN string
	KeyPrefix   string
}

// RedisConfig mirrors go-redis pool options.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Flow holds timing and policy knobs of the identification flow.
type Flow struct {
	PollInterval   time.Duration
	ResendCooldown time.Duration
	DefaultRetries int
	DownloadDir    string
	TermsURL       string
	PrivacyURL     string
}

// Audit configures the Kafka audit sink. Empty brokers keep audit in memory.
type Audit struct {
	KafkaBrokers []string
	KafkaTopic   string
}

// Config is the full host configuration.
type Config struct {
	Server  Server
	Backend Backend
	Storage Storage
	Flow    Flow
	Audit   Audit
	Modules []string
}

// Redis derives go-redis options from the storage section.
func (c Config) Redis() RedisConfig {
	return RedisConfig{
		URL:          c.Storage.RedisURL,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// DefaultFlow returns the flow settings used when nothing is configured.
func DefaultFlow() Flow {
	return Flow{
		PollInterval:   3 * time.Second,
		ResendCooldown: 20 * time.Second,
		DefaultRetries: 5,
		DownloadDir:    os.TempDir(),
	}
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	flow := DefaultFlow()
	flow.PollInterval = durationEnv("IDENTHUB_POLL_INTERVAL", flow.PollInterval)
	flow.ResendCooldown = durationEnv("IDENTHUB_RESEND_COOLDOWN", flow.ResendCooldown)
	flow.DefaultRetries = intEnv("IDENTHUB_DEFAULT_RETRIES", flow.DefaultRetries)
	flow.DownloadDir = stringEnv("IDENTHUB_DOWNLOAD_DIR", flow.DownloadDir)
	flow.TermsURL = os.Getenv("IDENTHUB_TERMS_URL")
	flow.PrivacyURL = os.Getenv("IDENTHUB_PRIVACY_URL")

	modules := pstrings.SplitList(os.Getenv("IDENTHUB_MODULES"))
	if len(modules) == 0 {
		modules = []string{"core", "bank", "fourthline", "qes"}
	}

	return Config{
		Server: Server{
			Addr:      stringEnv("IDENTHUB_ADDR", ":8080"),
			LogLevel:  stringEnv("IDENTHUB_LOG_LEVEL", "info"),
			LogFormat: stringEnv("IDENTHUB_LOG_FORMAT", "json"),
		},
		Backend: Backend{
			BaseURL: os.Getenv("IDENTHUB_BACKEND_URL"),
			Timeout: durationEnv("IDENTHUB_BACKEND_TIMEOUT", 30*time.Second),
		},
		Storage: Storage{
			Driver:      stringEnv("IDENTHUB_STORAGE", StorageMemory),
			RedisURL:    os.Getenv("IDENTHUB_REDIS_URL"),
			SQLitePath:  stringEnv("IDENTHUB_SQLITE_PATH", "data/identhub.db"),
			PostgresDSN: os.Getenv("IDENTHUB_POSTGRES_DSN"),
			KeyPrefix:   stringEnv("IDENTHUB_STORAGE_PREFIX", "identhub:"),
		},
		Flow: flow,
		Audit: Audit{
			KafkaBrokers: pstrings.SplitList(os.Getenv("IDENTHUB_KAFKA_BROKERS")),
			KafkaTopic:   stringEnv("IDENTHUB_KAFKA_TOPIC", "identhub.audit"),
		},
		Modules: modules,
	}
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
