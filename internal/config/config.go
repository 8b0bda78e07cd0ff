package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string
	// Platform REST backend the console proxies to
	BackendURL     string
	BackendTimeout time.Duration
	RedisAddr      string
	PostgresDSN    string
	ClickHouseDSN  string
	// Demo mode substitutes cached snapshots or bundled fixtures when a list
	// load fails, and hands out a placeholder admin token.
	DemoMode        bool
	DemoToken       string
	DemoSeedStorage bool
	// View defaults
	PageSize            int
	SettlementUnitPrice int64
	CacheTTL            time.Duration
	// Timezone used for date filters, schedules and campaign codes
	Timezone string
	// Per-client mutation throttling
	MutationRateLimitEnabled bool
	MutationRateCapacity     int
	MutationRateRefill       int
	// MaxMind database used to tag activity events with a country; empty
	// disables the lookup
	GeoIPDB string
	// Database connection pooling configuration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8788")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 15*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "troyconsole")

	cfg.BackendURL = getenv("BACKEND_URL", "http://localhost:3000")
	cfg.BackendTimeout = envDuration("BACKEND_TIMEOUT", 10*time.Second)
	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.PostgresDSN = getenv("POSTGRES_DSN", "")
	cfg.ClickHouseDSN = getenv("CLICKHOUSE_DSN", "")

	cfg.DemoMode = envBool("DEMO_MODE", false)
	cfg.DemoToken = getenv("DEMO_TOKEN", "demo-admin-token")
	cfg.DemoSeedStorage = envBool("DEMO_SEED_STORAGE", false)

	cfg.PageSize = envInt("PAGE_SIZE", 10)
	// flat per-review payout in KRW
	cfg.SettlementUnitPrice = int64(envInt("SETTLEMENT_UNIT_PRICE", 300))
	cfg.CacheTTL = envDuration("CACHE_TTL", 24*time.Hour)
	cfg.Timezone = getenv("CONSOLE_TIMEZONE", "Asia/Seoul")

	cfg.MutationRateLimitEnabled = envBool("MUTATION_RATE_LIMIT_ENABLED", true)
	cfg.MutationRateCapacity = envInt("MUTATION_RATE_CAPACITY", 10)
	cfg.MutationRateRefill = envInt("MUTATION_RATE_REFILL", 2)
	cfg.GeoIPDB = getenv("GEOIP_DB", "")

	cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 2)
	cfg.DBConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.DBConnMaxIdleTime = envDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute)

	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}

// Location resolves Timezone, falling back to UTC when the zone is unknown.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
