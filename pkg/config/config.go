package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the core runtime configuration for a service instance.
// It supports environment-based initialization, with sensible defaults.
type Config struct {
	ServiceName string // e.g. "price-intel"
	Env         string // e.g. "dev", "uat", "prod"
	DatabaseURL string
	NATSURL     string // e.g. nats://localhost:4222
	RedisAddr   string // e.g. localhost:6379
	RedisDB     int
	RedisPass   string
	AWSRegion   string // for AWS SDK client
	LogLevel    string // "debug", "info", etc.
	Port        int    // service HTTP port

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	CacheTTL    time.Duration // TTL for secret cache
	CleanupFreq time.Duration // frequency for cache cleanup goroutine

	// Data source paths. InternalPath empty means discover the pricing
	// workbook under DataDir by name.
	DataDir      string
	InternalPath string
	ExternalPath string

	// ExternalFetchURL, when set, enables the background download of the
	// scraped export. Empty disables fetching; the local file still loads.
	ExternalFetchURL      string
	ExternalFetchInterval time.Duration
	ExternalFetchRetries  int

	RefreshInterval        time.Duration // dataset mtime poll interval
	SnapshotTTL            time.Duration // redis snapshot lifetime
	SummaryRefreshInterval time.Duration

	// Bag weight conversion for per-bag sources. Overrides use the form
	// "Maize=100,Honey=25" (kilograms per bag, by canonical commodity name).
	BagWeightDefaultKg float64
	BagWeightOverrides map[string]float64

	// UseAWSSecrets switches DSN resolution from DATABASE_URL to AWS
	// Secrets Manager.
	UseAWSSecrets bool

	// Forecast trainer paths.
	ArtifactsDir string

	PGMaxConns          int
	PGMinConns          int
	PGMaxConnLifetime   time.Duration
	PGMaxConnIdleTime   time.Duration
	PGHealthCheckPeriod time.Duration
}

// Load loads configuration from environment variables and .env file if present.
func Load() *Config {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: GetEnv("SERVICE_NAME", "price-intel"),
		Env:         GetEnv("ENV", "dev"),
		DatabaseURL: GetEnv("DATABASE_URL", ""),
		NATSURL:     GetEnv("NATS_URL", "nats://localhost:4222"),
		RedisAddr:   GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     GetEnvInt("REDIS_DB", 0),
		RedisPass:   GetEnv("REDIS_PASS", ""),
		AWSRegion:   GetEnv("AWS_REGION", "us-east-2"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		Port:        GetEnvInt("PORT", 9020),

		HTTPReadTimeout:  GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		HTTPIdleTimeout:  GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:    GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),

		CacheTTL:    GetEnvDuration("CACHE_TTL", 24*time.Hour),
		CleanupFreq: GetEnvDuration("CACHE_CLEANUP_FREQ", 10*time.Minute),

		DataDir:      GetEnv("DATA_DIR", "."),
		InternalPath: GetEnv("INTERNAL_PATH", ""),
		ExternalPath: GetEnv("EXTERNAL_PATH", "data/clean_prices.xlsx"),

		ExternalFetchURL:      GetEnv("EXTERNAL_FETCH_URL", ""),
		ExternalFetchInterval: GetEnvDuration("EXTERNAL_FETCH_INTERVAL", 6*time.Hour),
		ExternalFetchRetries:  GetEnvInt("EXTERNAL_FETCH_RETRIES", 2),

		RefreshInterval:        GetEnvDuration("REFRESH_INTERVAL", 1*time.Minute),
		SnapshotTTL:            GetEnvDuration("SNAPSHOT_TTL", 1*time.Hour),
		SummaryRefreshInterval: GetEnvDuration("SUMMARY_REFRESH_INTERVAL", 24*time.Hour),

		BagWeightDefaultKg: GetEnvFloat("BAG_WEIGHT_DEFAULT_KG", 100),
		BagWeightOverrides: parseBagWeights(GetEnv("BAG_WEIGHT_OVERRIDES", "")),

		UseAWSSecrets: GetEnvBool("USE_AWS_SECRETS", false),

		ArtifactsDir: GetEnv("ARTIFACTS_DIR", "artifacts"),

		PGMaxConns:          GetEnvInt("PG_MAX_CONNS", 10),
		PGMinConns:          GetEnvInt("PG_MIN_CONNS", 2),
		PGMaxConnLifetime:   GetEnvDuration("PG_MAX_CONN_LIFETIME", 30*time.Minute),
		PGMaxConnIdleTime:   GetEnvDuration("PG_MAX_CONN_IDLE_TIME", 5*time.Minute),
		PGHealthCheckPeriod: GetEnvDuration("PG_HEALTH_CHECK_PERIOD", 1*time.Minute),
	}

	return cfg
}

// parseBagWeights parses "Name=kg" pairs separated by commas, skipping
// malformed entries.
func parseBagWeights(raw string) map[string]float64 {
	out := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || name == "" {
			continue
		}
		if kg := parseFloat(value); kg > 0 {
			out[name] = kg
		}
	}
	return out
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
