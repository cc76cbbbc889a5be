package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewRewardPolicyHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	NodeID      int64

	OTLPEndpoint string

	// AdminToken guards the merchant admin routes. Empty disables the
	// check outside production.
	AdminToken string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Tenant    TenantConfig
	Shopify   ShopifyConfig
	RateLimit RateLimitConfig
}

// TenantConfig controls how per-shop databases are created and pooled.
type TenantConfig struct {
	Provisioner string
	// DatabaseURL is the base connection string. Tenant URLs reuse it with
	// the database path swapped.
	DatabaseURL string
	DBPrefix    string
	AutoMigrate bool

	NeonAPIURL    string
	NeonAPIKey    string
	NeonProjectID string
	NeonBranchID  string
	NeonDBOwner   string

	ProvisionTimeout time.Duration

	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime time.Duration
}

type ShopifyConfig struct {
	APIVersion     string
	RequestTimeout time.Duration

	// APISecret signs app-proxy requests. Empty disables the check outside
	// production.
	APISecret string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SpinRate           float64
	SpinBurst          int
	SpinLockTTLSeconds int
}

const (
	ProvisionerNeon     = "neon"
	ProvisionerPostgres = "postgres"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "prizewheel"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		NodeID:       int64(getenvInt("NODE_ID", 1)),
		AdminToken:   strings.TrimSpace(getenv("ADMIN_API_TOKEN", "")),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Tenant: TenantConfig{
			Provisioner:      normalizeProvisioner(getenv("TENANT_PROVISIONER", ProvisionerNeon)),
			DatabaseURL:      strings.TrimSpace(getenv("DATABASE_URL", "")),
			DBPrefix:         strings.TrimSpace(getenv("TENANT_DB_PREFIX", "tenant")),
			AutoMigrate:      getenvBool("AUTO_MIGRATE_TENANT_DB", false),
			NeonAPIURL:       strings.TrimRight(getenv("NEON_API_URL", "https://console.neon.tech/api/v2"), "/"),
			NeonAPIKey:       strings.TrimSpace(getenv("NEON_API_KEY", "")),
			NeonProjectID:    strings.TrimSpace(getenv("NEON_PROJECT_ID", "")),
			NeonBranchID:     strings.TrimSpace(getenv("NEON_BRANCH_ID", "")),
			NeonDBOwner:      strings.TrimSpace(getenv("NEON_DB_OWNER", "")),
			ProvisionTimeout: getenvDuration("TENANT_PROVISION_TIMEOUT", 30*time.Second),
			MaxIdleConn:      getenvInt("TENANT_DB_MAX_IDLE_CONN", 2),
			MaxOpenConn:      getenvInt("TENANT_DB_MAX_OPEN_CONN", 5),
			ConnMaxLifetime:  getenvDuration("TENANT_DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},

		Shopify: ShopifyConfig{
			APIVersion:     getenv("SHOPIFY_API_VERSION", "2024-10"),
			RequestTimeout: getenvDuration("SHOPIFY_REQUEST_TIMEOUT", 12*time.Second),
			APISecret:      strings.TrimSpace(getenv("SHOPIFY_API_SECRET", "")),
		},

		RateLimit: RateLimitConfig{
			Enabled:            getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:          strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			RedisPassword:      getenv("REDIS_PASSWORD", ""),
			RedisDB:            getenvInt("REDIS_DB", 0),
			SpinRate:           getenvFloat("SPIN_RATE", 0.2),
			SpinBurst:          getenvInt("SPIN_BURST", 5),
			SpinLockTTLSeconds: getenvInt("SPIN_LOCK_TTL_SECONDS", 30),
		},
	}

	return cfg
}

func normalizeProvisioner(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ProvisionerPostgres, "pg":
		return ProvisionerPostgres
	default:
		return ProvisionerNeon
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

// getenvDuration accepts Go duration strings or a bare number of seconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return def
}
