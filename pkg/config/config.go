package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Timeouts   TimeoutConfig
	JWT        JWTConfig
	NATS       NATSConfig
	Firebase   FirebaseConfig
	Twilio     TwilioConfig
	Alerts     AlertsConfig
	Sentry     SentryConfig
	Tracing    TracingConfig
	Storage    StorageConfig
	RateLimit  RateLimitConfig
	Reputation ReputationConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
// DefaultDatabaseQueryTimeout is the per-statement timeout, in seconds,
// applied when a repository does not request its own.
const DefaultDatabaseQueryTimeout = 30

type DatabaseConfig struct {
	Host                string
	Port                string
	User                string
	Password            string
	DBName              string
	SSLMode             string
	MaxConns            int
	MinConns            int
	QueryTimeoutSeconds int
	ReplicaDSNs         []string
	RunMigrations       bool
	MigrationsPath      string
	Breaker             DatabaseBreakerConfig
}

// DatabaseBreakerConfig gates an optional circuit breaker around pooled
// queries. Disabled by default; thresholds of zero fall back to the
// resilience package defaults.
type DatabaseBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	TimeoutSeconds   int
	IntervalSeconds  int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Redis client timeout defaults, in seconds.
const (
	DefaultRedisReadTimeout  = 3
	DefaultRedisWriteTimeout = 3
)

// DefaultRedisReadTimeoutDuration returns the default read timeout as a
// duration.
func DefaultRedisReadTimeoutDuration() time.Duration {
	return time.Duration(DefaultRedisReadTimeout) * time.Second
}

// DefaultRedisWriteTimeoutDuration returns the default write timeout as a
// duration.
func DefaultRedisWriteTimeoutDuration() time.Duration {
	return time.Duration(DefaultRedisWriteTimeout) * time.Second
}

// TimeoutConfig groups per-dependency operation timeouts, in seconds.
// Specific timeouts fall back to RedisOperationTimeout, then to the package
// defaults.
type TimeoutConfig struct {
	RedisReadTimeout      int
	RedisWriteTimeout     int
	RedisOperationTimeout int
}

// RedisReadTimeoutDuration resolves the effective Redis read timeout.
func (c TimeoutConfig) RedisReadTimeoutDuration() time.Duration {
	if c.RedisReadTimeout > 0 {
		return time.Duration(c.RedisReadTimeout) * time.Second
	}
	if c.RedisOperationTimeout > 0 {
		return time.Duration(c.RedisOperationTimeout) * time.Second
	}
	return DefaultRedisReadTimeoutDuration()
}

// RedisWriteTimeoutDuration resolves the effective Redis write timeout.
func (c TimeoutConfig) RedisWriteTimeoutDuration() time.Duration {
	if c.RedisWriteTimeout > 0 {
		return time.Duration(c.RedisWriteTimeout) * time.Second
	}
	if c.RedisOperationTimeout > 0 {
		return time.Duration(c.RedisOperationTimeout) * time.Second
	}
	return DefaultRedisWriteTimeoutDuration()
}

// JWTConfig holds JWT verification configuration. The auth service owns
// token issuance; this service only verifies, so key material is loaded
// read-only.
type JWTConfig struct {
	Secret         string
	Expiration     int // in hours
	KeyFile        string
	RotationHours  int
	GraceHours     int
	VaultPath      string
	VaultAddress   string
	VaultToken     string
	VaultNamespace string
}

// NATSConfig holds event bus configuration
type NATSConfig struct {
	URL     string
	Enabled bool
}

// FirebaseConfig holds Firebase Cloud Messaging configuration
type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
	Enabled         bool
}

// TwilioConfig holds Twilio SMS configuration
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	Enabled    bool
}

// AlertsConfig holds the operational alerting webhook. Empty WebhookURL
// disables alerts.
type AlertsConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

// SentryConfig holds Sentry error tracking configuration
type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
	Enabled          bool
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
	Insecure    bool
}

// StorageConfig holds object storage configuration for verification
// documents
type StorageConfig struct {
	Provider        string // s3 or local
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	LocalPath       string
	PresignTTL      int // minutes
}

// RateLimitConfig holds request rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	WindowSeconds     int
	DefaultLimit      int
	DefaultBurst      int
	AnonymousLimit    int
	AnonymousBurst    int
	RedisPrefix       string
	EndpointOverrides map[string]EndpointRateLimitConfig
}

// EndpointRateLimitConfig overrides the default limits for one endpoint.
// Zero limits fall back to the defaults; zero window keeps the global
// window.
type EndpointRateLimitConfig struct {
	AuthenticatedLimit int
	AuthenticatedBurst int
	AnonymousLimit     int
	AnonymousBurst     int
	WindowSeconds      int
}

// Window returns the rate limit window as a duration, defaulting to one
// minute when unset.
func (c RateLimitConfig) Window() time.Duration {
	if c.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.WindowSeconds) * time.Second
}

// ReputationConfig holds reputation-domain tunables
type ReputationConfig struct {
	// LateCancelWindowHours is how close to scheduled departure a
	// cancellation counts as late.
	LateCancelWindowHours int
}

// LateCancelWindow returns the late-cancellation window, defaulting to
// 24 hours when unset.
func (c ReputationConfig) LateCancelWindow() time.Duration {
	if c.LateCancelWindowHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.LateCancelWindowHours) * time.Hour
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:                getEnv("DB_HOST", "localhost"),
			Port:                getEnv("DB_PORT", "5432"),
			User:                getEnv("DB_USER", "postgres"),
			Password:            getEnv("DB_PASSWORD", "postgres"),
			DBName:              getEnv("DB_NAME", "ride_reputation"),
			SSLMode:             getEnv("DB_SSLMODE", "disable"),
			MaxConns:            getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:            getEnvAsInt("DB_MIN_CONNS", 5),
			QueryTimeoutSeconds: getEnvAsInt("DB_QUERY_TIMEOUT_SECONDS", DefaultDatabaseQueryTimeout),
			ReplicaDSNs:         getEnvAsSlice("DB_REPLICA_DSNS"),
			RunMigrations:       getEnvAsBool("DB_RUN_MIGRATIONS", false),
			MigrationsPath:      getEnv("DB_MIGRATIONS_PATH", "migrations"),
			Breaker: DatabaseBreakerConfig{
				Enabled:          getEnvAsBool("DB_BREAKER_ENABLED", false),
				FailureThreshold: getEnvAsInt("DB_BREAKER_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvAsInt("DB_BREAKER_SUCCESS_THRESHOLD", 1),
				TimeoutSeconds:   getEnvAsInt("DB_BREAKER_TIMEOUT_SECONDS", 30),
				IntervalSeconds:  getEnvAsInt("DB_BREAKER_INTERVAL_SECONDS", 60),
			},
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Timeouts: TimeoutConfig{
			RedisReadTimeout:      getEnvAsInt("REDIS_READ_TIMEOUT_SECONDS", 0),
			RedisWriteTimeout:     getEnvAsInt("REDIS_WRITE_TIMEOUT_SECONDS", 0),
			RedisOperationTimeout: getEnvAsInt("REDIS_OPERATION_TIMEOUT_SECONDS", 0),
		},
		JWT: JWTConfig{
			Secret:         getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Expiration:     getEnvAsInt("JWT_EXPIRATION", 24),
			KeyFile:        getEnv("JWT_KEY_FILE", ""),
			RotationHours:  getEnvAsInt("JWT_ROTATION_HOURS", 720),
			GraceHours:     getEnvAsInt("JWT_GRACE_HOURS", 720),
			VaultPath:      getEnv("JWT_VAULT_PATH", ""),
			VaultAddress:   getEnv("VAULT_ADDR", ""),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
			VaultNamespace: getEnv("VAULT_NAMESPACE", ""),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			Enabled:         getEnvAsBool("FIREBASE_ENABLED", false),
		},
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
			Enabled:    getEnvAsBool("TWILIO_ENABLED", false),
		},
		Alerts: AlertsConfig{
			WebhookURL:     getEnv("ALERTS_WEBHOOK_URL", ""),
			TimeoutSeconds: getEnvAsInt("ALERTS_TIMEOUT_SECONDS", 5),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			TracesSampleRate: getEnvAsFloat("SENTRY_TRACES_SAMPLE_RATE", 0.1),
			Enabled:          getEnvAsBool("SENTRY_ENABLED", false),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 0.1),
			Insecure:    getEnvAsBool("OTEL_EXPORTER_INSECURE", true),
		},
		Storage: StorageConfig{
			Provider:        getEnv("STORAGE_PROVIDER", "local"),
			Bucket:          getEnv("STORAGE_BUCKET", ""),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			LocalPath:       getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			PresignTTL:      getEnvAsInt("STORAGE_PRESIGN_TTL_MINUTES", 15),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvAsBool("RATE_LIMIT_ENABLED", false),
			WindowSeconds:  getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			DefaultLimit:   getEnvAsInt("RATE_LIMIT_DEFAULT_LIMIT", 100),
			DefaultBurst:   getEnvAsInt("RATE_LIMIT_DEFAULT_BURST", 20),
			AnonymousLimit: getEnvAsInt("RATE_LIMIT_ANONYMOUS_LIMIT", 30),
			AnonymousBurst: getEnvAsInt("RATE_LIMIT_ANONYMOUS_BURST", 5),
			RedisPrefix:    getEnv("RATE_LIMIT_REDIS_PREFIX", "ratelimit"),
		},
		Reputation: ReputationConfig{
			LateCancelWindowHours: getEnvAsInt("REPUTATION_LATE_CANCEL_WINDOW_HOURS", 24),
		},
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection string in URL form, as expected by
// golang-migrate.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
