package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Mail      MailConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	Timezone              string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// MailConfig holds SMTP delivery settings. An empty Host disables real
// delivery; notifications are then logged instead of sent.
type MailConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	FromName           string
	FromAddress        string
	OpsMailbox         string
	SendTimeoutSeconds int
}

// StorageConfig selects and configures the attachment blob store.
type StorageConfig struct {
	Driver    string // "disk" or "s3"
	UploadDir string
	S3        S3Config
}

// S3Config holds S3/MinIO settings for the s3 storage driver.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// SchedulerConfig controls the SLA reminder job.
type SchedulerConfig struct {
	ReminderIntervalMinutes int
}

// RateLimitConfig bounds requests against the auth endpoints.
type RateLimitConfig struct {
	AuthRequestsPerMinute int
}

// AdminConfig describes the seeded administrator account.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "credentialing-helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			Timezone:              getEnv("APP_TIMEZONE", "Asia/Karachi"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Mail: MailConfig{
			Host:               os.Getenv("MAIL_HOST"),
			Port:               getEnvAsInt("MAIL_PORT", 587),
			Username:           os.Getenv("MAIL_USERNAME"),
			Password:           os.Getenv("MAIL_PASSWORD"),
			FromName:           getEnv("MAIL_FROM_NAME", "Credentialing Helpdesk"),
			FromAddress:        getEnv("MAIL_FROM_ADDRESS", os.Getenv("MAIL_USERNAME")),
			OpsMailbox:         getEnv("MAIL_OPS_MAILBOX", os.Getenv("MAIL_USERNAME")),
			SendTimeoutSeconds: getEnvAsInt("MAIL_SEND_TIMEOUT_SECONDS", 10),
		},
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "disk"),
			UploadDir: getEnv("STORAGE_UPLOAD_DIR", "uploads"),
			S3: S3Config{
				Endpoint:  os.Getenv("S3_ENDPOINT"),
				Region:    getEnv("S3_REGION", "us-east-1"),
				Bucket:    os.Getenv("S3_BUCKET"),
				AccessKey: os.Getenv("S3_ACCESS_KEY"),
				SecretKey: os.Getenv("S3_SECRET_KEY"),
			},
		},
		Scheduler: SchedulerConfig{
			ReminderIntervalMinutes: getEnvAsInt("REMINDER_INTERVAL_MINUTES", 30),
		},
		RateLimit: RateLimitConfig{
			AuthRequestsPerMinute: getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 10),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "CredentialingAdmin"),
			Email:    getEnv("ADMIN_EMAIL", "credentialing@docsmedicalbilling.com"),
			Password: getEnv("ADMIN_PASSWORD", "Admin@123"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ReminderInterval returns the reminder scan interval.
func (s SchedulerConfig) ReminderInterval() time.Duration {
	minutes := s.ReminderIntervalMinutes
	if minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

// SendTimeout returns the bound applied to a single notification delivery.
func (m MailConfig) SendTimeout() time.Duration {
	if m.SendTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.SendTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
