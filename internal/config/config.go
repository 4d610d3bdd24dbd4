package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

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

	RedisAddr     string
	RedisPassword string

	Line LineConfig

	Scheduler SchedulerConfig
}

// LineConfig configures the LINE Messaging API client. Leaving the
// access token empty disables outbound pushes (a no-op provider is used).
type LineConfig struct {
	Enabled     bool
	APIBaseURL  string
	AccessToken string
	Timeout     time.Duration
	PublicURL   string
}

// SchedulerConfig carries the batch-job knobs shared by the in-process
// scheduler and the standalone runner.
type SchedulerConfig struct {
	RunInterval      time.Duration
	JobTimeout       time.Duration
	BatchSize        int
	CompletedGrace   time.Duration
	CancelledGrace   time.Duration
	HistoryRetention time.Duration
	ReminderLead     time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "torioki"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "torioki"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		Line: LineConfig{
			Enabled:     getenvBool("LINE_MESSAGING_ENABLED", true),
			APIBaseURL:  getenv("LINE_API_BASE_URL", "https://api.line.me"),
			AccessToken: strings.TrimSpace(getenv("LINE_CHANNEL_ACCESS_TOKEN", "")),
			Timeout:     getenvDuration("LINE_TIMEOUT", 10*time.Second),
			PublicURL:   strings.TrimRight(getenv("PUBLIC_BASE_URL", ""), "/"),
		},

		Scheduler: SchedulerConfig{
			RunInterval:      getenvDuration("SCHEDULER_RUN_INTERVAL", time.Hour),
			JobTimeout:       getenvDuration("SCHEDULER_JOB_TIMEOUT", 5*time.Minute),
			BatchSize:        getenvInt("SCHEDULER_BATCH_SIZE", 200),
			CompletedGrace:   getenvDuration("HISTORY_COMPLETED_GRACE", 24*time.Hour),
			CancelledGrace:   getenvDuration("HISTORY_CANCELLED_GRACE", 7*24*time.Hour),
			HistoryRetention: getenvDuration("HISTORY_RETENTION", 365*24*time.Hour),
			ReminderLead:     getenvDuration("REMINDER_LEAD", 24*time.Hour),
		},
	}

	return cfg
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

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
