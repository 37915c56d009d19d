package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Sla      SlaConfig
	Scanner  ScannerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
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

// AuthConfig defines token verification and service credentials. Tokens
// are minted by the platform identity service; this service only
// verifies them.
type AuthConfig struct {
	JWTSecret string
	// ServiceAPIKeys maps caller name to a bcrypt hash of its key,
	// parsed from "name:hash,name:hash".
	ServiceAPIKeys map[string]string
}

// SlaPriorityConfig holds the two budgets for one priority, in hours.
type SlaPriorityConfig struct {
	ResponseHours   int
	ResolutionHours int
}

// SlaConfig carries per-priority budget overrides.
type SlaConfig struct {
	Critical SlaPriorityConfig
	High     SlaPriorityConfig
	Medium   SlaPriorityConfig
	Low      SlaPriorityConfig
}

// ScannerConfig controls the SLA breach scanner.
type ScannerConfig struct {
	Enabled         bool
	IntervalSeconds int
	BatchSize       int
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
			Name:                  getEnv("APP_NAME", "support-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
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
			JWTSecret:      getEnv("AUTH_JWT_SECRET", "dev-secret"),
			ServiceAPIKeys: parseAPIKeys(os.Getenv("SERVICE_API_KEYS")),
		},
		Sla: SlaConfig{
			Critical: SlaPriorityConfig{
				ResponseHours:   getEnvAsInt("SLA_CRITICAL_RESPONSE_HOURS", 4),
				ResolutionHours: getEnvAsInt("SLA_CRITICAL_RESOLUTION_HOURS", 8),
			},
			High: SlaPriorityConfig{
				ResponseHours:   getEnvAsInt("SLA_HIGH_RESPONSE_HOURS", 8),
				ResolutionHours: getEnvAsInt("SLA_HIGH_RESOLUTION_HOURS", 24),
			},
			Medium: SlaPriorityConfig{
				ResponseHours:   getEnvAsInt("SLA_MEDIUM_RESPONSE_HOURS", 24),
				ResolutionHours: getEnvAsInt("SLA_MEDIUM_RESOLUTION_HOURS", 72),
			},
			Low: SlaPriorityConfig{
				ResponseHours:   getEnvAsInt("SLA_LOW_RESPONSE_HOURS", 48),
				ResolutionHours: getEnvAsInt("SLA_LOW_RESOLUTION_HOURS", 168),
			},
		},
		Scanner: ScannerConfig{
			Enabled:         getEnvAsBool("SLA_SCANNER_ENABLED", true),
			IntervalSeconds: getEnvAsInt("SLA_SCANNER_INTERVAL_SECONDS", 60),
			BatchSize:       getEnvAsInt("SLA_SCANNER_BATCH_SIZE", 100),
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

// Interval returns the scan interval duration.
func (s ScannerConfig) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, hash, ok := strings.Cut(pair, ":")
		if !ok || name == "" || hash == "" {
			continue
		}
		keys[name] = hash
	}
	return keys
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
