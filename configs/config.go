package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Cache       CacheConfig
	Scraper     ScraperConfig
	Prioritizer PrioritizerConfig
	Discovery   DiscoveryConfig
	Email       EmailConfig
	Auth        AuthConfig
	Log         LogConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

// CacheConfig configures the two-tier (memory + disk) cache store.
type CacheConfig struct {
	Dir             string
	MemoryCacheSize int
	DefaultTTLHours float64
	// TTL applied to workspace reads cached in Redis.
	WorkspaceTTL time.Duration
}

// ScraperConfig configures the batch web scraper. All fields are overridable
// from the environment.
type ScraperConfig struct {
	MaxConcurrentRequests int
	RequestDelay          time.Duration
	Timeout               time.Duration
	MaxRetries            int
	RetryDelay            time.Duration
	UserAgent             string
	RespectRobotsTxt      bool
	CacheTTLHours         float64
	MaxContentSize        int64
}

type PrioritizerConfig struct {
	// Optional YAML mission profile overriding the built-in keyword and
	// domain tables.
	ProfilePath string
}

type DiscoveryConfig struct {
	// Default cap on how many ranked URLs one run will fetch.
	MaxURLsPerRun int
}

type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	DigestEmail    string
}

type AuthConfig struct {
	// Secret for the bearer tokens guarding mutating API routes.
	JWTSecret string
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:  getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:   getEnv("TLS_KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "grant_discovery"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Cache: CacheConfig{
			Dir:             getEnv("CACHE_DIR", "/tmp/grant_discovery_cache"),
			MemoryCacheSize: getIntEnv("MEMORY_CACHE_SIZE", 100),
			DefaultTTLHours: getFloatEnv("CACHE_TTL_HOURS", 24),
			WorkspaceTTL:    getDurationEnv("WORKSPACE_CACHE_TTL", 10*time.Minute),
		},
		Scraper: ScraperConfig{
			MaxConcurrentRequests: getIntEnv("MAX_CONCURRENT_REQUESTS", 5),
			RequestDelay:          getSecondsEnv("REQUEST_DELAY", 1500*time.Millisecond),
			Timeout:               getSecondsEnv("REQUEST_TIMEOUT", 30*time.Second),
			MaxRetries:            getIntEnv("MAX_RETRIES", 3),
			RetryDelay:            getSecondsEnv("RETRY_DELAY", 2*time.Second),
			UserAgent:             getEnv("USER_AGENT", "Endemic-Grant-Agent/1.0 (+https://endemic.org/grant-agent)"),
			RespectRobotsTxt:      getBoolEnv("RESPECT_ROBOTS_TXT", true),
			CacheTTLHours:         getFloatEnv("CACHE_TTL_HOURS", 24),
			MaxContentSize:        getInt64Env("MAX_CONTENT_SIZE", 5*1024*1024),
		},
		Prioritizer: PrioritizerConfig{
			ProfilePath: getEnv("MISSION_PROFILE_PATH", ""),
		},
		Discovery: DiscoveryConfig{
			MaxURLsPerRun: getIntEnv("DISCOVERY_MAX_URLS", 20),
		},
		Email: EmailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromEmail:      getEnv("FROM_EMAIL", "noreply@endemic.org"),
			FromName:       getEnv("FROM_NAME", "Grant Discovery"),
			DigestEmail:    getEnv("DIGEST_EMAIL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Build database DSN
	cfg.Database.DSN = fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getSecondsEnv parses a bare number of seconds (the form the original
// deployment used, e.g. REQUEST_DELAY=1.5) and falls back to Go duration
// syntax.
func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
