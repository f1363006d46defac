package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/seuss/pkg/authx"
	"github.com/aussiebroadwan/seuss/pkg/httpx"
)

// Session store backends.
const (
	SessionStoreSQLite = "sqlite"
	SessionStoreRedis  = "redis"
)

type Config struct {
	DatabaseFile string // Optional: path to SQLite database file (default: ./seuss.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	SessionStore   string // Optional: sqlite or redis (default: sqlite)
	RedisURL       string // Required when SessionStore is redis
	RedisKeyPrefix string // Optional: key prefix for the redis session store (default: seuss:)

	SessionTimeout    time.Duration // Optional: session idle timeout (default: 30m)
	MaxSessions       int           // Optional: live session cap, 0 for unlimited (default: 64)
	BindSessionOrigin bool          // Optional: reject session use from another Origin (default: true)
	AuthSchemes       []string      // Optional: strategy order (default: Session,Basic)

	AdminUsername string // Optional: account seeded on first start (default: admin)
	AdminPassword string // Optional: generated and logged once when empty
	ServiceUUID   string // Optional: ServiceRoot UUID

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Idle session sweep interval (default: 1m)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile: getEnvOrDefault("SEUSS_DATABASE_FILE", "seuss.db"),
		PepperFile:   getEnvOrDefault("SEUSS_PEPPER_FILE", "pepper"),

		SessionStore:   strings.ToLower(getEnvOrDefault("SEUSS_SESSION_STORE", SessionStoreSQLite)),
		RedisURL:       os.Getenv("SEUSS_REDIS_URL"),
		RedisKeyPrefix: getEnvOrDefault("SEUSS_REDIS_KEY_PREFIX", "seuss:"),

		SessionTimeout:    getEnvDurationOrDefault("SEUSS_SESSION_TIMEOUT", 30*time.Minute),
		MaxSessions:       getEnvIntOrDefault("SEUSS_MAX_SESSIONS", 64),
		BindSessionOrigin: getEnvBoolOrDefault("SEUSS_BIND_SESSION_ORIGIN", true),
		AuthSchemes: httpx.ParseCommaDelimitedFields(
			getEnvOrDefault("SEUSS_AUTH_SCHEMES", authx.SchemeSession+","+authx.SchemeBasic),
		),

		AdminUsername: getEnvOrDefault("SEUSS_ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("SEUSS_ADMIN_PASSWORD"),
		ServiceUUID:   os.Getenv("SEUSS_SERVICE_UUID"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Minute),
	}
}

// Validate reports configuration that cannot be served.
func (c Config) Validate() error {
	var errs []error

	switch c.SessionStore {
	case SessionStoreSQLite:
	case SessionStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("SEUSS_REDIS_URL is required when the session store is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session store %q", c.SessionStore))
	}

	if len(c.AuthSchemes) == 0 {
		errs = append(errs, errors.New("at least one authentication scheme is required"))
	}
	for _, scheme := range c.AuthSchemes {
		if !strings.EqualFold(scheme, authx.SchemeBasic) && !strings.EqualFold(scheme, authx.SchemeSession) {
			errs = append(errs, fmt.Errorf("unknown authentication scheme %q", scheme))
		}
	}

	if c.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("max sessions must not be negative, got %d", c.MaxSessions))
	}
	if c.SessionTimeout < 0 {
		errs = append(errs, fmt.Errorf("session timeout must not be negative, got %s", c.SessionTimeout))
	}
	if c.AdminUsername == "" {
		errs = append(errs, errors.New("admin username must not be empty"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
