package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/compass/pkg/jwtx"
)

// DevJWTSecret is used when JWT_SECRET is unset. Validate refuses it in prod.
const DevJWTSecret = "compass-dev-secret-do-not-use-in-production"

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	StoreDriver  string        // sqlite or mongo (default: sqlite)
	DatabaseFile string        // sqlite database file (default: ./compass.db)
	MongoURL     string        // mongo connection string (default: mongodb://localhost:27017/)
	MongoDB      string        // mongo database name (default: aicompass)
	StoreTimeout time.Duration // Per-operation store deadline (default: 5s)

	JWTSecret string        // HMAC secret, at least 32 bytes
	JWTTTL    time.Duration // Session token lifetime (default: 168h)
	JWTIssuer string        // iss claim (default: compass-api)

	ClientOrigins  []string // Extra CORS origins from CLIENT_ORIGIN, comma separated
	TrustedProxies []string // CIDRs whose X-Forwarded-For is believed (TRUSTED_PROXIES)
	PepperFile     string   // Password pepper file (default: ./pepper)
	APIPrefix      string   // Mount point of the API routes (default: /api)

	Env                 string        // dev, staging, prod (default: dev)
	LogLevel            string        // debug, info, warn, error (default: info)
	LogFormat           string        // json, text (default: json)
	Port                int           // HTTP port (default: 4001)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		StoreDriver:  strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverSQLite)),
		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "compass.db"),
		MongoURL:     getEnvOrDefault("MONGODB_URL", "mongodb://localhost:27017/"),
		MongoDB:      getEnvOrDefault("MONGODB_DB", "aicompass"),
		StoreTimeout: getEnvDurationOrDefault("STORE_TIMEOUT", 5*time.Second),

		JWTSecret: getEnvOrDefault("JWT_SECRET", DevJWTSecret),
		JWTTTL:    getEnvDurationOrDefault("JWT_TTL", jwtx.DefaultTTL),
		JWTIssuer: getEnvOrDefault("JWT_ISSUER", "compass-api"),

		ClientOrigins:  splitList(os.Getenv("CLIENT_ORIGIN")),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		PepperFile:     getEnvOrDefault("PEPPER_FILE", "pepper"),
		APIPrefix:      getEnvOrDefault("API_PREFIX", "/api"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 4001),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate fails fast on settings the server must not start with.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverMongo:
		if c.MongoURL == "" || c.MongoDB == "" {
			errs = append(errs, errors.New("MONGODB_URL and MONGODB_DB are required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if len(c.JWTSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}
	if c.Env == "prod" && c.JWTSecret == DevJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in prod"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("API_PREFIX %q must start with /", c.APIPrefix))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
