package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/bloggingapi/internal/featureflags"
	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the development signing secret. It must be overridden in production.
const DefaultJWTSecret = "secret"

const defaultMongoURI = "mongodb://localhost:27017/blogging-api"

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	MongoURI           string
	MongoDatabase      string
	JWTSecret          string
	JWTExpiresIn       time.Duration
	BcryptCost         int
	RedisURL           string
	AuthRateLimit      int
	AuthRateWindow     time.Duration
	DefaultPageSize    int
	MaxPageSize        int
	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins []string
	OTelEndpoint       string
	TrustedProxies     []string // IPs/CIDRs whose X-Forwarded-For is believed
	SkipOwnerReads     bool
}

var envPaths = []string{".env", "../.env"}

// Load reads configuration from a .env file (if any) and environment variables
func Load() (*Config, error) {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only
func FromEnv() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "5000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	expiresIn, err := ParseExpiry(getEnv("JWT_EXPIRES_IN", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}

	bcryptCost, err := strconv.Atoi(getEnv("BCRYPT_COST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("AUTH_RATE_LIMIT", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT: %w", err)
	}

	rateWindow, err := time.ParseDuration(getEnv("AUTH_RATE_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_WINDOW: %w", err)
	}

	defaultPageSize, err := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_PAGE_SIZE: %w", err)
	}

	maxPageSize, err := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_PAGE_SIZE: %w", err)
	}
	if defaultPageSize < 1 || maxPageSize < defaultPageSize {
		return nil, fmt.Errorf("invalid page sizes: default %d, max %d", defaultPageSize, maxPageSize)
	}

	mongoURI := getEnv("MONGODB_URI", defaultMongoURI)

	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		ServerPort:      port,
		MongoURI:        mongoURI,
		MongoDatabase:   getEnv("MONGODB_DATABASE", databaseFromURI(mongoURI)),
		JWTSecret:       getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTExpiresIn:    expiresIn,
		BcryptCost:      bcryptCost,
		RedisURL:        os.Getenv("REDIS_URL"),
		AuthRateLimit:   rateLimit,
		AuthRateWindow:  rateWindow,
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		OTelEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TrustedProxies: parseCSVEnv("TRUSTED_PROXIES", nil),
		SkipOwnerReads: featureflags.Enabled(featureflags.SkipOwnerReads),
	}

	if cfg.IsProduction() && cfg.JWTSecret == DefaultJWTSecret {
		return nil, errors.New("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ParseExpiry accepts Go durations ("90m", "1h"), whole days ("7d") and bare seconds ("3600").
func ParseExpiry(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errors.New("empty duration")
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("bad day count %q", v)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		d, err = time.ParseDuration(v)
		if err != nil {
			return 0, err
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", v)
	}
	return d, nil
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return "blogging-api"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
