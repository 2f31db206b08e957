package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	JWTIssuer          string
	JWTAudience        string
	JWTAccessSecret    string
	JWTRefreshSecret   string
	JWTAccessTTL       time.Duration
	JWTRefreshTTL      time.Duration
	RefreshTokenPepper string

	VerificationCodeTTL time.Duration

	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     string
	CORSAllowedOrigins []string

	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool

	RedisAddr     string
	RedisPassword string
	FeedCacheTTL  time.Duration

	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	LogLevel                 string
	OTELMetricsEnabled       bool
	OTELTracingEnabled       bool
	OTELExporterOTLPEndpoint string
	OTELExporterOTLPInsecure bool
	OTELServiceName          string
	OTELEnvironment          string
	OTELTraceSamplingRatio   float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPPort:                 getEnv("HTTP_PORT", "8080"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		JWTIssuer:                getEnv("JWT_ISSUER", "animalia"),
		JWTAudience:              getEnv("JWT_AUDIENCE", "animalia-api"),
		JWTAccessSecret:          os.Getenv("JWT_ACCESS_SECRET"),
		JWTRefreshSecret:         os.Getenv("JWT_REFRESH_SECRET"),
		RefreshTokenPepper:       os.Getenv("REFRESH_TOKEN_PEPPER"),
		CookieDomain:             os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:             getEnvBool("COOKIE_SECURE", true),
		CookieSameSite:           strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
		CORSAllowedOrigins:       splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		StorageEndpoint:          getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey:         os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey:         os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:            getEnv("STORAGE_BUCKET", "animalia-images"),
		StorageUseSSL:            getEnvBool("STORAGE_USE_SSL", false),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		AuthRateLimitPerMin:      getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:       getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "animalia-api"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", "development"),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
	}

	accessTTL, err := time.ParseDuration(getEnv("JWT_ACCESS_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("parse JWT_ACCESS_TTL: %w", err)
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := time.ParseDuration(getEnv("JWT_REFRESH_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("parse JWT_REFRESH_TTL: %w", err)
	}
	cfg.JWTRefreshTTL = refreshTTL

	codeTTL, err := time.ParseDuration(getEnv("VERIFICATION_CODE_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("parse VERIFICATION_CODE_TTL: %w", err)
	}
	cfg.VerificationCodeTTL = codeTTL

	feedTTL, err := time.ParseDuration(getEnv("FEED_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("parse FEED_CACHE_TTL: %w", err)
	}
	cfg.FeedCacheTTL = feedTTL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTAccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 chars")
	}
	if len(c.JWTRefreshSecret) < 32 {
		errs = append(errs, "JWT_REFRESH_SECRET must be at least 32 chars")
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		errs = append(errs, "JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if len(c.RefreshTokenPepper) < 16 {
		errs = append(errs, "REFRESH_TOKEN_PEPPER must be at least 16 chars")
	}
	if c.StorageAccessKey == "" || c.StorageSecretKey == "" {
		errs = append(errs, "STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required")
	}
	if c.JWTAccessTTL <= 0 || c.JWTAccessTTL > time.Hour {
		errs = append(errs, "JWT_ACCESS_TTL must be between 1s and 1h")
	}
	if c.JWTRefreshTTL <= 0 || c.JWTRefreshTTL > (90*24*time.Hour) {
		errs = append(errs, "JWT_REFRESH_TTL must be between 1s and 90d")
	}
	if c.VerificationCodeTTL <= 0 || c.VerificationCodeTTL > 24*time.Hour {
		errs = append(errs, "VERIFICATION_CODE_TTL must be between 1s and 24h")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be within [0,1]")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
