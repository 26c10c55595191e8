// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage backends, AI provider credentials,
// rate limiting, push delivery, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cache backend selectors for CACHE_BACKEND.
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendValkey = "valkey"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// ValkeyConfig defines the connection settings for the Valkey cache backend.
type ValkeyConfig struct {
	Addr     string // VALKEY_ADDR (host:port)
	Username string // VALKEY_USERNAME
	Password string // VALKEY_PASSWORD
	DB       int    // VALKEY_DB
}

// OpenAIConfig defines the AI provider settings.
type OpenAIConfig struct {
	APIKey           string // OPENAI_API_KEY
	BaseURL          string // OPENAI_BASE_URL
	TranslationModel string // OPENAI_TRANSLATION_MODEL
	RepliesModel     string // OPENAI_REPLIES_MODEL
}

// RateLimitConfig defines the per-user sliding-window quota for AI features.
type RateLimitConfig struct {
	MaxRequests int           // RATE_LIMIT_MAX_REQUESTS per window
	Window      time.Duration // RATE_LIMIT_WINDOW
}

// FCMConfig defines push delivery settings.
type FCMConfig struct {
	ProjectID   string // FCM_PROJECT_ID
	BearerToken string // FCM_BEARER_TOKEN
	Endpoint    string // FCM_ENDPOINT (override for tests/emulators)
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 30s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath       string // SQLite path
	CacheBackend string // sqlite|valkey
	Valkey       ValkeyConfig

	// AI provider
	OpenAI OpenAIConfig

	// Per-user AI quota
	RateLimit RateLimitConfig

	// Edge rate limiting (token bucket in front of the API)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Push delivery
	FCM FCMConfig

	// Web protection
	CORS CORSConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBPath:       getenv("DB_PATH", "app.db"),
		CacheBackend: strings.ToLower(getenv("CACHE_BACKEND", CacheBackendSQLite)),
		Valkey: ValkeyConfig{
			Addr:     getenv("VALKEY_ADDR", "localhost:6379"),
			Username: getenv("VALKEY_USERNAME", ""),
			Password: getenv("VALKEY_PASSWORD", ""),
			DB:       getint("VALKEY_DB", 0),
		},

		// AI provider
		OpenAI: OpenAIConfig{
			APIKey:           getenv("OPENAI_API_KEY", ""),
			BaseURL:          getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			TranslationModel: getenv("OPENAI_TRANSLATION_MODEL", "gpt-4o-mini"),
			RepliesModel:     getenv("OPENAI_REPLIES_MODEL", "gpt-4o-mini"),
		},

		// Per-user AI quota
		RateLimit: RateLimitConfig{
			MaxRequests: getint("RATE_LIMIT_MAX_REQUESTS", 100),
			Window:      getdur("RATE_LIMIT_WINDOW", time.Hour),
		},

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Push delivery
		FCM: FCMConfig{
			ProjectID:   getenv("FCM_PROJECT_ID", ""),
			BearerToken: getenv("FCM_BEARER_TOKEN", ""),
			Endpoint:    getenv("FCM_ENDPOINT", ""),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-chat-functions"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	switch cfg.CacheBackend {
	case CacheBackendSQLite, CacheBackendValkey:
	default:
		return cfg, errors.New("CACHE_BACKEND must be one of: sqlite, valkey")
	}
	if cfg.CacheBackend == CacheBackendValkey && strings.TrimSpace(cfg.Valkey.Addr) == "" {
		return cfg, errors.New("VALKEY_ADDR must not be empty when CACHE_BACKEND=valkey")
	}
	if cfg.RateLimit.MaxRequests < 1 {
		return cfg, errors.New("RATE_LIMIT_MAX_REQUESTS must be >= 1")
	}
	if cfg.RateLimit.Window <= 0 {
		return cfg, errors.New("RATE_LIMIT_WINDOW must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
