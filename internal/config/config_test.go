package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// Storage
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("CACHE_BACKEND", "valkey")
	t.Setenv("VALKEY_ADDR", "cache:6379")
	t.Setenv("VALKEY_PASSWORD", "s3cret")
	t.Setenv("VALKEY_DB", "2")

	// AI provider
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TRANSLATION_MODEL", "gpt-custom")

	// Per-user quota
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "50")
	t.Setenv("RATE_LIMIT_WINDOW", "30m")

	// Edge rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Push delivery
	t.Setenv("FCM_PROJECT_ID", "demo-project")
	t.Setenv("FCM_BEARER_TOKEN", "ya29.token")

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// Storage
	if cfg.DBPath != "db.sqlite" || cfg.CacheBackend != CacheBackendValkey {
		t.Fatalf("storage fields unexpected: %+v", cfg)
	}
	if cfg.Valkey.Addr != "cache:6379" || cfg.Valkey.Password != "s3cret" || cfg.Valkey.DB != 2 {
		t.Fatalf("valkey fields unexpected: %+v", cfg.Valkey)
	}

	// AI provider
	if cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.TranslationModel != "gpt-custom" {
		t.Fatalf("openai fields unexpected: %+v", cfg.OpenAI)
	}
	if cfg.OpenAI.RepliesModel != "gpt-4o-mini" {
		t.Fatalf("replies model default unexpected: %q", cfg.OpenAI.RepliesModel)
	}

	// Per-user quota
	if cfg.RateLimit.MaxRequests != 50 || cfg.RateLimit.Window != 30*time.Minute {
		t.Fatalf("rate limit unexpected: %+v", cfg.RateLimit)
	}

	// Edge rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("edge rate limiting unexpected: %+v", cfg)
	}

	// Push delivery
	if cfg.FCM.ProjectID != "demo-project" || cfg.FCM.BearerToken != "ya29.token" {
		t.Fatalf("fcm unexpected: %+v", cfg.FCM)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"empty PORT", map[string]string{"PORT": "   "}, "PORT"},
		{"invalid CACHE_BACKEND", map[string]string{"CACHE_BACKEND": "memcached"}, "CACHE_BACKEND"},
		{"valkey without addr", map[string]string{"CACHE_BACKEND": "valkey", "VALKEY_ADDR": "  "}, "VALKEY_ADDR"},
		{"zero quota", map[string]string{"RATE_LIMIT_MAX_REQUESTS": "0"}, "RATE_LIMIT_MAX_REQUESTS"},
		{"negative quota window", map[string]string{"RATE_LIMIT_WINDOW": "-1h"}, "RATE_LIMIT_WINDOW"},
		{"negative RATE_RPS", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"zero RATE_BURST", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"sample ratio out of range", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
		{"negative timeout", map[string]string{"READ_TIMEOUT": "-1s"}, "timeouts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_DefaultsAreValid(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.CacheBackend != CacheBackendSQLite {
		t.Fatalf("default cache backend = %q", cfg.CacheBackend)
	}
	if cfg.RateLimit.MaxRequests != 100 || cfg.RateLimit.Window != time.Hour {
		t.Fatalf("default quota = %+v", cfg.RateLimit)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/":        "/",
		"api":      "/api",
		"/api/v1/": "/api/v1",
		" /x ":     "/x",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
