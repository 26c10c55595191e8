// Command server runs the chat-functions HTTP service: the AI gateway
// (translation, smart replies), the notification dispatcher webhooks, device
// token registration, and cache administration.
//
// @title        go-chat-functions API
// @version      1.0
// @description  AI translation, smart replies, and push dispatch for a chat app.
// @BasePath     /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/mtheof/go-chat-functions/docs"
	"github.com/mtheof/go-chat-functions/internal/config"
	httpapi "github.com/mtheof/go-chat-functions/internal/http"
	"github.com/mtheof/go-chat-functions/internal/integrations/openai"
	"github.com/mtheof/go-chat-functions/internal/observability"
	"github.com/mtheof/go-chat-functions/internal/push"
	"github.com/mtheof/go-chat-functions/internal/repo"
	"github.com/mtheof/go-chat-functions/internal/services"
	"github.com/mtheof/go-chat-functions/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		ct, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(ct); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("db tracing setup failed")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// Response cache backend
	var cache services.CacheStore
	switch cfg.CacheBackend {
	case config.CacheBackendValkey:
		store, err := services.NewValkeyCacheStore(cfg.Valkey.Addr, cfg.Valkey.Username, cfg.Valkey.Password, cfg.Valkey.DB)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Valkey.Addr).Msg("valkey cache setup failed")
		}
		defer store.Close()
		cache = store
	default:
		cache = services.NewSQLCacheStore(db)
	}
	log.Info().Str("backend", cfg.CacheBackend).Msg("response cache ready")

	// AI provider
	provider, err := openai.NewClient(cfg.OpenAI.APIKey, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	if err != nil {
		log.Fatal().Err(err).Msg("openai client setup failed")
	}

	// Push transport
	var fcmOpts []push.FCMOption
	if cfg.FCM.Endpoint != "" {
		fcmOpts = append(fcmOpts, push.WithEndpoint(cfg.FCM.Endpoint))
	}
	sender, err := push.NewFCMClient(cfg.FCM.ProjectID, cfg.FCM.BearerToken, fcmOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("fcm client setup failed")
	}

	// HTTP transport
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Cache:    cache,
		Provider: provider,
		Sender:   sender,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ct, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ct); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
