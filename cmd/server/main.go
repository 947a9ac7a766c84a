package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	portalapi "github.com/zensoft-hr/basegate/api/echo"
	"github.com/zensoft-hr/basegate/cache"
	redisstore "github.com/zensoft-hr/basegate/cache/redis"
	"github.com/zensoft-hr/basegate/config"
	"github.com/zensoft-hr/basegate/internal/basehr"
	"github.com/zensoft-hr/basegate/internal/basesso"
	"github.com/zensoft-hr/basegate/internal/federation"
	"github.com/zensoft-hr/basegate/internal/server"
	"github.com/zensoft-hr/basegate/log"
	"github.com/zensoft-hr/basegate/session"
	"github.com/zensoft-hr/basegate/tracing"
	"github.com/zensoft-hr/basegate/webhook"
)

func main() {
	// Configuration first; a missing required value stops the process here.
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	appLogger := log.NewZerologAdapter(logLevel, cfg.LogPretty)

	ctx := context.Background()
	if parseErr != nil {
		appLogger.Warn(ctx, "invalid LOG_LEVEL, defaulting to info", map[string]any{
			"configured": cfg.LogLevel,
		})
	}
	appLogger.Info(ctx, "starting basegate", map[string]any{
		"http_port":   cfg.HTTPPort,
		"public_url":  cfg.PublicURL,
		"base_domain": cfg.BaseDomain,
		"redis":       cfg.RedisAddr != "",
	})

	tracerProvider, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(ctx, "failed to initialize tracer provider", err)
	}

	provider, err := federation.NewGoogleProvider(federation.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
	})
	if err != nil {
		appLogger.Fatal(ctx, "failed to initialize google provider", err)
	}

	baseTimeout := time.Duration(cfg.BaseTimeoutSec) * time.Second
	ssoClient := basesso.NewClient(cfg.BaseDomain, cfg.BaseClientSession, baseTimeout, appLogger)
	hrClient := basehr.NewClient(cfg.BaseDomain, baseTimeout, appLogger)

	sessionTTL := time.Duration(cfg.SessionTTLHour) * time.Hour
	sessions := session.NewManager(cfg.SessionSecret, cfg.PublicURL, sessionTTL)

	cacheTTL := time.Duration(cfg.CacheTTLMin) * time.Minute
	var credentials cache.CredentialStore
	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			appLogger.Fatal(ctx, "failed to connect to redis", err, map[string]any{"addr": cfg.RedisAddr})
		}
		credentials = redisstore.NewCredentialStore(client, "basegate", cacheTTL)
	} else {
		credentials = cache.NewMemoryCredentialStore(cacheTTL)
	}

	dispatcher := webhook.NewDispatcher(appLogger)
	webhook.RegisterBuiltins(dispatcher)

	api := portalapi.NewPortalAPI(
		provider, ssoClient, hrClient, sessions, credentials, dispatcher,
		appLogger, cfg.PublicURL, sessionTTL,
	)

	httpServer := server.NewHTTPServer(cfg, appLogger, api)
	go func() {
		appLogger.Info(ctx, "http server listening", map[string]any{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(ctx, "http server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "http server shutdown failed", err)
	}
	if err := credentials.Close(); err != nil {
		appLogger.Error(shutdownCtx, "credential store close failed", err)
	}
	shutdownTracer(shutdownCtx, appLogger, tracerProvider)

	appLogger.Info(ctx, "shutdown complete")
}

func shutdownTracer(ctx context.Context, appLogger log.Logger, tp *sdktrace.TracerProvider) {
	if err := tp.Shutdown(ctx); err != nil {
		appLogger.Error(ctx, "tracer provider shutdown failed", err)
	}
}
