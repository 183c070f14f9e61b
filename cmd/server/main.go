package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"lmsWs/internal/config"
	"lmsWs/internal/modules/catalog/application/handler"
	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/application/usecase"
	"lmsWs/internal/modules/catalog/infrastructure"
	transport "lmsWs/internal/modules/catalog/interface"
	"lmsWs/internal/platform/broker"
	"lmsWs/internal/platform/cache"
	"lmsWs/internal/shared/auth"
	"lmsWs/internal/shared/logging"
)

func main() {
	// Attempt to load variables from .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, writer, err := logging.OpenDaily(cfg.Logging.Directory, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logging.New(writer, logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, AddSource: true}))
	log.SetOutput(writer)
	log.SetFlags(0)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))
	slog.Info("api config resolved", slog.String("baseUrl", cfg.REST.BaseURL), slog.Duration("timeout", cfg.REST.Timeout), slog.Int("retryAttempts", cfg.REST.RetryAttempts))
	slog.Info("kafka config resolved", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("group", cfg.Kafka.GroupID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := infrastructure.NewHub()
	progress := infrastructure.NewProgressBus()
	unsubscribeProgress := progress.Subscribe(infrastructure.ProgressBroadcaster(hub))
	defer unsubscribeProgress()

	rest := infrastructure.NewRESTClient(cfg.REST.BaseURL, infrastructure.RESTOptions{
		Timeout:       cfg.REST.Timeout,
		RetryAttempts: cfg.REST.RetryAttempts,
		RetryBackoff:  cfg.REST.RetryBackoff,
		Progress:      progress,
	})

	var listCache port.ListCache
	if cfg.Redis.Addr != "" {
		client, err := cache.New(ctx, cfg.Redis.Addr)
		if err != nil {
			slog.Warn("redis unavailable, list cache disabled", slog.String("addr", cfg.Redis.Addr), slog.Any("error", err))
		} else {
			defer client.Close()
			listCache = cache.NewListCache(client, cfg.Redis.CacheTTL)
			slog.Info("list cache enabled", slog.String("addr", cfg.Redis.Addr), slog.Duration("ttl", cfg.Redis.CacheTTL))
		}
	}

	// Use cases
	lists := usecase.NewListRegistry()
	catalogUC := usecase.NewCatalogUseCase(infrastructure.NewEntityHTTPClient(rest), listCache)
	catalogUC.OnInvalidate(func(_ context.Context, entity string) {
		if refreshed := lists.RefreshEntity(entity); refreshed > 0 {
			slog.Info("open lists refreshed", slog.String("entity", entity), slog.Int("lists", refreshed))
		}
	})
	validate := usecase.NewValidator()
	sessionUC := usecase.NewSessionUseCase(infrastructure.NewAuthHTTPClient(rest), validate)

	validator, err := auth.NewJWTValidator(cfg.Security.JWTSecret, cfg.Security.JWTPublicKey)
	if err != nil {
		slog.Error("jwt validator setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Kafka change streams, one handler per configured topic
	registry := infrastructure.NewHandlerRegistry()
	for entity, topics := range cfg.Kafka.Topics {
		for _, topic := range topics {
			registry.Register(handler.NewEntityStreamHandler(entity, topic, cfg.Websocket.AllowedActions, hub, catalogUC))
		}
	}
	waitConsumers := broker.StartKafkaConsumers(ctx, registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(writer)

	transport.RegisterRoutes(e, transport.RouteOptions{
		Websocket: transport.NewWebsocketHandler(hub, catalogUC, lists, validator, transport.WebsocketOptions{
			AllowAnonymous: cfg.Websocket.AllowAnonymous,
			AllowedActions: cfg.Websocket.AllowedActions,
			SendBuffer:     cfg.Websocket.SendBuffer,
			PageSize:       cfg.Lists.PageSize,
			Debounce:       cfg.Lists.Debounce,
			SearchDebounce: cfg.Lists.SearchDebounce,
		}),
		Entities:     transport.NewEntityHandler(catalogUC, validate, cfg.Lists.PageSize),
		Auth:         transport.NewAuthHandler(sessionUC),
		AuthRequests: cfg.RateLimit.AuthRequests,
		AuthWindow:   cfg.RateLimit.AuthWindow,
		HealthCheck: func() map[string]any {
			return map[string]any{
				"clients":       hub.ClientCount(),
				"entityClients": hub.EntityClients(),
				"openLists":     lists.Count(),
				"kafkaTopics":   registry.Topics(),
				"cacheEnabled":  listCache != nil,
				"progressHooks": progress.Len(),
			}
		},
	})

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown error", slog.Any("error", err))
	}
	waitConsumers()
}
