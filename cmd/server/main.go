package main

import (
	"context"
	"ctchen222/tateti/internal/api/controller"
	apirepository "ctchen222/tateti/internal/api/repository"
	"ctchen222/tateti/internal/api/service"
	"ctchen222/tateti/internal/bot"
	"ctchen222/tateti/internal/config"
	"ctchen222/tateti/internal/db"
	"ctchen222/tateti/internal/events"
	"ctchen222/tateti/internal/hub"
	"ctchen222/tateti/internal/logger"
	"ctchen222/tateti/internal/repository"
	"ctchen222/tateti/internal/server"
	"ctchen222/tateti/internal/session"
	"ctchen222/tateti/internal/telemetry"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Otel)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	logger.Init(cfg.LogLevel)
	if cfg.DefaultSecret() {
		slog.WarnContext(ctx, "JWT_SECRET is not set, using the built-in development secret")
	}

	// Initialize Redis
	rdb, err := db.NewRedisClient(ctx, cfg.Redis.ConnString)
	if err != nil {
		log.Fatalf("failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	// Initialize SQLite DB
	DB, err := db.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		log.Fatalf("failed to initialize sqlite db: %v", err)
	}
	defer DB.Close()

	// Create repositories
	sessionRepo := repository.NewSessionRepository(rdb, cfg.Session.TTL)
	playerRepo := repository.NewPlayerRepository(rdb, cfg.Session.TTL)
	userRepo := apirepository.NewUserRepository(DB)
	resultRepo := apirepository.NewResultRepository(DB)

	// Create services
	userService := service.NewUserService(userRepo, cfg.JWTSecret)
	resultService := service.NewResultService(resultRepo)

	// Create controllers
	userController := controller.NewUserController(userService)
	playerController := controller.NewPlayerController(resultService)

	// Record finished games published by any instance
	subscriber := events.NewSubscriber(rdb, resultService)
	go func() {
		if err := subscriber.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "Event subscriber stopped", "error", err)
		}
	}()

	// Create session manager and hub
	sessions := session.NewManager(
		bot.NewSelector(nil),
		session.WithStore(sessionRepo),
		session.WithPublisher(events.NewPublisher(rdb)),
		session.WithBotDelay(cfg.Bot.Delay),
		session.WithDefaultDifficulty(cfg.Difficulty()),
	)
	h := hub.NewHub(sessions, playerRepo)
	go h.Run(ctx)

	// Create the Gin-based server
	srv := server.NewServer(h, userService, userController, playerController)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: otelhttp.NewHandler(srv.Engine(), "tateti"),
	}

	go func() {
		slog.InfoContext(ctx, "HTTP server started", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	<-h.Done()

	slog.Info("Server exiting")
}
