package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laundry/internal/config"
	"laundry/internal/database"
	"laundry/internal/handler"
	"laundry/internal/messaging"
	"laundry/internal/service"
	"laundry/internal/session"
	"laundry/internal/worker"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(os.Args[1:]); err != nil {
		slog.Error("laundry stopped", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDB(ctx, cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("connect to DB: %w", err)
	}
	defer database.CloseDB(db)

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate DB: %w", err)
	}

	adminCred, err := service.NewAdminCredential(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		return err
	}

	// Events
	var events service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		defer func() {
			if err := producer.Close(); err != nil {
				slog.Error("failed to close kafka producer", "error", err)
			}
		}()
		events = producer
		slog.Info("publishing order events", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderEventsTopic)
	}

	// Services
	sessions := session.NewMemoryStore()
	authSvc := service.NewAuthService(db)
	adminSvc := service.NewAdminService(adminCred, sessions, []byte(cfg.SessionSecret), cfg.SessionTTL)
	orderSvc := service.NewOrderService(db, adminSvc, events)

	// Worker
	sweeper := worker.NewSessionSweeper(sessions, cfg.SessionSweepInterval)
	go sweeper.Start(ctx)

	router := handler.NewRouter(handler.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Cookie: handler.CookieConfig{
			Name:   cfg.CookieName,
			Secure: cfg.CookieSecure,
			TTL:    cfg.SessionTTL,
		},
	}, authSvc, adminSvc, orderSvc)

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	slog.Info("starting server", "addr", cfg.RunAddress)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-quit:
		slog.Info("shutting down...")
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	cancel() // stop sweeper
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
