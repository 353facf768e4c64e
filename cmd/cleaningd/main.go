package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cleaning-session-backend/config"
	"cleaning-session-backend/internal/api"
	"cleaning-session-backend/internal/booking"
	"cleaning-session-backend/internal/catalog"
	"cleaning-session-backend/internal/completion"
	"cleaning-session-backend/internal/db"
	"cleaning-session-backend/internal/kv"
	"cleaning-session-backend/internal/notification"
	"cleaning-session-backend/internal/report"
	"cleaning-session-backend/internal/session"
	"cleaning-session-backend/internal/syncer"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	logger := log.New(os.Stdout, "cleaning-backend ", log.LstdFlags)
	log.SetPrefix("cleaning-backend ")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Push alerts for reports are optional.
	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys not configured; report push alerts disabled")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := kv.NewGormStore(gormDB)
	cat := catalog.New(cfg.Catalog)
	client := booking.NewClient(cfg.Booking)
	if !client.Configured() {
		logger.Println("booking system not configured; completed sessions will be kept for later sync")
	}

	sessions := session.NewManager(store, cat.ItemIDs())
	if err := sessions.Load(ctx); err != nil {
		logger.Fatalf("failed to load active sessions: %v", err)
	}

	completed := completion.NewPipeline(store, client)
	if err := completed.Load(ctx); err != nil {
		logger.Fatalf("failed to load completed sessions: %v", err)
	}

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions, client, cat)
	workerPool.Start(ctx)

	reports := report.NewService(gormDB, cfg.Reports, cat, workerPool)

	retrySvc := syncer.NewService(completed, workerPool, client.Configured, cfg.Booking.RetryInterval)
	go retrySvc.Run(ctx)

	router := api.NewRouter(api.Deps{
		Sessions:      sessions,
		Completed:     completed,
		Catalog:       cat,
		Reports:       reports,
		DB:            gormDB,
		WebPush:       webpushOptions,
		AdminToken:    cfg.Server.AdminToken,
		MaxPhotoBytes: cfg.Reports.MaxPhotoBytes,
		CacheTTL:      time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		RateLimit:     cfg.Server.RateLimitPerSec,
		RateBurst:     cfg.Server.RateLimitBurst,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
