package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waybilltrack/backend/internal/cache"
	"waybilltrack/backend/internal/config"
	"waybilltrack/backend/internal/directory"
	"waybilltrack/backend/internal/httpapi"
	"waybilltrack/backend/internal/notify"
	"waybilltrack/backend/internal/service"
	"waybilltrack/backend/internal/store"
	badgerstore "waybilltrack/backend/internal/store/badger"
	"waybilltrack/backend/internal/store/memory"
	pgstore "waybilltrack/backend/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 4)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			log.Fatalf("postgres migration failed: %v", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	productCache := cache.ProductCache(cache.NoopProductCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisProductCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			productCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	sinks := make([]notify.Sink, 0, 2)
	if cfg.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.WebhookURL, cfg.WebhookSecret, time.Duration(cfg.WebhookTimeoutSeconds)*time.Second))
		log.Printf("notify: webhook %s", cfg.WebhookURL)
	}
	if cfg.KafkaBrokers != "" {
		kafkaSink := notify.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		sinks = append(sinks, kafkaSink)
		closers = append(closers, kafkaSink.Close)
		log.Printf("notify: kafka topic %s", cfg.KafkaTopic)
	}
	dispatcher := notify.NewDispatcher(sinks...)

	dir := directory.New(repo, productCache, time.Duration(cfg.ProductCacheTTLSeconds)*time.Second)
	svc := service.New(repo, dir, dispatcher, service.Settings{
		DashboardLimit: cfg.DashboardLimit,
		OverdueDays:    cfg.OverdueDays,
	})

	if cfg.LedgerPath != "" {
		ledger, err := badgerstore.Open(cfg.LedgerPath)
		if err != nil {
			log.Fatalf("count ledger unavailable at %s: %v", cfg.LedgerPath, err)
		}
		svc.UseLedger(ledger)
		closers = append(closers, ledger.Close)
		log.Printf("count ledger: badger at %s", cfg.LedgerPath)
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("waybill tracker listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.WebhookURL != "" && len(cfg.WebhookSecret) < 16 {
		return fmt.Errorf("WEBHOOK_SECRET must be at least 16 characters when WEBHOOK_URL is set")
	}
	return nil
}
