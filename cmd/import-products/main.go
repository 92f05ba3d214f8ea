// Command import-products loads a product catalogue workbook into the
// configured store. Rows are upserted by product name.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"waybilltrack/backend/internal/cache"
	"waybilltrack/backend/internal/config"
	"waybilltrack/backend/internal/directory"
	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/productimport"
	"waybilltrack/backend/internal/service"
	"waybilltrack/backend/internal/store"
	pgstore "waybilltrack/backend/internal/store/postgres"
)

func main() {
	file := flag.String("file", "", "path to the .xlsx workbook")
	flag.Parse()
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: import-products -file products.xlsx")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL must be set; an in-memory import would be lost on exit")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resp, err := run(ctx, cfg, *file)
	if err != nil {
		log.Fatalf("[import] ERROR: %v", err)
	}
	log.Printf("[import] imported %d product(s), skipped rows %v", resp.Imported, resp.Skipped)
}

func run(ctx context.Context, cfg config.Config, path string) (domain.ProductImportResponse, error) {
	pg, err := pgstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return domain.ProductImportResponse{}, err
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		return domain.ProductImportResponse{}, err
	}

	productCache := cache.ProductCache(cache.NoopProductCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisProductCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("[import] WARN: redis unavailable (%v), cached resolutions may be stale until they expire", err)
		} else {
			productCache = redisCache
		}
	}

	return importFile(ctx, pg, productCache, time.Duration(cfg.ProductCacheTTLSeconds)*time.Second, path)
}

// importFile parses path and upserts its rows through the service as a
// system Super Admin.
func importFile(ctx context.Context, repo store.Repository, productCache cache.ProductCache, ttl time.Duration, path string) (domain.ProductImportResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ProductImportResponse{}, err
	}
	defer f.Close()

	rows, skipped, err := productimport.Parse(f)
	if err != nil {
		return domain.ProductImportResponse{}, err
	}

	svc := service.New(repo, directory.New(repo, productCache, ttl), nil, service.Settings{})
	actor := domain.Actor{UserID: "system", Username: "import-products", Role: domain.RoleSuperAdmin}
	return svc.ImportProducts(service.WithActor(ctx, actor), rows, skipped)
}
