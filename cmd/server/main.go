package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/adperf-monitor/internal/api"
	"github.com/ignite/adperf-monitor/internal/config"
	"github.com/ignite/adperf-monitor/internal/optimizer"
	"github.com/ignite/adperf-monitor/internal/pkg/distlock"
	"github.com/ignite/adperf-monitor/internal/platform"
	"github.com/ignite/adperf-monitor/internal/repository/postgres"
	"github.com/ignite/adperf-monitor/internal/spend"
	"github.com/ignite/adperf-monitor/internal/storage"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	log.Println("AdPerf optimization server (cmd/server/main.go)")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	// Connect to Postgres
	if cfg.Database.URL == "" {
		log.Fatal("database.url is required (or set DATABASE_URL)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to reach database at %s: %v", extractHost(cfg.Database.URL), err)
	}
	defer db.Close()

	// Redis is optional; without it spend lookups hit the warehouse directly
	// and batch locking falls back to Postgres advisory locks.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis unreachable at %s, continuing without it: %v", cfg.Redis.Addr, err)
			redisClient = nil
		}
		pingCancel()
	}

	// Initialize storage
	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Platform client executes recommendations against the ad platform
	platformClient := platform.NewClient(cfg.Platform)

	// Every action module routes through the platform client
	registry := optimizer.NewExecutorRegistry()
	for _, info := range optimizer.ActionModules() {
		registry.Register(info.Module, platformClient)
	}

	// Wire handlers
	repo := postgres.NewRecommendationRepo(db)
	handlers := api.NewHandlers(cfg.Platform.AccountID, repo, registry, store)
	handlers.SetSnoozeNotifier(platformClient)
	handlers.SetSpendProvider(spend.NewProvider(
		spend.NewPostgresSource(db), redisClient, cfg.Optimizer.SpendCacheTTL()))
	handlers.SetBatchLockFactory(func() distlock.DistLock {
		key := "batch:" + cfg.Platform.AccountID
		return distlock.NewLock(redisClient, db, key, cfg.Optimizer.BatchLockTTL())
	})

	server := api.NewServer(cfg.Server, handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
