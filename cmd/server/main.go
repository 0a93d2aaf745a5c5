package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/bookstore/internal/adapter/auth"
	"github.com/rl1809/bookstore/internal/adapter/handler"
	"github.com/rl1809/bookstore/internal/adapter/storage"
	"github.com/rl1809/bookstore/internal/config"
	"github.com/rl1809/bookstore/internal/core/service"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(cfg.MySQLMaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQLMaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Info("connected to redis")

	// Initialize adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	cache := storage.NewBreakerCache(storage.NewRedisAdapter(rdb))

	// Seed the stock mirror from the catalog
	if n, err := seedStockMirror(ctx, db, cache); err != nil {
		log.WithError(err).Warn("failed to seed stock mirror")
	} else {
		log.WithField("books", n).Info("stock mirror seeded")
	}

	// Initialize services
	orderService := service.NewOrderService(mysqlAdapter, mysqlAdapter, cache)
	catalogService := service.NewCatalogService(mysqlAdapter, mysqlAdapter, cache)

	verifier := auth.NewStaticVerifier(auth.ParseTokenPairs(cfg.AuthTokens))

	router := handler.NewRouter(orderService, catalogService, verifier)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	rdb.Close()
	db.Close()
	log.Info("connections closed")
}

// seedStockMirror copies live catalog stock into Redis so the placement gate
// starts from real numbers after a restart.
func seedStockMirror(ctx context.Context, db *sql.DB, cache interface {
	SetStock(ctx context.Context, bookID string, quantity int) error
}) (int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, stock_quantity FROM books WHERE deleted_at IS NULL`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id string
		var stock int
		if err := rows.Scan(&id, &stock); err != nil {
			return count, err
		}
		if err := cache.SetStock(ctx, id, stock); err != nil {
			return count, err
		}
		count++
	}
	return count, rows.Err()
}
