package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/meal-order/internal/adapter/feed"
	"github.com/rl1809/meal-order/internal/adapter/handler"
	"github.com/rl1809/meal-order/internal/adapter/sink"
	"github.com/rl1809/meal-order/internal/adapter/storage"
	"github.com/rl1809/meal-order/internal/clock"
	"github.com/rl1809/meal-order/internal/config"
	"github.com/rl1809/meal-order/internal/core/service"
	"github.com/rl1809/meal-order/internal/port"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Local store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open local store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	logger.Info("local store ready", "backend", cfg.StoreBackend)

	// Order ledger
	var db *sql.DB
	queueSize := 0
	if cfg.MySQLDSN != "" {
		db, err = sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			logger.Error("failed to connect mysql", "error", err)
			os.Exit(1)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to ping mysql", "error", err)
			os.Exit(1)
		}
		queueSize = cfg.ArchiveQueue
		logger.Info("connected to mysql")
	} else {
		logger.Info("MYSQL_DSN not set, order archiving disabled")
	}

	// Services
	clk := clock.NewReal()
	httpFeed := feed.NewHTTPFeed(cfg.MenuCSVURL, nil)
	orderSink := sink.NewClient(sink.Config{
		WebhookURL: cfg.OrdersWebhookURL,
		ChatDomain: cfg.ChatDomain,
		Phone:      cfg.WhatsAppNumber,
		StoreName:  cfg.StoreName,
	}, nil, logger)

	catalog := service.NewCatalogService(httpFeed, store, clk, cfg.CatalogTTL, logger)
	resolver := service.NewResolver(clk, cfg.Location)
	storefront := service.NewStorefront(catalog, resolver, store, orderSink, queueSize, logger,
		service.WithSessionIdleTTL(cfg.SessionIdleTTL))

	// Archive workers
	var wg sync.WaitGroup
	if db != nil && storefront.GetOrderQueue() != nil {
		ledger := storage.NewMySQLLedger(db)
		if err := ledger.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare order ledger", "error", err)
			os.Exit(1)
		}
		for i := 0; i < cfg.ArchiveWorkers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				service.ArchiveWorker(id, storefront.GetOrderQueue(), ledger, logger)
			}(i)
		}
		logger.Info("started archive workers", "count", cfg.ArchiveWorkers)
	}

	// gRPC server
	grpcServer := handler.NewGRPCServer()
	handler.RegisterStorefrontServer(grpcServer, handler.NewGRPCHandler(storefront, logger))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("failed to listen", "port", cfg.GRPCPort, "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("gRPC server listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	// HTTP server
	router := handler.NewRouter(handler.NewHTTPHandler(storefront, logger), cfg.CORSOrigins)
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Drain the archive queue before closing connections
	storefront.Close()
	wg.Wait()
	logger.Info("archive workers stopped")

	if err := closeStore(); err != nil {
		logger.Warn("failed to close local store", "error", err)
	}
	if db != nil {
		db.Close()
	}
	logger.Info("connections closed")
}

func openStore(ctx context.Context, cfg *config.Config) (port.LocalStore, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, err
		}
		return storage.NewRedisStore(rdb, storage.DefaultKeys()), rdb.Close, nil
	default:
		s, err := storage.OpenSQLiteStore(ctx, cfg.SQLitePath, storage.DefaultKeys())
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}
