package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/shoplane/inventory-service/config"
	invH "github.com/shoplane/inventory-service/internal/inventory/handler"
	invListenerPkg "github.com/shoplane/inventory-service/internal/inventory/listener"
	invRepoPkg "github.com/shoplane/inventory-service/internal/inventory/repository"
	invUCPkg "github.com/shoplane/inventory-service/internal/inventory/usecase"
	"github.com/shoplane/inventory-service/pkg/broker"
	"github.com/shoplane/inventory-service/pkg/cache"
	"github.com/shoplane/inventory-service/pkg/logger"
	"github.com/shoplane/inventory-service/pkg/postgres"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repository
	invRepo := invRepoPkg.NewPGRepository(db, cfg.Inventory.TxAttempts)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5.5 Initialize Kafka Consumer and Producer
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()

	kafkaProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ProcessedTopic,
	})
	defer kafkaProducer.Close()
	appLogger.Info("Connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("orders_topic", cfg.Kafka.OrdersTopic),
		zap.String("processed_topic", cfg.Kafka.ProcessedTopic))

	// 6. Initialize UseCase
	queryCache := cache.NewTTLCache(cfg.Inventory.QueryCacheTTL, cache.RealClock())
	invUC := invUCPkg.NewInventoryUseCase(invRepo, redisClient, queryCache, appLogger, cfg.Inventory.DefaultLowStockThreshold)

	// 6.5 Initialize Listener
	invListener := invListenerPkg.NewInventoryListener(kafkaConsumer, kafkaProducer, invUC, appLogger)

	// Start Listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go invListener.Start(ctx)

	// 7. Start HTTP Server
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	invHandler := invH.NewInventoryHandler(invUC, appLogger)
	invHandler.RegisterRoutes(e)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := e.Start(port); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
