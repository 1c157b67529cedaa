package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opshub/inventory-count-service/config"
	"github.com/opshub/inventory-count-service/pkg/broker"
	"github.com/opshub/inventory-count-service/pkg/cache"
	"github.com/opshub/inventory-count-service/pkg/logger"
	"github.com/opshub/inventory-count-service/pkg/postgres"
	"github.com/opshub/inventory-count-service/pkg/search"

	countListenerPkg "github.com/opshub/inventory-count-service/internal/count/listener"
	countRepoPkg "github.com/opshub/inventory-count-service/internal/count/repository"
	countUCPkg "github.com/opshub/inventory-count-service/internal/count/usecase"

	itemRepoPkg "github.com/opshub/inventory-count-service/internal/item/repository"
	itemUCPkg "github.com/opshub/inventory-count-service/internal/item/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.Config{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
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

	// 4. Initialize Repositories
	countRepo := countRepoPkg.NewPGRepository(db)
	itemRepo := itemRepoPkg.NewPGRepository(db)

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

	// 5.5 Initialize Kafka Consumer
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 5.8 Initialize Elasticsearch
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (item search sync disabled)", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 6. Initialize UseCases
	countUC := countUCPkg.NewCountUseCase(countRepo, redisClient, appLogger, cfg.Count.ChunkSize, cfg.Count.ChunkDelay)
	itemUC := itemUCPkg.NewItemUseCase(itemRepo, esClient, appLogger)

	// 6.5 Initialize Listener
	countListener := countListenerPkg.NewCountListener(kafkaConsumer, countUC, itemUC, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go countListener.Start(ctx)

	appLogger.Info("Inventory count worker started",
		zap.Int("chunk_size", cfg.Count.ChunkSize),
		zap.Duration("chunk_delay", cfg.Count.ChunkDelay),
	)

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down worker...")
	cancel()
	appLogger.Info("Worker stopped")
}
