package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/admin"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/cache"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/database"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/repositories"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/scoring"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/utils"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-scorer/configs"
	"github.com/nimeshabuddhika/fraud-stream-simulator/services/txn-scorer/internal/services"
	"go.uber.org/zap"
)

const (
	dedupePrefix   = "scored:"
	rateLimiterKey = "ml:score_rate"
)

func main() {
	pkg.InitLogger("txn-scorer")
	logger := pkg.Logger
	defer logger.Sync()

	cfg, err := configs.Load(logger)
	if err != nil {
		logger.Fatal("failed_to_load_config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		logger.Fatal("failed_to_run_migrations", zap.Error(err))
	}
	db, disconnect, err := database.New(ctx, logger, database.Config{
		PrimaryDSN:  cfg.PrimaryDbAddr,
		ReplicaDSNs: []string{cfg.ReplicaDbAddr},
		MaxConns:    cfg.MaxDbCons,
		MinConns:    cfg.MinDbCons,
	})
	if err != nil {
		logger.Fatal("failed_to_connect_database", zap.Error(err))
	}
	defer disconnect()

	redisClient, redisCloser, err := cache.New(ctx, cache.Config{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Fatal("failed_to_connect_redis", zap.Error(err))
	}
	defer redisCloser()

	kafkaPublisher, closeKafka, err := services.NewKafkaScorePublisher(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("failed_to_initialize_kafka", zap.Error(err))
	}
	defer closeKafka()

	client := scoring.NewClient(scoring.Config{
		EndpointURL: cfg.ServingEndpointURL,
		TokenEnv:    cfg.TokenEnv,
		HTTPClient:  utils.NewHTTPClient(
			utils.WithClientTimeout(cfg.HttpClientTimeout),
			utils.WithMaxConnsPerHost(cfg.MaxConcurrentFiles),
		),
		Logger:      logger,
	})
	if os.Getenv(cfg.TokenEnv) == "" {
		logger.Warn("serving_token_not_set", zap.String("env", cfg.TokenEnv))
	}

	scoringService := services.NewScoringService(services.ScoringServiceConfig{
		Logger:  logger,
		Config:  cfg,
		Client:  client,
		Deduper: cache.NewDeduper(redisClient, dedupePrefix, cfg.DedupeTTL),
		Throttler: pkg.NewDistributedLimiter(pkg.LimiterConfig{
			RedisClient: redisClient,
			Key:         rateLimiterKey,
			RatePerSec:  cfg.MlRateLimitPerSec,
			Burst:       cfg.MlRequestBurst,
			MaxWait:     cfg.MlRequestMaxThrottleWait,
			Logger:      logger,
		}),
		Store:     services.NewPostgresScoreStore(logger, db, repositories.NewScoreRepository()),
		Publisher: kafkaPublisher,
	})

	adminSrv := admin.NewServer(cfg.MetricsAddr, logger)
	adminSrv.AddCheck("postgres", db.Ping)
	adminSrv.AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	closeAdmin, err := adminSrv.Start()
	if err != nil {
		logger.Fatal("failed_to_start_admin_server", zap.Error(err))
	}
	defer closeAdmin()

	files, err := services.NewFileWatcher(services.FileWatcherConfig{
		Logger: logger,
		Dir:    cfg.DestinationPath,
		Buffer: cfg.MaxConcurrentFiles,
	}).Watch(ctx)
	if err != nil {
		logger.Fatal("failed_to_watch_destination", zap.String("path", cfg.DestinationPath), zap.Error(err))
	}

	services.NewScoreDispatcher(services.ScoreDispatcherConfig{
		Logger:         logger,
		Service:        scoringService,
		MaxConcurrency: cfg.MaxConcurrentFiles,
	}).Run(ctx, files)

	logger.Info("service_shutdown_completed")
}
