package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apicache "github.com/radieske/nba-betting-engine/internal/betting-api/cache"
	"github.com/radieske/nba-betting-engine/internal/betting-api/consumer"
	httpapi "github.com/radieske/nba-betting-engine/internal/betting-api/http"
	"github.com/radieske/nba-betting-engine/internal/betting/placement"
	"github.com/radieske/nba-betting-engine/internal/betting/producer"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/internal/shared/cache"
	"github.com/radieske/nba-betting-engine/internal/shared/config"
	"github.com/radieske/nba-betting-engine/internal/shared/db"
	"github.com/radieske/nba-betting-engine/internal/shared/kafka"
	"github.com/radieske/nba-betting-engine/internal/shared/logger"
	"github.com/radieske/nba-betting-engine/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "betting-api"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	// Redis (cache de listagens)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka
	pub := producer.NewKafkaPublisher(cfg.KafkaBrokers, producer.Topics{
		BetPlaced:     cfg.TopicBetPlaced,
		BetSettled:    cfg.TopicBetSettled,
		GameCompleted: cfg.TopicGameCompleted,
		GamesChanged:  cfg.TopicGamesChanged,
	}, log)
	defer pub.Close()

	m := metrics.NewBetting(prometheus.DefaultRegisterer)

	bets := placement.NewService(repo.NewPostgres(pg), log, m, pub)
	bets.DefaultBalance = cfg.DefaultUserBalance

	if cfg.AdminAPIKey == "" {
		log.Warn("ADMIN_API_KEY not set, user creation disabled")
	}
	gamesCache := apicache.New(rdb)
	api := httpapi.NewServer(log, bets, gamesCache, cfg.GamesCacheTTL, cfg.AdminAPIKey)

	// Kafka consumer: games_changed derruba as listagens em cache
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicGamesChanged, "betting-api-cache")
	defer reader.Close()
	inv := &consumer.Invalidator{Log: log, Reader: reader, Cache: gamesCache}
	go func() {
		if err := inv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("cache invalidator stopped", zap.Error(err))
		}
	}()

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info("betting-api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("betting-api stopped")
}
