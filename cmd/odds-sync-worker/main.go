package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/betting/feed"
	"github.com/radieske/nba-betting-engine/internal/betting/pipeline"
	"github.com/radieske/nba-betting-engine/internal/betting/producer"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/internal/shared/config"
	"github.com/radieske/nba-betting-engine/internal/shared/db"
	"github.com/radieske/nba-betting-engine/internal/shared/logger"
	"github.com/radieske/nba-betting-engine/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "odds-sync-worker"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if err := cfg.RequireOddsAPI(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	store := repo.NewPostgres(pg)

	pub := producer.NewKafkaPublisher(cfg.KafkaBrokers, producer.Topics{
		BetPlaced:     cfg.TopicBetPlaced,
		BetSettled:    cfg.TopicBetSettled,
		GameCompleted: cfg.TopicGameCompleted,
		GamesChanged:  cfg.TopicGamesChanged,
	}, log)
	defer pub.Close()

	m := metrics.NewBetting(prometheus.DefaultRegisterer)

	client := feed.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, cfg.OddsAPISport, cfg.OddsAPITimeout)
	client.Regions = cfg.OddsAPIRegions
	client.Bookmakers = cfg.OddsAPIBookmakers

	runner := pipeline.NewRunner(client, store, log, m, pub, cfg.ScoresDaysFrom)

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal("failed to create scheduler", zap.Error(err))
	}
	if err := runner.Schedule(ctx, sched, cfg.SyncInterval, cfg.SettleInterval); err != nil {
		log.Fatal("failed to schedule jobs", zap.Error(err))
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	defer metricsSrv.Close()

	sched.Start()
	log.Info("odds-sync-worker started",
		zap.Duration("sync_interval", cfg.SyncInterval),
		zap.Duration("settle_interval", cfg.SettleInterval),
		zap.String("metrics_addr", metricsSrv.Addr),
	)

	<-ctx.Done()
	if err := sched.Shutdown(); err != nil {
		log.Warn("scheduler shutdown", zap.Error(err))
	}
	log.Info("odds-sync-worker stopped")
}
