// fetch-games roda uma única sincronização de jogos e odds e termina.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/betting/feed"
	"github.com/radieske/nba-betting-engine/internal/betting/pipeline"
	"github.com/radieske/nba-betting-engine/internal/betting/producer"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/internal/shared/config"
	"github.com/radieske/nba-betting-engine/internal/shared/db"
	"github.com/radieske/nba-betting-engine/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "fetch-games"
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

	client := feed.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, cfg.OddsAPISport, cfg.OddsAPITimeout)
	client.Regions = cfg.OddsAPIRegions
	client.Bookmakers = cfg.OddsAPIBookmakers

	pub := producer.NewKafkaPublisher(cfg.KafkaBrokers, producer.Topics{
		BetPlaced:     cfg.TopicBetPlaced,
		BetSettled:    cfg.TopicBetSettled,
		GameCompleted: cfg.TopicGameCompleted,
		GamesChanged:  cfg.TopicGamesChanged,
	}, log)
	defer pub.Close()

	runner := pipeline.NewRunner(client, store, log, nil, pub, cfg.ScoresDaysFrom)

	res, err := runner.SyncOdds(ctx)
	if err != nil {
		log.Error("odds sync failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("games synced: %d created, %d updated, %d frozen, %d skipped (%d total)\n",
		res.Created, res.Updated, res.Frozen, res.Skipped, res.Total)

	if u, err := client.CheckUsage(ctx); err == nil {
		fmt.Printf("api quota: %s used, %s remaining\n", u.RequestsUsed, u.RequestsRemaining)
	}
}
