// settle-bets atualiza placares e liquida as apostas pendentes de jogos
// encerrados. Com -dry-run apenas mostra o que seria feito.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/betting/feed"
	"github.com/radieske/nba-betting-engine/internal/betting/pipeline"
	"github.com/radieske/nba-betting-engine/internal/betting/producer"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/internal/betting/settlement"
	"github.com/radieske/nba-betting-engine/internal/shared/config"
	"github.com/radieske/nba-betting-engine/internal/shared/db"
	"github.com/radieske/nba-betting-engine/internal/shared/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "preview settlements without writing")
	skipScores := flag.Bool("skip-scores", false, "do not fetch scores before settling")
	flag.Parse()

	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "settle-bets"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

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

	// bet_settled e game_completed seguem para o Kafka como no worker
	pub := producer.NewKafkaPublisher(cfg.KafkaBrokers, producer.Topics{
		BetPlaced:     cfg.TopicBetPlaced,
		BetSettled:    cfg.TopicBetSettled,
		GameCompleted: cfg.TopicGameCompleted,
		GamesChanged:  cfg.TopicGamesChanged,
	}, log)
	defer pub.Close()

	runner := pipeline.NewRunner(client, store, log, nil, pub, cfg.ScoresDaysFrom)

	// em dry-run os placares também não são gravados
	if !*dryRun && !*skipScores {
		if err := cfg.RequireOddsAPI(); err != nil {
			log.Fatal("invalid configuration", zap.Error(err))
		}
		completed, err := runner.UpdateScores(ctx)
		if err != nil {
			log.Error("update scores failed", zap.Error(err))
		} else {
			fmt.Printf("%d game(s) marked completed\n", len(completed))
		}
	}

	rep, err := runner.SettleCompleted(ctx, *dryRun)
	if err != nil {
		log.Error("settlement failed", zap.Error(err))
		os.Exit(1)
	}
	if len(rep.Games) == 0 {
		fmt.Println("no completed games with pending bets")
		return
	}

	if rep.Preview != nil {
		fmt.Println("DRY RUN - no changes written")
		for _, it := range rep.Preview.Bets {
			fmt.Printf("  %s  %-10s %-5s %s vs %s (%d-%d)  %s  payout %s  user %s\n",
				it.Bet.ID, it.Bet.BetType, it.Bet.Selection,
				it.Game.HomeTeam, it.Game.AwayTeam, *it.Game.HomeScore, *it.Game.AwayScore,
				it.Outcome, it.Payout.StringFixed(2), it.User.Username)
		}
		fmt.Printf("won %d, lost %d, push %d, total payout %s\n",
			rep.Preview.WonCount, rep.Preview.LostCount, rep.Preview.PushCount,
			rep.Preview.TotalPayout.StringFixed(2))
		return
	}

	for _, b := range rep.Settled {
		fmt.Printf("  %s  %-10s %-5s %s  credited %s\n",
			b.ID, b.BetType, b.Selection, b.Status, settlement.Credit(b, b.Status).StringFixed(2))
	}
	fmt.Printf("settled %d bet(s) across %d game(s)\n", len(rep.Settled), len(rep.Games))
}
