// Package pipeline encadeia feed, reconciliação e liquidação nas rodadas
// executadas pelo worker agendado e pelos CLIs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
	"github.com/radieske/nba-betting-engine/internal/betting/feed"
	"github.com/radieske/nba-betting-engine/internal/betting/reconcile"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/internal/betting/settlement"
	"github.com/radieske/nba-betting-engine/internal/shared/metrics"
)

// FeedClient é satisfeito por *feed.Client.
type FeedClient interface {
	FetchGames(ctx context.Context) (feed.GameBatch, error)
	FetchScores(ctx context.Context, daysFrom int) (feed.ScoreBatch, error)
}

type Runner struct {
	Feed       FeedClient
	Store      repo.Store
	Reconciler *reconcile.Service
	Engine     *settlement.Engine
	Log        *zap.Logger
	Metrics    *metrics.Betting
	DaysFrom   int
}

// Publisher recebe os eventos das rodadas (games_changed, game_completed e
// bet_settled).
// Satisfeito por *producer.KafkaPublisher.
type Publisher interface {
	reconcile.Publisher
	settlement.Publisher
}

// NewRunner monta reconciliador e liquidante sobre o mesmo store e publisher.
// m e pub podem ser nil; sem pub nenhum evento sai das rodadas.
func NewRunner(f FeedClient, store repo.Store, log *zap.Logger, m *metrics.Betting, pub Publisher, daysFrom int) *Runner {
	return &Runner{
		Feed:       f,
		Store:      store,
		Reconciler: reconcile.NewService(store, log, m, pub),
		Engine:     settlement.NewEngine(store, log, m, pub),
		Log:        log,
		Metrics:    m,
		DaysFrom:   daysFrom,
	}
}

// SyncOdds busca o feed de odds e reconcilia os jogos. Registros rejeitados
// pelo normalizador são logados e contados; o lote segue.
func (r *Runner) SyncOdds(ctx context.Context) (reconcile.SyncResult, error) {
	batch, err := r.Feed.FetchGames(ctx)
	if err != nil {
		return reconcile.SyncResult{}, err
	}
	r.reportRejected("normalize_games", batch.Rejected)
	return r.Reconciler.SyncGames(ctx, batch.Games)
}

// UpdateScores só chama o fornecedor se houver jogo não encerrado.
func (r *Runner) UpdateScores(ctx context.Context) ([]domain.Game, error) {
	open, err := r.Reconciler.HasUnfinishedGames(ctx)
	if err != nil {
		return nil, err
	}
	if !open {
		r.Log.Info("no unfinished games, skipping scores fetch")
		return nil, nil
	}

	batch, err := r.Feed.FetchScores(ctx, r.daysFrom())
	if err != nil {
		return nil, err
	}
	r.reportRejected("normalize_scores", batch.Rejected)
	return r.Reconciler.UpdateCompletedGames(ctx, batch.Scores)
}

// SettleReport resume uma rodada de liquidação. Em dry-run apenas Preview
// é preenchido.
type SettleReport struct {
	Games   []domain.Game
	Settled []domain.Bet
	Preview *settlement.Preview
}

// SettleCompleted liquida todos os jogos COMPLETED que ainda têm apostas
// pendentes, incluindo os de rodadas anteriores que falharam.
func (r *Runner) SettleCompleted(ctx context.Context, dryRun bool) (SettleReport, error) {
	var games []domain.Game
	err := r.Store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		games, err = tx.Games().FindWithPendingBets(ctx, domain.GameCompleted)
		return err
	})
	if err != nil {
		return SettleReport{}, fmt.Errorf("find games with pending bets: %w", err)
	}

	rep := SettleReport{Games: games}
	if len(games) == 0 {
		return rep, nil
	}
	if dryRun {
		p, err := r.Engine.PreviewSettlements(ctx, games)
		if err != nil {
			return rep, err
		}
		rep.Preview = &p
		return rep, nil
	}
	rep.Settled, err = r.Engine.SettleBetsForGames(ctx, games)
	return rep, err
}

// ScoreAndSettle atualiza placares e liquida. Falha nos placares não impede
// a liquidação de jogos já encerrados.
func (r *Runner) ScoreAndSettle(ctx context.Context) error {
	if _, err := r.UpdateScores(ctx); err != nil {
		r.Log.Error("update scores failed", zap.Error(err))
	}
	rep, err := r.SettleCompleted(ctx, false)
	if err != nil {
		return err
	}
	r.Log.Info("settle round finished", zap.Int("games", len(rep.Games)), zap.Int("bets", len(rep.Settled)))
	return nil
}

// Schedule registra as rodadas no scheduler. Em modo singleton uma rodada
// lenta não se sobrepõe à próxima.
func (r *Runner) Schedule(ctx context.Context, s gocron.Scheduler, syncEvery, settleEvery time.Duration) error {
	_, err := s.NewJob(
		gocron.DurationJob(syncEvery),
		gocron.NewTask(func() {
			if _, err := r.SyncOdds(ctx); err != nil {
				r.Log.Error("odds sync failed", zap.Error(err))
			}
		}),
		gocron.WithName("sync-odds"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule odds sync: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(settleEvery),
		gocron.NewTask(func() {
			if err := r.ScoreAndSettle(ctx); err != nil {
				r.Log.Error("score and settle failed", zap.Error(err))
			}
		}),
		gocron.WithName("score-and-settle"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule settlement: %w", err)
	}
	return nil
}

func (r *Runner) daysFrom() int {
	if r.DaysFrom <= 0 {
		return 1
	}
	return r.DaysFrom
}

func (r *Runner) reportRejected(stage string, rejected []error) {
	for _, err := range rejected {
		r.Log.Warn("feed record skipped", zap.String("stage", stage), zap.Error(err))
	}
	r.Metrics.RecordsSkipped(stage, len(rejected))
}
