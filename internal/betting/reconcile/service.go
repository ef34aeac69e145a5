// Package reconcile aplica o feed normalizado sobre os jogos persistidos:
// odds (SyncGames) e placares (UpdateCompletedGames).
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/internal/shared/metrics"
	"github.com/radieske/nba-betting-engine/pkg/contracts/events"
)

// Publisher recebe, após o commit, os jogos finalizados e o resumo de cada
// rodada que alterou jogos.
type Publisher interface {
	PublishGameCompleted(ctx context.Context, e events.GameCompleted) error
	PublishGamesChanged(ctx context.Context, e events.GamesChanged) error
}

type Service struct {
	store   repo.Store
	log     *zap.Logger
	metrics *metrics.Betting
	pub     Publisher

	Now func() time.Time
}

// NewService monta o reconciliador. metrics e pub podem ser nil.
func NewService(store repo.Store, log *zap.Logger, m *metrics.Betting, pub Publisher) *Service {
	return &Service{store: store, log: log, metrics: m, pub: pub, Now: time.Now}
}

// SyncResult resume um SyncGames. Frozen conta jogos já iniciados ou
// encerrados, cujas odds não são mais sobrescritas.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Frozen  int `json:"frozen"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// SyncGames cria ou atualiza um jogo por update, numa única transação.
// Jogos novos entram como UPCOMING; para um external_id repetido no lote vale
// a última ocorrência. Lote vazio não é erro.
func (s *Service) SyncGames(ctx context.Context, updates []domain.GameUpdate) (SyncResult, error) {
	res := SyncResult{Total: len(updates)}
	if len(updates) == 0 {
		s.log.Info("no games to sync")
		return res, nil
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		res = SyncResult{Total: len(updates)}
		for _, u := range updates {
			if u.ExternalID == "" {
				res.Skipped++
				s.log.Warn("skipping game update", zap.Error(&domain.ProviderDataError{Field: "id", Reason: "missing"}))
				continue
			}

			g, err := tx.Games().FindByExternalID(ctx, u.ExternalID)
			switch {
			case errors.Is(err, repo.ErrNotFound):
				ng := domain.Game{Status: domain.GameUpcoming}
				apply(&ng, u)
				if err := tx.Games().Insert(ctx, &ng); err != nil {
					return fmt.Errorf("insert game %s: %w", u.ExternalID, err)
				}
				res.Created++
				s.log.Debug("game created", zap.String("external_id", u.ExternalID))
			case err != nil:
				return fmt.Errorf("find game %s: %w", u.ExternalID, err)
			case g.Status != domain.GameUpcoming:
				res.Frozen++
				s.log.Debug("game frozen, odds kept", zap.String("external_id", u.ExternalID), zap.Stringer("status", g.Status))
			default:
				apply(g, u)
				if err := tx.Games().Update(ctx, g); err != nil {
					return fmt.Errorf("update game %s: %w", u.ExternalID, err)
				}
				res.Updated++
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("sync games aborted", zap.Error(err))
		return SyncResult{Total: len(updates)}, err
	}

	s.metrics.GamesSynced("created", res.Created)
	s.metrics.GamesSynced("updated", res.Updated)
	s.metrics.GamesSynced("frozen", res.Frozen)
	s.metrics.RecordsSkipped("sync", res.Skipped)
	s.log.Info("games synced",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("frozen", res.Frozen),
		zap.Int("skipped", res.Skipped),
		zap.Int("total", res.Total),
	)
	if res.Created+res.Updated > 0 {
		s.publishChanged(ctx, events.GamesChanged{Source: "sync", Created: res.Created, Updated: res.Updated})
	}
	return res, nil
}

// apply sobrescreve todos os campos do feed; identidade e status ficam.
func apply(g *domain.Game, u domain.GameUpdate) {
	g.ExternalID = u.ExternalID
	g.HomeTeam = u.HomeTeam
	g.AwayTeam = u.AwayTeam
	g.CommenceTime = u.CommenceTime
	g.GameOdds = u.Odds
}

// HasUnfinishedGames permite pular a chamada de placares ao fornecedor
// quando não há nada a finalizar.
func (s *Service) HasUnfinishedGames(ctx context.Context) (bool, error) {
	var n int
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		games, err := tx.Games().FindUnfinished(ctx)
		n = len(games)
		return err
	})
	return n > 0, err
}

// UpdateCompletedGames grava placares finais e marca os jogos como COMPLETED
// na mesma escrita. Retorna apenas os jogos finalizados nesta chamada.
//
// Jogos já COMPLETED nunca são alterados. Um placar em andamento leva um jogo
// UPCOMING para IN_PROGRESS sem gravar pontos. Um placar marcado como
// concluído mas sem um dos lados é descartado e reportado.
func (s *Service) UpdateCompletedGames(ctx context.Context, scores []domain.ScoreUpdate) ([]domain.Game, error) {
	var completed []domain.Game
	var started, skipped int

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		completed, started, skipped = nil, 0, 0

		unfinished, err := tx.Games().FindUnfinished(ctx)
		if err != nil {
			return fmt.Errorf("find unfinished games: %w", err)
		}
		if len(unfinished) == 0 {
			s.log.Info("all games already completed")
			return nil
		}

		for _, sc := range scores {
			g, err := tx.Games().FindByExternalID(ctx, sc.ExternalID)
			if errors.Is(err, repo.ErrNotFound) {
				s.log.Debug("score for unknown game", zap.String("external_id", sc.ExternalID))
				continue
			}
			if err != nil {
				return fmt.Errorf("find game %s: %w", sc.ExternalID, err)
			}
			if g.Status == domain.GameCompleted {
				continue
			}

			switch {
			case sc.Final():
				h, a := *sc.HomeScore, *sc.AwayScore
				g.HomeScore, g.AwayScore = &h, &a
				g.Status = domain.GameCompleted
				if err := tx.Games().Update(ctx, g); err != nil {
					return fmt.Errorf("complete game %s: %w", sc.ExternalID, err)
				}
				completed = append(completed, *g)
			case sc.Completed:
				skipped++
				s.log.Warn("skipping score update", zap.Error(&domain.ProviderDataError{
					ExternalID: sc.ExternalID, Field: "scores", Reason: "completed without both scores",
				}))
			case g.Status == domain.GameUpcoming && (sc.HomeScore != nil || sc.AwayScore != nil):
				g.Status = domain.GameInProgress
				if err := tx.Games().Update(ctx, g); err != nil {
					return fmt.Errorf("start game %s: %w", sc.ExternalID, err)
				}
				started++
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("update completed games aborted", zap.Error(err))
		return nil, err
	}

	s.metrics.GamesSynced("completed", len(completed))
	s.metrics.GamesSynced("started", started)
	s.metrics.RecordsSkipped("scores", skipped)
	s.log.Info("scores reconciled",
		zap.Int("completed", len(completed)),
		zap.Int("started", started),
		zap.Int("skipped", skipped),
	)

	s.publishCompleted(ctx, completed)
	if started+len(completed) > 0 {
		s.publishChanged(ctx, events.GamesChanged{Source: "scores", Started: started, Completed: len(completed)})
	}
	return completed, nil
}

// publishCompleted roda depois do commit; falha só é logada.
func (s *Service) publishCompleted(ctx context.Context, games []domain.Game) {
	if s.pub == nil {
		return
	}
	for _, g := range games {
		e := events.GameCompleted{
			GameID:     g.ID.String(),
			ExternalID: g.ExternalID,
			HomeTeam:   g.HomeTeam,
			AwayTeam:   g.AwayTeam,
			HomeScore:  *g.HomeScore,
			AwayScore:  *g.AwayScore,
			Ts:         s.Now().UTC(),
		}
		if err := s.pub.PublishGameCompleted(ctx, e); err != nil {
			s.log.Error("failed to publish game completed", zap.String("game_id", e.GameID), zap.Error(err))
		}
	}
}

func (s *Service) publishChanged(ctx context.Context, e events.GamesChanged) {
	if s.pub == nil {
		return
	}
	e.Ts = s.Now().UTC()
	if err := s.pub.PublishGamesChanged(ctx, e); err != nil {
		s.log.Error("failed to publish games changed", zap.String("source", e.Source), zap.Error(err))
	}
}
