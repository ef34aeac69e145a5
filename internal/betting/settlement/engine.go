// Package settlement liquida as apostas pendentes de jogos encerrados.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
	"github.com/radieske/nba-betting-engine/internal/betting/outcome"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/internal/shared/metrics"
	"github.com/radieske/nba-betting-engine/pkg/contracts/events"
)

type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

type Engine struct {
	store   repo.Store
	log     *zap.Logger
	metrics *metrics.Betting
	pub     Publisher

	Now func() time.Time
}

// NewEngine monta o liquidante. metrics e pub podem ser nil.
func NewEngine(store repo.Store, log *zap.Logger, m *metrics.Betting, pub Publisher) *Engine {
	return &Engine{store: store, log: log, metrics: m, pub: pub, Now: time.Now}
}

// Credit é o valor devolvido ao saldo: retorno potencial para WON, stake para
// PUSH, zero para LOST.
func Credit(b domain.Bet, status domain.BetStatus) decimal.Decimal {
	switch status {
	case domain.BetWon:
		return b.PotentialPayout
	case domain.BetPush:
		return b.Stake
	default:
		return decimal.Zero
	}
}

// SettleBetsForGames liquida, numa única transação, as apostas PENDING dos
// jogos informados. Cada jogo é relido dentro da transação; jogos que não
// estão COMPLETED com placar são ignorados.
//
// A passagem PENDING -> liquidada é condicional ao status no momento da
// escrita, então chamadas repetidas ou concorrentes creditam cada aposta uma
// única vez. Erro de resolução (linha ausente) aborta a transação inteira.
func (e *Engine) SettleBetsForGames(ctx context.Context, games []domain.Game) ([]domain.Bet, error) {
	var settled []domain.Bet
	now := e.Now().UTC()

	err := e.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		settled = nil
		return e.eachPending(ctx, tx, games, func(g *domain.Game, b domain.Bet, status domain.BetStatus) error {
			ok, err := tx.Bets().MarkSettled(ctx, b.ID, status, now)
			if err != nil {
				return fmt.Errorf("mark bet %s settled: %w", b.ID, err)
			}
			if !ok {
				e.log.Debug("bet already settled", zap.String("bet_id", b.ID.String()))
				return nil
			}
			if credit := Credit(b, status); credit.IsPositive() {
				if _, err := tx.Users().AdjustBalance(ctx, b.UserID, credit); err != nil {
					return fmt.Errorf("credit user %s: %w", b.UserID, err)
				}
			}
			b.Status = status
			b.SettledAt = &now
			settled = append(settled, b)
			return nil
		})
	})
	if err != nil {
		e.log.Error("settlement aborted", zap.Int("games", len(games)), zap.Error(err))
		return nil, err
	}

	for _, b := range settled {
		credit, _ := Credit(b, b.Status).Float64()
		e.metrics.BetSettled(b.Status.String(), credit)
	}
	e.log.Info("bets settled", zap.Int("games", len(games)), zap.Int("bets", len(settled)))
	e.publishSettled(ctx, settled)
	return settled, nil
}

// eachPending percorre as apostas pendentes de jogos liquidáveis já resolvidas.
func (e *Engine) eachPending(ctx context.Context, tx repo.Tx, games []domain.Game,
	fn func(g *domain.Game, b domain.Bet, status domain.BetStatus) error) error {
	seen := make(map[uuid.UUID]bool, len(games))
	for _, in := range games {
		if seen[in.ID] {
			continue
		}
		seen[in.ID] = true

		g, err := tx.Games().FindByID(ctx, in.ID)
		if errors.Is(err, repo.ErrNotFound) {
			e.log.Warn("game to settle not found", zap.String("game_id", in.ID.String()))
			continue
		}
		if err != nil {
			return fmt.Errorf("find game %s: %w", in.ID, err)
		}
		if g.Status != domain.GameCompleted || !g.HasFinalScore() {
			e.log.Debug("game not settleable", zap.String("game_id", g.ID.String()), zap.Stringer("status", g.Status))
			continue
		}

		bets, err := tx.Bets().FindPendingByGame(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("find pending bets for game %s: %w", g.ID, err)
		}
		for _, b := range bets {
			status, err := resolve(g, b)
			if err != nil {
				// bloqueia a rodada inteira até o jogo ser corrigido
				e.log.Error("bet blocks settlement",
					zap.String("bet_id", b.ID.String()),
					zap.String("game_id", g.ID.String()),
					zap.String("external_id", g.ExternalID),
					zap.Stringer("bet_type", b.BetType),
					zap.Stringer("selection", b.Selection),
					zap.Error(err),
				)
				return err
			}
			if err := fn(g, b, status); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolve usa o snapshot de odds da aposta e as linhas atuais do jogo.
func resolve(g *domain.Game, b domain.Bet) (domain.BetStatus, error) {
	var line *decimal.Decimal
	if l := g.LineFor(b.BetType, b.Selection); l.Valid {
		line = &l.Decimal
	}
	status, err := outcome.Resolve(b.BetType, b.Selection, *g.HomeScore, *g.AwayScore, line)
	if err != nil {
		return 0, fmt.Errorf("resolve bet %s: %w", b.ID, err)
	}
	return status, nil
}

// publishSettled roda depois do commit; falha só é logada.
func (e *Engine) publishSettled(ctx context.Context, bets []domain.Bet) {
	if e.pub == nil {
		return
	}
	for _, b := range bets {
		ev := events.BetSettled{
			BetID:     b.ID.String(),
			UserID:    b.UserID.String(),
			GameID:    b.GameID.String(),
			Status:    b.Status.String(),
			Credited:  Credit(b, b.Status).StringFixed(2),
			SettledAt: *b.SettledAt,
		}
		if err := e.pub.PublishBetSettled(ctx, ev); err != nil {
			e.log.Error("failed to publish bet settled", zap.String("bet_id", ev.BetID), zap.Error(err))
		}
	}
}
