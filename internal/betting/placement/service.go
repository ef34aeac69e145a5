// Package placement valida e registra apostas e expõe as consultas de
// usuário (saldo, histórico, pendentes) e de jogos abertos.
package placement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
	"github.com/radieske/nba-betting-engine/internal/betting/oddsmath"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/internal/shared/metrics"
	"github.com/radieske/nba-betting-engine/pkg/contracts/events"
)

// DefaultHistoryLimit é usado quando GetBetHistory recebe limit <= 0.
const DefaultHistoryLimit = 50

type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
}

type Service struct {
	store   repo.Store
	log     *zap.Logger
	metrics *metrics.Betting
	pub     Publisher

	// DefaultBalance é o saldo inicial de CreateUser quando nenhum é informado.
	DefaultBalance decimal.Decimal
	Now            func() time.Time
}

// NewService monta o serviço de apostas. metrics e pub podem ser nil.
func NewService(store repo.Store, log *zap.Logger, m *metrics.Betting, pub Publisher) *Service {
	return &Service{
		store:          store,
		log:            log,
		metrics:        m,
		pub:            pub,
		DefaultBalance: decimal.NewFromInt(1000),
		Now:            time.Now,
	}
}

// PlaceBet registra uma aposta PENDING numa única transação: snapshot das
// odds, cálculo do retorno potencial, débito do stake e inserção.
//
// As verificações seguem esta ordem: stake, seleção, usuário, saldo, jogo,
// status do jogo, horário de início e odds postadas. Falhas de regra retornam
// *domain.InvalidBetError ou *domain.InsufficientBalanceError.
func (s *Service) PlaceBet(ctx context.Context, userID, gameID uuid.UUID, betType domain.BetType, sel domain.BetSelection, stake decimal.Decimal) (domain.Bet, error) {
	var bet domain.Bet
	now := s.Now().UTC()

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if !stake.IsPositive() {
			return domain.InvalidBet("Stake must be positive")
		}
		if !stake.Equal(stake.Round(2)) {
			return domain.InvalidBet("Stake must have at most 2 decimal places")
		}
		if !sel.ValidFor(betType) {
			return domain.InvalidBet("Selection %s is not valid for %s bets", sel, betType)
		}

		// lock na linha do usuário serializa débitos concorrentes
		user, err := tx.Users().FindByIDForUpdate(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return domain.InvalidBet("User %s not found", userID)
		}
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if user.Balance.LessThan(stake) {
			return &domain.InsufficientBalanceError{Available: user.Balance, Required: stake}
		}

		game, err := tx.Games().FindByID(ctx, gameID)
		if errors.Is(err, repo.ErrNotFound) {
			return domain.InvalidBet("Game %s not found", gameID)
		}
		if err != nil {
			return fmt.Errorf("find game: %w", err)
		}
		if game.Status != domain.GameUpcoming {
			return domain.InvalidBet("Game has already started or completed")
		}
		// status pode estar atrasado em relação ao relógio
		if !game.CommenceTime.After(now) {
			return domain.InvalidBet("Game has already started")
		}

		odds := game.OddsFor(betType, sel)
		if !odds.Valid {
			return domain.InvalidBet("Odds not available for %s %s", betType, sel)
		}
		if betType != domain.BetMoneyline && !game.LineFor(betType, sel).Valid {
			return domain.InvalidBet("Line not available for %s %s", betType, sel)
		}

		payout, err := oddsmath.Payout(stake, odds.Decimal)
		if errors.Is(err, oddsmath.ErrStakeTooSmall) {
			return domain.InvalidBet("Stake too small for odds %s", odds.Decimal)
		}
		if err != nil {
			return domain.InvalidBet("Odds not available for %s %s", betType, sel)
		}

		if _, err := tx.Users().AdjustBalance(ctx, user.ID, stake.Neg()); err != nil {
			return fmt.Errorf("debit stake: %w", err)
		}

		bet = domain.Bet{
			UserID:          user.ID,
			GameID:          game.ID,
			BetType:         betType,
			Selection:       sel,
			Odds:            odds.Decimal,
			Stake:           stake,
			PotentialPayout: payout,
			Status:          domain.BetPending,
			CreatedAt:       now,
		}
		if err := tx.Bets().Insert(ctx, &bet); err != nil {
			return fmt.Errorf("insert bet: %w", err)
		}
		return nil
	})
	if err != nil {
		s.metrics.BetRejected(rejectReason(err))
		s.log.Info("bet rejected",
			zap.String("user_id", userID.String()),
			zap.String("game_id", gameID.String()),
			zap.Error(err),
		)
		return domain.Bet{}, err
	}

	s.metrics.BetPlaced()
	s.log.Info("bet placed",
		zap.String("bet_id", bet.ID.String()),
		zap.String("user_id", bet.UserID.String()),
		zap.Stringer("bet_type", bet.BetType),
		zap.Stringer("selection", bet.Selection),
		zap.String("stake", bet.Stake.StringFixed(2)),
		zap.String("potential_payout", bet.PotentialPayout.StringFixed(2)),
	)
	s.publishPlaced(ctx, bet)
	return bet, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrInvalidBet):
		return "invalid_bet"
	default:
		return "error"
	}
}

// publishPlaced roda depois do commit; falha só é logada.
func (s *Service) publishPlaced(ctx context.Context, b domain.Bet) {
	if s.pub == nil {
		return
	}
	e := events.BetPlaced{
		BetID:           b.ID.String(),
		UserID:          b.UserID.String(),
		GameID:          b.GameID.String(),
		BetType:         b.BetType.String(),
		Selection:       b.Selection.String(),
		Odds:            b.Odds.String(),
		Stake:           b.Stake.StringFixed(2),
		PotentialPayout: b.PotentialPayout.StringFixed(2),
		Ts:              b.CreatedAt,
	}
	if err := s.pub.PublishBetPlaced(ctx, e); err != nil {
		s.log.Error("failed to publish bet placed", zap.String("bet_id", e.BetID), zap.Error(err))
	}
}

// GetBetHistory retorna as apostas do usuário, da mais recente para a mais antiga.
func (s *Service) GetBetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Bet, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var bets []domain.Bet
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		bets, err = tx.Bets().FindHistoryByUser(ctx, userID, limit)
		return err
	})
	return bets, err
}

func (s *Service) GetPendingBets(ctx context.Context, userID uuid.UUID) ([]domain.Bet, error) {
	var bets []domain.Bet
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		bets, err = tx.Bets().FindPendingByUser(ctx, userID)
		return err
	})
	return bets, err
}

// GetUserBalance retorna InvalidBet quando o usuário não existe.
func (s *Service) GetUserBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		u, err := tx.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return domain.InvalidBet("User %s not found", userID)
		}
		if err != nil {
			return err
		}
		bal = u.Balance
		return nil
	})
	return bal, err
}

// CreateUser cria um usuário com username único. Saldo nulo usa DefaultBalance.
func (s *Service) CreateUser(ctx context.Context, username string, balance decimal.NullDecimal) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, domain.InvalidBet("Username is required")
	}
	bal := s.DefaultBalance
	if balance.Valid {
		bal = balance.Decimal
	}
	if bal.IsNegative() {
		return domain.User{}, domain.InvalidBet("Balance must not be negative")
	}

	u := domain.User{Username: username, Balance: bal.Round(2)}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		err := tx.Users().Create(ctx, &u)
		if errors.Is(err, repo.ErrConflict) {
			return domain.InvalidBet("Username %s already exists", username)
		}
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	s.log.Info("user created", zap.String("user_id", u.ID.String()), zap.String("username", u.Username))
	return u, nil
}

// ListGames lista os jogos de um status, ordenados pelo início. Status zero
// equivale a UPCOMING.
func (s *Service) ListGames(ctx context.Context, status domain.GameStatus) ([]domain.Game, error) {
	if status == 0 {
		status = domain.GameUpcoming
	}
	var games []domain.Game
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		games, err = tx.Games().FindByStatus(ctx, status)
		return err
	})
	return games, err
}
