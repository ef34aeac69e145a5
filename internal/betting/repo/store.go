// Package repo é a fronteira de persistência. Toda operação pública do núcleo
// roda dentro de Store.WithinTx: commit se fn retornar nil, rollback caso contrário.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict indica violação de unicidade (ex.: external_id criado em
	// paralelo); o chamador pode repetir a unidade de trabalho.
	ErrConflict = errors.New("conflict")
)

// Store abre unidades de trabalho.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx dá acesso aos repositórios dentro de uma mesma transação.
type Tx interface {
	Games() GameRepo
	Bets() BetRepo
	Users() UserRepo
}

type GameRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Game, error)
	// FindByExternalID bloqueia a linha até o fim da transação.
	FindByExternalID(ctx context.Context, externalID string) (*domain.Game, error)
	FindByStatus(ctx context.Context, status domain.GameStatus) ([]domain.Game, error)
	FindWithPendingBets(ctx context.Context, status domain.GameStatus) ([]domain.Game, error)
	FindUnfinished(ctx context.Context) ([]domain.Game, error)
	Insert(ctx context.Context, g *domain.Game) error
	Update(ctx context.Context, g *domain.Game) error
}

type BetRepo interface {
	Insert(ctx context.Context, b *domain.Bet) error
	FindPendingByGame(ctx context.Context, gameID uuid.UUID) ([]domain.Bet, error)
	FindPendingByUser(ctx context.Context, userID uuid.UUID) ([]domain.Bet, error)
	// FindHistoryByUser ordena da mais recente para a mais antiga.
	FindHistoryByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Bet, error)
	// MarkSettled só altera a aposta se ela ainda estiver PENDING no momento
	// da escrita; retorna false caso contrário.
	MarkSettled(ctx context.Context, betID uuid.UUID, status domain.BetStatus, at time.Time) (bool, error)
}

type UserRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// FindByIDForUpdate serializa operações de saldo do mesmo usuário.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// AdjustBalance soma delta ao saldo e retorna o novo saldo.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}
