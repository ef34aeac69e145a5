package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
)

type PreviewItem struct {
	Bet     domain.Bet       `json:"bet"`
	Game    domain.Game      `json:"game"`
	Outcome domain.BetStatus `json:"outcome"`
	Payout  decimal.Decimal  `json:"payout"`
	User    domain.User      `json:"user"`
}

// Preview é o resultado de uma liquidação simulada.
type Preview struct {
	Bets        []PreviewItem   `json:"bets"`
	WonCount    int             `json:"won_count"`
	LostCount   int             `json:"lost_count"`
	PushCount   int             `json:"push_count"`
	TotalPayout decimal.Decimal `json:"total_payout"`
}

// PreviewSettlements calcula os mesmos resultados de SettleBetsForGames sem
// gravar nada.
func (e *Engine) PreviewSettlements(ctx context.Context, games []domain.Game) (Preview, error) {
	var p Preview

	err := e.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		p = Preview{TotalPayout: decimal.Zero}
		users := map[uuid.UUID]domain.User{}
		return e.eachPending(ctx, tx, games, func(g *domain.Game, b domain.Bet, status domain.BetStatus) error {
			u, ok := users[b.UserID]
			if !ok {
				found, err := tx.Users().FindByID(ctx, b.UserID)
				if err != nil {
					return fmt.Errorf("find user %s: %w", b.UserID, err)
				}
				u = *found
				users[b.UserID] = u
			}

			credit := Credit(b, status)
			p.Bets = append(p.Bets, PreviewItem{Bet: b, Game: *g, Outcome: status, Payout: credit, User: u})
			p.TotalPayout = p.TotalPayout.Add(credit)
			switch status {
			case domain.BetWon:
				p.WonCount++
			case domain.BetLost:
				p.LostCount++
			case domain.BetPush:
				p.PushCount++
			}
			return nil
		})
	})
	if err != nil {
		return Preview{}, err
	}
	return p, nil
}
