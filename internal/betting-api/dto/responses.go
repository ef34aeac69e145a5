package dto

import (
	"time"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// BetResponse formata valores monetários com duas casas.
type BetResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	GameID          string     `json:"game_id"`
	BetType         string     `json:"bet_type"`
	Selection       string     `json:"selection"`
	Odds            string     `json:"odds"`
	Stake           string     `json:"stake"`
	PotentialPayout string     `json:"potential_payout"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	SettledAt       *time.Time `json:"settled_at,omitempty"`
}

func FromBet(b domain.Bet) BetResponse {
	return BetResponse{
		ID:              b.ID.String(),
		UserID:          b.UserID.String(),
		GameID:          b.GameID.String(),
		BetType:         b.BetType.String(),
		Selection:       b.Selection.String(),
		Odds:            b.Odds.String(),
		Stake:           b.Stake.StringFixed(2),
		PotentialPayout: b.PotentialPayout.StringFixed(2),
		Status:          b.Status.String(),
		CreatedAt:       b.CreatedAt,
		SettledAt:       b.SettledAt,
	}
}

func FromBets(bets []domain.Bet) []BetResponse {
	out := make([]BetResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, FromBet(b))
	}
	return out
}

type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Balance  string `json:"balance"`
}

func FromUser(u domain.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Username: u.Username, Balance: u.Balance.StringFixed(2)}
}
