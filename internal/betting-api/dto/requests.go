package dto

import "github.com/shopspring/decimal"

// PlaceBetRequest é o corpo de POST /bets; user_id vem na query string.
type PlaceBetRequest struct {
	GameID    string          `json:"game_id" validate:"required,uuid"`
	BetType   string          `json:"bet_type" validate:"required,oneof=moneyline spread over_under"`
	Selection string          `json:"selection" validate:"required,oneof=home away over under"`
	Stake     decimal.Decimal `json:"stake"`
}

type CreateUserRequest struct {
	Username string              `json:"username" validate:"required,min=3,max=100"`
	Balance  decimal.NullDecimal `json:"balance"` // opcional; default DEFAULT_USER_BALANCE
}
