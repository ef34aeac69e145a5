package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GameOdds agrupa as cotações postadas para um jogo. Campos ausentes no feed
// ficam inválidos (Valid=false). Odds em formato americano.
type GameOdds struct {
	HomeMoneyline  decimal.NullDecimal `json:"home_moneyline"`
	AwayMoneyline  decimal.NullDecimal `json:"away_moneyline"`
	HomeSpread     decimal.NullDecimal `json:"home_spread"`
	HomeSpreadOdds decimal.NullDecimal `json:"home_spread_odds"`
	AwaySpread     decimal.NullDecimal `json:"away_spread"`
	AwaySpreadOdds decimal.NullDecimal `json:"away_spread_odds"`
	TotalPoints    decimal.NullDecimal `json:"total_points"`
	OverOdds       decimal.NullDecimal `json:"over_odds"`
	UnderOdds      decimal.NullDecimal `json:"under_odds"`
}

// Game é o registro persistido de um jogo. ExternalID é a chave natural do
// fornecedor de odds. Status COMPLETED implica HomeScore e AwayScore não nulos.
type Game struct {
	ID           uuid.UUID  `json:"id"`
	ExternalID   string     `json:"external_id"`
	HomeTeam     string     `json:"home_team"`
	AwayTeam     string     `json:"away_team"`
	CommenceTime time.Time  `json:"commence_time"`
	Status       GameStatus `json:"status"`
	GameOdds
	HomeScore *int `json:"home_score"`
	AwayScore *int `json:"away_score"`
}

// HasFinalScore informa se ambos os placares estão presentes.
func (g *Game) HasFinalScore() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// Bet é uma aposta. Odds é o snapshot americano no momento da colocação.
type Bet struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	GameID          uuid.UUID       `json:"game_id"`
	BetType         BetType         `json:"bet_type"`
	Selection       BetSelection    `json:"selection"`
	Odds            decimal.Decimal `json:"odds"`
	Stake           decimal.Decimal `json:"stake"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	Status          BetStatus       `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	SettledAt       *time.Time      `json:"settled_at"`
}

type User struct {
	ID       uuid.UUID       `json:"id"`
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// GameUpdate é o formato canônico produzido pelo normalizador a partir de
// um jogo do feed (times, início e odds de um único bookmaker).
type GameUpdate struct {
	ExternalID   string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Odds         GameOdds
}

// ScoreUpdate é o placar normalizado de um jogo. Placar ausente fica nil.
type ScoreUpdate struct {
	ExternalID string
	HomeTeam   string
	AwayTeam   string
	Completed  bool
	HomeScore  *int
	AwayScore  *int
}

// Final informa se o update pode levar o jogo a COMPLETED.
func (s ScoreUpdate) Final() bool {
	return s.Completed && s.HomeScore != nil && s.AwayScore != nil
}

// OddsFor retorna a cotação americana postada para a combinação tipo/seleção.
// Combinação inválida retorna Valid=false.
func (o GameOdds) OddsFor(t BetType, s BetSelection) decimal.NullDecimal {
	switch t {
	case BetMoneyline:
		switch s {
		case SelectHome:
			return o.HomeMoneyline
		case SelectAway:
			return o.AwayMoneyline
		}
	case BetSpread:
		switch s {
		case SelectHome:
			return o.HomeSpreadOdds
		case SelectAway:
			return o.AwaySpreadOdds
		}
	case BetOverUnder:
		switch s {
		case SelectOver:
			return o.OverOdds
		case SelectUnder:
			return o.UnderOdds
		}
	}
	return decimal.NullDecimal{}
}

// LineFor retorna a linha usada na resolução: o spread do próprio lado para
// SPREAD, o total para OVER_UNDER. MONEYLINE não tem linha.
func (o GameOdds) LineFor(t BetType, s BetSelection) decimal.NullDecimal {
	switch t {
	case BetSpread:
		switch s {
		case SelectHome:
			return o.HomeSpread
		case SelectAway:
			return o.AwaySpread
		}
	case BetOverUnder:
		if s == SelectOver || s == SelectUnder {
			return o.TotalPoints
		}
	}
	return decimal.NullDecimal{}
}
