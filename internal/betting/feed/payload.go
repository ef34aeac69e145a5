package feed

import "github.com/shopspring/decimal"

// Formatos de payload do fornecedor (The Odds API v4).

type RawOutcome struct {
	Name  string              `json:"name"`
	Price decimal.NullDecimal `json:"price"`
	Point decimal.NullDecimal `json:"point"`
}

type RawMarket struct {
	Key      string       `json:"key"`
	Outcomes []RawOutcome `json:"outcomes"`
}

type RawBookmaker struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Markets []RawMarket `json:"markets"`
}

// RawGame é um item de /sports/{sport}/odds.
type RawGame struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	CommenceTime string         `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []RawBookmaker `json:"bookmakers"`
}

type RawScoreEntry struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// RawScore é um item de /sports/{sport}/scores.
type RawScore struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	CommenceTime string          `json:"commence_time"`
	Completed    bool            `json:"completed"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Scores       []RawScoreEntry `json:"scores"`
	LastUpdate   *string         `json:"last_update"`
}

const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"

	outcomeOver  = "Over"
	outcomeUnder = "Under"
)
