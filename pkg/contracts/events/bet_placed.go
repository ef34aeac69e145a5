package events

import "time"

// Evento publicado após o commit de uma aposta nova.
type BetPlaced struct {
	BetID           string    `json:"bet_id"`
	UserID          string    `json:"user_id"`
	GameID          string    `json:"game_id"`
	BetType         string    `json:"bet_type"`
	Selection       string    `json:"selection"`
	Odds            string    `json:"odds"`
	Stake           string    `json:"stake"`
	PotentialPayout string    `json:"potential_payout"`
	Ts              time.Time `json:"ts"`
}
