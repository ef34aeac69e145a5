package events

import "time"

// Evento publicado quando um jogo passa para COMPLETED.
type GameCompleted struct {
	GameID     string    `json:"game_id"`
	ExternalID string    `json:"external_id"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	HomeScore  int       `json:"home_score"`
	AwayScore  int       `json:"away_score"`
	Ts         time.Time `json:"ts"`
}
