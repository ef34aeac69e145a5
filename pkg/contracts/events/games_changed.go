package events

import "time"

// Evento publicado quando uma rodada de sync ou de placares altera jogos.
// Source é "sync" ou "scores".
type GamesChanged struct {
	Source    string    `json:"source"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Started   int       `json:"started"`
	Completed int       `json:"completed"`
	Ts        time.Time `json:"ts"`
}
