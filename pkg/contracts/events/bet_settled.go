package events

import "time"

// Evento emitido para cada aposta liquidada. Credited é o valor devolvido ao
// saldo ("0.00" para LOST).
type BetSettled struct {
	BetID     string    `json:"bet_id"`
	UserID    string    `json:"user_id"`
	GameID    string    `json:"game_id"`
	Status    string    `json:"status"` // "won" | "lost" | "push"
	Credited  string    `json:"credited"`
	SettledAt time.Time `json:"settled_at"`
}
