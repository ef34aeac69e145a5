package topics

const (
	// Bets
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"

	// Games
	GameCompleted = "game_completed"
	GamesChanged  = "games_changed"
)
