// Package outcome determina o resultado (WON/LOST/PUSH) de uma aposta a partir
// do placar final.
package outcome

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
)

var (
	ErrMissingLine      = errors.New("line is required")
	ErrInvalidSelection = errors.New("selection not valid for bet type")
)

// Resolve calcula o resultado. line é o spread do lado escolhido (SPREAD) ou
// o total de pontos (OVER_UNDER); é ignorado para MONEYLINE.
//
// Empate exato no moneyline perde para os dois lados: moneyline nunca
// produz PUSH.
func Resolve(betType domain.BetType, sel domain.BetSelection, homeScore, awayScore int, line *decimal.Decimal) (domain.BetStatus, error) {
	if !sel.ValidFor(betType) {
		return 0, fmt.Errorf("%w: %s/%s", ErrInvalidSelection, betType, sel)
	}

	switch betType {
	case domain.BetMoneyline:
		return moneyline(sel, homeScore, awayScore), nil
	case domain.BetSpread:
		if line == nil {
			return 0, fmt.Errorf("%w for spread bets", ErrMissingLine)
		}
		return spread(sel, *line, homeScore, awayScore), nil
	case domain.BetOverUnder:
		if line == nil {
			return 0, fmt.Errorf("%w for over/under bets", ErrMissingLine)
		}
		return total(sel, *line, homeScore, awayScore), nil
	}
	return 0, fmt.Errorf("unknown bet type %s", betType)
}

func moneyline(sel domain.BetSelection, home, away int) domain.BetStatus {
	mine, other := home, away
	if sel == domain.SelectAway {
		mine, other = away, home
	}
	if mine > other {
		return domain.BetWon
	}
	return domain.BetLost
}

func spread(sel domain.BetSelection, line decimal.Decimal, home, away int) domain.BetStatus {
	mine, other := home, away
	if sel == domain.SelectAway {
		mine, other = away, home
	}
	adjusted := decimal.NewFromInt(int64(mine)).Add(line)
	return compare(adjusted.Cmp(decimal.NewFromInt(int64(other))))
}

func total(sel domain.BetSelection, line decimal.Decimal, home, away int) domain.BetStatus {
	c := decimal.NewFromInt(int64(home + away)).Cmp(line)
	if sel == domain.SelectUnder {
		c = -c
	}
	return compare(c)
}

func compare(c int) domain.BetStatus {
	switch {
	case c > 0:
		return domain.BetWon
	case c == 0:
		return domain.BetPush
	}
	return domain.BetLost
}
