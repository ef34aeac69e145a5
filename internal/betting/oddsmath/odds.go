// Package oddsmath converte odds americanas em multiplicadores decimais e
// calcula pagamentos. Toda a aritmética é decimal exata; valores monetários
// são arredondados para 2 casas.
package oddsmath

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOdds = errors.New("invalid odds")
	// ErrStakeTooSmall: arredondado em centavos, o retorno não supera o stake.
	ErrStakeTooSmall = errors.New("stake too small for odds")
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// AmericanToDecimal: +150 -> 2.5, -110 -> 1.9090..., ±100 -> 2.
func AmericanToDecimal(odds decimal.Decimal) (decimal.Decimal, error) {
	switch odds.Sign() {
	case 1:
		return odds.Div(hundred).Add(one), nil
	case -1:
		return hundred.Div(odds.Abs()).Add(one), nil
	}
	return decimal.Zero, ErrInvalidOdds
}

// Payout é o retorno total (stake incluído) de uma aposta vencedora,
// arredondado para 2 casas. Quando o lucro arredondado é zero (stakes de
// centavos em favoritos pesados) retorna ErrStakeTooSmall: todo retorno
// válido é estritamente maior que o stake.
func Payout(stake, odds decimal.Decimal) (decimal.Decimal, error) {
	mult, err := AmericanToDecimal(odds)
	if err != nil {
		return decimal.Zero, err
	}
	p := stake.Mul(mult).Round(2)
	if !p.GreaterThan(stake) {
		return decimal.Zero, ErrStakeTooSmall
	}
	return p, nil
}

// Winnings é o lucro líquido: Payout - stake.
func Winnings(stake, odds decimal.Decimal) (decimal.Decimal, error) {
	p, err := Payout(stake, odds)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Sub(stake), nil
}

// DecimalToAmerican é o inverso, apenas para exibição: 2.5 -> +150, 1.91 -> -110.
func DecimalToAmerican(dec decimal.Decimal) (decimal.Decimal, error) {
	if dec.LessThanOrEqual(one) {
		return decimal.Zero, ErrInvalidOdds
	}
	if dec.GreaterThanOrEqual(decimal.NewFromInt(2)) {
		return dec.Sub(one).Mul(hundred).Round(0), nil
	}
	return hundred.Neg().Div(dec.Sub(one)).Round(0), nil
}
