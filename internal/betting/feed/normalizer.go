// Package feed traduz os payloads do fornecedor de odds para os formatos
// canônicos de domínio e expõe o cliente HTTP do fornecedor.
package feed

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
)

// BookmakerPolicy escolhe, entre as cotações do payload, o bookmaker cujas
// odds serão usadas. Retorna false quando não há nenhum.
type BookmakerPolicy func(bookmakers []RawBookmaker) (RawBookmaker, bool)

// FirstBookmaker usa o primeiro bookmaker da lista, sem comparar preços.
func FirstBookmaker(bookmakers []RawBookmaker) (RawBookmaker, bool) {
	if len(bookmakers) == 0 {
		return RawBookmaker{}, false
	}
	return bookmakers[0], true
}

// Normalizer converte RawGame/RawScore em GameUpdate/ScoreUpdate.
type Normalizer struct {
	Policy BookmakerPolicy
}

// NewNormalizer retorna um normalizador; policy nil usa FirstBookmaker.
func NewNormalizer(policy BookmakerPolicy) *Normalizer {
	if policy == nil {
		policy = FirstBookmaker
	}
	return &Normalizer{Policy: policy}
}

// Game normaliza um jogo. Campos obrigatórios ausentes ou um horário sem fuso
// resultam em *domain.ProviderDataError.
func (n *Normalizer) Game(raw RawGame) (domain.GameUpdate, error) {
	if err := requireIdentity(raw.ID, raw.HomeTeam, raw.AwayTeam); err != nil {
		return domain.GameUpdate{}, err
	}
	commence, err := ParseInstant(raw.CommenceTime)
	if err != nil {
		return domain.GameUpdate{}, &domain.ProviderDataError{ExternalID: raw.ID, Field: "commence_time", Reason: err.Error()}
	}

	up := domain.GameUpdate{
		ExternalID:   raw.ID,
		HomeTeam:     raw.HomeTeam,
		AwayTeam:     raw.AwayTeam,
		CommenceTime: commence,
	}
	if bm, ok := n.Policy(raw.Bookmakers); ok {
		up.Odds = extractOdds(bm, raw.HomeTeam, raw.AwayTeam)
	}
	return up, nil
}

// Games normaliza um lote; registros inválidos são devolvidos em rejected e
// não interrompem os demais.
func (n *Normalizer) Games(raws []RawGame) (games []domain.GameUpdate, rejected []error) {
	for _, r := range raws {
		g, err := n.Game(r)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		games = append(games, g)
	}
	return games, rejected
}

func extractOdds(bm RawBookmaker, home, away string) domain.GameOdds {
	var o domain.GameOdds
	for _, m := range bm.Markets {
		switch m.Key {
		case MarketH2H:
			for _, out := range m.Outcomes {
				switch out.Name {
				case home:
					o.HomeMoneyline = price(out.Price)
				case away:
					o.AwayMoneyline = price(out.Price)
				}
			}
		case MarketSpreads:
			for _, out := range m.Outcomes {
				switch out.Name {
				case home:
					o.HomeSpread = out.Point
					o.HomeSpreadOdds = price(out.Price)
				case away:
					o.AwaySpread = out.Point
					o.AwaySpreadOdds = price(out.Price)
				}
			}
		case MarketTotals:
			for _, out := range m.Outcomes {
				switch out.Name {
				case outcomeOver:
					if out.Point.Valid {
						o.TotalPoints = out.Point
					}
					o.OverOdds = price(out.Price)
				case outcomeUnder:
					if !o.TotalPoints.Valid {
						o.TotalPoints = out.Point
					}
					o.UnderOdds = price(out.Price)
				}
			}
		}
	}
	return o
}

// price descarta cotação zero, que não é uma odd americana válida.
func price(p decimal.NullDecimal) decimal.NullDecimal {
	if p.Valid && p.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return p
}

// Score normaliza um placar. Entradas cujo nome não bate com nenhum dos times
// são ignoradas; placar ausente fica nil.
func Score(raw RawScore) (domain.ScoreUpdate, error) {
	if err := requireIdentity(raw.ID, raw.HomeTeam, raw.AwayTeam); err != nil {
		return domain.ScoreUpdate{}, err
	}
	up := domain.ScoreUpdate{
		ExternalID: raw.ID,
		HomeTeam:   raw.HomeTeam,
		AwayTeam:   raw.AwayTeam,
		Completed:  raw.Completed,
	}
	for _, e := range raw.Scores {
		var dst **int
		switch e.Name {
		case raw.HomeTeam:
			dst = &up.HomeScore
		case raw.AwayTeam:
			dst = &up.AwayScore
		default:
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(e.Score))
		if err != nil || v < 0 {
			return domain.ScoreUpdate{}, &domain.ProviderDataError{ExternalID: raw.ID, Field: "scores", Reason: "invalid score " + strconv.Quote(e.Score)}
		}
		*dst = &v
	}
	return up, nil
}

func Scores(raws []RawScore) (scores []domain.ScoreUpdate, rejected []error) {
	for _, r := range raws {
		s, err := Score(r)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		scores = append(scores, s)
	}
	return scores, rejected
}

// ParseInstant exige um instante com fuso explícito (RFC 3339) e devolve UTC.
func ParseInstant(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func requireIdentity(id, home, away string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return &domain.ProviderDataError{Field: "id", Reason: "missing"}
	case strings.TrimSpace(home) == "":
		return &domain.ProviderDataError{ExternalID: id, Field: "home_team", Reason: "missing"}
	case strings.TrimSpace(away) == "":
		return &domain.ProviderDataError{ExternalID: id, Field: "away_team", Reason: "missing"}
	}
	return nil
}
