// Package sim simula o fornecedor de odds (The Odds API v4) para rodar o
// sistema localmente: jogos com odds que oscilam, placares ao vivo e finais.
package sim

import (
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/nba-betting-engine/internal/betting/feed"
)

// GameLength é a duração simulada de uma partida.
const GameLength = 150 * time.Minute

var teams = []string{
	"Boston Celtics", "Los Angeles Lakers", "Golden State Warriors", "Milwaukee Bucks",
	"Denver Nuggets", "Phoenix Suns", "Miami Heat", "Dallas Mavericks",
	"Philadelphia 76ers", "New York Knicks", "Oklahoma City Thunder", "Minnesota Timberwolves",
}

var bookmakers = []struct{ key, title string }{
	{"betmgm", "BetMGM"},
	{"draftkings", "DraftKings"},
}

type simGame struct {
	id        string
	home      string
	away      string
	commence  time.Time
	homeML    int64
	spread    decimal.Decimal // do mandante
	total     decimal.Decimal
	finalHome int
	finalAway int
}

// Simulator mantém um catálogo fixo de jogos. Seguro para uso concorrente.
type Simulator struct {
	mu    sync.RWMutex
	sport string
	games []*simGame
	rng   *rand.Rand

	Now func() time.Time
}

// New gera n jogos a partir de start, um a cada interval. A semente torna o
// catálogo (odds e placares finais) reprodutível.
func New(sport string, start time.Time, n int, interval time.Duration, seed int64) *Simulator {
	rng := rand.New(rand.NewSource(seed))
	s := &Simulator{sport: sport, rng: rng, Now: time.Now}
	for i := 0; i < n; i++ {
		perm := rng.Perm(len(teams))
		g := &simGame{
			id:        "sim" + strconv.Itoa(i+1),
			home:      teams[perm[0]],
			away:      teams[perm[1]],
			commence:  start.Add(time.Duration(i) * interval).UTC(),
			finalHome: 95 + rng.Intn(35),
			finalAway: 95 + rng.Intn(35),
		}
		if g.finalHome == g.finalAway {
			g.finalHome++ // sem empate no basquete
		}
		s.reprice(g)
		s.games = append(s.games, g)
	}
	return s
}

// reprice sorteia uma nova linha coerente: favorito negativo, spread e total
// em meios pontos.
func (s *Simulator) reprice(g *simGame) {
	fav := s.rng.Intn(2) == 0
	ml := int64(130 + s.rng.Intn(170))
	spread := decimal.NewFromFloat(float64(1+s.rng.Intn(12)) + 0.5)
	if fav {
		g.homeML = -ml
		g.spread = spread.Neg()
	} else {
		g.homeML = ml
		g.spread = spread
	}
	g.total = decimal.NewFromInt(int64(205 + s.rng.Intn(30))).Add(decimal.NewFromFloat(0.5))
}

// Tick reprecifica os jogos que ainda não começaram.
func (s *Simulator) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	for _, g := range s.games {
		if g.commence.After(now) {
			s.reprice(g)
		}
	}
}

func american(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }

func point(d decimal.Decimal) decimal.NullDecimal { return decimal.NewNullDecimal(d) }

// awayML espelha o moneyline do mandante com margem da casa.
func awayML(homeML int64) int64 {
	if homeML < 0 {
		return -homeML - 20
	}
	return -(homeML + 20)
}

func (g *simGame) bookmaker(key, title string) feed.RawBookmaker {
	return feed.RawBookmaker{
		Key:   key,
		Title: title,
		Markets: []feed.RawMarket{
			{Key: feed.MarketH2H, Outcomes: []feed.RawOutcome{
				{Name: g.home, Price: american(g.homeML)},
				{Name: g.away, Price: american(awayML(g.homeML))},
			}},
			{Key: feed.MarketSpreads, Outcomes: []feed.RawOutcome{
				{Name: g.home, Price: american(-110), Point: point(g.spread)},
				{Name: g.away, Price: american(-110), Point: point(g.spread.Neg())},
			}},
			{Key: feed.MarketTotals, Outcomes: []feed.RawOutcome{
				{Name: "Over", Price: american(-110), Point: point(g.total)},
				{Name: "Under", Price: american(-110), Point: point(g.total)},
			}},
		},
	}
}

// Odds retorna os jogos ainda não iniciados. allowed filtra bookmakers
// (vazio = todos).
func (s *Simulator) Odds(allowed map[string]bool) []feed.RawGame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.Now()

	out := []feed.RawGame{}
	for _, g := range s.games {
		if !g.commence.After(now) {
			continue
		}
		raw := feed.RawGame{
			ID:           g.id,
			SportKey:     s.sport,
			CommenceTime: g.commence.Format(time.RFC3339),
			HomeTeam:     g.home,
			AwayTeam:     g.away,
			Bookmakers:   []feed.RawBookmaker{},
		}
		for _, bm := range bookmakers {
			if len(allowed) == 0 || allowed[bm.key] {
				raw.Bookmakers = append(raw.Bookmakers, g.bookmaker(bm.key, bm.title))
			}
		}
		out = append(out, raw)
	}
	return out
}

// Scores retorna jogos futuros, ao vivo e encerrados nos últimos daysFrom
// dias. Placar ao vivo cresce proporcionalmente ao tempo decorrido.
func (s *Simulator) Scores(daysFrom int) []feed.RawScore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.Now()
	since := now.Add(-time.Duration(daysFrom) * 24 * time.Hour)

	out := []feed.RawScore{}
	for _, g := range s.games {
		if g.commence.Before(since) {
			continue
		}
		raw := feed.RawScore{
			ID:           g.id,
			SportKey:     s.sport,
			CommenceTime: g.commence.Format(time.RFC3339),
			HomeTeam:     g.home,
			AwayTeam:     g.away,
		}
		elapsed := now.Sub(g.commence)
		switch {
		case elapsed < 0:
		case elapsed >= GameLength:
			raw.Completed = true
			raw.Scores = g.scores(g.finalHome, g.finalAway)
		default:
			f := float64(elapsed) / float64(GameLength)
			raw.Scores = g.scores(int(float64(g.finalHome)*f), int(float64(g.finalAway)*f))
		}
		if raw.Scores != nil {
			ts := now.UTC().Format(time.RFC3339)
			raw.LastUpdate = &ts
		}
		out = append(out, raw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommenceTime < out[j].CommenceTime })
	return out
}

func (g *simGame) scores(home, away int) []feed.RawScoreEntry {
	return []feed.RawScoreEntry{
		{Name: g.home, Score: strconv.Itoa(home)},
		{Name: g.away, Score: strconv.Itoa(away)},
	}
}
