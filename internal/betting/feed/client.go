package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
)

// Client consome a The Odds API e devolve lotes já normalizados.
type Client struct {
	BaseURL    string
	APIKey     string
	Sport      string
	Regions    string
	Bookmakers string
	HTTP       *http.Client
	Normalizer *Normalizer
}

func NewClient(baseURL, apiKey, sport string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		APIKey:     apiKey,
		Sport:      sport,
		Regions:    "us",
		HTTP:       &http.Client{Timeout: timeout},
		Normalizer: NewNormalizer(nil),
	}
}

// GameBatch contém os jogos normalizados e os registros descartados.
type GameBatch struct {
	Games    []domain.GameUpdate
	Rejected []error
}

type ScoreBatch struct {
	Scores   []domain.ScoreUpdate
	Rejected []error
}

// Usage reflete os cabeçalhos de cota da API.
type Usage struct {
	RequestsRemaining string
	RequestsUsed      string
}

// FetchGames busca odds de moneyline, spread e totals em formato americano.
func (c *Client) FetchGames(ctx context.Context) (GameBatch, error) {
	q := url.Values{}
	q.Set("regions", c.Regions)
	q.Set("markets", strings.Join([]string{MarketH2H, MarketSpreads, MarketTotals}, ","))
	q.Set("oddsFormat", "american")
	if c.Bookmakers != "" {
		q.Set("bookmakers", c.Bookmakers)
	}

	var raws []RawGame
	if _, err := c.get(ctx, "/sports/"+c.Sport+"/odds", q, &raws); err != nil {
		return GameBatch{}, fmt.Errorf("fetch odds: %w", err)
	}
	games, rejected := c.Normalizer.Games(raws)
	return GameBatch{Games: games, Rejected: rejected}, nil
}

// FetchScores busca placares dos últimos daysFrom dias. Jogos ainda não
// iniciados (sem placar e não concluídos) são omitidos.
func (c *Client) FetchScores(ctx context.Context, daysFrom int) (ScoreBatch, error) {
	q := url.Values{}
	q.Set("daysFrom", strconv.Itoa(daysFrom))

	var raws []RawScore
	if _, err := c.get(ctx, "/sports/"+c.Sport+"/scores", q, &raws); err != nil {
		return ScoreBatch{}, fmt.Errorf("fetch scores: %w", err)
	}
	started := raws[:0]
	for _, r := range raws {
		if r.Completed || len(r.Scores) > 0 {
			started = append(started, r)
		}
	}
	scores, rejected := Scores(started)
	return ScoreBatch{Scores: scores, Rejected: rejected}, nil
}

// CheckUsage consulta a cota restante sem consumir requisições de odds.
func (c *Client) CheckUsage(ctx context.Context) (Usage, error) {
	var sink []json.RawMessage
	h, err := c.get(ctx, "/sports", url.Values{}, &sink)
	if err != nil {
		return Usage{}, fmt.Errorf("check usage: %w", err)
	}
	return Usage{
		RequestsRemaining: h.Get("x-requests-remaining"),
		RequestsUsed:      h.Get("x-requests-used"),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) (http.Header, error) {
	q.Set("apiKey", c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("odds api http %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return res.Header, nil
}
