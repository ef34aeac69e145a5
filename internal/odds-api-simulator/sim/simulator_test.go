package sim

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/radieske/nba-betting-engine/internal/betting/feed"
)

var start = time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newSim(t *testing.T, c *clock) (*Simulator, *feed.Client) {
	t.Helper()
	s := New("basketball_nba", start, 3, 2*time.Hour, 42)
	s.Now = c.now
	srv := httptest.NewServer(s.Handler("sim-key"))
	t.Cleanup(srv.Close)

	client := feed.NewClient(srv.URL+"/v4", "sim-key", "basketball_nba", time.Second)
	client.Bookmakers = "betmgm"
	return s, client
}

func TestOddsNormalizeCleanly(t *testing.T) {
	c := &clock{t: start.Add(-time.Hour)}
	_, client := newSim(t, c)

	batch, err := client.FetchGames(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Games) != 3 || len(batch.Rejected) != 0 {
		t.Fatalf("games=%d rejected=%v", len(batch.Games), batch.Rejected)
	}
	for _, g := range batch.Games {
		o := g.Odds
		if !o.HomeMoneyline.Valid || !o.AwayMoneyline.Valid || !o.TotalPoints.Valid || !o.OverOdds.Valid || !o.UnderOdds.Valid {
			t.Errorf("%s: missing odds %+v", g.ExternalID, o)
		}
		if !o.HomeSpread.Valid || !o.AwaySpread.Valid || !o.HomeSpread.Decimal.Add(o.AwaySpread.Decimal).IsZero() {
			t.Errorf("%s: spreads %v / %v", g.ExternalID, o.HomeSpread, o.AwaySpread)
		}
		if o.HomeMoneyline.Decimal.Sign() == o.AwayMoneyline.Decimal.Sign() {
			t.Errorf("%s: both sides priced the same way", g.ExternalID)
		}
		if g.HomeTeam == g.AwayTeam {
			t.Errorf("%s: team plays itself", g.ExternalID)
		}
	}
}

func TestGameLifecycle(t *testing.T) {
	c := &clock{t: start.Add(GameLength + 30*time.Minute)}
	_, client := newSim(t, c)
	ctx := context.Background()

	games, err := client.FetchGames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// sim1 encerrado, sim2 ao vivo; só sim3 ainda recebe odds
	if len(games.Games) != 1 || games.Games[0].ExternalID != "sim3" {
		t.Fatalf("open games: %+v", games.Games)
	}

	scores, err := client.FetchScores(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores.Scores) != 2 || len(scores.Rejected) != 0 {
		t.Fatalf("scores: %+v rejected=%v", scores.Scores, scores.Rejected)
	}
	final, live := scores.Scores[0], scores.Scores[1]
	if final.ExternalID != "sim1" || !final.Final() || *final.HomeScore == *final.AwayScore {
		t.Errorf("final: %+v", final)
	}
	if live.ExternalID != "sim2" || live.Completed || live.HomeScore == nil {
		t.Errorf("live: %+v", live)
	}
}

func TestTickRepricesOnlyUpcoming(t *testing.T) {
	c := &clock{t: start.Add(time.Minute)}
	s, _ := newSim(t, c)

	before := *s.games[0]
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	if s.games[0].homeML != before.homeML || !s.games[0].total.Equal(before.total) {
		t.Errorf("started game repriced")
	}
}

func TestHandlerRejectsBadKeyAndSport(t *testing.T) {
	c := &clock{t: start}
	s, _ := newSim(t, c)
	srv := httptest.NewServer(s.Handler("sim-key"))
	defer srv.Close()

	if _, err := feed.NewClient(srv.URL+"/v4", "wrong", "basketball_nba", time.Second).FetchGames(context.Background()); err == nil {
		t.Error("expected 401")
	}
	if _, err := feed.NewClient(srv.URL+"/v4", "sim-key", "icehockey_nhl", time.Second).FetchGames(context.Background()); err == nil {
		t.Error("expected 404 for unknown sport")
	}

	u, err := feed.NewClient(srv.URL+"/v4", "sim-key", "basketball_nba", time.Second).CheckUsage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if u.RequestsUsed == "" || u.RequestsRemaining == "" {
		t.Errorf("usage headers: %+v", u)
	}
}
