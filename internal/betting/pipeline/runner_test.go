package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
	"github.com/radieske/nba-betting-engine/internal/betting/feed"
	"github.com/radieske/nba-betting-engine/internal/betting/placement"
	"github.com/radieske/nba-betting-engine/internal/betting/reconcile"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/internal/betting/settlement"
	"github.com/radieske/nba-betting-engine/pkg/contracts/events"
)

var now = time.Date(2030, 1, 14, 18, 0, 0, 0, time.UTC)

type fakeFeed struct {
	games       feed.GameBatch
	scores      feed.ScoreBatch
	scoresErr   error
	scoreCalls  int
	lastDaysArg int
}

func (f *fakeFeed) FetchGames(context.Context) (feed.GameBatch, error) { return f.games, nil }

func (f *fakeFeed) FetchScores(_ context.Context, daysFrom int) (feed.ScoreBatch, error) {
	f.scoreCalls++
	f.lastDaysArg = daysFrom
	return f.scores, f.scoresErr
}

func intp(v int) *int { return &v }

type fixture struct {
	runner *Runner
	feed   *fakeFeed
	bets   *placement.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := repo.NewMemoryStore()
	ff := &fakeFeed{games: feed.GameBatch{
		Games: []domain.GameUpdate{{
			ExternalID: "g1", HomeTeam: "Lakers", AwayTeam: "Celtics",
			CommenceTime: now.Add(time.Hour),
			Odds: domain.GameOdds{
				HomeMoneyline: decimal.NewNullDecimal(decimal.NewFromInt(-110)),
				AwayMoneyline: decimal.NewNullDecimal(decimal.NewFromInt(-110)),
			},
		}},
		Rejected: []error{&domain.ProviderDataError{ExternalID: "bad", Field: "home_team", Reason: "missing"}},
	}}
	bets := placement.NewService(store, log, nil, nil)
	bets.Now = func() time.Time { return now }
	return &fixture{
		feed: ff,
		bets: bets,
		runner: &Runner{
			Feed:       ff,
			Store:      store,
			Reconciler: reconcile.NewService(store, log, nil, nil),
			Engine:     settlement.NewEngine(store, log, nil, nil),
			Log:        log,
		},
	}
}

type recordingPublisher struct {
	changed   []events.GamesChanged
	completed []events.GameCompleted
	settled   []events.BetSettled
}

func (p *recordingPublisher) PublishGamesChanged(_ context.Context, e events.GamesChanged) error {
	p.changed = append(p.changed, e)
	return nil
}

func (p *recordingPublisher) PublishGameCompleted(_ context.Context, e events.GameCompleted) error {
	p.completed = append(p.completed, e)
	return nil
}

func (p *recordingPublisher) PublishBetSettled(_ context.Context, e events.BetSettled) error {
	p.settled = append(p.settled, e)
	return nil
}

func TestNewRunnerPublishesRoundEvents(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{}
	f.runner = NewRunner(f.feed, f.runner.Store, zaptest.NewLogger(t), nil, pub, 0)
	ctx := context.Background()

	if _, err := f.runner.SyncOdds(ctx); err != nil {
		t.Fatal(err)
	}
	user, _ := f.bets.CreateUser(ctx, "alice", decimal.NullDecimal{})
	games, _ := f.bets.ListGames(ctx, domain.GameUpcoming)
	if _, err := f.bets.PlaceBet(ctx, user.ID, games[0].ID, domain.BetMoneyline, domain.SelectHome, decimal.NewFromInt(10)); err != nil {
		t.Fatal(err)
	}
	f.feed.scores = feed.ScoreBatch{Scores: []domain.ScoreUpdate{
		{ExternalID: "g1", Completed: true, HomeScore: intp(110), AwayScore: intp(100)},
	}}
	if err := f.runner.ScoreAndSettle(ctx); err != nil {
		t.Fatal(err)
	}

	if len(pub.changed) != 2 || pub.changed[0].Source != "sync" || pub.changed[1].Source != "scores" {
		t.Errorf("games_changed = %+v", pub.changed)
	}
	if len(pub.completed) != 1 || pub.completed[0].ExternalID != "g1" {
		t.Errorf("game_completed = %+v", pub.completed)
	}
	if len(pub.settled) != 1 || pub.settled[0].Status != "won" {
		t.Errorf("bet_settled = %+v", pub.settled)
	}
}

func TestUpdateScoresSkipsFeedWhenNothingOpen(t *testing.T) {
	f := newFixture(t)
	done, err := f.runner.UpdateScores(context.Background())
	if err != nil || done != nil {
		t.Fatalf("done=%v err=%v", done, err)
	}
	if f.feed.scoreCalls != 0 {
		t.Errorf("scores fetched with no unfinished games")
	}
}

func TestRunnerCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.runner.SyncOdds(ctx)
	if err != nil || res.Created != 1 {
		t.Fatalf("sync: %+v %v", res, err)
	}

	user, err := f.bets.CreateUser(ctx, "alice", decimal.NullDecimal{})
	if err != nil {
		t.Fatal(err)
	}
	games, _ := f.bets.ListGames(ctx, domain.GameUpcoming)
	if _, err := f.bets.PlaceBet(ctx, user.ID, games[0].ID, domain.BetMoneyline, domain.SelectAway, decimal.NewFromInt(110)); err != nil {
		t.Fatal(err)
	}

	f.feed.scores = feed.ScoreBatch{Scores: []domain.ScoreUpdate{
		{ExternalID: "g1", Completed: true, HomeScore: intp(99), AwayScore: intp(104)},
	}}
	done, err := f.runner.UpdateScores(ctx)
	if err != nil || len(done) != 1 {
		t.Fatalf("scores: %v %v", done, err)
	}
	if f.feed.lastDaysArg != 1 {
		t.Errorf("daysFrom default = %d", f.feed.lastDaysArg)
	}

	preview, err := f.runner.SettleCompleted(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if preview.Preview == nil || preview.Preview.WonCount != 1 || preview.Preview.TotalPayout.StringFixed(2) != "210.00" {
		t.Fatalf("preview: %+v", preview.Preview)
	}
	if len(preview.Settled) != 0 {
		t.Fatal("dry run settled bets")
	}

	rep, err := f.runner.SettleCompleted(ctx, false)
	if err != nil || len(rep.Settled) != 1 {
		t.Fatalf("settle: %+v %v", rep, err)
	}
	bal, _ := f.bets.GetUserBalance(ctx, user.ID)
	if bal.StringFixed(2) != "1100.00" {
		t.Errorf("balance = %s", bal)
	}

	rep, err = f.runner.SettleCompleted(ctx, false)
	if err != nil || len(rep.Games) != 0 {
		t.Fatalf("second settle: %+v %v", rep, err)
	}
}

func TestScoreAndSettleSurvivesFeedFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	later := f.feed.games.Games[0]
	later.ExternalID = "g2"
	later.CommenceTime = now.Add(24 * time.Hour)
	f.feed.games.Games = append(f.feed.games.Games, later)
	if _, err := f.runner.SyncOdds(ctx); err != nil {
		t.Fatal(err)
	}
	user, _ := f.bets.CreateUser(ctx, "alice", decimal.NullDecimal{})
	games, _ := f.bets.ListGames(ctx, domain.GameUpcoming)
	if _, err := f.bets.PlaceBet(ctx, user.ID, games[0].ID, domain.BetMoneyline, domain.SelectHome, decimal.NewFromInt(10)); err != nil {
		t.Fatal(err)
	}
	f.feed.scores = feed.ScoreBatch{Scores: []domain.ScoreUpdate{
		{ExternalID: "g1", Completed: true, HomeScore: intp(99), AwayScore: intp(104)},
	}}
	if _, err := f.runner.UpdateScores(ctx); err != nil {
		t.Fatal(err)
	}

	f.feed.scoresErr = errors.New("provider timeout")
	if err := f.runner.ScoreAndSettle(ctx); err != nil {
		t.Fatal(err)
	}
	if f.feed.scoreCalls != 2 {
		t.Errorf("score calls = %d", f.feed.scoreCalls)
	}
	pending, _ := f.bets.GetPendingBets(ctx, user.ID)
	if len(pending) != 0 {
		t.Errorf("pending after settle round: %d", len(pending))
	}
}

func TestScheduleRegistersJobs(t *testing.T) {
	f := newFixture(t)
	s, err := gocron.NewScheduler()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Shutdown() }()

	if err := f.runner.Schedule(context.Background(), s, time.Minute, 2*time.Minute); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Jobs()); got != 2 {
		t.Fatalf("jobs = %d", got)
	}
}
