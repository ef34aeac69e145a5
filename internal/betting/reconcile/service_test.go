package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/pkg/contracts/events"
)

type fakePublisher struct {
	events  []events.GameCompleted
	changes []events.GamesChanged
	err     error
}

func (f *fakePublisher) PublishGamesChanged(_ context.Context, e events.GamesChanged) error {
	f.changes = append(f.changes, e)
	return f.err
}

func (f *fakePublisher) PublishGameCompleted(_ context.Context, e events.GameCompleted) error {
	f.events = append(f.events, e)
	return f.err
}

func odds(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func intp(v int) *int { return &v }

var commence = time.Date(2030, 1, 15, 0, 30, 0, 0, time.UTC)

func update(id, homeML string) domain.GameUpdate {
	return domain.GameUpdate{
		ExternalID:   id,
		HomeTeam:     "Los Angeles Lakers",
		AwayTeam:     "Boston Celtics",
		CommenceTime: commence,
		Odds: domain.GameOdds{
			HomeMoneyline: odds(homeML),
			AwayMoneyline: odds("130"),
			HomeSpread:    odds("-3.5"),
			AwaySpread:    odds("3.5"),
			TotalPoints:   odds("225.5"),
		},
	}
}

func newService(t *testing.T, pub Publisher) (*Service, *repo.MemoryStore) {
	t.Helper()
	store := repo.NewMemoryStore()
	return NewService(store, zaptest.NewLogger(t), nil, pub), store
}

func findGame(t *testing.T, store repo.Store, externalID string) domain.Game {
	t.Helper()
	var g *domain.Game
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx repo.Tx) error {
		var err error
		g, err = tx.Games().FindByExternalID(ctx, externalID)
		return err
	})
	if err != nil {
		t.Fatalf("find %s: %v", externalID, err)
	}
	return *g
}

func TestSyncGamesCreatesThenUpdates(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()

	res, err := svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-150")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 1 || res.Updated != 0 || res.Total != 1 {
		t.Fatalf("first sync: %+v", res)
	}

	res, err = svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-150")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 0 || res.Updated != 1 {
		t.Fatalf("second sync: %+v", res)
	}

	g := findGame(t, store, "g1")
	if g.Status != domain.GameUpcoming {
		t.Errorf("status = %v", g.Status)
	}
	if !g.HomeMoneyline.Decimal.Equal(decimal.NewFromInt(-150)) {
		t.Errorf("home moneyline = %v", g.HomeMoneyline)
	}
}

func TestSyncGamesLastWriteWinsWithinBatch(t *testing.T) {
	svc, store := newService(t, nil)

	res, err := svc.SyncGames(context.Background(), []domain.GameUpdate{
		update("g1", "-150"),
		update("g1", "-165"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 1 || res.Updated != 1 {
		t.Fatalf("result: %+v", res)
	}
	if g := findGame(t, store, "g1"); !g.HomeMoneyline.Decimal.Equal(decimal.NewFromInt(-165)) {
		t.Errorf("home moneyline = %v", g.HomeMoneyline)
	}
}

func TestSyncGamesOverwritesMissingOdds(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-150")}); err != nil {
		t.Fatal(err)
	}
	u := update("g1", "-150")
	u.Odds.TotalPoints = decimal.NullDecimal{}
	if _, err := svc.SyncGames(ctx, []domain.GameUpdate{u}); err != nil {
		t.Fatal(err)
	}
	if g := findGame(t, store, "g1"); g.TotalPoints.Valid {
		t.Errorf("total points should be cleared, got %v", g.TotalPoints)
	}
}

func TestSyncGamesSkipsRecordWithoutExternalID(t *testing.T) {
	svc, _ := newService(t, nil)

	res, err := svc.SyncGames(context.Background(), []domain.GameUpdate{update("", "-150"), update("g2", "110")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 1 || res.Created != 1 || res.Total != 2 {
		t.Fatalf("result: %+v", res)
	}
}

func TestSyncGamesEmptyBatch(t *testing.T) {
	svc, _ := newService(t, nil)
	res, err := svc.SyncGames(context.Background(), nil)
	if err != nil || res != (SyncResult{}) {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestSyncGamesFreezesStartedGames(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-150")}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateCompletedGames(ctx, []domain.ScoreUpdate{{ExternalID: "g1", HomeScore: intp(20), AwayScore: intp(18)}}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-400")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Frozen != 1 || res.Updated != 0 {
		t.Fatalf("result: %+v", res)
	}
	g := findGame(t, store, "g1")
	if g.Status != domain.GameInProgress {
		t.Errorf("status = %v", g.Status)
	}
	if !g.HomeMoneyline.Decimal.Equal(decimal.NewFromInt(-150)) {
		t.Errorf("odds overwritten: %v", g.HomeMoneyline)
	}
	if g.HomeScore != nil {
		t.Errorf("in-progress score persisted: %v", *g.HomeScore)
	}
}

func TestUpdateCompletedGames(t *testing.T) {
	pub := &fakePublisher{}
	svc, store := newService(t, pub)
	ctx := context.Background()

	if _, err := svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-150"), update("g2", "-110")}); err != nil {
		t.Fatal(err)
	}

	done, err := svc.UpdateCompletedGames(ctx, []domain.ScoreUpdate{
		{ExternalID: "g1", Completed: true, HomeScore: intp(110), AwayScore: intp(104)},
		{ExternalID: "unknown", Completed: true, HomeScore: intp(1), AwayScore: intp(2)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 1 || done[0].ExternalID != "g1" || done[0].Status != domain.GameCompleted {
		t.Fatalf("completed: %+v", done)
	}
	if len(pub.events) != 1 || pub.events[0].HomeScore != 110 || pub.events[0].AwayScore != 104 {
		t.Fatalf("events: %+v", pub.events)
	}

	// placar posterior divergente é ignorado
	done, err = svc.UpdateCompletedGames(ctx, []domain.ScoreUpdate{
		{ExternalID: "g1", Completed: true, HomeScore: intp(99), AwayScore: intp(120)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 0 {
		t.Fatalf("completed game reprocessed: %+v", done)
	}
	g := findGame(t, store, "g1")
	if *g.HomeScore != 110 || *g.AwayScore != 104 {
		t.Errorf("scores altered: %d-%d", *g.HomeScore, *g.AwayScore)
	}
	if len(pub.events) != 1 {
		t.Errorf("duplicate event published")
	}
}

func TestUpdateCompletedGamesMissingScore(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()
	if _, err := svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-150")}); err != nil {
		t.Fatal(err)
	}

	done, err := svc.UpdateCompletedGames(ctx, []domain.ScoreUpdate{
		{ExternalID: "g1", Completed: true, HomeScore: intp(101)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 0 {
		t.Fatalf("game completed with a null score: %+v", done)
	}
	if g := findGame(t, store, "g1"); g.Status == domain.GameCompleted || g.HomeScore != nil {
		t.Errorf("game mutated: %+v", g)
	}
}

func TestUpdateCompletedGamesNothingUnfinished(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	ok, err := svc.HasUnfinishedGames(ctx)
	if err != nil || ok {
		t.Fatalf("HasUnfinishedGames = %v, %v", ok, err)
	}
	done, err := svc.UpdateCompletedGames(ctx, []domain.ScoreUpdate{
		{ExternalID: "g1", Completed: true, HomeScore: intp(1), AwayScore: intp(2)},
	})
	if err != nil || len(done) != 0 {
		t.Fatalf("done=%v err=%v", done, err)
	}
}

func TestUpdateCompletedGamesPublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, store := newService(t, pub)
	ctx := context.Background()
	if _, err := svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-150")}); err != nil {
		t.Fatal(err)
	}

	done, err := svc.UpdateCompletedGames(ctx, []domain.ScoreUpdate{
		{ExternalID: "g1", Completed: true, HomeScore: intp(100), AwayScore: intp(90)},
	})
	if err != nil || len(done) != 1 {
		t.Fatalf("done=%v err=%v", done, err)
	}
	if g := findGame(t, store, "g1"); g.Status != domain.GameCompleted {
		t.Errorf("status = %v", g.Status)
	}
}

func TestGamesChangedEvents(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newService(t, pub)
	ctx := context.Background()

	if _, err := svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-150"), update("g2", "-110")}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-160")}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateCompletedGames(ctx, []domain.ScoreUpdate{
		{ExternalID: "g1", Completed: true, HomeScore: intp(101), AwayScore: intp(99)},
		{ExternalID: "g2", HomeScore: intp(10), AwayScore: intp(12)},
	}); err != nil {
		t.Fatal(err)
	}
	// jogos congelados e lote vazio não geram evento
	if _, err := svc.SyncGames(ctx, []domain.GameUpdate{update("g1", "-170"), update("g2", "-170")}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SyncGames(ctx, nil); err != nil {
		t.Fatal(err)
	}

	want := []events.GamesChanged{
		{Source: "sync", Created: 2},
		{Source: "sync", Updated: 1},
		{Source: "scores", Started: 1, Completed: 1},
	}
	if len(pub.changes) != len(want) {
		t.Fatalf("changes: %+v", pub.changes)
	}
	for i, w := range want {
		got := pub.changes[i]
		got.Ts = time.Time{}
		if got != w {
			t.Errorf("change %d = %+v, want %+v", i, got, w)
		}
		if pub.changes[i].Ts.IsZero() {
			t.Errorf("change %d without timestamp", i)
		}
	}
}
