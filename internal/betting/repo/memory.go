package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
)

// MemoryStore implementa Store em memória. Cada transação trabalha sobre uma
// cópia do estado, trocada no commit; as transações são serializadas.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{
		games: map[uuid.UUID]domain.Game{},
		bets:  map[uuid.UUID]memBet{},
		users: map[uuid.UUID]domain.User{},
	}}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type memBet struct {
	bet domain.Bet
	seq int64
}

type memState struct {
	games map[uuid.UUID]domain.Game
	bets  map[uuid.UUID]memBet
	users map[uuid.UUID]domain.User
	seq   int64
}

func (m *memState) clone() *memState {
	c := &memState{
		games: make(map[uuid.UUID]domain.Game, len(m.games)),
		bets:  make(map[uuid.UUID]memBet, len(m.bets)),
		users: make(map[uuid.UUID]domain.User, len(m.users)),
		seq:   m.seq,
	}
	for k, v := range m.games {
		c.games[k] = copyGame(v)
	}
	for k, v := range m.bets {
		v.bet = copyBet(v.bet)
		c.bets[k] = v
	}
	for k, v := range m.users {
		c.users[k] = v
	}
	return c
}

func copyGame(g domain.Game) domain.Game {
	if g.HomeScore != nil {
		v := *g.HomeScore
		g.HomeScore = &v
	}
	if g.AwayScore != nil {
		v := *g.AwayScore
		g.AwayScore = &v
	}
	return g
}

func copyBet(b domain.Bet) domain.Bet {
	if b.SettledAt != nil {
		v := *b.SettledAt
		b.SettledAt = &v
	}
	return b
}

type memTx struct{ st *memState }

func (t *memTx) Games() GameRepo { return memGames{t.st} }
func (t *memTx) Bets() BetRepo   { return memBets{t.st} }
func (t *memTx) Users() UserRepo { return memUsers{t.st} }

type memGames struct{ st *memState }

func (r memGames) FindByID(_ context.Context, id uuid.UUID) (*domain.Game, error) {
	g, ok := r.st.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	g = copyGame(g)
	return &g, nil
}

func (r memGames) FindByExternalID(_ context.Context, externalID string) (*domain.Game, error) {
	for _, g := range r.st.games {
		if g.ExternalID == externalID {
			g = copyGame(g)
			return &g, nil
		}
	}
	return nil, ErrNotFound
}

func (r memGames) FindByStatus(_ context.Context, status domain.GameStatus) ([]domain.Game, error) {
	return r.filter(func(g domain.Game) bool { return g.Status == status }), nil
}

func (r memGames) FindWithPendingBets(_ context.Context, status domain.GameStatus) ([]domain.Game, error) {
	pending := map[uuid.UUID]bool{}
	for _, b := range r.st.bets {
		if b.bet.Status == domain.BetPending {
			pending[b.bet.GameID] = true
		}
	}
	return r.filter(func(g domain.Game) bool { return g.Status == status && pending[g.ID] }), nil
}

func (r memGames) FindUnfinished(_ context.Context) ([]domain.Game, error) {
	return r.filter(func(g domain.Game) bool { return g.Status != domain.GameCompleted }), nil
}

func (r memGames) filter(keep func(domain.Game) bool) []domain.Game {
	var out []domain.Game
	for _, g := range r.st.games {
		if keep(g) {
			out = append(out, copyGame(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CommenceTime.Equal(out[j].CommenceTime) {
			return out[i].CommenceTime.Before(out[j].CommenceTime)
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out
}

func (r memGames) Insert(_ context.Context, g *domain.Game) error {
	for _, ex := range r.st.games {
		if ex.ExternalID == g.ExternalID {
			return ErrConflict
		}
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	r.st.games[g.ID] = copyGame(*g)
	return nil
}

func (r memGames) Update(_ context.Context, g *domain.Game) error {
	if _, ok := r.st.games[g.ID]; !ok {
		return ErrNotFound
	}
	r.st.games[g.ID] = copyGame(*g)
	return nil
}

type memBets struct{ st *memState }

func (r memBets) Insert(_ context.Context, b *domain.Bet) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.st.seq++
	r.st.bets[b.ID] = memBet{bet: copyBet(*b), seq: r.st.seq}
	return nil
}

func (r memBets) FindPendingByGame(_ context.Context, gameID uuid.UUID) ([]domain.Bet, error) {
	return r.filter(func(b domain.Bet) bool { return b.GameID == gameID && b.Status == domain.BetPending }, false), nil
}

func (r memBets) FindPendingByUser(_ context.Context, userID uuid.UUID) ([]domain.Bet, error) {
	return r.filter(func(b domain.Bet) bool { return b.UserID == userID && b.Status == domain.BetPending }, false), nil
}

func (r memBets) FindHistoryByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.Bet, error) {
	out := r.filter(func(b domain.Bet) bool { return b.UserID == userID }, true)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memBets) MarkSettled(_ context.Context, betID uuid.UUID, status domain.BetStatus, at time.Time) (bool, error) {
	mb, ok := r.st.bets[betID]
	if !ok || mb.bet.Status != domain.BetPending {
		return false, nil
	}
	mb.bet.Status = status
	mb.bet.SettledAt = &at
	r.st.bets[betID] = mb
	return true, nil
}

// filter ordena por inserção; newestFirst inverte a ordem.
func (r memBets) filter(keep func(domain.Bet) bool, newestFirst bool) []domain.Bet {
	var rows []memBet
	for _, b := range r.st.bets {
		if keep(b.bet) {
			rows = append(rows, b)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if newestFirst {
			return rows[i].seq > rows[j].seq
		}
		return rows[i].seq < rows[j].seq
	})
	out := make([]domain.Bet, 0, len(rows))
	for _, b := range rows {
		out = append(out, copyBet(b.bet))
	}
	return out
}

type memUsers struct{ st *memState }

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.FindByID(ctx, id)
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.st.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	for _, ex := range r.st.users {
		if ex.Username == u.Username {
			return ErrConflict
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.st.users[u.ID] = *u
	return nil
}

func (r memUsers) AdjustBalance(_ context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	u, ok := r.st.users[id]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	u.Balance = u.Balance.Add(delta)
	r.st.users[id] = u
	return u.Balance, nil
}
