package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
)

//go:embed schema.sql
var schemaSQL string

// Postgres implementa Store sobre database/sql + lib/pq.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna o store Postgres
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Migrate cria as tabelas e índices caso não existam
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// WithinTx abre uma transação, executa fn e faz commit; qualquer erro
// (inclusive no commit) resulta em rollback.
func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return mapErr(tx.Commit())
}

type pgTx struct{ tx *sql.Tx }

func (t *pgTx) Games() GameRepo { return pgGames{t.tx} }
func (t *pgTx) Bets() BetRepo   { return pgBets{t.tx} }
func (t *pgTx) Users() UserRepo { return pgUsers{t.tx} }

// mapErr traduz erros do driver para os erros da fronteira.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

const gameColumns = `id, external_id, home_team, away_team, commence_time, status,
	home_moneyline, away_moneyline, home_spread, home_spread_odds, away_spread, away_spread_odds,
	total_points, over_odds, under_odds, home_score, away_score`

func scanGame(s rowScanner) (domain.Game, error) {
	var g domain.Game
	var home, away sql.NullInt64
	err := s.Scan(&g.ID, &g.ExternalID, &g.HomeTeam, &g.AwayTeam, &g.CommenceTime, &g.Status,
		&g.HomeMoneyline, &g.AwayMoneyline, &g.HomeSpread, &g.HomeSpreadOdds, &g.AwaySpread, &g.AwaySpreadOdds,
		&g.TotalPoints, &g.OverOdds, &g.UnderOdds, &home, &away)
	if err != nil {
		return g, err
	}
	g.CommenceTime = g.CommenceTime.UTC()
	g.HomeScore = intPtr(home)
	g.AwayScore = intPtr(away)
	return g, nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

type pgGames struct{ tx *sql.Tx }

func (r pgGames) FindByID(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	g, err := scanGame(r.tx.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return &g, nil
}

// FindByExternalID usa FOR UPDATE para que lotes concorrentes do mesmo jogo
// sejam aplicados um após o outro.
func (r pgGames) FindByExternalID(ctx context.Context, externalID string) (*domain.Game, error) {
	g, err := scanGame(r.tx.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE external_id=$1 FOR UPDATE`, externalID))
	if err != nil {
		return nil, mapErr(err)
	}
	return &g, nil
}

func (r pgGames) FindByStatus(ctx context.Context, status domain.GameStatus) ([]domain.Game, error) {
	return r.query(ctx, `SELECT `+gameColumns+` FROM games WHERE status=$1 ORDER BY commence_time, external_id`, status)
}

func (r pgGames) FindWithPendingBets(ctx context.Context, status domain.GameStatus) ([]domain.Game, error) {
	return r.query(ctx, `
		SELECT `+gameColumns+` FROM games g
		WHERE g.status=$1
		  AND EXISTS (SELECT 1 FROM bets b WHERE b.game_id = g.id AND b.status = 'pending')
		ORDER BY commence_time, external_id`, status)
}

func (r pgGames) FindUnfinished(ctx context.Context) ([]domain.Game, error) {
	return r.query(ctx, `SELECT `+gameColumns+` FROM games WHERE status <> 'completed' ORDER BY commence_time, external_id`)
}

func (r pgGames) query(ctx context.Context, q string, args ...any) ([]domain.Game, error) {
	rows, err := r.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r pgGames) Insert(ctx context.Context, g *domain.Game) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO games (`+gameColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		g.ID, g.ExternalID, g.HomeTeam, g.AwayTeam, g.CommenceTime, g.Status,
		g.HomeMoneyline, g.AwayMoneyline, g.HomeSpread, g.HomeSpreadOdds, g.AwaySpread, g.AwaySpreadOdds,
		g.TotalPoints, g.OverOdds, g.UnderOdds, nullInt(g.HomeScore), nullInt(g.AwayScore),
	)
	return mapErr(err)
}

// Update grava todas as colunas num único comando.
func (r pgGames) Update(ctx context.Context, g *domain.Game) error {
	res, err := r.tx.ExecContext(ctx, `
		UPDATE games SET
		  home_team=$2, away_team=$3, commence_time=$4, status=$5,
		  home_moneyline=$6, away_moneyline=$7, home_spread=$8, home_spread_odds=$9,
		  away_spread=$10, away_spread_odds=$11, total_points=$12, over_odds=$13, under_odds=$14,
		  home_score=$15, away_score=$16, updated_at=NOW()
		WHERE id=$1`,
		g.ID, g.HomeTeam, g.AwayTeam, g.CommenceTime, g.Status,
		g.HomeMoneyline, g.AwayMoneyline, g.HomeSpread, g.HomeSpreadOdds,
		g.AwaySpread, g.AwaySpreadOdds, g.TotalPoints, g.OverOdds, g.UnderOdds,
		nullInt(g.HomeScore), nullInt(g.AwayScore),
	)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const betColumns = `id, user_id, game_id, bet_type, selection, odds, stake, potential_payout, status, created_at, settled_at`

func scanBet(s rowScanner) (domain.Bet, error) {
	var b domain.Bet
	var settled sql.NullTime
	err := s.Scan(&b.ID, &b.UserID, &b.GameID, &b.BetType, &b.Selection, &b.Odds, &b.Stake,
		&b.PotentialPayout, &b.Status, &b.CreatedAt, &settled)
	if err != nil {
		return b, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	if settled.Valid {
		t := settled.Time.UTC()
		b.SettledAt = &t
	}
	return b, nil
}

type pgBets struct{ tx *sql.Tx }

func (r pgBets) Insert(ctx context.Context, b *domain.Bet) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO bets (`+betColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		b.ID, b.UserID, b.GameID, b.BetType, b.Selection, b.Odds, b.Stake,
		b.PotentialPayout, b.Status, b.CreatedAt, b.SettledAt,
	)
	return mapErr(err)
}

func (r pgBets) FindPendingByGame(ctx context.Context, gameID uuid.UUID) ([]domain.Bet, error) {
	return r.query(ctx, `SELECT `+betColumns+` FROM bets WHERE game_id=$1 AND status='pending' ORDER BY created_at, id`, gameID)
}

func (r pgBets) FindPendingByUser(ctx context.Context, userID uuid.UUID) ([]domain.Bet, error) {
	return r.query(ctx, `SELECT `+betColumns+` FROM bets WHERE user_id=$1 AND status='pending' ORDER BY created_at, id`, userID)
}

func (r pgBets) FindHistoryByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Bet, error) {
	return r.query(ctx, `SELECT `+betColumns+` FROM bets WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
}

// MarkSettled é um compare-and-set: só afeta a linha se status ainda for 'pending'.
func (r pgBets) MarkSettled(ctx context.Context, betID uuid.UUID, status domain.BetStatus, at time.Time) (bool, error) {
	res, err := r.tx.ExecContext(ctx,
		`UPDATE bets SET status=$1, settled_at=$2 WHERE id=$3 AND status='pending'`,
		status, at, betID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r pgBets) query(ctx context.Context, q string, args ...any) ([]domain.Bet, error) {
	rows, err := r.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type pgUsers struct{ tx *sql.Tx }

func (r pgUsers) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.one(ctx, `SELECT id, username, balance FROM users WHERE id=$1`, id)
}

// FindByIDForUpdate garante lock pessimista na linha do usuário
func (r pgUsers) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.one(ctx, `SELECT id, username, balance FROM users WHERE id=$1 FOR UPDATE`, id)
}

func (r pgUsers) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.one(ctx, `SELECT id, username, balance FROM users WHERE username=$1`, username)
}

func (r pgUsers) one(ctx context.Context, q string, arg any) (*domain.User, error) {
	var u domain.User
	if err := r.tx.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Username, &u.Balance); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r pgUsers) Create(ctx context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := r.tx.ExecContext(ctx, `INSERT INTO users (id, username, balance) VALUES ($1,$2,$3)`, u.ID, u.Username, u.Balance)
	return mapErr(err)
}

func (r pgUsers) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := r.tx.QueryRowContext(ctx,
		`UPDATE users SET balance = balance + $1 WHERE id=$2 RETURNING balance`, delta, id).Scan(&bal)
	if err != nil {
		return decimal.Zero, mapErr(err)
	}
	return bal, nil
}
