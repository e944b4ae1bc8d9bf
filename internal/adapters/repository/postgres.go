package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver

	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/pkg/logger"
	"github.com/plateduel/plateduel/pkg/metrics"
)

// ratingColumns maps a dimension to its column. Column names only ever come
// from this table, never from request input.
var ratingColumns = map[category.Dimension]string{
	category.Global:     "elo_global",
	category.Value:      "elo_value",
	category.Aesthetics: "elo_aesthetics",
	category.Speed:      "elo_speed",
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS entities (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	elo_global     DOUBLE PRECISION NOT NULL DEFAULT 1500,
	elo_value      DOUBLE PRECISION NOT NULL DEFAULT 1500,
	elo_aesthetics DOUBLE PRECISION NOT NULL DEFAULT 1500,
	elo_speed      DOUBLE PRECISION NOT NULL DEFAULT 1500,
	active         BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS votes (
	id                    UUID PRIMARY KEY,
	winner_id             TEXT NOT NULL REFERENCES entities(id),
	loser_id              TEXT NOT NULL REFERENCES entities(id),
	category              TEXT NOT NULL,
	delta_global_winner   DOUBLE PRECISION NOT NULL,
	delta_global_loser    DOUBLE PRECISION NOT NULL,
	delta_category_winner DOUBLE PRECISION NOT NULL,
	delta_category_loser  DOUBLE PRECISION NOT NULL,
	undone                BOOLEAN NOT NULL DEFAULT FALSE,
	user_id               TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS votes_user_created_idx ON votes (user_id, created_at, id);
`

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresStore implements Store on PostgreSQL.
//
// InTx maps the core's atomic unit onto a database transaction. Inside a
// unit, ReadRatings takes a row lock (SELECT ... FOR UPDATE) and AddDeltas
// writes SET col = col + $n, so two units touching the same entity
// serialize at the row instead of overwriting each other's deltas.
type PostgresStore struct {
	db  *sql.DB
	log logger.Logger

	pgSession // non-transactional view over db
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	s := &PostgresStore{db: db, log: log}
	s.pgSession = pgSession{q: db, locking: false}
	return s
}

// OpenPostgres opens a connection pool and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string, log logger.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db, log), nil
}

// EnsureSchema creates the entities and votes tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Seed inserts entities that do not exist yet. Existing rows are left
// untouched so reseeding a live database never resets ratings.
func (s *PostgresStore) Seed(ctx context.Context, entities []model.Entity) error {
	const q = `
		INSERT INTO entities (id, name, elo_global, elo_value, elo_aesthetics, elo_speed)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`
	for _, e := range entities {
		if _, err := s.db.ExecContext(ctx, q, e.ID, e.Name,
			e.Ratings.Global, e.Ratings.Value, e.Ratings.Aesthetics, e.Ratings.Speed); err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("seed entity %s: %w", e.ID, err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InTx implements Store.InTx on a database transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback is a no-op after a successful commit.
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Warn(ctx, "failed to rollback transaction", logger.Error(err))
		}
	}()

	if err := fn(ctx, &pgSession{q: tx, locking: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("commit tx: %w", err)
	}

	metrics.RecordStoreTxLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// pgSession implements Tx over either the pool or an open transaction.
type pgSession struct {
	q       querier
	locking bool // take row locks on reads (transactional view only)
}

func (p *pgSession) ReadRatings(ctx context.Context, entityID string) (model.Ratings, error) {
	query := `SELECT elo_global, elo_value, elo_aesthetics, elo_speed FROM entities WHERE id = $1`
	if p.locking {
		query += ` FOR UPDATE`
	}

	var r model.Ratings
	err := p.q.QueryRowContext(ctx, query, entityID).Scan(&r.Global, &r.Value, &r.Aesthetics, &r.Speed)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ratings{}, fmt.Errorf("read ratings %q: %w", entityID, ErrEntityNotFound)
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.Ratings{}, fmt.Errorf("read ratings %q: %w", entityID, err)
	}
	return r, nil
}

func (p *pgSession) WriteRatings(ctx context.Context, entityID string, r model.Ratings) error {
	res, err := p.q.ExecContext(ctx,
		`UPDATE entities SET elo_global = $2, elo_value = $3, elo_aesthetics = $4, elo_speed = $5 WHERE id = $1`,
		entityID, r.Global, r.Value, r.Aesthetics, r.Speed)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("write ratings %q: %w", entityID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("write ratings %q: %w", entityID, ErrEntityNotFound)
	}
	return nil
}

func (p *pgSession) AddDeltas(ctx context.Context, entityID string, cat category.Dimension, deltaGlobal, deltaCategory float64) (model.Ratings, error) {
	col, ok := ratingColumns[cat]
	if !ok {
		return model.Ratings{}, fmt.Errorf("add deltas %q: %w", entityID, category.ErrUnknownCategory)
	}

	query := fmt.Sprintf(
		`UPDATE entities SET elo_global = elo_global + $2, %s = %s + $3 WHERE id = $1
		 RETURNING elo_global, elo_value, elo_aesthetics, elo_speed`, col, col)

	var r model.Ratings
	err := p.q.QueryRowContext(ctx, query, entityID, deltaGlobal, deltaCategory).
		Scan(&r.Global, &r.Value, &r.Aesthetics, &r.Speed)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ratings{}, fmt.Errorf("add deltas %q: %w", entityID, ErrEntityNotFound)
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.Ratings{}, fmt.Errorf("add deltas %q: %w", entityID, err)
	}
	return r, nil
}

func (p *pgSession) ListEligible(ctx context.Context) ([]string, error) {
	rows, err := p.q.QueryContext(ctx, `SELECT id FROM entities WHERE active ORDER BY id`)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list eligible: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list eligible: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list eligible: %w", err)
	}
	return ids, nil
}

func (p *pgSession) ListEntities(ctx context.Context) ([]model.Entity, error) {
	rows, err := p.q.QueryContext(ctx,
		`SELECT id, name, elo_global, elo_value, elo_aesthetics, elo_speed FROM entities WHERE active ORDER BY id`)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []model.Entity
	for rows.Next() {
		var e model.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.Ratings.Global, &e.Ratings.Value, &e.Ratings.Aesthetics, &e.Ratings.Speed); err != nil {
			return nil, fmt.Errorf("list entities: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return out, nil
}

func (p *pgSession) Append(ctx context.Context, rec model.VoteRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := p.q.ExecContext(ctx,
		`INSERT INTO votes (id, winner_id, loser_id, category,
			delta_global_winner, delta_global_loser, delta_category_winner, delta_category_loser,
			undone, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $10)`,
		rec.ID, rec.WinnerID, rec.LoserID, rec.Category.String(),
		rec.DeltaGlobalWinner, rec.DeltaGlobalLoser, rec.DeltaCategoryWinner, rec.DeltaCategoryLoser,
		rec.UserID, rec.CreatedAt)
	if err != nil {
		metrics.RecordStoreError()
		return "", fmt.Errorf("append vote: %w", err)
	}
	return rec.ID, nil
}

func (p *pgSession) Get(ctx context.Context, voteID string) (model.VoteRecord, error) {
	row := p.q.QueryRowContext(ctx,
		`SELECT id, winner_id, loser_id, category,
			delta_global_winner, delta_global_loser, delta_category_winner, delta_category_loser,
			undone, user_id, created_at
		 FROM votes WHERE id = $1`, voteID)

	rec, err := scanVote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VoteRecord{}, fmt.Errorf("get vote %q: %w", voteID, ErrVoteNotFound)
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.VoteRecord{}, fmt.Errorf("get vote %q: %w", voteID, err)
	}
	return rec, nil
}

// MarkUndone flips the undone flag. The conditional UPDATE serializes
// concurrent undos of the same vote: only one caller affects a row.
func (p *pgSession) MarkUndone(ctx context.Context, voteID string) error {
	res, err := p.q.ExecContext(ctx,
		`UPDATE votes SET undone = TRUE WHERE id = $1 AND undone = FALSE`, voteID)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("mark undone %q: %w", voteID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var undone bool
	err = p.q.QueryRowContext(ctx, `SELECT undone FROM votes WHERE id = $1`, voteID).Scan(&undone)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("mark undone %q: %w", voteID, ErrVoteNotFound)
	}
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("mark undone %q: %w", voteID, err)
	}
	return fmt.Errorf("mark undone %q: %w", voteID, ErrAlreadyUndone)
}

func (p *pgSession) ListByUser(ctx context.Context, userID string, cat *category.Dimension) ([]model.VoteRecord, error) {
	query := `SELECT id, winner_id, loser_id, category,
			delta_global_winner, delta_global_loser, delta_category_winner, delta_category_loser,
			undone, user_id, created_at
		 FROM votes WHERE user_id = $1 AND undone = FALSE`
	args := []any{userID}
	if cat != nil {
		query += ` AND category = $2`
		args = append(args, cat.String())
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := p.q.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list votes for %q: %w", userID, err)
	}
	defer rows.Close()

	var out []model.VoteRecord
	for rows.Next() {
		rec, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("list votes for %q: %w", userID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list votes for %q: %w", userID, err)
	}
	return out, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVote(row rowScanner) (model.VoteRecord, error) {
	var rec model.VoteRecord
	var cat string
	err := row.Scan(&rec.ID, &rec.WinnerID, &rec.LoserID, &cat,
		&rec.DeltaGlobalWinner, &rec.DeltaGlobalLoser, &rec.DeltaCategoryWinner, &rec.DeltaCategoryLoser,
		&rec.Undone, &rec.UserID, &rec.CreatedAt)
	if err != nil {
		return model.VoteRecord{}, err
	}
	d, err := category.Parse(cat)
	if err != nil {
		return model.VoteRecord{}, err
	}
	rec.Category = d
	return rec, nil
}
