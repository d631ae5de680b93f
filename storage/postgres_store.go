package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"parking-finder/models"
	"parking-finder/utils"
)

const spotsTable = "parking_spots"

var spotColumns = []string{"identity_key", "area", "address", "kind", "rent", "access", "interest"}

// PostgresStore mirrors the snapshot into a PostgreSQL table. It is write
// only; the JSON state file stays the source of the previous snapshot.
type PostgresStore struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	logger *utils.Logger
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger,
	}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS parking_spots (
			id           SERIAL PRIMARY KEY,
			identity_key TEXT        UNIQUE NOT NULL,
			area         TEXT        NOT NULL,
			address      TEXT        NOT NULL,
			kind         TEXT        NOT NULL,
			rent         TEXT        NOT NULL,
			access       TEXT        NOT NULL,
			interest     TEXT        NOT NULL,
			seen_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_parking_spots_area ON parking_spots(area);
	`)
	return err
}

// Save replaces the table content with snapshot in a single transaction.
func (ps *PostgresStore) Save(ctx context.Context, snapshot models.Snapshot) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	del, args, err := ps.sb.Delete(spotsTable).ToSql()
	if err != nil {
		return fmt.Errorf("postgres: build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, del, args...); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(snapshot); i += batchSize {
		end := i + batchSize
		if end > len(snapshot) {
			end = len(snapshot)
		}
		query, args, err := ps.insertQuery(snapshot[i:end])
		if err != nil {
			return fmt.Errorf("postgres: build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}

	ps.logger.Info("saved %d parking spots to postgres", len(snapshot))
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func (ps *PostgresStore) insertQuery(batch models.Snapshot) (string, []interface{}, error) {
	ins := ps.sb.Insert(spotsTable).Columns(spotColumns...)
	for _, p := range batch {
		ins = ins.Values(p.Key(), p.Area(), p.Address(), p.Kind(), p.Rent(), p.Access(), p.Interest())
	}
	return ins.Suffix("ON CONFLICT (identity_key) DO NOTHING").ToSql()
}
