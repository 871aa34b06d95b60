package catalog

import (
	"context"
	"fmt"
	"iter"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxDB is the part of *pgxpool.Pool the store uses.
type pgxDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore keeps the catalog in a PostgreSQL table.
type PostgresStore struct {
	db       pgxDB
	close    func()
	table    string
	pageSize int
}

// OpenPostgres connects a pool to dsn and creates the table if needed.
func OpenPostgres(ctx context.Context, dsn, table string, pageSize int) (*PostgresStore, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}
	s := newPostgresStore(pool, table, pageSize)
	s.close = pool.Close
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(db pgxDB, table string, pageSize int) *PostgresStore {
	return &PostgresStore{db: db, table: table, pageSize: pageSize}
}

func (s *PostgresStore) init(ctx context.Context) error {
	ident := pgx.Identifier{s.table}.Sanitize()
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id BIGSERIAL PRIMARY KEY,
            scope TEXT NOT NULL,
            item_number TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`, ident),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (scope, id)`,
			pgx.Identifier{s.table + "_scope_idx"}.Sanitize(), ident),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialise catalog table: %w", err)
		}
	}
	return nil
}

// Entries pages through the scope's entries in insertion order.
func (s *PostgresStore) Entries(ctx context.Context, scope string) iter.Seq2[types.CatalogEntry, error] {
	return Paged(ctx, scope, s.pageSize, s.page)
}

func (s *PostgresStore) page(ctx context.Context, scope string, offset, limit int) ([]types.CatalogEntry, error) {
	query := fmt.Sprintf(`SELECT item_number, description FROM %s
        WHERE ($1 = '' OR scope = $1)
        ORDER BY id
        LIMIT $2 OFFSET $3`, pgx.Identifier{s.table}.Sanitize())

	rows, err := s.db.Query(ctx, query, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.CatalogEntry, error) {
		var e types.CatalogEntry
		err := row.Scan(&e.ItemNumber, &e.Description)
		return e, err
	})
}

// Replace deletes the scope's entries and bulk loads entries with COPY, in
// one transaction.
func (s *PostgresStore) Replace(ctx context.Context, scope string, entries []types.CatalogEntry) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin catalog transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	del := fmt.Sprintf(`DELETE FROM %s WHERE scope = $1`, pgx.Identifier{s.table}.Sanitize())
	if _, err := tx.Exec(ctx, del, scope); err != nil {
		return 0, fmt.Errorf("failed to clear catalog scope %q: %w", scope, err)
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{scope, e.ItemNumber, e.Description})
	}
	columns := []string{"scope", "item_number", "description"}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{s.table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy catalog entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit catalog: %w", err)
	}
	committed = true
	return int(n), nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
