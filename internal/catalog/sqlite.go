package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the catalog in an embedded SQLite database.
type SQLiteStore struct {
	db       *sql.DB
	table    string
	pageSize int
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path, table string, pageSize int) (*SQLiteStore, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, table: table, pageSize: pageSize}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	schema := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            scope TEXT NOT NULL,
            item_number TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_scope_idx ON %s (scope, id);`, s.table, s.table),
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialise catalog table: %w", err)
		}
	}
	return nil
}

// Entries pages through the scope's entries in insertion order.
func (s *SQLiteStore) Entries(ctx context.Context, scope string) iter.Seq2[types.CatalogEntry, error] {
	return Paged(ctx, scope, s.pageSize, s.page)
}

func (s *SQLiteStore) page(ctx context.Context, scope string, offset, limit int) ([]types.CatalogEntry, error) {
	query := fmt.Sprintf(`SELECT item_number, description FROM %s
        WHERE (? = '' OR scope = ?)
        ORDER BY id
        LIMIT ? OFFSET ?`, s.table)

	rows, err := s.db.QueryContext(ctx, query, scope, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.CatalogEntry
	for rows.Next() {
		var e types.CatalogEntry
		if err := rows.Scan(&e.ItemNumber, &e.Description); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Replace deletes the scope's entries and inserts entries, in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, scope string, entries []types.CatalogEntry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin catalog transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE scope = ?`, s.table), scope); err != nil {
		return 0, fmt.Errorf("failed to clear catalog scope %q: %w", scope, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (scope, item_number, description) VALUES (?, ?, ?)`, s.table))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, scope, e.ItemNumber, e.Description); err != nil {
			return 0, fmt.Errorf("failed to insert catalog entry %q: %w", e.ItemNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit catalog: %w", err)
	}
	return len(entries), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
