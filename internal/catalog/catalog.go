// =============================================================================
// Purchase Order Consolidator - Reference Catalog
// =============================================================================
//
// The reference catalog is the list of valid item numbers (with descriptions)
// uploads are reconciled against. Entries are scoped to a requester; an empty
// scope selects every entry.
//
// BACKENDS:
//   - postgres: pgx pool, paged SELECTs, bulk replace with COPY
//   - sqlite:   embedded database/sql store (modernc.org/sqlite)
//   - file:     a CSV/XLSX reference sheet read on every request
//
// Readers expose the catalog as a lazy iter.Seq2. Database backends fetch it
// page by page through Paged; ranging over the sequence again starts a fresh
// fetch from the first page.
//
// =============================================================================

package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"regexp"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/config"
	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
)

// ErrReadOnly is returned by Replace on backends that cannot be written.
var ErrReadOnly = errors.New("catalog backend is read-only")

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Reader yields the catalog entries of a scope.
type Reader interface {
	Entries(ctx context.Context, scope string) iter.Seq2[types.CatalogEntry, error]
}

// Writer replaces the catalog of a scope.
type Writer interface {
	Replace(ctx context.Context, scope string, entries []types.CatalogEntry) (int, error)
}

// Store is a catalog backend opened from configuration.
type Store interface {
	Reader
	Writer
	Close() error
}

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.CatalogConfig, csv config.CSVSettings) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN, cfg.Table, cfg.PageSize)
	case "sqlite":
		return OpenSQLite(ctx, cfg.DSN, cfg.Table, cfg.PageSize)
	case "file":
		return NewFileCatalog(cfg.ReferenceFile, csv), nil
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
}

// =============================================================================
// PAGINATION
// =============================================================================

// PageFunc fetches at most limit entries of scope starting at offset.
type PageFunc func(ctx context.Context, scope string, offset, limit int) ([]types.CatalogEntry, error)

// Paged turns a PageFunc into a lazy sequence. Pages are requested only as
// the consumer advances, and fetching stops after the first short page. A
// fetch error is yielded once and ends the sequence.
func Paged(ctx context.Context, scope string, pageSize int, fetch PageFunc) iter.Seq2[types.CatalogEntry, error] {
	if pageSize < 1 {
		pageSize = config.DefaultPageSize
	}
	return func(yield func(types.CatalogEntry, error) bool) {
		for offset := 0; ; offset += pageSize {
			page, err := fetch(ctx, scope, offset, pageSize)
			if err != nil {
				yield(types.CatalogEntry{}, fmt.Errorf("failed to fetch catalog page at offset %d: %w", offset, err))
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
		}
	}
}

// Collect drains seq into a slice. On error the entries read so far are
// discarded.
func Collect(seq iter.Seq2[types.CatalogEntry, error]) ([]types.CatalogEntry, error) {
	var out []types.CatalogEntry
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func checkTable(table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid catalog table name %q", table)
	}
	return nil
}
