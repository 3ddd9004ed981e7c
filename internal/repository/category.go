package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopee/catalog/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Write modes for Save
const (
	ModeReplace = "replace"
	ModeAppend  = "append"
	ModeFail    = "fail"
)

var ErrTableExists = errors.New("table already exists")

// Beginner is satisfied by *pgxpool.Pool and *pgx.Conn
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type CategoryRepository interface {
	Save(ctx context.Context, table, mode string, records []domain.FlatCategoryRecord) (int64, error)
}

type categoryRepository struct {
	db Beginner
}

func NewCategoryRepository(db Beginner) CategoryRepository {
	return &categoryRepository{
		db: db,
	}
}

// Save writes records into table inside one transaction. replace drops and
// recreates the table, append creates it when missing, fail refuses to
// touch an existing table. On any error the previous table is untouched.
func (r *categoryRepository) Save(ctx context.Context, table, mode string, records []domain.FlatCategoryRecord) (int64, error) {
	ident := tableIdentifier(table)
	if len(ident) == 0 {
		return 0, fmt.Errorf("invalid table name %q", table)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	switch mode {
	case ModeReplace:
		if _, err := tx.Exec(ctx, dropTableSQL(ident)); err != nil {
			return 0, fmt.Errorf("failed to drop table %s: %w", table, err)
		}
		if _, err := tx.Exec(ctx, createTableSQL(ident, false)); err != nil {
			return 0, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	case ModeAppend:
		if _, err := tx.Exec(ctx, createTableSQL(ident, true)); err != nil {
			return 0, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	case ModeFail:
		if _, err := tx.Exec(ctx, createTableSQL(ident, false)); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "42P07" {
				return 0, fmt.Errorf("%w: %s", ErrTableExists, table)
			}
			return 0, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	default:
		return 0, fmt.Errorf("unknown write mode %q", mode)
	}

	rows := make([][]any, 0, len(records))
	for _, record := range records {
		values := record.Values()
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		rows = append(rows, row)
	}

	count, err := tx.CopyFrom(ctx, ident, domain.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy categories into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return count, nil
}

// tableIdentifier splits an optionally schema-qualified name
func tableIdentifier(table string) pgx.Identifier {
	parts := strings.Split(strings.TrimSpace(table), ".")
	for _, p := range parts {
		if p == "" {
			return nil
		}
	}
	return pgx.Identifier(parts)
}

func dropTableSQL(ident pgx.Identifier) string {
	return "DROP TABLE IF EXISTS " + ident.Sanitize()
}

func createTableSQL(ident pgx.Identifier, ifNotExists bool) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(ident.Sanitize())
	b.WriteString(" (")
	for i, column := range domain.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{column}.Sanitize())
		b.WriteString(" TEXT")
	}
	b.WriteString(")")
	return b.String()
}
