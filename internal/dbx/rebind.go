package dbx

import (
	"context"
	"database/sql"
	"strings"
)

// Rebind adapts db for dialect d. Repositories write PostgreSQL style $N
// placeholders; for SQLite they are rewritten to the equivalent ?N form.
func Rebind(db DBTX, d Dialect) DBTX {
	if d == SQLite {
		return questionRebinder{db: db}
	}
	return db
}

type questionRebinder struct {
	db DBTX
}

func (r questionRebinder) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, DollarToQuestion(query), args...)
}

func (r questionRebinder) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, DollarToQuestion(query), args...)
}

func (r questionRebinder) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, DollarToQuestion(query), args...)
}

// DollarToQuestion rewrites $N placeholders outside of single-quoted
// literals into ?N.
func DollarToQuestion(query string) string {
	if !strings.Contains(query, "$") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))

	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
		case c == '$' && !inQuote && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9':
			c = '?'
		}
		b.WriteByte(c)
	}
	return b.String()
}
