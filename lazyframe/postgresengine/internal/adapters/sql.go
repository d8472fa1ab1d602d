package adapters

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// sqlConn is what *sql.DB and *sqlx.DB have in common.
type sqlConn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLAdapter implements DBAdapter for database/sql compatible handles (sql.DB and sqlx.DB).
type SQLAdapter struct {
	primary sqlConn
	replica *sqlConn
}

// NewSQLAdapter creates a SQLAdapter for a sql.DB.
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{primary: db}
}

// NewSQLAdapterWithReplica creates a SQLAdapter for a sql.DB that may read from replica.
func NewSQLAdapterWithReplica(primary *sql.DB, replica *sql.DB) *SQLAdapter {
	var replicaConn sqlConn = replica

	return &SQLAdapter{primary: primary, replica: &replicaConn}
}

// NewSQLXAdapter creates a SQLAdapter for a sqlx.DB.
func NewSQLXAdapter(db *sqlx.DB) *SQLAdapter {
	return &SQLAdapter{primary: db}
}

func (a *SQLAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := readTarget(ctx, a.primary, a.replica).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (a *SQLAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	return a.primary.ExecContext(ctx, query)
}
