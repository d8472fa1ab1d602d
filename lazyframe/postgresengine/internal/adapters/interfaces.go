package adapters

import (
	"context"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

// DBAdapter runs the interpolated SQL statements of the symbol store.
// Query may be served by a replica, Exec always goes to the primary.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows is the cursor over a Query result.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult is the outcome of an Exec.
type DBResult interface {
	RowsAffected() (int64, error)
}

// readTarget picks the replica when there is one and ctx allows eventual consistency.
func readTarget[T any](ctx context.Context, primary T, replica *T) T {
	if replica != nil && lazyframe.ReadsFromReplica(ctx) {
		return *replica
	}

	return primary
}
