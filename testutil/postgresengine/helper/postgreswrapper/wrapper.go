package postgreswrapper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe/postgresengine"
	"github.com/AntonStoeckl/lazyframes-go/testutil/postgresengine/config"
	"github.com/AntonStoeckl/lazyframes-go/testutil/postgresengine/helper"
)

// Adapter types selectable with the ADAPTER_TYPE environment variable.
const (
	TypePGXPool    = "pgx.pool"
	TypePGXReplica = "pgx.replica"
	TypeSQLDB      = "sql.db"
	TypeSQLReplica = "sql.replica"
	TypeSQLXDB     = "sqlx.db"
)

const envAdapterType = "ADAPTER_TYPE"

// Wrapper gives tests a SymbolStore plus raw access to the primary it writes to.
type Wrapper interface {
	GetSymbolStore() postgresengine.SymbolStore
	AdapterType() string
	Close()
}

type countFunc func(ctx context.Context, query string, args ...any) (int, error)

type storeWrapper struct {
	adapterType string
	ss          postgresengine.SymbolStore
	count       countFunc
	closers     []func()
}

func (w *storeWrapper) GetSymbolStore() postgresengine.SymbolStore {
	return w.ss
}

func (w *storeWrapper) AdapterType() string {
	return w.adapterType
}

func (w *storeWrapper) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}

// CreateWrapperWithTestConfig creates the wrapper selected by ADAPTER_TYPE (pgx.pool if unset)
// with the schema in place. The test is skipped when the test database is not reachable.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	adapterType := strings.ToLower(os.Getenv(envAdapterType))
	if adapterType == "" {
		adapterType = TypePGXPool
	}

	return CreateWrapper(t, adapterType, options...)
}

// CreateWrapper creates a wrapper for the given adapter type with the schema in place.
func CreateWrapper(t testing.TB, adapterType string, options ...postgresengine.Option) Wrapper {
	helper.SkipIfDatabaseUnavailable(t)

	w := &storeWrapper{adapterType: adapterType}
	var err error

	switch adapterType {
	case TypePGXPool, TypePGXReplica:
		primary := newPool(t, config.PostgresPGXPoolSingleConfig())
		w.closers = append(w.closers, primary.Close)
		w.count = countWithPGX(primary)

		if adapterType == TypePGXPool {
			w.ss, err = postgresengine.NewSymbolStoreFromPGXPool(primary, options...)
			break
		}

		replica := newPool(t, config.PostgresPGXPoolReplicaConfig())
		w.closers = append(w.closers, replica.Close)
		w.ss, err = postgresengine.NewSymbolStoreFromPGXPoolAndReplica(primary, replica, options...)

	case TypeSQLDB, TypeSQLReplica:
		primary := config.PostgresSQLDBSingleConfig()
		w.closers = append(w.closers, func() { _ = primary.Close() })
		w.count = func(ctx context.Context, query string, args ...any) (cnt int, err error) {
			err = primary.QueryRowContext(ctx, query, args...).Scan(&cnt)
			return cnt, err
		}

		if adapterType == TypeSQLDB {
			w.ss, err = postgresengine.NewSymbolStoreFromSQLDB(primary, options...)
			break
		}

		replica := config.PostgresSQLDBReplicaConfig()
		w.closers = append(w.closers, func() { _ = replica.Close() })
		w.ss, err = postgresengine.NewSymbolStoreFromSQLDBAndReplica(primary, replica, options...)

	case TypeSQLXDB:
		db := config.PostgresSQLXSingleConfig()
		w.closers = append(w.closers, func() { _ = db.Close() })
		w.count = func(ctx context.Context, query string, args ...any) (cnt int, err error) {
			err = db.GetContext(ctx, &cnt, query, args...)
			return cnt, err
		}
		w.ss, err = postgresengine.NewSymbolStoreFromSQLX(db, options...)

	default:
		panic(fmt.Sprintf("unsupported adapter type: %s", adapterType))
	}

	if err != nil {
		w.Close()
		require.NoError(t, err, "error creating symbol store")
	}

	require.NoError(t, w.ss.CreateSchema(context.Background()), "error creating schema in test setup")

	return w
}

func newPool(t testing.TB, poolConfig *pgxpool.Config) *pgxpool.Pool {
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	require.NoError(t, err, "error connecting to DB pool in test setup")

	return pool
}

func countWithPGX(pool *pgxpool.Pool) countFunc {
	return func(ctx context.Context, query string, args ...any) (cnt int, err error) {
		err = pool.QueryRow(ctx, query, args...).Scan(&cnt)
		return cnt, err
	}
}

// CleanUp deletes the given symbols and fails the test on error.
func CleanUp(t testing.TB, wrapper Wrapper, symbols ...string) {
	for _, symbol := range symbols {
		_, err := wrapper.GetSymbolStore().DeleteSymbol(context.Background(), symbol)
		assert.NoError(t, err, "error cleaning up symbol %q", symbol)
	}
}

// CountStoredRows counts the rows of all versions of symbol directly in the rows table.
func CountStoredRows(t testing.TB, wrapper Wrapper, symbol string) int {
	w, ok := wrapper.(*storeWrapper)
	if !ok {
		panic(fmt.Sprintf("unsupported wrapper type: %T", wrapper))
	}

	cnt, err := w.count(context.Background(), "SELECT count(*) FROM symbol_rows WHERE symbol = $1", symbol)
	assert.NoError(t, err, "error counting stored rows")

	return cnt
}
