package cli

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/lazyframes-go/internal/config"
	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
	"github.com/AntonStoeckl/lazyframes-go/lazyframe/postgresengine"
)

// Store is the symbol store surface the commands work with.
type Store interface {
	lazyframe.Library
	Write(ctx context.Context, symbol string, table lazyframe.Table, metadata json.RawMessage) (lazyframe.VersionedItem, error)
	CreateSchema(ctx context.Context) error
	ListSymbols(ctx context.Context) ([]string, error)
	ListVersions(ctx context.Context, symbol string) ([]postgresengine.VersionInfo, error)
	DeleteSymbol(ctx context.Context, symbol string) (int64, error)
}

// StoreFactory opens a Store for cfg. The returned close function releases its connections.
type StoreFactory func(ctx context.Context, cfg config.Config, options ...postgresengine.Option) (Store, func(), error)

// OpenPostgresStore opens a postgresengine.SymbolStore with the adapter named in cfg.
func OpenPostgresStore(ctx context.Context, cfg config.Config, options ...postgresengine.Option) (Store, func(), error) {
	options = append([]postgresengine.Option{
		postgresengine.WithVersionsTableName(cfg.VersionsTable),
		postgresengine.WithRowsTableName(cfg.RowsTable),
		postgresengine.WithBatchConcurrency(cfg.BatchConcurrency),
	}, options...)

	switch cfg.Adapter {
	case config.AdapterSQL:
		return openSQLStore(ctx, cfg, options...)

	case config.AdapterSQLX:
		db, err := cfg.OpenSQLX(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}

		return finishOpen(ctx, db.PingContext, func() { _ = db.Close() }, func() (Store, error) {
			return postgresengine.NewSymbolStoreFromSQLX(db, options...)
		})

	default:
		return openPGXStore(ctx, cfg, options...)
	}
}

func openPGXStore(ctx context.Context, cfg config.Config, options ...postgresengine.Option) (Store, func(), error) {
	primary, err := newPGXPool(ctx, cfg.DSN, cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.ReplicaDSN == "" {
		return finishOpen(ctx, primary.Ping, primary.Close, func() (Store, error) {
			return postgresengine.NewSymbolStoreFromPGXPool(primary, options...)
		})
	}

	replica, err := newPGXPool(ctx, cfg.ReplicaDSN, cfg)
	if err != nil {
		primary.Close()
		return nil, nil, err
	}

	closeBoth := func() {
		replica.Close()
		primary.Close()
	}

	ping := func(ctx context.Context) error {
		return errors.Join(primary.Ping(ctx), replica.Ping(ctx))
	}

	return finishOpen(ctx, ping, closeBoth, func() (Store, error) {
		return postgresengine.NewSymbolStoreFromPGXPoolAndReplica(primary, replica, options...)
	})
}

func openSQLStore(ctx context.Context, cfg config.Config, options ...postgresengine.Option) (Store, func(), error) {
	primary, err := cfg.OpenSQLDB(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	if cfg.ReplicaDSN == "" {
		return finishOpen(ctx, primary.PingContext, func() { _ = primary.Close() }, func() (Store, error) {
			return postgresengine.NewSymbolStoreFromSQLDB(primary, options...)
		})
	}

	replica, err := cfg.OpenSQLDB(cfg.ReplicaDSN)
	if err != nil {
		_ = primary.Close()
		return nil, nil, err
	}

	closeBoth := func() {
		_ = replica.Close()
		_ = primary.Close()
	}

	ping := func(ctx context.Context) error {
		return errors.Join(primary.PingContext(ctx), replica.PingContext(ctx))
	}

	return finishOpen(ctx, ping, closeBoth, func() (Store, error) {
		return postgresengine.NewSymbolStoreFromSQLDBAndReplica(primary, replica, options...)
	})
}

func newPGXPool(ctx context.Context, dsn string, cfg config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := cfg.PGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	return pgxpool.NewWithConfig(ctx, poolConfig)
}

func finishOpen(
	ctx context.Context,
	ping func(context.Context) error,
	closeFn func(),
	build func() (Store, error),
) (Store, func(), error) {

	if err := ping(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}

	store, err := build()
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return store, closeFn, nil
}
