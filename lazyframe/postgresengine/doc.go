// Package postgresengine provides a PostgreSQL implementation of the lazyframe engine contract.
//
// A SymbolStore keeps every write of a symbol as a new immutable version: one row in the versions
// table (index name, column names, metadata, write time) plus one jsonb row per table row in the
// rows table. Reads compile the read-time binding and the whole operation sequence of a
// lazyframe.ReadRequest into a single SELECT, so filtering, projections, groupings and
// resamplings all run inside the database.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX), optionally with a read replica
//   - Version resolution by latest, exact version, or point in time
//   - Atomic version assignment with concurrent write detection
//   - Concurrent batch reads with per-entry errors
//   - Configurable table names, dual-logger support, and metrics
//
// Usage examples:
//
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewSymbolStoreFromPGXPool(db, postgresengine.WithLogger(slog.Default()))
//	_ = store.CreateSchema(ctx)
//
//	written, _ := store.Write(ctx, "prices", table, nil)
//
//	lf := lazyframe.Lazy(store, "prices", lazyframe.WithAsOf(lazyframe.AtVersion(written.Version)))
//	item, _ := lf.Filter(lazyframe.Col("col1").Gt(3)).Collect(ctx)
package postgresengine
