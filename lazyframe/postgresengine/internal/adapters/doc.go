// Package adapters hides the PostgreSQL client library behind DBAdapter.
//
// Supported handles are pgxpool.Pool, sql.DB and sqlx.DB. Both adapter kinds can be given a
// replica, which then serves Query calls whose context carries lazyframe.EventualConsistency.
package adapters
