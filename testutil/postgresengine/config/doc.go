// Package config opens connections to the test database for SymbolStore tests.
//
// Every supported adapter (pgx.Pool, sql.DB, sqlx.DB) gets a factory that uses the pool
// sizing of the lazyframes CLI. LAZYFRAMES_TEST_DSN and LAZYFRAMES_TEST_REPLICA_DSN
// point the tests at other servers.
package config
