// Package postgreswrapper abstracts over the pgx.Pool, sql.DB and sqlx.DB adapters of the
// SymbolStore, selected by the ADAPTER_TYPE environment variable, so the same integration tests
// run against each of them.
package postgreswrapper
