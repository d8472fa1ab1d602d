// Package helper provides test helpers for the PostgreSQL SymbolStore: fixture tables, unique
// symbol names, a database availability guard, and spies for logging and metrics.
package helper
