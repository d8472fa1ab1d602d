package config

import (
	"context"
	"database/sql"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	appconfig "github.com/AntonStoeckl/lazyframes-go/internal/config"
)

var testPoolSizes = appconfig.Config{MaxConns: 20, MinConns: 2}

// PostgresPGXPoolSingleConfig returns a pgxpool.Config for the test database.
func PostgresPGXPoolSingleConfig() *pgxpool.Config {
	return mustPGXPoolConfig(PostgresSingleDSN())
}

// PostgresPGXPoolReplicaConfig returns a pgxpool.Config for the test replica.
func PostgresPGXPoolReplicaConfig() *pgxpool.Config {
	return mustPGXPoolConfig(PostgresReplicaDSN())
}

// PostgresSQLDBSingleConfig opens and pings a *sql.DB for the test database.
func PostgresSQLDBSingleConfig() *sql.DB {
	return mustOpenSQLDB(PostgresSingleDSN())
}

// PostgresSQLDBReplicaConfig opens and pings a *sql.DB for the test replica.
func PostgresSQLDBReplicaConfig() *sql.DB {
	return mustOpenSQLDB(PostgresReplicaDSN())
}

// PostgresSQLXSingleConfig opens and pings a *sqlx.DB for the test database.
func PostgresSQLXSingleConfig() *sqlx.DB {
	db, err := testPoolSizes.OpenSQLX(PostgresSingleDSN())
	if err != nil {
		log.Fatal("Failed to open database connection, error: ", err)
	}

	mustPing(db.DB)

	return db
}

func mustPGXPoolConfig(dsn string) *pgxpool.Config {
	poolConfig, err := testPoolSizes.PGXPoolConfig(dsn)
	if err != nil {
		log.Fatal("Failed to create a config, error: ", err)
	}

	return poolConfig
}

func mustOpenSQLDB(dsn string) *sql.DB {
	db, err := testPoolSizes.OpenSQLDB(dsn)
	if err != nil {
		log.Fatal("Failed to open database connection, error: ", err)
	}

	mustPing(db)

	return db
}

func mustPing(db *sql.DB) {
	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("Failed to ping database, error: ", err)
	}
}
