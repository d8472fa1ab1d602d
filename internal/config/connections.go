package config

import (
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	connMaxLifetime   = time.Hour
	connMaxIdleTime   = time.Minute * 5
	healthCheckPeriod = time.Minute
	connectTimeout    = time.Second * 5
)

// PGXPoolConfig parses dsn and applies the pool sizes of c.
func (c Config) PGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = c.MaxConns
	poolConfig.MinConns = c.MinConns
	poolConfig.MaxConnLifetime = connMaxLifetime
	poolConfig.MaxConnIdleTime = connMaxIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	return poolConfig, nil
}

// OpenSQLDB opens a lib/pq backed sql.DB for dsn with the pool sizes of c.
// Like sql.Open it does not connect yet.
func (c Config) OpenSQLDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	c.applyPoolSizes(db)

	return db, nil
}

// OpenSQLX opens a lib/pq backed sqlx.DB for dsn with the pool sizes of c.
func (c Config) OpenSQLX(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	c.applyPoolSizes(db.DB)

	return db, nil
}

func (c Config) applyPoolSizes(db *sql.DB) {
	db.SetMaxOpenConns(int(c.MaxConns))
	db.SetMaxIdleConns(int(c.MinConns))
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)
}
