package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

var nonIdentifierChars = regexp.MustCompile(`[^a-z0-9_]+`)

// quoteTable quotes a table name, which may be schema-qualified ("app.rows"), the way goqu's
// From/Insert/Delete resolve it.
func quoteTable(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// indexName derives an unqualified, quoted index name from a table name and a suffix.
// Postgres creates an index in the schema of its table, so the schema part only disambiguates.
func indexName(table, suffix string) string {
	name := nonIdentifierChars.ReplaceAllString(strings.ToLower("idx_"+table+"_"+suffix), "_")

	return pgx.Identifier{name}.Sanitize()
}

// schemaStatements returns the DDL for the configured table names. Every statement is idempotent.
func (ss SymbolStore) schemaStatements() []string {
	versions := quoteTable(ss.versionsTableName)
	rows := quoteTable(ss.rowsTableName)

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	%[2]s text NOT NULL,
	%[3]s bigint NOT NULL,
	%[4]s text NOT NULL DEFAULT '',
	%[5]s text[] NOT NULL DEFAULT '{}',
	%[6]s jsonb NOT NULL DEFAULT '{}',
	%[7]s timestamptz NOT NULL DEFAULT clock_timestamp(),
	PRIMARY KEY (%[2]s, %[3]s)
)`,
			versions, colSymbol, colVersion, colIndexName, colColumnNames, colMetadata, colWrittenAt),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s ON %[2]s (%[3]s, %[4]s)`,
			indexName(ss.versionsTableName, colWrittenAt), versions, colSymbol, colWrittenAt),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	%[3]s text NOT NULL,
	%[4]s bigint NOT NULL,
	%[5]s bigint NOT NULL,
	%[6]s timestamptz NULL,
	%[7]s jsonb NOT NULL,
	PRIMARY KEY (%[3]s, %[4]s, %[5]s),
	FOREIGN KEY (%[3]s, %[4]s) REFERENCES %[2]s (%[3]s, %[4]s) ON DELETE CASCADE
)`,
			rows, versions, colSymbol, colVersion, colPos, colIdx, colData),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s ON %[2]s (%[3]s, %[4]s, %[5]s)`,
			indexName(ss.rowsTableName, colIdx), rows, colSymbol, colVersion, colIdx),
	}
}

// CreateSchema creates the versions and rows tables with their indexes if they do not exist yet.
func (ss SymbolStore) CreateSchema(ctx context.Context) error {
	ctx = lazyframe.WithStrongConsistency(ctx)

	for _, statement := range ss.schemaStatements() {
		if _, err := ss.executeExec(ctx, statement, logActionCreateSchema); err != nil {
			return errors.Join(ErrCreatingSchemaFailed, err)
		}
	}

	ss.logOperation(ctx, logMsgSchemaCreated)

	return nil
}
