package helper

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
	"github.com/AntonStoeckl/lazyframes-go/testutil/postgresengine/config"
)

// FixtureIndexStart is the first index value of all fixture tables.
var FixtureIndexStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// SkipIfDatabaseUnavailable skips the test when the test database cannot be reached.
func SkipIfDatabaseUnavailable(t testing.TB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, config.PostgresSingleDSN())
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	_ = conn.Close(ctx)
}

// GivenUniqueSymbol generates a unique symbol name for testing.
func GivenUniqueSymbol(t testing.TB) string {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return fmt.Sprintf("%s-%s", t.Name(), id.String())
}

// FixtureIndex returns n index values one minute apart, starting at FixtureIndexStart.
func FixtureIndex(n int) []time.Time {
	index := make([]time.Time, n)
	for i := range index {
		index[i] = FixtureIndexStart.Add(time.Duration(i) * time.Minute)
	}

	return index
}

// FixtureTable returns a time-indexed table with n rows, col1 = 0..n-1 and col2 = 100..100+n-1.
func FixtureTable(n int) lazyframe.Table {
	col1 := make([]any, n)
	col2 := make([]any, n)

	for i := 0; i < n; i++ {
		col1[i] = int64(i)
		col2[i] = int64(100 + i)
	}

	return lazyframe.Table{
		IndexName: "timestamp",
		Index:     FixtureIndex(n),
		Columns: []lazyframe.Column{
			{Name: "col1", Values: col1},
			{Name: "col2", Values: col2},
		},
	}
}

// FixtureTableFromColumns returns a time-indexed table with the given columns.
// All columns must have the same length.
func FixtureTableFromColumns(columns ...lazyframe.Column) lazyframe.Table {
	rows := 0
	if len(columns) > 0 {
		rows = len(columns[0].Values)
	}

	return lazyframe.Table{
		IndexName: "timestamp",
		Index:     FixtureIndex(rows),
		Columns:   columns,
	}
}

// Int64s converts values for use as lazyframe.Column values.
func Int64s(values ...int64) []any {
	converted := make([]any, len(values))
	for i, v := range values {
		converted[i] = v
	}

	return converted
}

// ColumnValues returns the values of the named column, failing the test if it is missing.
func ColumnValues(t testing.TB, table lazyframe.Table, name string) []any {
	t.Helper()

	column, ok := table.Column(name)
	assert.True(t, ok, "column %q missing, have %v", name, table.ColumnNames())

	return column.Values
}

// WriteFixture writes table under symbol and fails the test on error.
func WriteFixture(
	t testing.TB,
	ctx context.Context, //nolint:revive
	writer interface {
		Write(ctx context.Context, symbol string, table lazyframe.Table, metadata json.RawMessage) (lazyframe.VersionedItem, error)
	},
	symbol string,
	table lazyframe.Table,
) lazyframe.VersionedItem {

	t.Helper()

	item, err := writer.Write(ctx, symbol, table, nil)
	assert.NoError(t, err, "error in arranging test data")

	return item
}
