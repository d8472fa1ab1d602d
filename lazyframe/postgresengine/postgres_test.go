package postgresengine_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/AntonStoeckl/lazyframes-go/lazyframe"
	. "github.com/AntonStoeckl/lazyframes-go/lazyframe/postgresengine"
	. "github.com/AntonStoeckl/lazyframes-go/testutil/postgresengine/helper"
	"github.com/AntonStoeckl/lazyframes-go/testutil/postgresengine/helper/postgreswrapper"
)

func Test_Write_When_SymbolIsNew_CreatesVersionZero(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)

	// act
	item, err := ss.Write(ctxWithTimeout, symbol, FixtureTable(10), json.RawMessage(`{"source": "test"}`))

	// assert
	assert.NoError(t, err, "error in writing the symbol")
	assert.Equal(t, symbol, item.Symbol)
	assert.Equal(t, uint64(0), item.Version)
	assert.Equal(t, 10, item.Data.NumRows())
	assert.Equal(t, 10, postgreswrapper.CountStoredRows(t, wrapper, symbol))
}

func Test_Write_When_SymbolExists_AppendsANewVersion(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(3))

	// act
	item, err := ss.Write(ctxWithTimeout, symbol, FixtureTable(5), nil)

	// assert
	assert.NoError(t, err, "error in writing the symbol")
	assert.Equal(t, uint64(1), item.Version)

	versions, listErr := ss.ListVersions(ctxWithTimeout, symbol)
	assert.NoError(t, listErr)
	assert.Len(t, versions, 2)
	assert.Equal(t, uint64(0), versions[0].Version)
	assert.Equal(t, uint64(1), versions[1].Version)
	assert.Equal(t, []string{"col1", "col2"}, versions[1].Columns)
	assert.Equal(t, "timestamp", versions[1].IndexName)
}

func Test_Write_When_TableIsEmpty(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	table := FixtureTableFromColumns(Column{Name: "col1", Values: []any{}})

	// act
	written, writeErr := ss.Write(ctxWithTimeout, symbol, table, nil)
	item, readErr := Lazy(ss, symbol).Collect(ctxWithTimeout)

	// assert
	assert.NoError(t, writeErr)
	assert.NoError(t, readErr)
	assert.Equal(t, uint64(0), written.Version)
	assert.Equal(t, 0, item.Data.NumRows())
	assert.Equal(t, []string{"col1"}, item.Data.ColumnNames())
}

func Test_Write_When_InputIsInvalid(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	ragged := FixtureTable(3)
	ragged.Columns[1].Values = ragged.Columns[1].Values[:2]

	tests := []struct {
		name        string
		symbol      string
		table       Table
		metadata    json.RawMessage
		expectedErr error
	}{
		{name: "empty symbol", symbol: "", table: FixtureTable(3), expectedErr: ErrEmptySymbol},
		{name: "ragged table", symbol: GivenUniqueSymbol(t), table: ragged, expectedErr: ErrRaggedTable},
		{name: "invalid metadata", symbol: GivenUniqueSymbol(t), table: FixtureTable(3), metadata: json.RawMessage(`{`), expectedErr: ErrInvalidMetadataJSON},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := ss.Write(ctxWithTimeout, tc.symbol, tc.table, tc.metadata)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_Read_When_FilteringWithIsIn(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(10))

	// act
	item, err := Lazy(ss, symbol).Filter(Col("col1").IsIn(0, 3, 6, 9)).Collect(ctxWithTimeout)

	// assert
	assert.NoError(t, err, "error in collecting the frame")
	assert.Equal(t, Int64s(0, 3, 6, 9), ColumnValues(t, item.Data, "col1"))
	assert.Equal(t, Int64s(100, 103, 106, 109), ColumnValues(t, item.Data, "col2"))
	index := FixtureIndex(10)
	assert.Equal(t, []time.Time{index[0], index[3], index[6], index[9]}, item.Data.Index)
	assert.Equal(t, "timestamp", item.Data.IndexName)
}

func Test_Read_When_ApplyingAProjection(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(10))

	// act
	item, err := Lazy(ss, symbol).Apply("new_col", Col("col1").Add(Col("col2"))).Collect(ctxWithTimeout)

	// assert
	assert.NoError(t, err, "error in collecting the frame")
	assert.Equal(t, []string{"col1", "col2", "new_col"}, item.Data.ColumnNames())
	assert.Equal(t, Int64s(0, 1, 2, 3, 4, 5, 6, 7, 8, 9), ColumnValues(t, item.Data, "col1"))
	assert.Equal(t, Int64s(100, 102, 104, 106, 108, 110, 112, 114, 116, 118), ColumnValues(t, item.Data, "new_col"))
}

func Test_Read_When_AProjectionReferencesAnEarlierProjection(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(4))

	// act
	item, err := Lazy(ss, symbol).
		Apply("a", Col("col1").Add(1)).
		Apply("b", Col("a").Mul(2)).
		Collect(ctxWithTimeout)

	// assert
	assert.NoError(t, err, "error in collecting the frame")
	assert.Equal(t, Int64s(1, 2, 3, 4), ColumnValues(t, item.Data, "a"))
	assert.Equal(t, Int64s(2, 4, 6, 8), ColumnValues(t, item.Data, "b"))
}

func Test_Read_When_GroupingBy(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	table := FixtureTableFromColumns(
		Column{Name: "col1", Values: Int64s(0, 1, 0, 1, 2, 2)},
		Column{Name: "col2", Values: Int64s(0, 1, 2, 3, 4, 5)},
	)
	WriteFixture(t, ctxWithTimeout, ss, symbol, table)

	// act
	lf, aggErr := Lazy(ss, symbol).GroupBy("col1").Agg(Aggregations{"col2": AggSum})
	assert.NoError(t, aggErr)
	item, err := lf.Collect(ctxWithTimeout)

	// assert
	assert.NoError(t, err, "error in collecting the frame")
	assert.Equal(t, Int64s(0, 1, 2), ColumnValues(t, item.Data, "col1"))
	assert.Equal(t, Int64s(2, 4, 9), ColumnValues(t, item.Data, "col2"))
	assert.Empty(t, item.Data.Index)
	assert.Empty(t, item.Data.IndexName)
}

func Test_Read_When_Resampling(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(10))

	// act
	lf, aggErr := Lazy(ss, symbol).Resample("5min").Agg(Aggregations{"col1": AggSum, "col2": AggMean})
	assert.NoError(t, aggErr)
	item, err := lf.Collect(ctxWithTimeout)

	// assert
	assert.NoError(t, err, "error in collecting the frame")
	assert.Equal(t, []time.Time{FixtureIndexStart, FixtureIndexStart.Add(5 * time.Minute)}, item.Data.Index)
	assert.Equal(t, Int64s(10, 35), ColumnValues(t, item.Data, "col1"))
	assert.Equal(t, []any{float64(102), float64(107)}, ColumnValues(t, item.Data, "col2"))
}

func Test_Read_When_UsingRangesAndColumns(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(10))
	index := FixtureIndex(10)

	tests := []struct {
		name     string
		frame    *LazyFrame
		expected []any
	}{
		{
			name:     "date range is inclusive on both ends",
			frame:    Lazy(ss, symbol).DateRange(index[2], index[4]),
			expected: Int64s(2, 3, 4),
		},
		{
			name:     "open date range end",
			frame:    Lazy(ss, symbol, WithDateRange(index[7], time.Time{})),
			expected: Int64s(7, 8, 9),
		},
		{
			name:     "head",
			frame:    Lazy(ss, symbol).Head(2),
			expected: Int64s(0, 1),
		},
		{
			name:     "tail",
			frame:    Lazy(ss, symbol).Tail(2),
			expected: Int64s(8, 9),
		},
		{
			name:     "row range after a filter counts the filtered rows",
			frame:    Lazy(ss, symbol).Filter(Col("col1").Ge(5)).RowRange(1, 3),
			expected: Int64s(6, 7),
		},
		{
			name:     "read-time row range with a negative start",
			frame:    Lazy(ss, symbol, WithRowRange(-3, -1)),
			expected: Int64s(7, 8),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			item, err := tc.frame.Collect(ctxWithTimeout)

			// assert
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, ColumnValues(t, item.Data, "col1"))
			assert.Len(t, item.Data.Index, len(tc.expected))
		})
	}

	t.Run("read-time column selection", func(t *testing.T) {
		// act
		item, err := Lazy(ss, symbol, WithColumns("col2")).Head(1).Collect(ctxWithTimeout)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, []string{"col2"}, item.Data.ColumnNames())
		assert.Equal(t, []time.Time{index[0]}, item.Data.Index)
	})
}

func Test_Read_When_ResolvingVersions(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(3))
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(5))
	versions, err := ss.ListVersions(ctxWithTimeout, symbol)
	assert.NoError(t, err, "error in arranging test data")

	tests := []struct {
		name            string
		asOf            AsOf
		expectedVersion uint64
		expectedRows    int
	}{
		{name: "latest", asOf: Latest(), expectedVersion: 1, expectedRows: 5},
		{name: "exact version", asOf: AtVersion(0), expectedVersion: 0, expectedRows: 3},
		{name: "point in time", asOf: AtTime(versions[0].WrittenAt), expectedVersion: 0, expectedRows: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			item, readErr := Lazy(ss, symbol, WithAsOf(tc.asOf)).Collect(ctxWithTimeout)

			// assert
			assert.NoError(t, readErr)
			assert.Equal(t, tc.expectedVersion, item.Version)
			assert.Equal(t, tc.expectedRows, item.Data.NumRows())
		})
	}
}

func Test_Read_When_SymbolOrVersionDoesNotExist(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(3))

	tests := []struct {
		name   string
		symbol string
		asOf   AsOf
	}{
		{name: "unknown symbol", symbol: GivenUniqueSymbol(t), asOf: Latest()},
		{name: "unknown version", symbol: symbol, asOf: AtVersion(7)},
		{name: "time before the first version", symbol: symbol, asOf: AtTime(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, readErr := Lazy(ss, tc.symbol, WithAsOf(tc.asOf)).Collect(ctxWithTimeout)

			// assert
			assert.ErrorIs(t, readErr, ErrSymbolNotFound)
		})
	}
}

func Test_Read_When_QueryReferencesAnUnknownColumn(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, symbol)
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(3))

	// act
	_, err := Lazy(ss, symbol).Filter(Col("col9").Gt(1)).Collect(ctxWithTimeout)

	// assert
	assert.ErrorIs(t, err, ErrBuildingQueryFailed)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func Test_ReadBatch_When_ApplyingASharedFilter(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbols := []string{GivenUniqueSymbol(t), GivenUniqueSymbol(t), GivenUniqueSymbol(t)}
	defer postgreswrapper.CleanUp(t, wrapper, symbols...)

	requests := make([]ReadRequest, 0, len(symbols))
	for _, symbol := range symbols {
		WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(10))
		requests = append(requests, BuildReadRequest(symbol))
	}

	predicate := Col("col1").Gt(6)
	individual, err := Lazy(ss, symbols[0]).Filter(predicate).Collect(ctxWithTimeout)
	assert.NoError(t, err, "error in arranging test data")

	// act
	items, batchErr := LazyBatch(ss, requests).Filter(predicate).Collect(ctxWithTimeout)

	// assert
	assert.NoError(t, batchErr, "error in collecting the batch")
	assert.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, symbols[i], item.Symbol)
		assert.Equal(t, individual.Data, item.Data)
	}
}

func Test_ReadBatch_When_FramesDiverge(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbols := []string{GivenUniqueSymbol(t), GivenUniqueSymbol(t)}
	defer postgreswrapper.CleanUp(t, wrapper, symbols...)
	WriteFixture(t, ctxWithTimeout, ss, symbols[0], FixtureTable(10))
	WriteFixture(t, ctxWithTimeout, ss, symbols[1], FixtureTable(4))

	batch := LazyBatch(ss, []ReadRequest{BuildReadRequest(symbols[0]), BuildReadRequest(symbols[1])})
	batch.At(0).Head(1)
	batch.At(1).Apply("x", Col("col1").Mul(10))

	// act
	items, err := batch.Collect(ctxWithTimeout)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, symbols[0], items[0].Symbol)
	assert.Equal(t, 1, items[0].Data.NumRows())
	assert.Equal(t, symbols[1], items[1].Symbol)
	assert.Equal(t, Int64s(0, 10, 20, 30), ColumnValues(t, items[1].Data, "x"))
}

func Test_ReadBatch_When_AnEntryFails(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	existing := GivenUniqueSymbol(t)
	missing := GivenUniqueSymbol(t)
	defer postgreswrapper.CleanUp(t, wrapper, existing)
	WriteFixture(t, ctxWithTimeout, ss, existing, FixtureTable(3))

	// act
	results, err := ss.ReadBatch(ctxWithTimeout, []ReadRequest{BuildReadRequest(missing), BuildReadRequest(existing)})

	// assert
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, ErrSymbolNotFound)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 3, results[1].Item.Data.NumRows())
}

func Test_DeleteSymbol(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	ss := wrapper.GetSymbolStore()

	// arrange
	symbol := GivenUniqueSymbol(t)
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(3))
	WriteFixture(t, ctxWithTimeout, ss, symbol, FixtureTable(3))

	// act
	deleted, err := ss.DeleteSymbol(ctxWithTimeout, symbol)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, 0, postgreswrapper.CountStoredRows(t, wrapper, symbol))

	_, readErr := Lazy(ss, symbol, WithAsOf(AtVersion(0))).Collect(ctxWithTimeout)
	assert.ErrorIs(t, readErr, ErrSymbolNotFound)

	symbols, listErr := ss.ListSymbols(ctxWithTimeout)
	assert.NoError(t, listErr)
	assert.NotContains(t, symbols, symbol)
}
