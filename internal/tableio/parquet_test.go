package tableio_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/lazyframes-go/internal/tableio"
)

type priceRow struct {
	Timestamp time.Time `parquet:"timestamp"`
	Price     float64   `parquet:"price"`
	Volume    int64     `parquet:"volume"`
	Venue     string    `parquet:"venue"`
	Note      *string   `parquet:"note,optional"`
	Active    bool      `parquet:"active"`
}

type listRow struct {
	Tags []string `parquet:"tags,list"`
}

func writeParquet[T any](t *testing.T, rows []T) *bytes.Reader {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := parquet.NewGenericWriter[T](buf)
	_, err := writer.Write(rows)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return bytes.NewReader(buf.Bytes())
}

func Test_ReadParquet_When_IndexColumnIsGiven(t *testing.T) {
	// setup
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	note := "opening"

	// arrange
	input := writeParquet(t, []priceRow{
		{Timestamp: start, Price: 101.5, Volume: 10, Venue: "XETR", Note: &note, Active: true},
		{Timestamp: start.Add(time.Minute), Price: 102.0, Volume: 20, Venue: "XLON", Active: false},
	})

	// act
	table, err := ReadParquet(input, input.Size(), "timestamp")

	// assert
	require.NoError(t, err)
	assert.Equal(t, "timestamp", table.IndexName)
	require.Len(t, table.Index, 2)
	assert.True(t, table.Index[0].Equal(start))
	assert.True(t, table.Index[1].Equal(start.Add(time.Minute)))
	assert.ElementsMatch(t, []string{"price", "volume", "venue", "note", "active"}, table.ColumnNames())

	price, ok := table.Column("price")
	require.True(t, ok)
	assert.Equal(t, []any{101.5, 102.0}, price.Values)

	volume, _ := table.Column("volume")
	assert.Equal(t, []any{int64(10), int64(20)}, volume.Values)

	venue, _ := table.Column("venue")
	assert.Equal(t, []any{"XETR", "XLON"}, venue.Values)

	noteColumn, _ := table.Column("note")
	assert.Equal(t, []any{"opening", nil}, noteColumn.Values)

	active, _ := table.Column("active")
	assert.Equal(t, []any{true, false}, active.Values)
}

func Test_ReadParquet_When_IndexColumnIsNotATimestamp(t *testing.T) {
	// arrange
	input := writeParquet(t, []priceRow{{Timestamp: time.Now(), Venue: "XETR"}})

	// act
	_, err := ReadParquet(input, input.Size(), "venue")

	// assert
	assert.ErrorIs(t, err, ErrInvalidIndexValue)
}

func Test_ReadParquet_When_IndexColumnIsMissing(t *testing.T) {
	// arrange
	input := writeParquet(t, []priceRow{{Timestamp: time.Now()}})

	// act
	_, err := ReadParquet(input, input.Size(), "ts")

	// assert
	assert.ErrorIs(t, err, ErrIndexColumnNotFound)
}

func Test_ReadParquet_When_ColumnIsRepeated(t *testing.T) {
	// arrange
	input := writeParquet(t, []listRow{{Tags: []string{"a", "b"}}})

	// act
	_, err := ReadParquet(input, input.Size(), "")

	// assert
	assert.ErrorIs(t, err, ErrUnsupportedParquetColumn)
}

func Test_ReadParquet_When_InputIsNotParquet(t *testing.T) {
	// arrange
	input := bytes.NewReader([]byte("timestamp,col1\n"))

	// act
	_, err := ReadParquet(input, input.Size(), "")

	// assert
	assert.ErrorIs(t, err, ErrReadingParquetFailed)
}
