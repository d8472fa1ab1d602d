package tableio_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/lazyframes-go/internal/tableio"
	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

func fixtureItem() lazyframe.VersionedItem {
	return lazyframe.VersionedItem{
		Symbol:   "prices",
		Version:  3,
		Metadata: json.RawMessage(`{"source":"test"}`),
		Data: lazyframe.Table{
			IndexName: "timestamp",
			Index: []time.Time{
				time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC),
			},
			Columns: []lazyframe.Column{
				{Name: "col1", Values: []any{int64(1), nil}},
				{Name: "col2", Values: []any{2.5, "x"}},
			},
		},
	}
}

func Test_Render_CSV(t *testing.T) {
	// arrange
	out := &bytes.Buffer{}

	// act
	err := Render(out, fixtureItem(), FormatCSV)

	// assert
	require.NoError(t, err)
	assert.Equal(t,
		"timestamp,col1,col2\n"+
			"2024-01-01T00:00:00Z,1,2.5\n"+
			"2024-01-01T00:01:00Z,,x\n",
		out.String(),
	)
}

func Test_Render_JSON(t *testing.T) {
	// arrange
	out := &bytes.Buffer{}

	// act
	err := Render(out, fixtureItem(), FormatJSON)

	// assert
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"symbol": "prices",
		"version": 3,
		"metadata": {"source": "test"},
		"index_name": "timestamp",
		"columns": ["timestamp", "col1", "col2"],
		"rows": [
			["2024-01-01T00:00:00Z", 1, 2.5],
			["2024-01-01T00:01:00Z", null, "x"]
		]
	}`, out.String())
}

func Test_Render_Table(t *testing.T) {
	// arrange
	out := &bytes.Buffer{}

	// act
	err := Render(out, fixtureItem(), FormatTable)

	// assert
	require.NoError(t, err)
	rendered := out.String()
	assert.Contains(t, rendered, "prices @ version 3")
	assert.Contains(t, rendered, "timestamp")
	assert.Contains(t, rendered, "col1")
	assert.Contains(t, rendered, "2024-01-01T00:01:00Z")
	assert.Contains(t, rendered, "2.5")
}

func Test_Render_When_TableHasNoIndex(t *testing.T) {
	// arrange
	item := lazyframe.VersionedItem{
		Symbol: "grouped",
		Data: lazyframe.Table{Columns: []lazyframe.Column{
			{Name: "col1", Values: []any{int64(0), int64(1)}},
			{Name: "col2", Values: []any{int64(2), int64(4)}},
		}},
	}
	out := &bytes.Buffer{}

	// act
	err := Render(out, item, FormatCSV)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "col1,col2\n0,2\n1,4\n", out.String())
}

func Test_Render_When_FormatIsUnknown(t *testing.T) {
	// act
	err := Render(&bytes.Buffer{}, fixtureItem(), "xml")

	// assert
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
