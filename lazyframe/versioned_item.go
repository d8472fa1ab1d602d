package lazyframe

import (
	"encoding/json"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Column is a named sequence of values.
type Column struct {
	Name   string
	Values []any
}

// Table is a materialized, optionally time-indexed, columnar result.
// Index is empty for frames without a time index (e.g. after a GroupBy).
type Table struct {
	IndexName string
	Index     []time.Time
	Columns   []Column
}

// NumRows returns the number of rows, taken from the index or the first column.
func (t Table) NumRows() int {
	if len(t.Index) > 0 {
		return len(t.Index)
	}

	if len(t.Columns) > 0 {
		return len(t.Columns[0].Values)
	}

	return 0
}

// Column returns the column with the given name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}

	return Column{}, false
}

// ColumnNames returns the column names in table order.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}

	return names
}

// Validate checks that the index and all columns have the same length.
func (t Table) Validate() error {
	rows := t.NumRows()
	if len(t.Index) > 0 && len(t.Index) != rows {
		return ErrRaggedTable
	}

	for _, c := range t.Columns {
		if len(c.Values) != rows {
			return ErrRaggedTable
		}
	}

	return nil
}

// VersionedItem wraps a materialized Table with the symbol version it was read from.
type VersionedItem struct {
	Symbol   string
	Version  uint64
	Data     Table
	Metadata json.RawMessage
}

// BuildVersionedItem is a factory method for VersionedItem.
//
// Empty metadata is replaced by valid empty JSON.
// Returns an error if metadata is not valid JSON or the table is ragged.
func BuildVersionedItem(symbol string, version uint64, data Table, metadata json.RawMessage) (VersionedItem, error) {
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}

	if !jsoniter.ConfigFastest.Valid(metadata) {
		return VersionedItem{}, ErrInvalidMetadataJSON
	}

	if err := data.Validate(); err != nil {
		return VersionedItem{}, err
	}

	return VersionedItem{
		Symbol:   symbol,
		Version:  version,
		Data:     data,
		Metadata: metadata,
	}, nil
}
