package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

// indexLayouts are tried in order when parsing index cells.
var indexLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", time.DateOnly}

// ReadCSV reads a CSV document with a header row into a Table.
//
// If indexColumn is not empty, that column becomes the time index and is parsed as RFC 3339,
// "2006-01-02 15:04:05" or "2006-01-02" (UTC unless an offset is given). All other cells are
// typed one by one. Empty cells become nil, then int64, finite float64 and true/false are
// tried before falling back to string.
func ReadCSV(r io.Reader, indexColumn string) (lazyframe.Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return lazyframe.Table{}, errors.Join(ErrReadingCSVFailed, err)
	}

	indexPos := -1
	columns := make([]lazyframe.Column, 0, len(header))

	for i, name := range header {
		if indexColumn != "" && name == indexColumn {
			indexPos = i
			continue
		}

		columns = append(columns, lazyframe.Column{Name: name, Values: []any{}})
	}

	if indexColumn != "" && indexPos < 0 {
		return lazyframe.Table{}, errors.Join(ErrReadingCSVFailed, ErrIndexColumnNotFound, fmt.Errorf("column %q", indexColumn))
	}

	table := lazyframe.Table{Columns: columns}
	if indexPos >= 0 {
		table.IndexName = indexColumn
		table.Index = []time.Time{}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return lazyframe.Table{}, errors.Join(ErrReadingCSVFailed, err)
		}

		col := 0
		for i, cell := range record {
			if i == indexPos {
				ts, err := parseIndex(cell)
				if err != nil {
					return lazyframe.Table{}, errors.Join(ErrReadingCSVFailed, fmt.Errorf("line %d: %w", line, err))
				}

				table.Index = append(table.Index, ts)
				continue
			}

			table.Columns[col].Values = append(table.Columns[col].Values, parseCell(cell))
			col++
		}
	}

	return table, nil
}

func parseIndex(cell string) (time.Time, error) {
	for _, layout := range indexLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, errors.Join(ErrInvalidIndexValue, fmt.Errorf("%q", cell))
}

func parseCell(cell string) any {
	if cell == "" {
		return nil
	}

	if i, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}

	switch cell {
	case "true":
		return true
	case "false":
		return false
	}

	return cell
}
