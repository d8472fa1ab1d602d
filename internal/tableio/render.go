package tableio

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

var renderJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type itemJSON struct {
	Symbol    string          `json:"symbol"`
	Version   uint64          `json:"version"`
	Metadata  json.RawMessage `json:"metadata"`
	IndexName string          `json:"index_name,omitempty"`
	Columns   []string        `json:"columns"`
	Rows      [][]any         `json:"rows"`
}

// Render writes item to w in the given format (FormatTable, FormatJSON or FormatCSV).
// The index, if any, is rendered as the first column.
func Render(w io.Writer, item lazyframe.VersionedItem, format string) error {
	var err error

	switch format {
	case FormatTable:
		err = renderTable(w, item)
	case FormatJSON:
		err = renderJSONDocument(w, item)
	case FormatCSV:
		err = renderCSV(w, item)
	default:
		return errors.Join(ErrUnknownFormat, fmt.Errorf("%q", format))
	}

	if err != nil {
		return errors.Join(ErrRenderingFailed, err)
	}

	return nil
}

func renderTable(w io.Writer, item lazyframe.VersionedItem) error {
	if _, err := fmt.Fprintf(w, "%s @ version %d\n", item.Symbol, item.Version); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(header(item.Data))

	for _, row := range rows(item.Data) {
		table.Append(formatRow(row))
	}

	table.Render()

	return nil
}

func renderJSONDocument(w io.Writer, item lazyframe.VersionedItem) error {
	metadata := item.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}

	doc := itemJSON{
		Symbol:    item.Symbol,
		Version:   item.Version,
		Metadata:  metadata,
		IndexName: item.Data.IndexName,
		Columns:   header(item.Data),
		Rows:      rows(item.Data),
	}

	encoder := renderJSON.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(doc)
}

func renderCSV(w io.Writer, item lazyframe.VersionedItem) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header(item.Data)); err != nil {
		return err
	}

	for _, row := range rows(item.Data) {
		if err := writer.Write(formatRow(row)); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

func header(t lazyframe.Table) []string {
	names := make([]string, 0, len(t.Columns)+1)
	if len(t.Index) > 0 || t.IndexName != "" {
		names = append(names, t.IndexName)
	}

	return append(names, t.ColumnNames()...)
}

func rows(t lazyframe.Table) [][]any {
	withIndex := len(t.Index) > 0 || t.IndexName != ""
	out := make([][]any, 0, t.NumRows())

	for i := range t.NumRows() {
		row := make([]any, 0, len(t.Columns)+1)
		if withIndex {
			var ts any
			if i < len(t.Index) {
				ts = t.Index[i]
			}
			row = append(row, ts)
		}

		for _, c := range t.Columns {
			row = append(row, c.Values[i])
		}

		out = append(out, row)
	}

	return out
}

func formatRow(row []any) []string {
	cells := make([]string, 0, len(row))
	for _, v := range row {
		cells = append(cells, formatValue(v))
	}

	return cells
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case time.Time:
		return value.UTC().Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}
