package tableio

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

const parquetReadBatchSize = 256

type valueDecoder func(parquet.Value) any

// ReadParquet reads a flat Apache Parquet file into a Table.
//
// Nested columns are addressed by their dotted path. Repeated columns are not supported.
// If indexColumn is not empty, that column must hold timestamps and becomes the time index.
func ReadParquet(r io.ReaderAt, size int64, indexColumn string) (lazyframe.Table, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return lazyframe.Table{}, errors.Join(ErrReadingParquetFailed, err)
	}

	schema := file.Schema()
	paths := schema.Columns()
	names := make([]string, len(paths))
	decoders := make([]valueDecoder, len(paths))

	for _, path := range paths {
		leaf, ok := schema.Lookup(path...)
		if !ok {
			return lazyframe.Table{}, errors.Join(ErrReadingParquetFailed, fmt.Errorf("column %v not in schema", path))
		}

		names[leaf.ColumnIndex] = strings.Join(path, ".")

		decoder, err := decoderFor(leaf)
		if err != nil {
			return lazyframe.Table{}, errors.Join(ErrReadingParquetFailed, err, fmt.Errorf("column %q", names[leaf.ColumnIndex]))
		}

		decoders[leaf.ColumnIndex] = decoder
	}

	values := make([][]any, len(paths))
	for i := range values {
		values[i] = []any{}
	}

	reader := parquet.NewReader(file)
	defer func() { _ = reader.Close() }()

	rows := make([]parquet.Row, parquetReadBatchSize)

	for {
		n, err := reader.ReadRows(rows)
		for _, row := range rows[:n] {
			for _, value := range row {
				col := value.Column()
				values[col] = append(values[col], decoders[col](value))
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return lazyframe.Table{}, errors.Join(ErrReadingParquetFailed, err)
		}
	}

	return assembleTable(names, values, indexColumn)
}

func assembleTable(names []string, values [][]any, indexColumn string) (lazyframe.Table, error) {
	table := lazyframe.Table{Columns: make([]lazyframe.Column, 0, len(names))}
	indexFound := false

	for i, name := range names {
		if indexColumn == "" || name != indexColumn {
			table.Columns = append(table.Columns, lazyframe.Column{Name: name, Values: values[i]})
			continue
		}

		index := make([]time.Time, 0, len(values[i]))
		for _, v := range values[i] {
			ts, ok := v.(time.Time)
			if !ok {
				return lazyframe.Table{}, errors.Join(ErrReadingParquetFailed, ErrInvalidIndexValue, fmt.Errorf("%v in column %q", v, name))
			}

			index = append(index, ts)
		}

		table.IndexName = name
		table.Index = index
		indexFound = true
	}

	if indexColumn != "" && !indexFound {
		return lazyframe.Table{}, errors.Join(ErrReadingParquetFailed, ErrIndexColumnNotFound, fmt.Errorf("column %q", indexColumn))
	}

	return table, nil
}

func decoderFor(leaf parquet.LeafColumn) (valueDecoder, error) {
	if leaf.MaxRepetitionLevel > 0 {
		return nil, ErrUnsupportedParquetColumn
	}

	typ := leaf.Node.Type()

	if lt := typ.LogicalType(); lt != nil && lt.Timestamp != nil && typ.Kind() == parquet.Int64 {
		unit := time.Nanosecond
		switch {
		case lt.Timestamp.Unit.Millis != nil:
			unit = time.Millisecond
		case lt.Timestamp.Unit.Micros != nil:
			unit = time.Microsecond
		}

		return nullable(func(v parquet.Value) any {
			return time.Unix(0, v.Int64()*int64(unit)).UTC()
		}), nil
	}

	switch typ.Kind() {
	case parquet.Boolean:
		return nullable(func(v parquet.Value) any { return v.Boolean() }), nil

	case parquet.Int32:
		return nullable(func(v parquet.Value) any { return int64(v.Int32()) }), nil

	case parquet.Int64:
		return nullable(func(v parquet.Value) any { return v.Int64() }), nil

	case parquet.Float:
		return nullable(func(v parquet.Value) any { return float64(v.Float()) }), nil

	case parquet.Double:
		return nullable(func(v parquet.Value) any { return v.Double() }), nil

	case parquet.ByteArray, parquet.FixedLenByteArray:
		return nullable(func(v parquet.Value) any { return string(v.ByteArray()) }), nil

	default:
		return nil, errors.Join(ErrUnsupportedParquetColumn, fmt.Errorf("physical type %s", typ.Kind()))
	}
}

func nullable(decode valueDecoder) valueDecoder {
	return func(v parquet.Value) any {
		if v.IsNull() {
			return nil
		}

		return decode(v)
	}
}
