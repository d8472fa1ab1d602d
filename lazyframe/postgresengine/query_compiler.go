package postgresengine

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

const (
	aliasResult    = "result"
	aliasRowNum    = "rn"
	aliasCount     = "cnt"
	aliasGroup     = "gkey"
	aliasBucket    = "bucket"
	aliasAggPrefix = "a"
)

// queryCompiler turns a ReadRequest into one SELECT over the rows table.
//
// Every operation wraps the previous step in a sub-select, so operations run in exactly the
// order they were recorded. Each step yields the columns pos, idx, and data. The schema of each
// step is tracked statically, which is how unknown columns are reported before any SQL runs and
// how the output column order is decided.
type queryCompiler struct {
	rowsTableName string
}

type compiledQuery struct {
	sql    string
	schema frameSchema
}

func (qc queryCompiler) compile(request lazyframe.ReadRequest, version storedVersion) (compiledQuery, error) {
	builder := goqu.Dialect(dialectPostgres)

	ds := builder.
		From(qc.rowsTableName).
		Select(colPos, colIdx, colData).
		Where(
			goqu.C(colSymbol).Eq(request.Symbol),
			goqu.C(colVersion).Eq(int64(version.version)),
		)

	schema := newFrameSchema(version.indexName, version.columns)

	ops := append(readTimeOperations(request), request.Query.Operations()...)
	for i, op := range ops {
		var err error

		ds, schema, err = qc.apply(builder, ds, schema, op, fmt.Sprintf("t%d", i))
		if err != nil {
			return compiledQuery{}, fmt.Errorf("operation %d (%s): %w", i, op.Kind(), err)
		}
	}

	final := builder.
		From(ds.As(aliasResult)).
		Select(colIdx, colData).
		Order(goqu.C(colPos).Asc())

	sqlQuery, _, toSQLErr := final.ToSQL()
	if toSQLErr != nil {
		return compiledQuery{}, toSQLErr
	}

	return compiledQuery{sql: sqlQuery, schema: schema}, nil
}

// readTimeOperations turns the read-time binding into operations that run before the recorded sequence.
// Row filters go first, the column selection last.
func readTimeOperations(request lazyframe.ReadRequest) []lazyframe.Operation {
	ops := make([]lazyframe.Operation, 0, 3)

	if request.DateRange != nil {
		ops = append(ops, lazyframe.DateRangeOperation{Range: *request.DateRange})
	}

	if request.RowRange != nil {
		ops = append(ops, lazyframe.RowRangeOperation{Range: *request.RowRange})
	}

	if len(request.Columns) > 0 {
		ops = append(ops, lazyframe.SelectColumns(request.Columns...))
	}

	return ops
}

func (qc queryCompiler) apply(
	builder goqu.DialectWrapper,
	ds *goqu.SelectDataset,
	schema frameSchema,
	op lazyframe.Operation,
	alias string,
) (*goqu.SelectDataset, frameSchema, error) {

	switch o := op.(type) {
	case lazyframe.FilterOperation:
		return qc.applyFilter(builder, ds, schema, o, alias)
	case lazyframe.DateRangeOperation:
		return qc.applyDateRange(builder, ds, schema, o, alias)
	case lazyframe.RowRangeOperation:
		return qc.applyRowRange(builder, ds, schema, o, alias)
	case lazyframe.ColumnSelectionOperation:
		return qc.applyColumnSelection(builder, ds, schema, o, alias)
	case lazyframe.ProjectionOperation:
		return qc.applyProjection(builder, ds, schema, o, alias)
	case lazyframe.GroupByOperation:
		return qc.applyGroupBy(builder, ds, schema, o, alias)
	case lazyframe.ResampleOperation:
		return qc.applyResample(builder, ds, schema, o, alias)
	default:
		return nil, schema, fmt.Errorf("%w: %T", ErrUnsupportedOperation, op)
	}
}

func (qc queryCompiler) applyFilter(
	builder goqu.DialectWrapper,
	ds *goqu.SelectDataset,
	schema frameSchema,
	op lazyframe.FilterOperation,
	alias string,
) (*goqu.SelectDataset, frameSchema, error) {

	predicate, err := expressionCompiler{schema: schema}.predicate(op.Predicate)
	if err != nil {
		return nil, schema, err
	}

	return builder.From(ds.As(alias)).Select(colPos, colIdx, colData).Where(predicate), schema, nil
}

func (qc queryCompiler) applyDateRange(
	builder goqu.DialectWrapper,
	ds *goqu.SelectDataset,
	schema frameSchema,
	op lazyframe.DateRangeOperation,
	alias string,
) (*goqu.SelectDataset, frameSchema, error) {

	if !schema.indexed {
		return nil, schema, fmt.Errorf("%w: date range needs a time index", ErrUnsupportedOperation)
	}

	bounds := make([]exp.Expression, 0, 2)

	if op.Range.HasStart() {
		bounds = append(bounds, goqu.C(colIdx).Gte(op.Range.Start))
	}

	if op.Range.HasEnd() {
		bounds = append(bounds, goqu.C(colIdx).Lte(op.Range.End))
	}

	if len(bounds) == 0 {
		return ds, schema, nil
	}

	return builder.From(ds.As(alias)).Select(colPos, colIdx, colData).Where(bounds...), schema, nil
}

func (qc queryCompiler) applyRowRange(
	builder goqu.DialectWrapper,
	ds *goqu.SelectDataset,
	schema frameSchema,
	op lazyframe.RowRangeOperation,
	alias string,
) (*goqu.SelectDataset, frameSchema, error) {

	numbered := builder.
		From(ds.As(alias+"n")).
		Select(
			colPos, colIdx, colData,
			goqu.L("row_number() OVER (ORDER BY pos) - 1").As(aliasRowNum),
			goqu.L("count(*) OVER ()").As(aliasCount),
		)

	return builder.
		From(numbered.As(alias)).
		Select(colPos, colIdx, colData).
		Where(
			goqu.L(aliasRowNum+" >= ?", rowBound(op.Range.Start)),
			goqu.L(aliasRowNum+" < ?", rowBound(op.Range.End)),
		), schema, nil
}

// rowBound resolves a negative position against the frame's row count.
func rowBound(position int64) exp.LiteralExpression {
	if position < 0 {
		return goqu.L(aliasCount+" + ?", position)
	}

	return goqu.L("?", position)
}

func (qc queryCompiler) applyColumnSelection(
	builder goqu.DialectWrapper,
	ds *goqu.SelectDataset,
	schema frameSchema,
	op lazyframe.ColumnSelectionOperation,
	alias string,
) (*goqu.SelectDataset, frameSchema, error) {

	if err := schema.require(op.Columns...); err != nil {
		return nil, schema, err
	}

	selected := make([]string, 0, len(op.Columns))
	for _, name := range op.Columns {
		if schema.isIndex(name) || slices.Contains(selected, name) {
			continue
		}

		selected = append(selected, name)
	}

	pairs := make([]any, 0, 2*len(selected))
	for _, name := range selected {
		pairs = append(pairs, name, goqu.L("data->?", name))
	}

	return builder.
		From(ds.As(alias)).
		Select(colPos, colIdx, buildObject(pairs...).As(colData)), schema.withColumns(selected), nil
}

func (qc queryCompiler) applyProjection(
	builder goqu.DialectWrapper,
	ds *goqu.SelectDataset,
	schema frameSchema,
	op lazyframe.ProjectionOperation,
	alias string,
) (*goqu.SelectDataset, frameSchema, error) {

	if op.Name == "" {
		return nil, schema, fmt.Errorf("%w: projection needs a column name", ErrUnsupportedOperation)
	}

	if schema.isIndex(op.Name) {
		return nil, schema, fmt.Errorf("%w: cannot overwrite the index %q", ErrUnsupportedOperation, op.Name)
	}

	value, err := expressionCompiler{schema: schema}.value(op.Expr)
	if err != nil {
		return nil, schema, err
	}

	return builder.
		From(ds.As(alias)).
		Select(colPos, colIdx, goqu.L("(data || ?)", buildObject(op.Name, value)).As(colData)), schema.withColumn(op.Name), nil
}

func (qc queryCompiler) applyGroupBy(
	builder goqu.DialectWrapper,
	ds *goqu.SelectDataset,
	schema frameSchema,
	op lazyframe.GroupByOperation,
	alias string,
) (*goqu.SelectDataset, frameSchema, error) {

	if !schema.has(op.Key) {
		return nil, schema, fmt.Errorf("%w: group key %q", ErrUnknownColumn, op.Key)
	}

	if _, ok := op.Aggregations[op.Key]; ok {
		return nil, schema, fmt.Errorf("%w: cannot aggregate the group key %q", ErrUnsupportedOperation, op.Key)
	}

	aggregates, pairs, err := aggregateSelection(schema, op.Aggregations)
	if err != nil {
		return nil, schema, err
	}

	grouped := builder.
		From(ds.As(alias + "g")).
		Select(append([]any{goqu.L("(data->?)", op.Key).As(aliasGroup)}, aggregates...)...).
		GroupBy(goqu.L("1"))

	pairs = append([]any{op.Key, goqu.I(aliasGroup)}, pairs...)

	reduced := builder.
		From(grouped.As(alias)).
		Select(
			goqu.L("row_number() OVER (ORDER BY "+aliasGroup+") - 1").As(colPos),
			goqu.L("NULL::timestamptz").As(colIdx),
			buildObject(pairs...).As(colData),
		)

	columns := append([]string{op.Key}, op.Aggregations.Columns()...)

	return reduced, schema.withoutIndex().withColumns(columns), nil
}

func (qc queryCompiler) applyResample(
	builder goqu.DialectWrapper,
	ds *goqu.SelectDataset,
	schema frameSchema,
	op lazyframe.ResampleOperation,
	alias string,
) (*goqu.SelectDataset, frameSchema, error) {

	if !schema.indexed {
		return nil, schema, fmt.Errorf("%w: resample needs a time index", ErrUnsupportedOperation)
	}

	rule, err := parseResampleRule(op.Rule)
	if err != nil {
		return nil, schema, err
	}

	aggregates, pairs, err := aggregateSelection(schema, op.Aggregations)
	if err != nil {
		return nil, schema, err
	}

	bucket := goqu.L("date_bin(?::interval, idx, ?::timestamptz)", rule.interval, rule.origin).As(aliasBucket)

	bucketed := builder.
		From(ds.As(alias + "b")).
		Select(append([]any{bucket}, aggregates...)...).
		Where(goqu.C(colIdx).IsNotNull()).
		GroupBy(goqu.L("1"))

	reduced := builder.
		From(bucketed.As(alias)).
		Select(
			goqu.L("row_number() OVER (ORDER BY "+aliasBucket+") - 1").As(colPos),
			goqu.I(aliasBucket).As(colIdx),
			buildObject(pairs...).As(colData),
		)

	return reduced, schema.withColumns(op.Aggregations.Columns()), nil
}

// aggregateSelection returns the aggregate select expressions (aliased a0, a1, ...) and the
// name/value pairs that rebuild the row object from them, in sorted column order.
func aggregateSelection(schema frameSchema, aggregations lazyframe.Aggregations) ([]any, []any, error) {
	if len(aggregations) == 0 {
		return nil, nil, fmt.Errorf("%w: no aggregations", ErrUnsupportedOperation)
	}

	columns := aggregations.Columns()
	aggregates := make([]any, 0, len(columns))
	pairs := make([]any, 0, 2*len(columns))

	for i, column := range columns {
		if !schema.has(column) {
			return nil, nil, fmt.Errorf("%w: aggregated column %q", ErrUnknownColumn, column)
		}

		aggregate, err := aggregateExpression(column, aggregations[column])
		if err != nil {
			return nil, nil, err
		}

		name := fmt.Sprintf("%s%d", aliasAggPrefix, i)
		aggregates = append(aggregates, aggregate.As(name))
		pairs = append(pairs, column, goqu.I(name))
	}

	return aggregates, pairs, nil
}

func aggregateExpression(column string, fn lazyframe.AggregationFunc) (exp.LiteralExpression, error) {
	switch fn {
	case lazyframe.AggSum:
		return goqu.L("sum((data->>?)::numeric)", column), nil
	case lazyframe.AggMean:
		return goqu.L("avg((data->>?)::numeric)", column), nil
	case lazyframe.AggMin:
		return goqu.L("min((data->>?)::numeric)", column), nil
	case lazyframe.AggMax:
		return goqu.L("max((data->>?)::numeric)", column), nil
	case lazyframe.AggCount:
		return goqu.L("count(NULLIF(data->?, 'null'::jsonb))", column), nil
	case lazyframe.AggFirst:
		return goqu.L("(array_agg(data->? ORDER BY pos))[1]", column), nil
	case lazyframe.AggLast:
		return goqu.L("(array_agg(data->? ORDER BY pos DESC))[1]", column), nil
	default:
		return nil, fmt.Errorf("%w: aggregation %q for column %q", ErrUnsupportedOperation, fn, column)
	}
}

// buildObject renders jsonb_build_object over alternating name/value arguments.
func buildObject(pairs ...any) exp.LiteralExpression {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(pairs)), ", ")

	return goqu.L("jsonb_build_object("+placeholders+")", pairs...)
}

// isCompileError reports whether err was produced while compiling, not by the database.
func isCompileError(err error) bool {
	return errors.Is(err, ErrUnknownColumn) ||
		errors.Is(err, ErrUnsupportedOperation) ||
		errors.Is(err, ErrUnsupportedLiteral) ||
		errors.Is(err, ErrInvalidResampleRule)
}
