package lazyframe

import (
	"maps"
	"slices"
	"time"
)

// OperationKind tags an Operation.
type OperationKind string

const (
	KindFilter          OperationKind = "filter"
	KindDateRange       OperationKind = "date_range"
	KindRowRange        OperationKind = "row_range"
	KindColumnSelection OperationKind = "columns"
	KindProjection      OperationKind = "projection"
	KindGroupBy         OperationKind = "groupby"
	KindResample        OperationKind = "resample"
)

// Operation is one recorded relational operation.
// Operations are pure data; execution engines decide how to run them.
type Operation interface {
	Kind() OperationKind
}

// IsReduction reports whether op collapses rows into groups (GroupBy or Resample).
func IsReduction(op Operation) bool {
	kind := op.Kind()
	return kind == KindGroupBy || kind == KindResample
}

/***** Ranges *****/

// DateRange bounds the row index. Both ends are inclusive; a zero time means the bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// HasStart reports whether the lower bound is set.
func (dr DateRange) HasStart() bool { return !dr.Start.IsZero() }

// HasEnd reports whether the upper bound is set.
func (dr DateRange) HasEnd() bool { return !dr.End.IsZero() }

// RowRange selects rows by position, half-open [Start, End).
// Negative values count from the end of the frame. Bounds beyond the frame are clamped by the engine.
type RowRange struct {
	Start int64
	End   int64
}

/***** Aggregations *****/

// AggregationFunc names a reduction applied per group or per time bucket.
type AggregationFunc string

const (
	AggSum   AggregationFunc = "sum"
	AggMean  AggregationFunc = "mean"
	AggMin   AggregationFunc = "min"
	AggMax   AggregationFunc = "max"
	AggCount AggregationFunc = "count"
	AggFirst AggregationFunc = "first"
	AggLast  AggregationFunc = "last"
)

// Aggregations maps a column name to the function that reduces it.
type Aggregations map[string]AggregationFunc

// Columns returns the aggregated column names, sorted.
func (a Aggregations) Columns() []string {
	return slices.Sorted(maps.Keys(a))
}

func (a Aggregations) clone() Aggregations {
	return maps.Clone(a)
}

/***** Operation descriptors *****/

// FilterOperation keeps rows for which Predicate evaluates to true.
type FilterOperation struct {
	Predicate Expression
}

func (FilterOperation) Kind() OperationKind { return KindFilter }

// DateRangeOperation keeps rows whose index lies within Range.
type DateRangeOperation struct {
	Range DateRange
}

func (DateRangeOperation) Kind() OperationKind { return KindDateRange }

// RowRangeOperation keeps rows by position.
type RowRangeOperation struct {
	Range RowRange
}

func (RowRangeOperation) Kind() OperationKind { return KindRowRange }

// ColumnSelectionOperation restricts the output columns. Output order is decided by the engine.
type ColumnSelectionOperation struct {
	Columns []string
}

func (ColumnSelectionOperation) Kind() OperationKind { return KindColumnSelection }

// ProjectionOperation adds or overwrites the column Name with the value of Expr.
type ProjectionOperation struct {
	Name string
	Expr Expression
}

func (ProjectionOperation) Kind() OperationKind { return KindProjection }

// GroupByOperation partitions rows by Key and reduces each group.
type GroupByOperation struct {
	Key          string
	Aggregations Aggregations
}

func (GroupByOperation) Kind() OperationKind { return KindGroupBy }

// ResampleOperation buckets the time index by Rule and reduces each bucket.
type ResampleOperation struct {
	Rule         string
	Aggregations Aggregations
}

func (ResampleOperation) Kind() OperationKind { return KindResample }

// Filter creates a FilterOperation.
func Filter(predicate Expression) FilterOperation {
	return FilterOperation{Predicate: predicate}
}

// SelectColumns creates a ColumnSelectionOperation holding its own copy of names.
func SelectColumns(names ...string) ColumnSelectionOperation {
	return ColumnSelectionOperation{Columns: slices.Clone(names)}
}

// Project creates a ProjectionOperation.
func Project(name string, expr Expression) ProjectionOperation {
	return ProjectionOperation{Name: name, Expr: expr}
}

// GroupBy creates a GroupByOperation holding its own copy of aggregations.
func GroupBy(key string, aggregations Aggregations) GroupByOperation {
	return GroupByOperation{Key: key, Aggregations: aggregations.clone()}
}

// Resample creates a ResampleOperation holding its own copy of aggregations.
func Resample(rule string, aggregations Aggregations) ResampleOperation {
	return ResampleOperation{Rule: rule, Aggregations: aggregations.clone()}
}
