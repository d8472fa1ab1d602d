package lazyframe

import (
	"math"
	"slices"
	"time"
)

/***** QueryBuilder *****/

// QueryBuilder accumulates an ordered sequence of Operation(s) without executing anything.
//
// It never reorders and never validates: the execution engine alone knows which columns exist
// and which types they have. Sequence order is load-bearing, e.g. a Filter recorded before a
// Projection sees the pre-projection columns.
//
// QueryBuilder has value semantics. Every appending method returns a new QueryBuilder which
// never shares a backing array with the receiver, so builders derived from a common prefix can
// diverge safely:
//
//	base := BuildQuery().Filter(Col("price").Gt(0))
//	cheap := base.Filter(Col("price").Lt(10))
//	pricey := base.Filter(Col("price").Ge(10))
type QueryBuilder struct {
	operations []Operation
}

// BuildQuery creates an empty QueryBuilder.
func BuildQuery() QueryBuilder {
	return QueryBuilder{}
}

// Append records op at the end of the sequence.
func (qb QueryBuilder) Append(op Operation) QueryBuilder {
	qb.operations = append(slices.Clip(qb.operations), op)

	return qb
}

// Operations returns a copy of the recorded sequence in append order.
func (qb QueryBuilder) Operations() []Operation {
	return slices.Clone(qb.operations)
}

// Len returns the number of recorded operations.
func (qb QueryBuilder) Len() int {
	return len(qb.operations)
}

// IsEmpty reports whether nothing has been recorded.
func (qb QueryBuilder) IsEmpty() bool {
	return len(qb.operations) == 0
}

// HasReduction reports whether the sequence contains a GroupBy or Resample.
func (qb QueryBuilder) HasReduction() bool {
	return slices.ContainsFunc(qb.operations, IsReduction)
}

// Filter records a FilterOperation.
func (qb QueryBuilder) Filter(predicate Expression) QueryBuilder {
	return qb.Append(Filter(predicate))
}

// Where is the same operation as Filter.
func (qb QueryBuilder) Where(predicate Expression) QueryBuilder {
	return qb.Filter(predicate)
}

// DateRange records a DateRangeOperation. A zero start or end leaves that side open.
func (qb QueryBuilder) DateRange(start, end time.Time) QueryBuilder {
	return qb.Append(DateRangeOperation{Range: DateRange{Start: start, End: end}})
}

// RowRange records a RowRangeOperation over [start, end).
func (qb QueryBuilder) RowRange(start, end int64) QueryBuilder {
	return qb.Append(RowRangeOperation{Range: RowRange{Start: start, End: end}})
}

// Head keeps the first n rows.
func (qb QueryBuilder) Head(n int64) QueryBuilder {
	return qb.RowRange(0, n)
}

// Tail keeps the last n rows. Tail(0) keeps none.
func (qb QueryBuilder) Tail(n int64) QueryBuilder {
	if n <= 0 {
		return qb.RowRange(0, 0)
	}

	return qb.RowRange(-n, math.MaxInt64)
}

// Columns records a ColumnSelectionOperation.
func (qb QueryBuilder) Columns(names ...string) QueryBuilder {
	return qb.Append(SelectColumns(names...))
}

// Apply records a ProjectionOperation adding or overwriting the column name.
func (qb QueryBuilder) Apply(name string, expr Expression) QueryBuilder {
	return qb.Append(Project(name, expr))
}

// WithColumn is the same operation as Apply.
func (qb QueryBuilder) WithColumn(name string, expr Expression) QueryBuilder {
	return qb.Apply(name, expr)
}

// GroupBy starts a grouping which must be completed with Agg.
func (qb QueryBuilder) GroupBy(key string) GroupedQuery {
	return GroupedQuery{query: qb, key: key, started: true}
}

// Resample starts a time bucketing which must be completed with Agg.
func (qb QueryBuilder) Resample(rule string) ResampledQuery {
	return ResampledQuery{query: qb, rule: rule, started: true}
}

/***** GroupedQuery *****/

// GroupedQuery is the intermediate state between GroupBy and Agg. Agg is its only operation.
type GroupedQuery struct {
	query   QueryBuilder
	key     string
	started bool
}

// Agg completes the grouping and records a GroupByOperation.
func (gq GroupedQuery) Agg(aggregations Aggregations) (QueryBuilder, error) {
	if err := checkAgg("grouped query", gq.started, aggregations); err != nil {
		return QueryBuilder{}, err
	}

	return gq.query.Append(GroupBy(gq.key, aggregations)), nil
}

/***** ResampledQuery *****/

// ResampledQuery is the intermediate state between Resample and Agg. Agg is its only operation.
type ResampledQuery struct {
	query   QueryBuilder
	rule    string
	started bool
}

// Agg completes the resampling and records a ResampleOperation.
func (rq ResampledQuery) Agg(aggregations Aggregations) (QueryBuilder, error) {
	if err := checkAgg("resampled query", rq.started, aggregations); err != nil {
		return QueryBuilder{}, err
	}

	return rq.query.Append(Resample(rq.rule, aggregations)), nil
}

func checkAgg(builder string, started bool, aggregations Aggregations) error {
	if !started {
		return &InvalidStateError{Builder: builder, Reason: "Agg called without GroupBy or Resample"}
	}

	if len(aggregations) == 0 {
		return &InvalidStateError{Builder: builder, Reason: "Agg needs at least one aggregation"}
	}

	return nil
}
