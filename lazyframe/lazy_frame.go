package lazyframe

import (
	"context"
	"time"
)

/***** LazyFrame *****/

// LazyFrame binds one symbol read to an accumulated operation sequence and defers all work
// until Collect.
//
// Every chaining method records into the frame's own QueryBuilder and returns the same frame,
// so `lf = lf.Filter(...)` and `lf.Filter(...)` have the same effect. Collect is a pure forward
// to the Reader: it is never memoised and does not end the frame's life, operations appended
// after a Collect are included in the next one.
//
// A LazyFrame is not safe for concurrent mutation.
type LazyFrame struct {
	reader  Reader
	request ReadRequest
}

// Lazy creates a LazyFrame for symbol. This is the lazy counterpart of an eager read.
func Lazy(reader Reader, symbol string, options ...ReadOption) *LazyFrame {
	return &LazyFrame{
		reader:  reader,
		request: BuildReadRequest(symbol, options...),
	}
}

// Symbol returns the symbol this frame reads.
func (lf *LazyFrame) Symbol() string {
	return lf.request.Symbol
}

// AsOf returns the version this frame reads.
func (lf *LazyFrame) AsOf() AsOf {
	return lf.request.AsOf
}

// Query returns the accumulated operation sequence.
func (lf *LazyFrame) Query() QueryBuilder {
	return lf.request.Query
}

// Request returns the ReadRequest Collect would forward right now.
func (lf *LazyFrame) Request() ReadRequest {
	return lf.request.clone()
}

// Filter records a FilterOperation.
func (lf *LazyFrame) Filter(predicate Expression) *LazyFrame {
	lf.request.Query = lf.request.Query.Filter(predicate)

	return lf
}

// Where is the same operation as Filter.
func (lf *LazyFrame) Where(predicate Expression) *LazyFrame {
	return lf.Filter(predicate)
}

// DateRange records a DateRangeOperation. A zero start or end leaves that side open.
func (lf *LazyFrame) DateRange(start, end time.Time) *LazyFrame {
	lf.request.Query = lf.request.Query.DateRange(start, end)

	return lf
}

// RowRange records a RowRangeOperation over [start, end).
func (lf *LazyFrame) RowRange(start, end int64) *LazyFrame {
	lf.request.Query = lf.request.Query.RowRange(start, end)

	return lf
}

// Head keeps the first n rows.
func (lf *LazyFrame) Head(n int64) *LazyFrame {
	lf.request.Query = lf.request.Query.Head(n)

	return lf
}

// Tail keeps the last n rows. Tail(0) keeps none.
func (lf *LazyFrame) Tail(n int64) *LazyFrame {
	lf.request.Query = lf.request.Query.Tail(n)

	return lf
}

// Columns records a ColumnSelectionOperation.
func (lf *LazyFrame) Columns(names ...string) *LazyFrame {
	lf.request.Query = lf.request.Query.Columns(names...)

	return lf
}

// Apply records a ProjectionOperation adding or overwriting the column name.
func (lf *LazyFrame) Apply(name string, expr Expression) *LazyFrame {
	lf.request.Query = lf.request.Query.Apply(name, expr)

	return lf
}

// WithColumn is the same operation as Apply.
func (lf *LazyFrame) WithColumn(name string, expr Expression) *LazyFrame {
	return lf.Apply(name, expr)
}

// GroupBy starts a grouping which must be completed with Agg.
func (lf *LazyFrame) GroupBy(key string) *GroupedLazyFrame {
	return &GroupedLazyFrame{frame: lf, key: key}
}

// Resample starts a time bucketing which must be completed with Agg.
// The rule has the form <n><unit>, e.g. "1min", "15s", "1h", "1D".
func (lf *LazyFrame) Resample(rule string) *ResampledLazyFrame {
	return &ResampledLazyFrame{frame: lf, rule: rule}
}

// Collect forwards the read binding and the accumulated operation sequence to the Reader and
// returns its result unchanged, including its error.
func (lf *LazyFrame) Collect(ctx context.Context) (VersionedItem, error) {
	if lf.reader == nil {
		return VersionedItem{}, ErrNilReader
	}

	return lf.reader.Read(ctx, lf.Request())
}

/***** GroupedLazyFrame *****/

// GroupedLazyFrame is the intermediate state between GroupBy and Agg. Agg is its only operation
// and may be called once.
type GroupedLazyFrame struct {
	frame *LazyFrame
	key   string
	spent bool
}

// Agg completes the grouping, records a GroupByOperation on the originating frame and returns it.
func (g *GroupedLazyFrame) Agg(aggregations Aggregations) (*LazyFrame, error) {
	if err := checkIntermediate("grouped frame", g != nil && g.frame != nil, g != nil && g.spent, aggregations); err != nil {
		return nil, err
	}

	g.spent = true
	g.frame.request.Query = g.frame.request.Query.Append(GroupBy(g.key, aggregations))

	return g.frame, nil
}

/***** ResampledLazyFrame *****/

// ResampledLazyFrame is the intermediate state between Resample and Agg. Agg is its only
// operation and may be called once.
type ResampledLazyFrame struct {
	frame *LazyFrame
	rule  string
	spent bool
}

// Agg completes the resampling, records a ResampleOperation on the originating frame and returns it.
func (r *ResampledLazyFrame) Agg(aggregations Aggregations) (*LazyFrame, error) {
	if err := checkIntermediate("resampled frame", r != nil && r.frame != nil, r != nil && r.spent, aggregations); err != nil {
		return nil, err
	}

	r.spent = true
	r.frame.request.Query = r.frame.request.Query.Append(Resample(r.rule, aggregations))

	return r.frame, nil
}

func checkIntermediate(builder string, started bool, spent bool, aggregations Aggregations) error {
	if spent {
		return &InvalidStateError{Builder: builder, Reason: "Agg already called"}
	}

	return checkAgg(builder, started, aggregations)
}
