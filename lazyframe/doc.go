// Package lazyframe provides a deferred query builder for time-indexed, columnar data.
//
// Nothing is executed while operations are chained. A LazyFrame records filters, ranges,
// column selections, projections, groupings and resamplings into a QueryBuilder, and Collect
// hands the whole sequence to an engine (a Reader) in one call. A LazyFrameBatch does the same
// for many symbols through one BatchReader call.
//
// Key types:
//   - Expression: symbolic column expressions built with Col and Lit
//   - Operation: one recorded relational operation (FilterOperation, ProjectionOperation, ...)
//   - QueryBuilder: the ordered operation sequence
//   - LazyFrame: a symbol read bound to a QueryBuilder
//   - LazyFrameBatch: an ordered group of LazyFrame(s) collected together
//   - Reader, BatchReader: the engine contract
//
// Common usage pattern:
//
//	lf := lazyframe.Lazy(store, "prices", lazyframe.WithAsOf(lazyframe.Latest()))
//	lf = lf.Filter(lazyframe.Col("col1").IsIn(0, 3, 6, 9)).
//		Apply("total", lazyframe.Col("col1").Add(lazyframe.Col("col2")))
//
//	item, err := lf.Collect(ctx)
//	if err != nil {
//		// handle error
//	}
//
//	batch := lazyframe.LazyBatch(store, []lazyframe.ReadRequest{
//		lazyframe.BuildReadRequest("a"),
//		lazyframe.BuildReadRequest("b"),
//	})
//	items, err := batch.Filter(lazyframe.Col("col1").Gt(3)).Collect(ctx)
package lazyframe
