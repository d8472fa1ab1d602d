package lazyframe

import (
	"context"
	"fmt"
	"slices"
	"time"
)

/***** AsOf *****/

type asOfKind int

const (
	asOfLatest asOfKind = iota
	asOfVersion
	asOfTimestamp
)

// AsOf selects which version of a symbol to read. The zero value means the latest version.
type AsOf struct {
	kind      asOfKind
	version   uint64
	timestamp time.Time
}

// Latest selects the most recent version.
func Latest() AsOf {
	return AsOf{kind: asOfLatest}
}

// AtVersion selects an exact version number.
func AtVersion(version uint64) AsOf {
	return AsOf{kind: asOfVersion, version: version}
}

// AtTime selects the newest version written at or before t.
func AtTime(t time.Time) AsOf {
	return AsOf{kind: asOfTimestamp, timestamp: t}
}

func (a AsOf) IsLatest() bool {
	return a.kind == asOfLatest
}

func (a AsOf) Version() (uint64, bool) {
	return a.version, a.kind == asOfVersion
}

func (a AsOf) Timestamp() (time.Time, bool) {
	return a.timestamp, a.kind == asOfTimestamp
}

func (a AsOf) String() string {
	switch a.kind {
	case asOfVersion:
		return fmt.Sprintf("version %d", a.version)
	case asOfTimestamp:
		return "time " + a.timestamp.Format(time.RFC3339Nano)
	default:
		return "latest"
	}
}

/***** ReadRequest *****/

// ReadRequest is everything an engine needs to materialize one symbol:
// the source binding established at read time plus the accumulated operation sequence.
type ReadRequest struct {
	Symbol    string
	AsOf      AsOf
	DateRange *DateRange
	RowRange  *RowRange
	Columns   []string
	Query     QueryBuilder
}

// clone returns a ReadRequest that shares no mutable state with r.
func (r ReadRequest) clone() ReadRequest {
	c := r
	if r.DateRange != nil {
		dr := *r.DateRange
		c.DateRange = &dr
	}

	if r.RowRange != nil {
		rr := *r.RowRange
		c.RowRange = &rr
	}

	c.Columns = slices.Clone(r.Columns)

	return c
}

// ReadOption configures the read-time binding of a lazy frame.
type ReadOption func(*ReadRequest)

// WithAsOf sets the version to read.
func WithAsOf(asOf AsOf) ReadOption {
	return func(r *ReadRequest) {
		r.AsOf = asOf
	}
}

// WithDateRange restricts the read to an index range.
func WithDateRange(start, end time.Time) ReadOption {
	return func(r *ReadRequest) {
		r.DateRange = &DateRange{Start: start, End: end}
	}
}

// WithRowRange restricts the read to a positional range.
func WithRowRange(start, end int64) ReadOption {
	return func(r *ReadRequest) {
		r.RowRange = &RowRange{Start: start, End: end}
	}
}

// WithColumns restricts the read to the named columns.
func WithColumns(columns ...string) ReadOption {
	return func(r *ReadRequest) {
		r.Columns = slices.Clone(columns)
	}
}

// WithQuery seeds the lazy frame with an already built operation sequence.
func WithQuery(query QueryBuilder) ReadOption {
	return func(r *ReadRequest) {
		r.Query = query
	}
}

// BuildReadRequest creates a ReadRequest for symbol with the given options applied.
func BuildReadRequest(symbol string, options ...ReadOption) ReadRequest {
	request := ReadRequest{Symbol: symbol}
	for _, option := range options {
		option(&request)
	}

	return request
}

/***** Engine contract *****/

// Reader materializes a single ReadRequest.
type Reader interface {
	Read(ctx context.Context, request ReadRequest) (VersionedItem, error)
}

// BatchReadResult is the outcome of one entry of a batch read.
type BatchReadResult struct {
	Item VersionedItem
	Err  error
}

// BatchReader materializes many ReadRequests in one call.
// Implementations must return exactly one BatchReadResult per request, in request order.
type BatchReader interface {
	ReadBatch(ctx context.Context, requests []ReadRequest) ([]BatchReadResult, error)
}

// Library is an engine that supports both single and batch reads.
type Library interface {
	Reader
	BatchReader
}
