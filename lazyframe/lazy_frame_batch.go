package lazyframe

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// LazyFrameBatch is an ordered group of LazyFrame(s) that are collected together in one
// BatchReader call.
//
// Position i of the batch corresponds to position i of the originating request list and to
// position i of the Collect result. Batch-wide operations are recorded on each frame's own
// QueryBuilder, so frames can diverge after a shared prefix via At(i).
type LazyFrameBatch struct {
	reader BatchReader
	frames []*LazyFrame
}

// LazyBatch creates one LazyFrame per request, bound to library, and wraps them in a batch.
// This is the lazy counterpart of an eager batch read.
func LazyBatch(library Library, requests []ReadRequest) *LazyFrameBatch {
	frames := make([]*LazyFrame, 0, len(requests))
	for _, request := range requests {
		frames = append(frames, &LazyFrame{reader: library, request: request.clone()})
	}

	return &LazyFrameBatch{reader: library, frames: frames}
}

// NewLazyFrameBatch wraps existing frames without copying them.
func NewLazyFrameBatch(reader BatchReader, frames ...*LazyFrame) *LazyFrameBatch {
	return &LazyFrameBatch{reader: reader, frames: slices.Clone(frames)}
}

// Len returns the number of frames.
func (b *LazyFrameBatch) Len() int {
	return len(b.frames)
}

// At returns the frame at position i. Changes made through it are visible to the batch.
func (b *LazyFrameBatch) At(i int) *LazyFrame {
	return b.frames[i]
}

// Frames returns the frames in batch order.
func (b *LazyFrameBatch) Frames() []*LazyFrame {
	return slices.Clone(b.frames)
}

// Requests returns the ReadRequest(s) Collect would forward right now, in batch order.
func (b *LazyFrameBatch) Requests() []ReadRequest {
	requests := make([]ReadRequest, 0, len(b.frames))
	for _, frame := range b.frames {
		requests = append(requests, frame.Request())
	}

	return requests
}

// Filter records the same FilterOperation on every frame, in batch order.
// A predicate referencing a column one symbol lacks fails for that entry at Collect time.
func (b *LazyFrameBatch) Filter(predicate Expression) *LazyFrameBatch {
	for _, frame := range b.frames {
		frame.Filter(predicate)
	}

	return b
}

// Where is the same operation as Filter.
func (b *LazyFrameBatch) Where(predicate Expression) *LazyFrameBatch {
	return b.Filter(predicate)
}

// Collect forwards all frames to the BatchReader in one call and returns one VersionedItem
// per frame, in batch order.
//
// An error of the whole call is returned unchanged. Failed entries are reported as
// *PerEntryReadError (joined), their positions in the result hold a zero VersionedItem while
// the other positions still carry their items.
func (b *LazyFrameBatch) Collect(ctx context.Context) ([]VersionedItem, error) {
	if len(b.frames) == 0 {
		return []VersionedItem{}, nil
	}

	if b.reader == nil {
		return nil, ErrNilReader
	}

	requests := b.Requests()

	results, err := b.reader.ReadBatch(ctx, requests)
	if err != nil {
		return nil, err
	}

	if len(results) != len(requests) {
		return nil, errors.Join(
			ErrBatchResultMismatch,
			fmt.Errorf("expected %d results, got %d", len(requests), len(results)),
		)
	}

	items := make([]VersionedItem, len(results))
	entryErrs := make([]error, 0)

	for i, result := range results {
		if result.Err != nil {
			entryErrs = append(entryErrs, &PerEntryReadError{Index: i, Symbol: requests[i].Symbol, Cause: result.Err})
			continue
		}

		items[i] = result.Item
	}

	return items, errors.Join(entryErrs...)
}
