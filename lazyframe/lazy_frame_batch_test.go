package lazyframe_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
	"github.com/AntonStoeckl/lazyframes-go/testutil/lazyframe/testdoubles"
)

func echoVersions(requests []lazyframe.ReadRequest) []lazyframe.BatchReadResult {
	results := make([]lazyframe.BatchReadResult, 0, len(requests))
	for i, request := range requests {
		results = append(results, lazyframe.BatchReadResult{
			Item: lazyframe.VersionedItem{Symbol: request.Symbol, Version: uint64(i)},
		})
	}

	return results
}

func Test_LazyBatch_OneFramePerRequestInOrder(t *testing.T) {
	// setup
	spy := testdoubles.NewLibrarySpy()
	requests := []lazyframe.ReadRequest{
		lazyframe.BuildReadRequest("a"),
		lazyframe.BuildReadRequest("b", lazyframe.WithAsOf(lazyframe.AtVersion(2))),
		lazyframe.BuildReadRequest("c", lazyframe.WithColumns("col1")),
	}

	// act
	batch := lazyframe.LazyBatch(spy, requests)

	// assert
	assert.Equal(t, 3, batch.Len())
	assert.Equal(t, requests, batch.Requests())
	assert.Equal(t, 0, spy.BatchCallCount())
}

func Test_LazyFrameBatch_Filter_AppliesToEveryFrame(t *testing.T) {
	// setup
	spy := testdoubles.NewLibrarySpy()
	pred := lazyframe.Col("col1").IsIn(0, 3, 6, 9)
	batch := lazyframe.LazyBatch(spy, []lazyframe.ReadRequest{
		lazyframe.BuildReadRequest("s"),
		lazyframe.BuildReadRequest("s"),
		lazyframe.BuildReadRequest("s"),
	})

	// act
	returned := batch.Filter(pred)
	_, err := batch.Collect(context.Background())

	// assert
	assert.Same(t, batch, returned)
	assert.NoError(t, err)
	assert.Equal(t, 1, spy.BatchCallCount())

	forwarded, ok := spy.LastBatchRequests()
	assert.True(t, ok)
	assert.Len(t, forwarded, 3)
	for _, request := range forwarded {
		assert.Equal(t, []lazyframe.Operation{lazyframe.Filter(pred)}, request.Query.Operations())
	}
}

func Test_LazyFrameBatch_MatchesIndividuallyCollectedFrames(t *testing.T) {
	// setup
	ctx := context.Background()
	symbols := []string{"s1", "s2", "s3"}
	pred := lazyframe.Col("col1").Gt(2)
	spy := testdoubles.NewLibrarySpy()

	// arrange
	requests := make([]lazyframe.ReadRequest, 0, len(symbols))
	for _, symbol := range symbols {
		requests = append(requests, lazyframe.BuildReadRequest(symbol))
	}

	individual := make([]lazyframe.ReadRequest, 0, len(symbols))
	for _, symbol := range symbols {
		_, err := lazyframe.Lazy(spy, symbol).Filter(pred).Collect(ctx)
		assert.NoError(t, err)
		request, _ := spy.LastReadRequest()
		individual = append(individual, request)
	}

	// act
	_, err := lazyframe.LazyBatch(spy, requests).Where(pred).Collect(ctx)

	// assert
	assert.NoError(t, err)
	batched, _ := spy.LastBatchRequests()
	assert.Equal(t, individual, batched)
}

func Test_LazyFrameBatch_PositionalIntegrityAfterDivergence(t *testing.T) {
	// setup
	spy := testdoubles.NewLibrarySpy().WithBatchFunc(echoVersions)
	batch := lazyframe.LazyBatch(spy, []lazyframe.ReadRequest{
		lazyframe.BuildReadRequest("a"),
		lazyframe.BuildReadRequest("b"),
		lazyframe.BuildReadRequest("c"),
	}).Filter(lazyframe.Col("x").Gt(0))

	// arrange
	batch.At(0).Head(1)
	batch.At(2).Apply("y", lazyframe.Col("x").Mul(2)).Columns("y")

	// act
	items, err := batch.Collect(context.Background())

	// assert
	assert.NoError(t, err)
	assert.Len(t, items, 3)
	for i, symbol := range []string{"a", "b", "c"} {
		assert.Equal(t, symbol, items[i].Symbol)
		assert.Equal(t, uint64(i), items[i].Version)
	}

	forwarded, _ := spy.LastBatchRequests()
	assert.Equal(t, 2, forwarded[0].Query.Len())
	assert.Equal(t, 1, forwarded[1].Query.Len())
	assert.Equal(t, 3, forwarded[2].Query.Len())
	assert.Equal(t, lazyframe.KindRowRange, forwarded[0].Query.Operations()[1].Kind())
	assert.Equal(t, lazyframe.KindColumnSelection, forwarded[2].Query.Operations()[2].Kind())
}

func Test_LazyFrameBatch_Collect_When_BatchIsEmpty(t *testing.T) {
	// setup
	spy := testdoubles.NewLibrarySpy()

	// act
	items, err := lazyframe.LazyBatch(spy, nil).Collect(context.Background())

	// assert
	assert.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, 0, spy.BatchCallCount())
}

func Test_LazyFrameBatch_Collect_When_EntriesFail(t *testing.T) {
	// setup
	missing := errors.New("symbol not found")
	spy := testdoubles.NewLibrarySpy().WithBatchFunc(func(requests []lazyframe.ReadRequest) []lazyframe.BatchReadResult {
		results := echoVersions(requests)
		results[1] = lazyframe.BatchReadResult{Err: missing}
		return results
	})
	batch := lazyframe.LazyBatch(spy, []lazyframe.ReadRequest{
		lazyframe.BuildReadRequest("a"),
		lazyframe.BuildReadRequest("ghost"),
		lazyframe.BuildReadRequest("c"),
	})

	// act
	items, err := batch.Collect(context.Background())

	// assert
	assert.ErrorIs(t, err, missing)

	var entryErr *lazyframe.PerEntryReadError
	assert.ErrorAs(t, err, &entryErr)
	assert.Equal(t, 1, entryErr.Index)
	assert.Equal(t, "ghost", entryErr.Symbol)

	assert.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Symbol)
	assert.Equal(t, lazyframe.VersionedItem{}, items[1])
	assert.Equal(t, "c", items[2].Symbol)
}

func Test_LazyFrameBatch_Collect_When_EngineCallFails(t *testing.T) {
	// setup
	engineErr := fmt.Errorf("connection refused")
	spy := testdoubles.NewLibrarySpy().WithBatchResults(nil, engineErr)

	// act
	items, err := lazyframe.LazyBatch(spy, []lazyframe.ReadRequest{lazyframe.BuildReadRequest("a")}).
		Collect(context.Background())

	// assert
	assert.Nil(t, items)
	assert.Same(t, engineErr, err)
}

func Test_LazyFrameBatch_Collect_When_ResultCountMismatches(t *testing.T) {
	// setup
	spy := testdoubles.NewLibrarySpy().WithBatchResults([]lazyframe.BatchReadResult{{}}, nil)
	batch := lazyframe.LazyBatch(spy, []lazyframe.ReadRequest{
		lazyframe.BuildReadRequest("a"),
		lazyframe.BuildReadRequest("b"),
	})

	// act
	items, err := batch.Collect(context.Background())

	// assert
	assert.Nil(t, items)
	assert.ErrorIs(t, err, lazyframe.ErrBatchResultMismatch)
}

func Test_LazyFrameBatch_Collect_When_ReaderIsNil(t *testing.T) {
	batch := lazyframe.NewLazyFrameBatch(nil, lazyframe.Lazy(nil, "a"))

	_, err := batch.Collect(context.Background())

	assert.ErrorIs(t, err, lazyframe.ErrNilReader)
}

func Test_NewLazyFrameBatch_SharesFrames(t *testing.T) {
	// setup
	spy := testdoubles.NewLibrarySpy()
	lf := lazyframe.Lazy(spy, "a")

	// act
	batch := lazyframe.NewLazyFrameBatch(spy, lf)
	batch.Filter(lazyframe.Col("x").Eq(1))

	// assert
	assert.Same(t, lf, batch.At(0))
	assert.Equal(t, 1, lf.Query().Len())
}
