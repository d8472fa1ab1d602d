package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

// LibrarySpy is a lazyframe.Library implementation that captures read calls for testing.
type LibrarySpy struct {
	readRequests  []lazyframe.ReadRequest
	batchRequests [][]lazyframe.ReadRequest

	readItem lazyframe.VersionedItem
	readErr  error

	batchResults []lazyframe.BatchReadResult
	batchErr     error
	batchFunc    func(requests []lazyframe.ReadRequest) []lazyframe.BatchReadResult

	mu sync.Mutex
}

// NewLibrarySpy creates a LibrarySpy that answers every Read with an empty item and every
// ReadBatch with one empty item per request.
func NewLibrarySpy() *LibrarySpy {
	return &LibrarySpy{}
}

// WithReadResult makes Read return item and err.
func (s *LibrarySpy) WithReadResult(item lazyframe.VersionedItem, err error) *LibrarySpy {
	s.readItem = item
	s.readErr = err

	return s
}

// WithBatchResults makes ReadBatch return results and err regardless of the request count.
func (s *LibrarySpy) WithBatchResults(results []lazyframe.BatchReadResult, err error) *LibrarySpy {
	s.batchResults = results
	s.batchErr = err

	return s
}

// WithBatchFunc makes ReadBatch compute its results from the received requests.
func (s *LibrarySpy) WithBatchFunc(fn func(requests []lazyframe.ReadRequest) []lazyframe.BatchReadResult) *LibrarySpy {
	s.batchFunc = fn

	return s
}

// Read implements lazyframe.Reader.
func (s *LibrarySpy) Read(_ context.Context, request lazyframe.ReadRequest) (lazyframe.VersionedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readRequests = append(s.readRequests, request)

	if s.readErr != nil {
		return lazyframe.VersionedItem{}, s.readErr
	}

	item := s.readItem
	if item.Symbol == "" {
		item.Symbol = request.Symbol
	}

	return item, nil
}

// ReadBatch implements lazyframe.BatchReader.
func (s *LibrarySpy) ReadBatch(_ context.Context, requests []lazyframe.ReadRequest) ([]lazyframe.BatchReadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batchRequests = append(s.batchRequests, requests)

	if s.batchErr != nil {
		return nil, s.batchErr
	}

	if s.batchFunc != nil {
		return s.batchFunc(requests), nil
	}

	if s.batchResults != nil {
		return s.batchResults, nil
	}

	results := make([]lazyframe.BatchReadResult, 0, len(requests))
	for _, request := range requests {
		results = append(results, lazyframe.BatchReadResult{Item: lazyframe.VersionedItem{Symbol: request.Symbol}})
	}

	return results, nil
}

// ReadCallCount returns the number of Read calls.
func (s *LibrarySpy) ReadCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.readRequests)
}

// BatchCallCount returns the number of ReadBatch calls.
func (s *LibrarySpy) BatchCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.batchRequests)
}

// LastReadRequest returns the request of the most recent Read call.
func (s *LibrarySpy) LastReadRequest() (lazyframe.ReadRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.readRequests) == 0 {
		return lazyframe.ReadRequest{}, false
	}

	return s.readRequests[len(s.readRequests)-1], true
}

// LastBatchRequests returns the requests of the most recent ReadBatch call.
func (s *LibrarySpy) LastBatchRequests() ([]lazyframe.ReadRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.batchRequests) == 0 {
		return nil, false
	}

	return s.batchRequests[len(s.batchRequests)-1], true
}
