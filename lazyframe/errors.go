package lazyframe

import (
	"errors"
	"fmt"
)

var ErrInvalidState = errors.New("invalid builder state")
var ErrNilReader = errors.New("nil reader supplied")
var ErrBatchResultMismatch = errors.New("batch result count does not match request count")
var ErrRaggedTable = errors.New("table columns have different lengths")
var ErrInvalidMetadataJSON = errors.New("metadata json is not valid")
var ErrDecodingQueryFailed = errors.New("decoding query json failed")
var ErrEncodingQueryFailed = errors.New("encoding query json failed")

// InvalidStateError is returned when an intermediate builder (grouped or resampled frame)
// receives a call it cannot serve. It is reported at the call site, never deferred to Collect.
type InvalidStateError struct {
	Builder string
	Reason  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidState.Error(), e.Builder, e.Reason)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// PerEntryReadError attributes a failure of one entry of a batch collect to its position.
type PerEntryReadError struct {
	Index  int
	Symbol string
	Cause  error
}

func (e *PerEntryReadError) Error() string {
	return fmt.Sprintf("batch entry %d (symbol %q) failed: %v", e.Index, e.Symbol, e.Cause)
}

func (e *PerEntryReadError) Unwrap() error {
	return e.Cause
}
