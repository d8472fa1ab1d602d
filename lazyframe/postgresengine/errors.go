package postgresengine

import "errors"

var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptyTableName = errors.New("table name must not be empty")
var ErrInvalidBatchConcurrency = errors.New("batch concurrency must be at least 1")
var ErrEmptySymbol = errors.New("symbol must not be empty")
var ErrSymbolNotFound = errors.New("symbol or version not found")
var ErrUnknownColumn = errors.New("unknown column")
var ErrUnsupportedOperation = errors.New("operation not supported on this frame")
var ErrUnsupportedLiteral = errors.New("literal type not supported")
var ErrInvalidResampleRule = errors.New("invalid resample rule")
var ErrBuildingQueryFailed = errors.New("building query failed")
var ErrQueryingSymbolFailed = errors.New("querying symbol failed")
var ErrScanningDBRowFailed = errors.New("scanning db row failed")
var ErrDecodingRowFailed = errors.New("decoding row data failed")
var ErrEncodingRowFailed = errors.New("encoding row data failed")
var ErrWritingSymbolFailed = errors.New("writing symbol failed")
var ErrConcurrentWrite = errors.New("another writer created the same version concurrently")
var ErrDeletingSymbolFailed = errors.New("deleting symbol failed")
var ErrCreatingSchemaFailed = errors.New("creating schema failed")
