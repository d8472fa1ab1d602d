package tableio

import "errors"

var (
	ErrReadingCSVFailed         = errors.New("reading csv failed")
	ErrReadingParquetFailed     = errors.New("reading parquet failed")
	ErrIndexColumnNotFound      = errors.New("index column not found")
	ErrInvalidIndexValue        = errors.New("index value is not a timestamp")
	ErrUnsupportedParquetColumn = errors.New("unsupported parquet column")
	ErrUnknownFormat            = errors.New("unknown output format")
	ErrRenderingFailed          = errors.New("rendering table failed")
)
