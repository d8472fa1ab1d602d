package postgresengine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
	"github.com/AntonStoeckl/lazyframes-go/lazyframe/postgresengine/internal/adapters"
)

const (
	defaultVersionsTableName = "symbol_versions"
	defaultRowsTableName     = "symbol_rows"
	defaultBatchConcurrency  = 4

	logMsgResolveVersionFailed = "failed to resolve symbol version"
	logMsgBuildQueryFailed     = "failed to build query"
	logMsgDBQueryFailed        = "database query execution failed"
	logMsgCloseRowsFailed      = "failed to close database rows"
	logMsgScanRowFailed        = "failed to scan database row"
	logMsgDecodeRowFailed      = "failed to decode row data"
	logMsgEncodeRowFailed      = "failed to encode row data"
	logMsgDBExecFailed         = "database execution failed"
	logMsgConcurrentWrite      = "concurrent write detected"
	logMsgSymbolRead           = "symbol read"
	logMsgBatchRead            = "batch read"
	logMsgSymbolWritten        = "symbol written"
	logMsgSymbolDeleted        = "symbol deleted"
	logMsgSchemaCreated        = "schema created"
	logMsgSQLExecuted          = "executed sql for: "
	logMsgOperation            = "lazyframe operation: "
	logAttrError               = "error"
	logAttrQuery               = "query"
	logAttrSymbol              = "symbol"
	logAttrVersion             = "version"
	logAttrAsOf                = "as_of"
	logAttrRowCount            = "row_count"
	logAttrOperationCount      = "operation_count"
	logAttrBatchID             = "batch_id"
	logAttrBatchSize           = "batch_size"
	logAttrFailedEntries       = "failed_entries"
	logAttrDurationMS          = "duration_ms"
	logActionResolveVersion    = "resolve version"
	logActionRead              = "read"
	logActionWrite             = "write"
	logActionListVersions      = "list versions"
	logActionListSymbols       = "list symbols"
	logActionDelete            = "delete"
	logActionCreateSchema      = "create schema"
	colSymbol                  = "symbol"
	colVersion                 = "version"
	colIndexName               = "index_name"
	colColumnNames             = "column_names"
	colMetadata                = "metadata"
	colWrittenAt               = "written_at"
	colPos                     = "pos"
	colIdx                     = "idx"
	colData                    = "data"
	cteVersion                 = "ver"
	cteVals                    = "vals"
	cteRows                    = "ins"
	dialectPostgres            = "postgres"
	castBigint                 = "?::bigint"
	castTimestamp              = "?::timestamptz"
	castJsonb                  = "?::jsonb"
	castTextArray              = "?::text[]"
	pgUniqueViolation          = "23505"
)

var rowJSON = jsoniter.Config{UseNumber: true}.Froze()

// SymbolStore is a versioned table store on PostgreSQL and an execution engine for lazy frames.
//
// Every Write creates a new immutable version of a symbol. Reads resolve a version (latest,
// exact, or as of a point in time) and push the whole operation sequence down into one SQL
// statement. A SymbolStore is safe for concurrent use.
type SymbolStore struct {
	db                adapters.DBAdapter
	versionsTableName string
	rowsTableName     string
	batchConcurrency  int
	logger            lazyframe.Logger
	contextualLogger  lazyframe.ContextualLogger
	metricsCollector  lazyframe.MetricsCollector
}

var _ lazyframe.Library = SymbolStore{}

// VersionInfo describes one stored version of a symbol.
type VersionInfo struct {
	Symbol    string
	Version   uint64
	IndexName string
	Columns   []string
	WrittenAt time.Time
}

// storedVersion is a resolved row of the versions table.
type storedVersion struct {
	version   uint64
	indexName string
	columns   []string
	metadata  []byte
	writtenAt time.Time
}

// NewSymbolStoreFromPGXPool creates a new SymbolStore using a pgx Pool with optional configuration.
func NewSymbolStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (SymbolStore, error) {
	if db == nil {
		return SymbolStore{}, ErrNilDatabaseConnection
	}

	return newSymbolStore(adapters.NewPGXAdapter(db), options...)
}

// NewSymbolStoreFromPGXPoolAndReplica creates a new SymbolStore using a primary and a replica pgx Pool.
// Reads go to the replica only when the context carries lazyframe.WithEventualConsistency.
func NewSymbolStoreFromPGXPoolAndReplica(primary *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (SymbolStore, error) {
	if primary == nil || replica == nil {
		return SymbolStore{}, ErrNilDatabaseConnection
	}

	return newSymbolStore(adapters.NewPGXAdapterWithReplica(primary, replica), options...)
}

// NewSymbolStoreFromSQLDB creates a new SymbolStore using a sql.DB with optional configuration.
func NewSymbolStoreFromSQLDB(db *sql.DB, options ...Option) (SymbolStore, error) {
	if db == nil {
		return SymbolStore{}, ErrNilDatabaseConnection
	}

	return newSymbolStore(adapters.NewSQLAdapter(db), options...)
}

// NewSymbolStoreFromSQLDBAndReplica creates a new SymbolStore using a primary and a replica sql.DB.
// Reads go to the replica only when the context carries lazyframe.WithEventualConsistency.
func NewSymbolStoreFromSQLDBAndReplica(primary *sql.DB, replica *sql.DB, options ...Option) (SymbolStore, error) {
	if primary == nil || replica == nil {
		return SymbolStore{}, ErrNilDatabaseConnection
	}

	return newSymbolStore(adapters.NewSQLAdapterWithReplica(primary, replica), options...)
}

// NewSymbolStoreFromSQLX creates a new SymbolStore using a sqlx.DB with optional configuration.
func NewSymbolStoreFromSQLX(db *sqlx.DB, options ...Option) (SymbolStore, error) {
	if db == nil {
		return SymbolStore{}, ErrNilDatabaseConnection
	}

	return newSymbolStore(adapters.NewSQLXAdapter(db), options...)
}

func newSymbolStore(db adapters.DBAdapter, options ...Option) (SymbolStore, error) {
	ss := SymbolStore{
		db:                db,
		versionsTableName: defaultVersionsTableName,
		rowsTableName:     defaultRowsTableName,
		batchConcurrency:  defaultBatchConcurrency,
	}

	for _, option := range options {
		if err := option(&ss); err != nil {
			return SymbolStore{}, err
		}
	}

	return ss, nil
}

/***** Read *****/

// Read resolves the requested version of a symbol and materializes it with the read-time binding
// and the operation sequence applied, in that order.
func (ss SymbolStore) Read(ctx context.Context, request lazyframe.ReadRequest) (lazyframe.VersionedItem, error) {
	metrics := ss.startReadMetrics(ctx)

	item, errorType, err := ss.read(ctx, request)
	if err != nil {
		metrics.recordError(errorType)
		return lazyframe.VersionedItem{}, err
	}

	metrics.recordSuccess(item.Data.NumRows())

	return item, nil
}

func (ss SymbolStore) read(ctx context.Context, request lazyframe.ReadRequest) (lazyframe.VersionedItem, string, error) {
	start := time.Now()

	if request.Symbol == "" {
		return lazyframe.VersionedItem{}, errorTypeValidation, ErrEmptySymbol
	}

	version, errorType, err := ss.resolveVersion(ctx, request.Symbol, request.AsOf)
	if err != nil {
		return lazyframe.VersionedItem{}, errorType, err
	}

	compiled, compileErr := queryCompiler{rowsTableName: ss.rowsTableName}.compile(request, version)
	if compileErr != nil {
		ss.logError(ctx, logMsgBuildQueryFailed, compileErr, logAttrSymbol, request.Symbol)

		errorType = errorTypeBuildQuery
		if isCompileError(compileErr) {
			errorType = errorTypeValidation
		}

		return lazyframe.VersionedItem{}, errorType, errors.Join(ErrBuildingQueryFailed, compileErr)
	}

	table, errorType, err := ss.queryTable(ctx, compiled)
	if err != nil {
		return lazyframe.VersionedItem{}, errorType, err
	}

	item, buildErr := lazyframe.BuildVersionedItem(request.Symbol, version.version, table, version.metadata)
	if buildErr != nil {
		ss.logError(ctx, logMsgDecodeRowFailed, buildErr, logAttrSymbol, request.Symbol)
		return lazyframe.VersionedItem{}, errorTypeDecode, errors.Join(ErrDecodingRowFailed, buildErr)
	}

	ss.logOperation(
		ctx,
		logMsgSymbolRead,
		logAttrSymbol, request.Symbol,
		logAttrVersion, version.version,
		logAttrOperationCount, request.Query.Len(),
		logAttrRowCount, table.NumRows(),
		logAttrDurationMS, ss.toMilliseconds(time.Since(start)),
	)

	return item, "", nil
}

// resolveVersion finds the version row selected by asOf.
func (ss SymbolStore) resolveVersion(ctx context.Context, symbol string, asOf lazyframe.AsOf) (storedVersion, string, error) {
	sqlQuery, buildErr := ss.buildResolveVersionQuery(symbol, asOf)
	if buildErr != nil {
		ss.logError(ctx, logMsgBuildQueryFailed, buildErr, logAttrSymbol, symbol)
		return storedVersion{}, errorTypeBuildQuery, errors.Join(ErrBuildingQueryFailed, buildErr)
	}

	rows, queryErr := ss.executeQuery(ctx, sqlQuery, logActionResolveVersion)
	if queryErr != nil {
		return storedVersion{}, errorTypeQuery, queryErr
	}
	defer ss.closeRows(ctx, rows)

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			ss.logError(ctx, logMsgResolveVersionFailed, err, logAttrSymbol, symbol)
			return storedVersion{}, errorTypeQuery, errors.Join(ErrQueryingSymbolFailed, err)
		}

		return storedVersion{}, errorTypeNotFound, fmt.Errorf("%w: %q at %s", ErrSymbolNotFound, symbol, asOf)
	}

	var (
		version  int64
		columns  pq.StringArray
		resolved storedVersion
	)

	if scanErr := rows.Scan(&version, &resolved.indexName, &columns, &resolved.metadata, &resolved.writtenAt); scanErr != nil {
		ss.logError(ctx, logMsgScanRowFailed, scanErr, logAttrSymbol, symbol)
		return storedVersion{}, errorTypeScan, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	resolved.version = uint64(version)
	resolved.columns = columns

	return resolved, "", nil
}

func (ss SymbolStore) buildResolveVersionQuery(symbol string, asOf lazyframe.AsOf) (string, error) {
	ds := goqu.Dialect(dialectPostgres).
		From(ss.versionsTableName).
		Select(colVersion, colIndexName, goqu.L(colColumnNames+"::text"), colMetadata, colWrittenAt).
		Where(goqu.C(colSymbol).Eq(symbol)).
		Order(goqu.C(colVersion).Desc()).
		Limit(1)

	if version, ok := asOf.Version(); ok {
		ds = ds.Where(goqu.C(colVersion).Eq(int64(version)))
	}

	if timestamp, ok := asOf.Timestamp(); ok {
		ds = ds.Where(goqu.C(colWrittenAt).Lte(timestamp))
	}

	sqlQuery, _, toSQLErr := ds.ToSQL()

	return sqlQuery, toSQLErr
}

// queryTable executes a compiled query and decodes its rows into a Table.
func (ss SymbolStore) queryTable(ctx context.Context, compiled compiledQuery) (lazyframe.Table, string, error) {
	rows, queryErr := ss.executeQuery(ctx, compiled.sql, logActionRead)
	if queryErr != nil {
		return lazyframe.Table{}, errorTypeQuery, queryErr
	}
	defer ss.closeRows(ctx, rows)

	schema := compiled.schema
	table := lazyframe.Table{IndexName: schema.indexName, Columns: make([]lazyframe.Column, len(schema.columns))}
	for i, name := range schema.columns {
		table.Columns[i] = lazyframe.Column{Name: name, Values: make([]any, 0)}
	}

	for rows.Next() {
		var idx sql.NullTime
		var data []byte

		if scanErr := rows.Scan(&idx, &data); scanErr != nil {
			ss.logError(ctx, logMsgScanRowFailed, scanErr)
			return lazyframe.Table{}, errorTypeScan, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		values, decodeErr := decodeRow(data)
		if decodeErr != nil {
			ss.logError(ctx, logMsgDecodeRowFailed, decodeErr)
			return lazyframe.Table{}, errorTypeDecode, errors.Join(ErrDecodingRowFailed, decodeErr)
		}

		if schema.indexed {
			table.Index = append(table.Index, idx.Time.UTC())
		}

		for i, name := range schema.columns {
			table.Columns[i].Values = append(table.Columns[i].Values, values[name])
		}
	}

	if err := rows.Err(); err != nil {
		ss.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, compiled.sql)
		return lazyframe.Table{}, errorTypeQuery, errors.Join(ErrQueryingSymbolFailed, err)
	}

	return table, "", nil
}

// decodeRow decodes one jsonb row object. Integral numbers become int64, other numbers float64.
func decodeRow(data []byte) (map[string]any, error) {
	var values map[string]any
	if err := rowJSON.Unmarshal(data, &values); err != nil {
		return nil, err
	}

	for name, value := range values {
		values[name] = normalizeNumber(value)
	}

	return values, nil
}

func normalizeNumber(value any) any {
	number, ok := value.(json.Number)
	if !ok {
		return value
	}

	if i, err := number.Int64(); err == nil {
		return i
	}

	if f, err := number.Float64(); err == nil {
		return f
	}

	return number.String()
}

/***** ReadBatch *****/

// ReadBatch reads every request and returns one result per request, in request order.
//
// A failing entry does not affect the others: its error is reported in BatchReadResult.Err.
// The returned error is only set when the context is done before all entries were read.
func (ss SymbolStore) ReadBatch(ctx context.Context, requests []lazyframe.ReadRequest) ([]lazyframe.BatchReadResult, error) {
	start := time.Now()
	batchID := uuid.Must(uuid.NewV7()).String()
	results := make([]lazyframe.BatchReadResult, len(requests))

	group := errgroup.Group{}
	group.SetLimit(ss.batchConcurrency)

	for i, request := range requests {
		group.Go(func() error {
			item, err := ss.Read(ctx, request)
			results[i] = lazyframe.BatchReadResult{Item: item, Err: err}

			return nil
		})
	}

	_ = group.Wait()

	if err := interruptedBatchError(ctx, results); err != nil {
		return nil, err
	}

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}

	status := statusSuccess
	if failed > 0 {
		status = statusError
	}

	ss.recordValue(ctx, metricBatchSize, float64(len(requests)), operationReadBatch, status)
	ss.recordDuration(ctx, metricReadDuration, time.Since(start), operationReadBatch, status)

	ss.logOperation(
		ctx,
		logMsgBatchRead,
		logAttrBatchID, batchID,
		logAttrBatchSize, len(requests),
		logAttrFailedEntries, failed,
		logAttrDurationMS, ss.toMilliseconds(time.Since(start)),
	)

	return results, nil
}

// interruptedBatchError returns the context error if ctx is done and at least one entry failed
// because of it. A batch that completed before the cancellation keeps its results.
func interruptedBatchError(ctx context.Context, results []lazyframe.BatchReadResult) error {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		return nil
	}

	for _, result := range results {
		if errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded) {
			return ctxErr
		}
	}

	return nil
}

/***** Write *****/

// Write stores table as a new version of symbol and returns it as a VersionedItem.
//
// The version number is assigned in the same statement that inserts the rows: 0 for a new symbol,
// otherwise the highest existing version plus one. A concurrent writer that claimed the same
// version first makes Write fail with ErrConcurrentWrite.
func (ss SymbolStore) Write(
	ctx context.Context,
	symbol string,
	table lazyframe.Table,
	metadata json.RawMessage,
) (lazyframe.VersionedItem, error) {

	start := time.Now()
	metrics := ss.startWriteMetrics(ctx)

	if symbol == "" {
		metrics.recordError(errorTypeValidation)
		return lazyframe.VersionedItem{}, ErrEmptySymbol
	}

	item, validationErr := lazyframe.BuildVersionedItem(symbol, 0, table, metadata)
	if validationErr != nil {
		metrics.recordError(errorTypeValidation)
		return lazyframe.VersionedItem{}, validationErr
	}

	sqlQuery, buildErr := ss.buildWriteQuery(symbol, table, item.Metadata)
	if buildErr != nil {
		ss.logError(ctx, logMsgEncodeRowFailed, buildErr, logAttrSymbol, symbol)
		metrics.recordError(errorTypeEncode)
		return lazyframe.VersionedItem{}, buildErr
	}

	version, errorType, execErr := ss.executeWrite(lazyframe.WithStrongConsistency(ctx), symbol, sqlQuery)
	if execErr != nil {
		metrics.recordError(errorType)
		return lazyframe.VersionedItem{}, execErr
	}

	item.Version = version
	metrics.recordSuccess(table.NumRows())

	ss.logOperation(
		ctx,
		logMsgSymbolWritten,
		logAttrSymbol, symbol,
		logAttrVersion, version,
		logAttrRowCount, table.NumRows(),
		logAttrDurationMS, ss.toMilliseconds(time.Since(start)),
	)

	return item, nil
}

func (ss SymbolStore) executeWrite(ctx context.Context, symbol string, sqlQuery string) (uint64, string, error) {
	rows, queryErr := ss.executeQuery(ctx, sqlQuery, logActionWrite)
	if queryErr != nil {
		if isUniqueViolation(queryErr) {
			ss.logOperation(ctx, logMsgConcurrentWrite, logAttrSymbol, symbol)
			return 0, errorTypeConcurrentWrite, errors.Join(ErrWritingSymbolFailed, ErrConcurrentWrite, queryErr)
		}

		return 0, errorTypeQuery, errors.Join(ErrWritingSymbolFailed, queryErr)
	}
	defer ss.closeRows(ctx, rows)

	var version int64

	if !rows.Next() {
		err := rows.Err()
		if err == nil {
			err = errors.New("no version returned")
		}

		if isUniqueViolation(err) {
			ss.logOperation(ctx, logMsgConcurrentWrite, logAttrSymbol, symbol)
			return 0, errorTypeConcurrentWrite, errors.Join(ErrWritingSymbolFailed, ErrConcurrentWrite, err)
		}

		ss.logError(ctx, logMsgDBExecFailed, err, logAttrSymbol, symbol)
		return 0, errorTypeQuery, errors.Join(ErrWritingSymbolFailed, err)
	}

	if scanErr := rows.Scan(&version); scanErr != nil {
		ss.logError(ctx, logMsgScanRowFailed, scanErr, logAttrSymbol, symbol)
		return 0, errorTypeScan, errors.Join(ErrWritingSymbolFailed, scanErr)
	}

	return uint64(version), "", nil
}

// buildWriteQuery builds one statement that claims the next version and inserts all rows:
//
//	WITH ver AS (INSERT INTO versions ... SELECT COALESCE(MAX(version) + 1, 0) ... RETURNING version),
//	     vals AS (SELECT pos, idx, data UNION ALL ...),
//	     ins AS (INSERT INTO rows ... SELECT ... FROM ver, vals)
//	SELECT version FROM ver
func (ss SymbolStore) buildWriteQuery(symbol string, table lazyframe.Table, metadata json.RawMessage) (string, error) {
	builder := goqu.Dialect(dialectPostgres)

	columnNames := table.ColumnNames()

	versionStmt := builder.
		Insert(ss.versionsTableName).
		Cols(colSymbol, colVersion, colIndexName, colColumnNames, colMetadata).
		FromQuery(
			builder.
				From(ss.versionsTableName).
				Select(
					goqu.V(symbol),
					goqu.L("COALESCE(MAX("+colVersion+") + 1, 0)"),
					goqu.V(table.IndexName),
					goqu.L(castTextArray, pq.Array(columnNames)),
					goqu.L(castJsonb, string(metadata)),
				).
				Where(goqu.C(colSymbol).Eq(symbol)),
		).
		Returning(colVersion)

	valsStmt, encodeErr := ss.buildValuesQuery(builder, table)
	if encodeErr != nil {
		return "", errors.Join(ErrEncodingRowFailed, encodeErr)
	}

	rowsStmt := builder.
		Insert(ss.rowsTableName).
		Cols(colSymbol, colVersion, colPos, colIdx, colData).
		FromQuery(
			builder.
				From(cteVersion, cteVals).
				Select(
					goqu.V(symbol),
					goqu.I(cteVersion+"."+colVersion),
					goqu.I(cteVals+"."+colPos),
					goqu.I(cteVals+"."+colIdx),
					goqu.I(cteVals+"."+colData),
				),
		)

	writeStmt := builder.
		From(cteVersion).
		Select(colVersion).
		With(cteVersion, versionStmt).
		With(cteVals, valsStmt).
		With(cteRows, rowsStmt)

	sqlQuery, _, toSQLErr := writeStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildValuesQuery renders every row of table as one SELECT, combined with UNION ALL.
func (ss SymbolStore) buildValuesQuery(builder goqu.DialectWrapper, table lazyframe.Table) (*goqu.SelectDataset, error) {
	rowCount := table.NumRows()

	if rowCount == 0 {
		return builder.
			Select(
				goqu.L(castBigint, 0).As(colPos),
				goqu.L("NULL::timestamptz").As(colIdx),
				goqu.L(castJsonb, "{}").As(colData),
			).
			Where(goqu.L("false")), nil
	}

	var valuesStmt *goqu.SelectDataset

	for pos := 0; pos < rowCount; pos++ {
		row := make(map[string]any, len(table.Columns))
		for _, column := range table.Columns {
			row[column.Name] = column.Values[pos]
		}

		data, err := rowJSON.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", pos, err)
		}

		idx := goqu.L("NULL::timestamptz")
		if len(table.Index) > 0 {
			idx = goqu.L(castTimestamp, table.Index[pos])
		}

		rowStmt := builder.Select(
			goqu.L(castBigint, pos).As(colPos),
			idx.As(colIdx),
			goqu.L(castJsonb, string(data)).As(colData),
		)

		if valuesStmt == nil {
			valuesStmt = rowStmt
			continue
		}

		valuesStmt = valuesStmt.UnionAll(rowStmt)
	}

	return valuesStmt, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}

	return false
}

/***** Maintenance *****/

// ListVersions returns all stored versions of symbol, oldest first.
func (ss SymbolStore) ListVersions(ctx context.Context, symbol string) ([]VersionInfo, error) {
	sqlQuery, _, toSQLErr := goqu.Dialect(dialectPostgres).
		From(ss.versionsTableName).
		Select(colVersion, colIndexName, goqu.L(colColumnNames+"::text"), colWrittenAt).
		Where(goqu.C(colSymbol).Eq(symbol)).
		Order(goqu.C(colVersion).Asc()).
		ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := ss.executeQuery(ctx, sqlQuery, logActionListVersions)
	if queryErr != nil {
		return nil, queryErr
	}
	defer ss.closeRows(ctx, rows)

	versions := make([]VersionInfo, 0)

	for rows.Next() {
		var version int64
		var columns pq.StringArray
		info := VersionInfo{Symbol: symbol}

		if scanErr := rows.Scan(&version, &info.IndexName, &columns, &info.WrittenAt); scanErr != nil {
			ss.logError(ctx, logMsgScanRowFailed, scanErr, logAttrSymbol, symbol)
			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		info.Version = uint64(version)
		info.Columns = columns
		versions = append(versions, info)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryingSymbolFailed, err)
	}

	return versions, nil
}

// ListSymbols returns the names of all stored symbols, sorted.
func (ss SymbolStore) ListSymbols(ctx context.Context) ([]string, error) {
	sqlQuery, _, toSQLErr := goqu.Dialect(dialectPostgres).
		From(ss.versionsTableName).
		Select(colSymbol).
		Distinct().
		Order(goqu.C(colSymbol).Asc()).
		ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := ss.executeQuery(ctx, sqlQuery, logActionListSymbols)
	if queryErr != nil {
		return nil, queryErr
	}
	defer ss.closeRows(ctx, rows)

	symbols := make([]string, 0)

	for rows.Next() {
		var symbol string
		if scanErr := rows.Scan(&symbol); scanErr != nil {
			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryingSymbolFailed, err)
	}

	return symbols, nil
}

// DeleteSymbol removes all versions of symbol and returns how many versions were deleted.
func (ss SymbolStore) DeleteSymbol(ctx context.Context, symbol string) (int64, error) {
	if symbol == "" {
		return 0, ErrEmptySymbol
	}

	versionsSQL, _, buildErr := goqu.Dialect(dialectPostgres).
		Delete(ss.versionsTableName).
		Where(goqu.C(colSymbol).Eq(symbol)).
		ToSQL()
	if buildErr != nil {
		return 0, errors.Join(ErrBuildingQueryFailed, buildErr)
	}

	// The rows of every version go with it through ON DELETE CASCADE, in the same statement.
	deleted, err := ss.executeExec(lazyframe.WithStrongConsistency(ctx), versionsSQL, logActionDelete)
	if err != nil {
		return 0, errors.Join(ErrDeletingSymbolFailed, err)
	}

	ss.logOperation(ctx, logMsgSymbolDeleted, logAttrSymbol, symbol, logAttrVersion, deleted)

	return deleted, nil
}

/***** Execution helpers *****/

// executeQuery executes a query, logging it with its duration.
func (ss SymbolStore) executeQuery(ctx context.Context, sqlQuery string, action string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := ss.db.Query(ctx, sqlQuery)
	ss.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if queryErr != nil {
		ss.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, errors.Join(ErrQueryingSymbolFailed, queryErr)
	}

	return rows, nil
}

// executeExec executes a statement, logging it with its duration, and returns the affected row count.
func (ss SymbolStore) executeExec(ctx context.Context, sqlQuery string, action string) (int64, error) {
	start := time.Now()
	result, execErr := ss.db.Exec(ctx, sqlQuery)
	ss.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if execErr != nil {
		ss.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, execErr
	}

	return result.RowsAffected()
}

// closeRows closes database rows and logs any errors.
func (ss SymbolStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		ss.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}
