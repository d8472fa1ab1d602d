package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lazyframes-go/internal/tableio"
	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

// ReadOptions holds the flags shared by the read and read-batch commands.
type ReadOptions struct {
	Symbols   []string
	Version   int64
	AsOfTime  string
	Start     string
	End       string
	RowStart  int64
	RowEnd    int64
	Columns   []string
	QueryFile string
	Eventual  bool
}

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReadOptions{}

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read one symbol, optionally applying a query",
		Long: `Read one symbol lazily. Read-time flags (--as-of-*, --start/--end, --row-start/--row-end,
--columns) restrict the source, --query applies an operation sequence stored as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(rootOpts, opts, cmd)
		},
	}

	addReadFlags(cmd, opts)
	cmd.Flags().StringSliceVarP(&opts.Symbols, "symbol", "s", nil, "symbol to read (required)")
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}

// NewReadBatchCommand creates the read-batch command.
func NewReadBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReadOptions{}

	cmd := &cobra.Command{
		Use:   "read-batch",
		Short: "Read several symbols in one batch with the same read-time binding and query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReadBatch(rootOpts, opts, cmd)
		},
	}

	addReadFlags(cmd, opts)
	cmd.Flags().StringSliceVarP(&opts.Symbols, "symbol", "s", nil, "symbols to read, repeatable (required)")
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}

func addReadFlags(cmd *cobra.Command, opts *ReadOptions) {
	flags := cmd.Flags()
	flags.Int64Var(&opts.Version, "as-of-version", -1, "read this version instead of the latest")
	flags.StringVar(&opts.AsOfTime, "as-of-time", "", "read the newest version written at or before this RFC 3339 time")
	flags.StringVar(&opts.Start, "start", "", "first index timestamp to read (RFC 3339, inclusive)")
	flags.StringVar(&opts.End, "end", "", "last index timestamp to read (RFC 3339, inclusive)")
	flags.Int64Var(&opts.RowStart, "row-start", 0, "first row position to read")
	flags.Int64Var(&opts.RowEnd, "row-end", 0, "row position to stop before")
	flags.StringSliceVar(&opts.Columns, "columns", nil, "columns to read")
	flags.StringVarP(&opts.QueryFile, "query", "q", "", "JSON file with the operation sequence to apply")
	flags.BoolVar(&opts.Eventual, "eventual", false, "allow reading from the replica")
	cmd.MarkFlagsMutuallyExclusive("as-of-version", "as-of-time")
}

func runRead(rootOpts *RootOptions, opts *ReadOptions, cmd *cobra.Command) error {
	if len(opts.Symbols) != 1 {
		return NewExitError(ExitCommandError, "read takes exactly one --symbol, use read-batch for several")
	}

	readOptions, err := opts.readOptions(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid read flags", err)
	}

	ctx := opts.context(cmd.Context())

	store, closeStore, err := openStore(ctx, rootOpts, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	item, err := lazyframe.Lazy(store, opts.Symbols[0], readOptions...).Collect(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read symbol", err)
	}

	return tableio.Render(cmd.OutOrStdout(), item, rootOpts.Format)
}

func runReadBatch(rootOpts *RootOptions, opts *ReadOptions, cmd *cobra.Command) error {
	readOptions, err := opts.readOptions(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid read flags", err)
	}

	requests := make([]lazyframe.ReadRequest, 0, len(opts.Symbols))
	for _, symbol := range opts.Symbols {
		requests = append(requests, lazyframe.BuildReadRequest(symbol, readOptions...))
	}

	ctx := opts.context(cmd.Context())

	store, closeStore, err := openStore(ctx, rootOpts, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	items, err := lazyframe.LazyBatch(store, requests).Collect(ctx)

	var failed map[int]error
	if err != nil {
		failed = failedEntries(err)
		if len(failed) == 0 {
			return WrapExitError(ExitFailure, "failed to read batch", err)
		}
	}

	for i, item := range items {
		if entryErr, ok := failed[i]; ok {
			if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", entryErr); err != nil {
				return err
			}
			continue
		}

		if err := tableio.Render(cmd.OutOrStdout(), item, rootOpts.Format); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d batch entries failed", len(failed), len(items)))
	}

	return nil
}

// failedEntries maps batch positions to their *lazyframe.PerEntryReadError.
func failedEntries(err error) map[int]error {
	failed := map[int]error{}

	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		var entryErr *lazyframe.PerEntryReadError
		if errors.As(err, &entryErr) {
			failed[entryErr.Index] = entryErr
		}
		return failed
	}

	for _, e := range joined.Unwrap() {
		var entryErr *lazyframe.PerEntryReadError
		if errors.As(e, &entryErr) {
			failed[entryErr.Index] = entryErr
		}
	}

	return failed
}

func (opts *ReadOptions) context(ctx context.Context) context.Context {
	if opts.Eventual {
		return lazyframe.WithEventualConsistency(ctx)
	}

	return lazyframe.WithStrongConsistency(ctx)
}

// readOptions turns the read-time flags into lazyframe.ReadOption(s).
func (opts *ReadOptions) readOptions(cmd *cobra.Command) ([]lazyframe.ReadOption, error) {
	readOptions := make([]lazyframe.ReadOption, 0)

	switch {
	case opts.Version >= 0:
		readOptions = append(readOptions, lazyframe.WithAsOf(lazyframe.AtVersion(uint64(opts.Version))))
	case opts.AsOfTime != "":
		ts, err := time.Parse(time.RFC3339Nano, opts.AsOfTime)
		if err != nil {
			return nil, fmt.Errorf("--as-of-time: %w", err)
		}
		readOptions = append(readOptions, lazyframe.WithAsOf(lazyframe.AtTime(ts)))
	}

	if opts.Start != "" || opts.End != "" {
		start, err := parseOptionalTime(opts.Start)
		if err != nil {
			return nil, fmt.Errorf("--start: %w", err)
		}
		end, err := parseOptionalTime(opts.End)
		if err != nil {
			return nil, fmt.Errorf("--end: %w", err)
		}
		readOptions = append(readOptions, lazyframe.WithDateRange(start, end))
	}

	if cmd.Flags().Changed("row-start") || cmd.Flags().Changed("row-end") {
		readOptions = append(readOptions, lazyframe.WithRowRange(opts.RowStart, opts.RowEnd))
	}

	if len(opts.Columns) > 0 {
		readOptions = append(readOptions, lazyframe.WithColumns(opts.Columns...))
	}

	if opts.QueryFile != "" {
		data, err := os.ReadFile(opts.QueryFile)
		if err != nil {
			return nil, err
		}

		query, err := lazyframe.UnmarshalQueryJSON(data)
		if err != nil {
			return nil, err
		}
		readOptions = append(readOptions, lazyframe.WithQuery(query))
	}

	return readOptions, nil
}

func parseOptionalTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.RFC3339Nano, value)
}
