package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lazyframes-go/internal/tableio"
	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

// WriteOptions holds the flags of the write command.
type WriteOptions struct {
	Symbol      string
	CSVFile     string
	ParquetFile string
	IndexColumn string
	Metadata    string
}

// NewWriteCommand creates the write command.
func NewWriteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{}

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write a CSV or Parquet file as the next version of a symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Symbol, "symbol", "s", "", "symbol to write (required)")
	cmd.Flags().StringVar(&opts.CSVFile, "csv", "", "CSV file with a header row")
	cmd.Flags().StringVar(&opts.ParquetFile, "parquet", "", "Parquet file")
	cmd.Flags().StringVar(&opts.IndexColumn, "index", "", "column holding the time index")
	cmd.Flags().StringVar(&opts.Metadata, "metadata", "{}", "JSON metadata stored with the version")
	_ = cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagsMutuallyExclusive("csv", "parquet")
	cmd.MarkFlagsOneRequired("csv", "parquet")

	return cmd
}

func runWrite(rootOpts *RootOptions, opts *WriteOptions, cmd *cobra.Command) error {
	table, err := loadTable(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load input", err)
	}

	ctx := cmd.Context()

	store, closeStore, err := openStore(ctx, rootOpts, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	item, err := store.Write(ctx, opts.Symbol, table, json.RawMessage(opts.Metadata))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to write symbol", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s version %d (%d rows)\n", item.Symbol, item.Version, item.Data.NumRows())

	return err
}

func loadTable(opts *WriteOptions) (lazyframe.Table, error) {
	if opts.ParquetFile != "" {
		file, err := os.Open(opts.ParquetFile)
		if err != nil {
			return lazyframe.Table{}, err
		}
		defer func() { _ = file.Close() }()

		stat, err := file.Stat()
		if err != nil {
			return lazyframe.Table{}, err
		}

		return tableio.ReadParquet(file, stat.Size(), opts.IndexColumn)
	}

	file, err := os.Open(opts.CSVFile)
	if err != nil {
		return lazyframe.Table{}, err
	}
	defer func() { _ = file.Close() }()

	return tableio.ReadCSV(file, opts.IndexColumn)
}
