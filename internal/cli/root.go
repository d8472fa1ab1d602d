// Package cli implements the lazyframes command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lazyframes-go/internal/config"
	"github.com/AntonStoeckl/lazyframes-go/internal/tableio"
	"github.com/AntonStoeckl/lazyframes-go/lazyframe/postgresengine"
	"github.com/AntonStoeckl/lazyframes-go/lazyframe/promadapters"
)

// RootOptions holds global flags and the dependencies shared by all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "table" | "json" | "csv"
	EnvFile     string
	MetricsFile string

	OpenStore StoreFactory

	registry *prometheus.Registry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{tableio.FormatTable, tableio.FormatJSON, tableio.FormatCSV}

// NewRootCommand creates the root command for the lazyframes CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{OpenStore: OpenPostgresStore})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lazyframes",
		Short: "lazyframes - versioned time-series frames in Postgres",
		Long: `Write tables as versioned symbols into Postgres and read them back lazily:
filters, projections, column selections, group-bys and resamples are compiled
into one SQL statement per read.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.MetricsFile == "" || opts.registry == nil {
				return nil
			}

			if err := prometheus.WriteToTextfile(opts.MetricsFile, opts.registry); err != nil {
				return WrapExitError(ExitFailure, "failed to write metrics file", err)
			}

			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log executed SQL statements")
	flags.StringVar(&opts.Format, "format", tableio.FormatTable, "output format (table|json|csv)")
	flags.StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "dotenv file with LAZYFRAMES_* settings")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics of this run to the given file")
	flags.String("dsn", "", "Postgres DSN (overrides LAZYFRAMES_DSN)")
	flags.String("replica-dsn", "", "Postgres replica DSN used for --eventual reads (pgx and sql adapters)")
	flags.String("adapter", config.AdapterPGX, "database adapter (pgx|sql|sqlx)")
	flags.String("versions-table", "", "name of the versions table")
	flags.String("rows-table", "", "name of the rows table")
	flags.Int("batch-concurrency", 0, "number of batch entries read concurrently")

	cmd.AddCommand(NewInitSchemaCommand(opts))
	cmd.AddCommand(NewWriteCommand(opts))
	cmd.AddCommand(NewReadCommand(opts))
	cmd.AddCommand(NewReadBatchCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewVersionsCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))

	return cmd
}

// newLogger creates the slog logger handed to the symbol store.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore loads the configuration and opens the store with logging and, if requested, metrics.
func openStore(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (Store, func(), error) {
	cfg, err := config.Load(opts.EnvFile, cmd.Flags())
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	options := []postgresengine.Option{postgresengine.WithLogger(newLogger(cmd.ErrOrStderr(), opts.Verbose))}

	if opts.MetricsFile != "" {
		opts.registry = prometheus.NewRegistry()
		options = append(options, postgresengine.WithMetrics(promadapters.NewMetricsCollector(opts.registry)))
	}

	store, closeStore, err := opts.OpenStore(ctx, cfg, options...)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return store, closeStore, nil
}
