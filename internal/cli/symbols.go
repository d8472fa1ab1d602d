package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lazyframes-go/internal/tableio"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, closeStore, err := openStore(ctx, rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			symbols, err := store.ListSymbols(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list symbols", err)
			}

			for _, symbol := range symbols {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), symbol); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

// NewVersionsCommand creates the versions command.
func NewVersionsCommand(rootOpts *RootOptions) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the stored versions of a symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, closeStore, err := openStore(ctx, rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			versions, err := store.ListVersions(ctx, symbol)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list versions", err)
			}

			if rootOpts.Format != tableio.FormatTable {
				for _, v := range versions {
					line := fmt.Sprintf("%d,%s,%s,%s", v.Version, v.WrittenAt.UTC().Format(time.RFC3339Nano), v.IndexName, strings.Join(v.Columns, " "))
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
						return err
					}
				}
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"version", "written_at", "index", "columns"})
			for _, v := range versions {
				table.Append([]string{
					fmt.Sprint(v.Version),
					v.WrittenAt.UTC().Format(time.RFC3339Nano),
					v.IndexName,
					strings.Join(v.Columns, ", "),
				})
			}
			table.Render()

			return nil
		},
	}

	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "symbol to inspect (required)")
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete all versions of a symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, closeStore, err := openStore(ctx, rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			deleted, err := store.DeleteSymbol(ctx, symbol)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to delete symbol", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d version(s) of %s\n", deleted, symbol)

			return err
		},
	}

	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "symbol to delete (required)")
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}
