package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitSchemaCommand creates the init-schema command.
func NewInitSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create the versions and rows tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, closeStore, err := openStore(ctx, rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.CreateSchema(ctx); err != nil {
				return WrapExitError(ExitFailure, "failed to create schema", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema ready")

			return err
		},
	}
}
