package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolam-ikan/kolam/internal/config"
	"github.com/kolam-ikan/kolam/internal/database"
)

func newResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every stream, entry, version and profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				ok, err := confirm(cmd, cmd.InOrStdin(), fmt.Sprintf("Erase all data in %s? This cannot be undone.", config.GetDBPath()))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled")
					return nil
				}
			}

			dbCtx, err := database.CreateDatabase("")
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			if err := database.ClearDatabase(context.Background(), dbCtx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data erased")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}
