package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "kolam",
		Short:        "kolam - a thinking space that bridges notes to external AI chats",
		Long:         "kolam keeps streams of versioned notes and moves staged context to and from AI chats with bridge keys.",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.AddCommand(newStreamCmd())
	cmd.AddCommand(newEntryCmd())
	cmd.AddCommand(newStageCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newPendingCmd())
	cmd.AddCommand(newKeyCmd())
	cmd.AddCommand(newProfileCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newResetCmd())
	return cmd
}
