package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStageCmd() *cobra.Command {
	var (
		unstage  bool
		toggle   bool
		all      bool
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "stage <stream-id> [entry-id...]",
		Short: "Select entries of a stream for the next export",
		Long:  "Stage entries for export. Without entry ids, prints the current selection.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			streamID, ids := args[0], args[1:]

			ctx := context.Background()
			_, ws, closeDB, err := openWorkspace(ctx, streamID)
			if err != nil {
				return err
			}
			defer closeDB()

			switch {
			case clearAll:
				err = ws.ClearStaging(ctx)
			case all:
				err = ws.StageAll(ctx)
			case toggle:
				for _, id := range ids {
					staged, terr := ws.Toggle(ctx, id)
					if terr != nil {
						return terr
					}
					state := "unstaged"
					if staged {
						state = "staged"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id, state)
				}
			case unstage:
				err = ws.Unstage(ctx, ids...)
			case len(ids) > 0:
				err = ws.Stage(ctx, ids...)
			}
			if err != nil {
				return err
			}

			staged, err := ws.StagedEntries(ctx)
			if err != nil {
				return err
			}
			if len(staged) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing staged")
				return nil
			}
			renderEntries(cmd, staged, ws.Selector().Has)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&unstage, "unstage", "u", false, "Unstage the given entries")
	cmd.Flags().BoolVar(&toggle, "toggle", false, "Toggle the given entries")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Stage every entry of the stream")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Clear the selection")
	cmd.MarkFlagsMutuallyExclusive("unstage", "toggle", "all", "clear")
	return cmd
}
