package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kolam-ikan/kolam/internal/document"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Commit, inspect and revert entry versions",
	}
	cmd.AddCommand(newVersionCommitCmd())
	cmd.AddCommand(newVersionListCmd())
	cmd.AddCommand(newVersionShowCmd())
	cmd.AddCommand(newVersionRevertCmd())
	return cmd
}

func parseVersionNumber(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid version number: %s", s)
	}
	return n, nil
}

func newVersionCommitCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit <entry-id>",
		Short: "Snapshot the entry's current content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			version, err := app.CommitEntryVersion(ctx, args[0], optionalFlag(cmd, "message", message))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Committed version %d\n", version.Number)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")
	return cmd
}

func newVersionListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list <entry-id>",
		Short: "List versions of an entry, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			versions, err := app.EntryVersions(ctx, args[0])
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return outputJSON(cmd, versions)
			case "table":
				if len(versions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No versions committed")
					return nil
				}
				renderVersions(cmd, versions)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func newVersionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <entry-id> [number]",
		Short: "Print a version's content (latest when no number is given)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var n int64
			if len(args) == 2 {
				var err error
				if n, err = parseVersionNumber(args[1]); err != nil {
					return err
				}
			}

			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			version, err := app.LatestVersion(ctx, args[0])
			if n > 0 {
				version, err = app.VersionByNumber(ctx, args[0], n)
			}
			if err != nil {
				return err
			}
			if version == nil {
				return fmt.Errorf("no such version for entry %s", args[0])
			}

			text, err := document.PlainText(version.Content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	return cmd
}

func newVersionRevertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert <entry-id> <number>",
		Short: "Restore a version by committing it again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseVersionNumber(args[1])
			if err != nil {
				return err
			}

			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			version, err := app.RevertToVersion(ctx, args[0], n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reverted to version %d as version %d\n", n, version.Number)
			return nil
		},
	}
	return cmd
}
