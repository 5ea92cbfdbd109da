package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kolam-ikan/kolam/internal/bridge"
	"github.com/kolam-ikan/kolam/internal/model"
)

func newExportCmd() *cobra.Command {
	var directive string

	cmd := &cobra.Command{
		Use:   "export <stream-id>",
		Short: "Compose the staged entries into a bridge block for an AI chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, ws, closeDB, err := openWorkspace(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeDB()

			result, err := ws.Export(ctx, model.Directive(directive))
			if err != nil {
				return err
			}
			if result.ReplacedID != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "Replaced the previous pending export; its key is no longer accepted")
			}
			fmt.Fprint(cmd.OutOrStdout(), result.Text)
			if !strings.HasSuffix(result.Text, "\n") {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&directive, "directive", "d", "", "DUMP, CRITIQUE or GENERATE (configured default when empty)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		file      string
		target    string
		message   string
		modelName string
		provider  string
		summary   string
	)

	cmd := &cobra.Command{
		Use:   "import <stream-id>",
		Short: "Import an AI reply that carries the pending bridge key",
		Long:  "Import reads the reply from --file or stdin. A reply without the pending key changes nothing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			ctx := context.Background()
			_, ws, closeDB, err := openWorkspace(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeDB()

			result, err := ws.Import(ctx, bridge.ImportRequest{
				Reply:         reply,
				TargetEntryID: target,
				Message:       message,
				Model:         modelName,
				Provider:      provider,
				Summary:       summary,
			})
			if err != nil {
				return err
			}
			if !result.Matched {
				if result.FoundKey != "" {
					return fmt.Errorf("reply carries bridge key %s, expected %s", result.FoundKey, result.Block.BridgeKey)
				}
				return fmt.Errorf("reply carries no bridge key, expected %s", result.Block.BridgeKey)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported into entry #%d as version %d\n", result.Entry.SequenceID, result.Version.Number)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the reply from file ('-' for stdin)")
	cmd.Flags().StringVar(&target, "target", "", "Commit the reply as a new version of this entry")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")
	cmd.Flags().StringVar(&modelName, "model", "", "Model that wrote the reply")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider of the model")
	cmd.Flags().StringVar(&summary, "summary", "", "Short summary of the reply")
	return cmd
}

func newPendingCmd() *cobra.Command {
	var discard bool

	cmd := &cobra.Command{
		Use:   "pending <stream-id>",
		Short: "Show or discard the export awaiting a reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, ws, closeDB, err := openWorkspace(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeDB()

			if discard {
				if err := ws.Discard(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Pending export discarded")
				return nil
			}

			block, err := app.PendingBlock(ctx, args[0])
			if err != nil {
				return err
			}
			if block == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending export")
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key:       %s\n", block.BridgeKey)
			fmt.Fprintf(out, "Directive: %s\n", block.Directive)
			fmt.Fprintf(out, "Entries:   %d\n", len(block.StagedEntryIDs))
			fmt.Fprintf(out, "Created:   %s\n", block.CreatedAt.Local().Format(timeLayout))
			return nil
		},
	}

	cmd.Flags().BoolVar(&discard, "discard", false, "Cancel the pending export")
	return cmd
}

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Generate, validate and extract bridge keys",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Print a fresh bridge key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeDB, err := openApp(context.Background())
			if err != nil {
				return err
			}
			defer closeDB()

			key, err := app.GenerateBridgeKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <key>",
		Short: "Check that stdin carries the marker for key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, "")
			if err != nil {
				return err
			}
			app, closeDB, err := openApp(context.Background())
			if err != nil {
				return err
			}
			defer closeDB()

			if !app.ValidateBridgeKey(text, args[0]) {
				return fmt.Errorf("bridge key %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "extract",
		Short: "Print the bridge key found on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readInput(cmd, "")
			if err != nil {
				return err
			}
			app, closeDB, err := openApp(context.Background())
			if err != nil {
				return err
			}
			defer closeDB()

			key, ok := app.ExtractBridgeKey(text)
			if !ok {
				return fmt.Errorf("no bridge key found")
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	})

	return cmd
}
