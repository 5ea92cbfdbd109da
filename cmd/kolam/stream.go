package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/services"
)

func newStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Manage streams",
	}
	cmd.AddCommand(newStreamListCmd())
	cmd.AddCommand(newStreamCreateCmd())
	cmd.AddCommand(newStreamShowCmd())
	cmd.AddCommand(newStreamUpdateCmd())
	cmd.AddCommand(newStreamDeleteCmd())
	return cmd
}

type streamJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Pinned      bool     `json:"pinned"`
	EntryCount  int64    `json:"entry_count"`
	Created     string   `json:"created"`
	Updated     string   `json:"updated"`
}

func newStreamListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List streams, pinned first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			streams, err := app.Streams.List(ctx)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				out := make([]streamJSON, 0, len(streams))
				for _, s := range streams {
					out = append(out, streamJSON{
						ID:          s.ID,
						Title:       s.Title,
						Description: s.Description,
						Tags:        s.Tags,
						Color:       s.Color,
						Pinned:      s.Pinned,
						EntryCount:  s.EntryCount,
						Created:     s.CreatedAt.Format(time.RFC3339),
						Updated:     s.UpdatedAt.Format(time.RFC3339),
					})
				}
				return outputJSON(cmd, out)
			case "table":
				renderStreams(cmd, streams)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func newStreamCreateCmd() *cobra.Command {
	var (
		description string
		color       string
		tags        []string
		pinned      bool
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			stream, err := app.Streams.Create(ctx, services.CreateStreamInput{
				Title:       args[0],
				Description: optionalFlag(cmd, "description", description),
				Tags:        tags,
				Color:       optionalFlag(cmd, "color", color),
				Pinned:      pinned,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stream.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Stream description")
	cmd.Flags().StringVar(&color, "color", "", "Display color")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag (repeatable)")
	cmd.Flags().BoolVar(&pinned, "pin", false, "Pin the stream to the top of the list")
	return cmd
}

func newStreamShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <stream-id>",
		Short: "Show a stream with its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, ws, closeDB, err := openWorkspace(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeDB()

			details, err := app.Streams.Details(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", details.Stream.Title)
			if details.Stream.Description != nil {
				fmt.Fprintf(out, "%s\n", *details.Stream.Description)
			}

			pending, err := app.PendingBlock(ctx, args[0])
			if err != nil {
				return err
			}
			if pending != nil {
				fmt.Fprintf(out, "Awaiting %s reply for key %s\n", pending.Directive, pending.BridgeKey)
			}

			renderEntries(cmd, details.Entries, ws.Selector().Has)
			return nil
		},
	}
	return cmd
}

func newStreamUpdateCmd() *cobra.Command {
	var (
		title       string
		description string
		color       string
		tags        []string
		pinned      bool
	)

	cmd := &cobra.Command{
		Use:   "update <stream-id>",
		Short: "Update stream fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := model.StreamPatch{
				Title:       optionalFlag(cmd, "title", title),
				Description: optionalFlag(cmd, "description", description),
				Color:       optionalFlag(cmd, "color", color),
			}
			if cmd.Flags().Changed("tag") {
				patch.Tags = append([]string{}, tags...)
			}
			if cmd.Flags().Changed("pin") {
				patch.Pinned = &pinned
			}

			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			stream, err := app.Streams.Update(ctx, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated stream '%s'\n", stream.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&color, "color", "", "New color")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Replace tags (repeatable)")
	cmd.Flags().BoolVar(&pinned, "pin", false, "Pin or unpin (--pin=false)")
	return cmd
}

func newStreamDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <stream-id>",
		Short: "Delete a stream with all its entries and versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			stream, err := app.Streams.Get(ctx, args[0])
			if err != nil {
				return err
			}

			if !force {
				ok, err := confirm(cmd, cmd.InOrStdin(), fmt.Sprintf("Delete stream '%s' and all of its entries?", stream.Title))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			if err := app.Streams.Delete(ctx, stream.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted stream '%s'\n", stream.Title)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}
