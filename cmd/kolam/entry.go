package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/services"
)

func newEntryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Manage entries",
	}
	cmd.AddCommand(newEntryAddCmd())
	cmd.AddCommand(newEntryShowCmd())
	cmd.AddCommand(newEntryEditCmd())
	cmd.AddCommand(newEntryDeleteCmd())
	cmd.AddCommand(newEntrySearchCmd())
	return cmd
}

func newEntryAddCmd() *cobra.Command {
	var (
		role      string
		file      string
		text      string
		profileID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "add <stream-id>",
		Short: "Append an entry to a stream",
		Long:  "Append an entry. Content comes from --text, --file, or stdin; --json treats it as an editor document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}

			raw := text
			if !cmd.Flags().Changed("text") {
				raw, err = readInput(cmd, file)
				if err != nil {
					return err
				}
			}

			var content document.Document
			if asJSON {
				content, err = document.Parse([]byte(raw))
				if err != nil {
					return err
				}
			} else {
				content = document.FromText(raw)
			}

			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			entry, err := app.Entries.Create(ctx, services.CreateEntryInput{
				StreamID:  args[0],
				Role:      r,
				Content:   content,
				ProfileID: optionalFlag(cmd, "profile", profileID),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "user", "Entry role: user or assistant")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read content from file ('-' for stdin)")
	cmd.Flags().StringVar(&text, "text", "", "Content text")
	cmd.Flags().StringVar(&profileID, "profile", "", "Profile id (user entries only)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Content is editor document JSON")
	return cmd
}

type entryJSON struct {
	ID          string            `json:"id"`
	StreamID    string            `json:"stream_id"`
	Sequence    int64             `json:"sequence"`
	Role        model.Role        `json:"role"`
	Profile     *string           `json:"profile,omitempty"`
	VersionHead int64             `json:"version_head"`
	Staged      bool              `json:"staged"`
	Content     document.Document `json:"content"`
	AIMetadata  *model.AIMetadata `json:"ai_metadata,omitempty"`
	Created     string            `json:"created"`
	Updated     string            `json:"updated"`
}

func newEntryShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Print an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			entry, err := app.Entries.Get(ctx, args[0])
			if err != nil {
				return err
			}

			switch format {
			case "json":
				out := entryJSON{
					ID:          entry.ID,
					StreamID:    entry.StreamID,
					Sequence:    entry.SequenceID,
					Role:        entry.Role,
					VersionHead: entry.VersionHead,
					Staged:      entry.IsStaged,
					Content:     entry.Content,
					AIMetadata:  entry.AIMetadata,
					Created:     entry.CreatedAt.Format(time.RFC3339),
					Updated:     entry.UpdatedAt.Format(time.RFC3339),
				}
				if entry.Profile != nil {
					out.Profile = &entry.Profile.Name
				}
				return outputJSON(cmd, out)
			case "text":
				fmt.Fprintln(cmd.OutOrStdout(), entryText(*entry))
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: text, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func newEntryEditCmd() *cobra.Command {
	var (
		commit  bool
		message string
	)

	cmd := &cobra.Command{
		Use:   "edit <entry-id>",
		Short: "Edit entry with $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			entry, err := app.Entries.Get(ctx, args[0])
			if err != nil {
				return err
			}
			current := entryText(*entry)

			tempDir, err := os.MkdirTemp("", "kolam-edit-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tempDir)

			tempFile := filepath.Join(tempDir, entry.ID+".md")
			if err := os.WriteFile(tempFile, []byte(current), 0600); err != nil {
				return err
			}

			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = os.Getenv("VISUAL")
			}
			if editor == "" {
				editor = "vi"
			}

			editorCmd := exec.Command(editor, tempFile)
			editorCmd.Stdin = os.Stdin
			editorCmd.Stdout = os.Stdout
			editorCmd.Stderr = os.Stderr
			if err := editorCmd.Run(); err != nil {
				return fmt.Errorf("editor exited with error: %w", err)
			}

			edited, err := os.ReadFile(tempFile)
			if err != nil {
				return err
			}
			text := strings.TrimRight(string(edited), "\n")
			if text == current {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes made")
				return nil
			}

			if _, err := app.Entries.UpdateContent(ctx, entry.ID, document.FromText(text)); err != nil {
				return err
			}
			if !commit {
				fmt.Fprintln(cmd.OutOrStdout(), "Entry updated")
				return nil
			}

			if message == "" {
				message = fmt.Sprintf("Edited with %s", editor)
			}
			version, err := app.CommitEntryVersion(ctx, entry.ID, &message)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry updated, committed version %d\n", version.Number)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&commit, "commit", "c", false, "Commit a version after editing")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")
	return cmd
}

func newEntryDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete an entry with its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			entry, err := app.Entries.Get(ctx, args[0])
			if err != nil {
				return err
			}

			if !force {
				ok, err := confirm(cmd, cmd.InOrStdin(), fmt.Sprintf("Delete entry #%d and its %d version(s)?", entry.SequenceID, entry.VersionHead))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			ws := app.NewWorkspace()
			if err := ws.SetActiveStream(ctx, entry.StreamID); err != nil {
				return err
			}
			if _, err := ws.DeleteEntry(ctx, entry.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry #%d\n", entry.SequenceID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}

func newEntrySearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search entry content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			entries, err := app.SearchEntries(ctx, args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches")
				return nil
			}
			renderEntries(cmd, entries, func(string) bool { return false })
			return nil
		},
	}
	return cmd
}
