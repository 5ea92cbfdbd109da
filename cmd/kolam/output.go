package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

func outputJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// previewWidth is the room left for a free-text column after fixedWidth
// columns and roughly 3 chars of border per column.
func previewWidth(termWidth, fixedWidth, columns int) int {
	width := termWidth - fixedWidth - columns*3
	if width < 15 {
		width = 15
	}
	return width
}

// preview flattens text to one line and truncates it to maxWidth cells,
// accounting for multi-byte characters.
func preview(text string, maxWidth int) string {
	line := strings.Join(strings.Fields(text), " ")
	return runewidth.Truncate(line, maxWidth, "...")
}

func entryText(e model.Entry) string {
	text, err := document.PlainText(e.Content)
	if err != nil {
		return "(unreadable content)"
	}
	return text
}

func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	return t
}

func renderStreams(cmd *cobra.Command, streams []model.StreamSummary) {
	t := newTable(cmd)
	t.AppendHeader(table.Row{"ID", "Title", "Entries", "Tags", "Updated"})

	width := previewWidth(getTerminalWidth(), 36+7+len(timeLayout)+12, 5)
	for _, s := range streams {
		title := s.Title
		if s.Pinned {
			title = "* " + title
		}
		t.AppendRow(table.Row{
			s.ID,
			runewidth.Truncate(title, width, "..."),
			s.EntryCount,
			runewidth.Truncate(strings.Join(s.Tags, ","), 12, "..."),
			s.UpdatedAt.Local().Format(timeLayout),
		})
	}
	t.Render()
}

func renderEntries(cmd *cobra.Command, entries []model.Entry, staged func(string) bool) {
	t := newTable(cmd)
	t.AppendHeader(table.Row{"#", "ID", "Role", "Profile", "Ver", "Staged", "Content"})

	width := previewWidth(getTerminalWidth(), 4+36+9+10+4+6, 7)
	for _, e := range entries {
		profile := ""
		if e.Profile != nil {
			profile = runewidth.Truncate(e.Profile.Name, 10, "...")
		}
		mark := ""
		if staged(e.ID) {
			mark = "x"
		}
		t.AppendRow(table.Row{
			e.SequenceID,
			e.ID,
			e.Role,
			profile,
			e.VersionHead,
			mark,
			preview(entryText(e), width),
		})
	}
	t.Render()
}

func renderVersions(cmd *cobra.Command, versions []model.EntryVersion) {
	t := newTable(cmd)
	t.AppendHeader(table.Row{"Ver", "Committed", "Message", "Hash"})

	width := previewWidth(getTerminalWidth(), 4+len(timeLayout)+12, 4)
	for _, v := range versions {
		message := ""
		if v.Message != nil {
			message = *v.Message
		}
		t.AppendRow(table.Row{
			v.Number,
			v.CreatedAt.Local().Format(timeLayout),
			preview(message, width),
			v.ContentHash[:min(12, len(v.ContentHash))],
		})
	}
	t.Render()
}

func renderProfiles(cmd *cobra.Command, profiles []model.Profile) {
	t := newTable(cmd)
	t.AppendHeader(table.Row{"ID", "Name", "Role", "Default"})
	for _, p := range profiles {
		role := ""
		if p.Role != nil {
			role = *p.Role
		}
		def := ""
		if p.IsDefault {
			def = "yes"
		}
		t.AppendRow(table.Row{p.ID, p.Name, role, def})
	}
	t.Render()
}

// confirm asks a y/N question on stderr and reads the answer from in.
func confirm(cmd *cobra.Command, in io.Reader, message string) (bool, error) {
	fmt.Fprint(cmd.ErrOrStderr(), message+" (y/N) ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	return strings.TrimSpace(strings.ToLower(answer)) == "y", nil
}

// readInput returns the content of path, or stdin when path is "" or "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func optionalFlag(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
