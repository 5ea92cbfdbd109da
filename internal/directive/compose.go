// Package directive composes the plain-text export handed to an external AI chat.
package directive

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kolam-ikan/kolam/internal/bridgekey"
	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
)

type template struct {
	title        string
	instructions []string
}

var templates = map[model.Directive]template{
	model.DirectiveDump: {
		title: "Reorganize",
		instructions: []string{
			"Refactor the notes below into one clear, well-structured document.",
			"Merge duplicates, group related ideas under headings and keep every fact.",
			"Do not add new claims that are not supported by the notes.",
		},
	},
	model.DirectiveCritique: {
		title: "Critique",
		instructions: []string{
			"Review the notes below without rewriting them.",
			"Point out gaps, contradictions, weak assumptions and unanswered questions.",
			"Quote the passage each remark refers to.",
		},
	},
	model.DirectiveGenerate: {
		title: "Expand",
		instructions: []string{
			"Continue and expand the notes below.",
			"Develop the strongest ideas further and propose concrete next steps.",
			"Keep the voice and terminology of the notes.",
		},
	},
}

// Compose renders the export text for directive over entries. Entries are
// ordered by sequence id regardless of input order, and the output carries the
// bridge marker exactly once, on its first line. Identical inputs produce
// identical output.
func Compose(d model.Directive, entries []model.Entry, key string) (string, error) {
	tpl, ok := templates[d]
	if !ok {
		return "", fmt.Errorf("%w: unknown directive %q", model.ErrValidation, d)
	}
	if !bridgekey.WellFormed(key) {
		return "", fmt.Errorf("%w: malformed bridge key %q", model.ErrValidation, key)
	}

	ordered := make([]model.Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SequenceID < ordered[j].SequenceID })

	var sb strings.Builder
	sb.WriteString(bridgekey.Marker(key))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "DIRECTIVE: %s (%s)\n\n", d, tpl.title)
	for _, line := range tpl.instructions {
		sb.WriteString("- ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\nRESPONSE PROTOCOL\n")
	sb.WriteString("- Start your reply by repeating the first line of this message exactly as written.\n")
	sb.WriteString("- Reply in plain text or markdown.\n")

	fmt.Fprintf(&sb, "\nCONTEXT (%d %s)\n", len(ordered), plural(len(ordered), "entry", "entries"))
	for _, e := range ordered {
		text, err := document.PlainText(e.Content)
		if err != nil {
			return "", fmt.Errorf("entry %s: %w", e.ID, err)
		}
		fmt.Fprintf(&sb, "\n### Entry %d (%s)\n", e.SequenceID, e.Role)
		if text = bridgekey.Defang(text); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
