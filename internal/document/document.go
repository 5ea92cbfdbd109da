// Package document handles the rich structured documents stored as entry content.
//
// Documents are editor JSON trees ({"type":"doc","content":[...]}) kept verbatim as
// bytes. The package converts them to and from plain text for the bridge export and
// computes the content hash used to verify immutable version snapshots.
package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalid is returned when the bytes are not a JSON document rooted at a "doc" node.
var ErrInvalid = errors.New("document: invalid content")

// Document is the raw JSON of an editor document.
type Document []byte

// Node is one node in the editor tree.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark is an inline formatting mark such as bold.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// Parse validates raw bytes and returns them in compact form. The root node
// must be a "doc".
func Parse(raw []byte) (Document, error) {
	var root Node
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if root.Type != "doc" {
		return nil, fmt.Errorf("%w: root node type %q, want \"doc\"", ErrInvalid, root.Type)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return Document(buf.Bytes()), nil
}

// Empty returns a document with a single empty paragraph.
func Empty() Document {
	return mustEncode(Node{Type: "doc", Content: []Node{{Type: "paragraph"}}})
}

// FromText builds a document from plain text. Blank lines separate paragraphs,
// single newlines become hard breaks and markdown-style "# " lines become headings.
func FromText(text string) Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	root := Node{Type: "doc"}

	var lines []string
	flush := func() {
		if len(lines) == 0 {
			return
		}
		para := Node{Type: "paragraph"}
		for i, line := range lines {
			if i > 0 {
				para.Content = append(para.Content, Node{Type: "hardBreak"})
			}
			if line != "" {
				para.Content = append(para.Content, Node{Type: "text", Text: line})
			}
		}
		root.Content = append(root.Content, para)
		lines = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			flush()
			continue
		}
		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			flush()
			heading := Node{Type: "heading", Attrs: map[string]any{"level": len(m[1])}}
			if m[2] != "" {
				heading.Content = []Node{{Type: "text", Text: m[2]}}
			}
			root.Content = append(root.Content, heading)
			continue
		}
		lines = append(lines, trimmed)
	}
	flush()

	if len(root.Content) == 0 {
		return Empty()
	}
	return mustEncode(root)
}

// PlainText flattens the document into readable text.
func PlainText(doc Document) (string, error) {
	var root Node
	if err := json.Unmarshal(doc, &root); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	blocks := renderBlocks(root.Content, "")
	return strings.TrimSpace(strings.Join(blocks, "\n\n")), nil
}

// Hash returns the hex SHA-256 of the compact document bytes.
func Hash(doc Document) string {
	var buf bytes.Buffer
	data := []byte(doc)
	if err := json.Compact(&buf, data); err == nil {
		data = buf.Bytes()
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Equal reports whether two documents are byte-identical after compaction.
func Equal(a, b Document) bool {
	return Hash(a) == Hash(b)
}

// MarshalJSON embeds the document as raw JSON.
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON keeps a copy of the raw JSON.
func (d *Document) UnmarshalJSON(data []byte) error {
	if d == nil {
		return errors.New("document: UnmarshalJSON on nil pointer")
	}
	*d = append((*d)[0:0], data...)
	return nil
}

func renderBlocks(nodes []Node, indent string) []string {
	var blocks []string
	for _, n := range nodes {
		switch n.Type {
		case "heading":
			level := headingLevel(n.Attrs)
			blocks = append(blocks, strings.Repeat("#", level)+" "+renderInline(n.Content))
		case "bulletList", "orderedList", "taskList":
			blocks = append(blocks, strings.Join(renderList(n, indent), "\n"))
		case "blockquote":
			inner := strings.Join(renderBlocks(n.Content, indent), "\n\n")
			blocks = append(blocks, "> "+strings.ReplaceAll(inner, "\n", "\n> "))
		case "codeBlock":
			blocks = append(blocks, "```\n"+renderInline(n.Content)+"\n```")
		case "horizontalRule":
			blocks = append(blocks, "---")
		case "text", "hardBreak":
			blocks = append(blocks, renderInline([]Node{n}))
		default:
			if len(n.Content) > 0 && isBlockContainer(n.Content) {
				blocks = append(blocks, renderBlocks(n.Content, indent)...)
				continue
			}
			if text := renderInline(n.Content); text != "" {
				blocks = append(blocks, text)
			}
		}
	}
	return blocks
}

func renderList(list Node, indent string) []string {
	var lines []string
	for i, item := range list.Content {
		bullet := "- "
		if list.Type == "orderedList" {
			bullet = strconv.Itoa(i+1) + ". "
		}
		var parts []string
		for _, child := range item.Content {
			switch child.Type {
			case "bulletList", "orderedList", "taskList":
				parts = append(parts, renderList(child, indent+"  ")...)
			default:
				parts = append(parts, indent+bullet+strings.Join(renderBlocks([]Node{child}, indent), " "))
			}
		}
		lines = append(lines, parts...)
	}
	return lines
}

func renderInline(nodes []Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch n.Type {
		case "text":
			sb.WriteString(n.Text)
		case "hardBreak":
			sb.WriteString("\n")
		default:
			sb.WriteString(renderInline(n.Content))
		}
	}
	return sb.String()
}

func isBlockContainer(nodes []Node) bool {
	for _, n := range nodes {
		if n.Type == "text" || n.Type == "hardBreak" {
			return false
		}
	}
	return true
}

func headingLevel(attrs map[string]any) int {
	level := 1
	switch v := attrs["level"].(type) {
	case float64:
		level = int(v)
	case int:
		level = v
	}
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return level
}

func mustEncode(n Node) Document {
	data, err := json.Marshal(n)
	if err != nil {
		panic(fmt.Sprintf("document: encode node: %v", err))
	}
	return Document(data)
}
