// Package bridgekey generates, embeds and recognizes bridge keys.
//
// A bridge key is a short lowercase alphanumeric token written into an export
// as a single marker line of the form [[BRIDGE:<key>]]. Replies pasted back
// from an external chat are matched against the expected key.
package bridgekey

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength is the key length used when none is configured.
const DefaultLength = 8

var (
	tokenPattern  = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	markerPattern = regexp.MustCompile(`\[\[BRIDGE:([A-Za-z0-9]+)\]\]`)
	// Marker written by earlier releases as an HTML comment, possibly escaped by a rich-text paste.
	legacyPattern = regexp.MustCompile(`(?:<|&lt;)!-{2}\s*bridge\s*:\s*([a-zA-Z0-9]+)\s*-{2}(?:>|&gt;)`)
)

// Generate returns a random key of length characters.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("bridge key length must be positive, got %d", length)
	}

	max := big.NewInt(int64(len(alphabet)))
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate bridge key: %w", err)
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Marker returns the marker line that carries key.
func Marker(key string) string {
	return "[[BRIDGE:" + key + "]]"
}

// WellFormed reports whether key can be carried by a marker.
func WellFormed(key string) bool {
	return key != "" && tokenPattern.MatchString(key)
}

// Validate reports whether text contains key as an exact, case-sensitive substring.
// An empty key never validates.
func Validate(text, key string) bool {
	if key == "" {
		return false
	}
	return strings.Contains(text, key)
}

// Extract returns the first key-shaped token framed by a marker, if any.
func Extract(text string) (string, bool) {
	if m := markerPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := legacyPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// Strip removes every marker from text and trims the surrounding whitespace.
// Lines left empty by the removal are dropped.
func Strip(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned := legacyPattern.ReplaceAllString(markerPattern.ReplaceAllString(line, ""), "")
		if cleaned != line && strings.TrimSpace(cleaned) == "" {
			continue
		}
		out = append(out, cleaned)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Defang rewrites marker-shaped text so Extract no longer recognizes it.
func Defang(text string) string {
	text = markerPattern.ReplaceAllString(text, "[ [BRIDGE:$1] ]")
	return legacyPattern.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Replace(strings.Replace(m, "<!", "< !", 1), "&lt;!", "&lt; !", 1)
	})
}
