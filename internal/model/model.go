// Package model defines the domain records shared by the kolam engines.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/kolam-ikan/kolam/internal/document"
)

// Role identifies who authored an entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole accepts "user", "assistant" and the legacy "ai" alias.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "assistant", "ai":
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

// Directive selects the instruction preamble of an export.
type Directive string

const (
	DirectiveDump     Directive = "DUMP"
	DirectiveCritique Directive = "CRITIQUE"
	DirectiveGenerate Directive = "GENERATE"
)

// Directives lists every directive in display order.
var Directives = []Directive{DirectiveDump, DirectiveCritique, DirectiveGenerate}

// ParseDirective matches a directive name case-insensitively.
func ParseDirective(s string) (Directive, error) {
	d := Directive(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Directives {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown directive %q", ErrValidation, s)
}

// Stream is a named, chronologically ordered collection of entries.
type Stream struct {
	ID          string
	Title       string
	Description *string
	Tags        []string
	Color       *string
	Pinned      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StreamSummary is a stream row as shown in listings.
type StreamSummary struct {
	Stream
	EntryCount int64
}

// StreamPatch carries optional stream field updates.
type StreamPatch struct {
	Title       *string
	Description *string
	Tags        []string
	Color       *string
	Pinned      *bool
}

// AIMetadata describes the provenance of an imported assistant entry.
type AIMetadata struct {
	Model     string    `json:"model,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	Directive Directive `json:"directive,omitempty"`
	BridgeKey string    `json:"bridgeKey,omitempty"`
	Summary   string    `json:"summary,omitempty"`
}

// Entry is one note inside a stream.
type Entry struct {
	ID               string
	StreamID         string
	SequenceID       int64
	Role             Role
	Content          document.Document
	ProfileID        *string
	VersionHead      int64
	IsStaged         bool
	ParentContextIDs []string
	AIMetadata       *AIMetadata
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Profile is joined at read time from ProfileID.
	Profile *Profile
}

// EntryVersion is an immutable snapshot of an entry's content.
type EntryVersion struct {
	ID          string
	EntryID     string
	Number      int64
	Content     document.Document
	ContentHash string
	Message     *string
	CreatedAt   time.Time
}

// PendingBlock records an export awaiting its AI reply.
type PendingBlock struct {
	ID             string
	StreamID       string
	BridgeKey      string
	StagedEntryIDs []string
	Directive      Directive
	CreatedAt      time.Time
}

// Profile is a named author persona for user entries.
type Profile struct {
	ID        string
	Name      string
	Role      *string
	Color     *string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
