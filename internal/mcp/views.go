package mcp

import (
	"time"

	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
)

type StreamView struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags,omitempty"`
	Pinned     bool     `json:"pinned,omitempty"`
	EntryCount int64    `json:"entryCount"`
	UpdatedAt  string   `json:"updatedAt"`
}

type EntryView struct {
	ID          string  `json:"id"`
	SequenceID  int64   `json:"sequenceId"`
	Role        string  `json:"role"`
	Text        string  `json:"text"`
	VersionHead int64   `json:"versionHead"`
	Staged      bool    `json:"staged,omitempty"`
	Profile     *string `json:"profile,omitempty"`
}

type VersionView struct {
	ID          string  `json:"id"`
	EntryID     string  `json:"entryId"`
	Number      int64   `json:"number"`
	Text        string  `json:"text"`
	ContentHash string  `json:"contentHash"`
	Message     *string `json:"message,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

type PendingBlockView struct {
	ID             string   `json:"id"`
	StreamID       string   `json:"streamId"`
	BridgeKey      string   `json:"bridgeKey"`
	StagedEntryIDs []string `json:"stagedEntryIds"`
	Directive      string   `json:"directive"`
	CreatedAt      string   `json:"createdAt"`
}

func streamView(s model.StreamSummary) StreamView {
	return StreamView{
		ID:         s.ID,
		Title:      s.Title,
		Tags:       s.Tags,
		Pinned:     s.Pinned,
		EntryCount: s.EntryCount,
		UpdatedAt:  s.UpdatedAt.Format(time.RFC3339),
	}
}

func entryView(e model.Entry, staged bool) EntryView {
	text, _ := document.PlainText(e.Content)
	v := EntryView{
		ID:          e.ID,
		SequenceID:  e.SequenceID,
		Role:        string(e.Role),
		Text:        text,
		VersionHead: e.VersionHead,
		Staged:      staged,
	}
	if e.Profile != nil {
		v.Profile = &e.Profile.Name
	}
	return v
}

func versionView(v model.EntryVersion) VersionView {
	text, _ := document.PlainText(v.Content)
	return VersionView{
		ID:          v.ID,
		EntryID:     v.EntryID,
		Number:      v.Number,
		Text:        text,
		ContentHash: v.ContentHash,
		Message:     v.Message,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
}

func versionViewPtr(v *model.EntryVersion) *VersionView {
	if v == nil {
		return nil
	}
	view := versionView(*v)
	return &view
}

func pendingBlockView(b *model.PendingBlock) *PendingBlockView {
	if b == nil {
		return nil
	}
	ids := b.StagedEntryIDs
	if ids == nil {
		ids = []string{}
	}
	return &PendingBlockView{
		ID:             b.ID,
		StreamID:       b.StreamID,
		BridgeKey:      b.BridgeKey,
		StagedEntryIDs: ids,
		Directive:      string(b.Directive),
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
	}
}
