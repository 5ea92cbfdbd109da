package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kolam-ikan/kolam/internal/bridge"
	"github.com/kolam-ikan/kolam/internal/bridgekey"
	"github.com/kolam-ikan/kolam/internal/model"
)

type ListStreamsInput struct{}

type ListStreamsOutput struct {
	Streams []StreamView `json:"streams"`
}

type ListEntriesInput struct {
	StreamID string `json:"streamId" jsonschema:"The stream to list"`
}

type ListEntriesOutput struct {
	Entries []EntryView `json:"entries"`
}

type EntryInput struct {
	EntryID string `json:"entryId" jsonschema:"The entry id"`
}

type CommitInput struct {
	EntryID string  `json:"entryId" jsonschema:"The entry to snapshot"`
	Message *string `json:"message,omitempty" jsonschema:"Optional commit message"`
}

type VersionInput struct {
	EntryID string `json:"entryId" jsonschema:"The entry id"`
	Number  int64  `json:"number" jsonschema:"The version number, starting at 1"`
}

type VersionOutput struct {
	Found   bool         `json:"found"`
	Version *VersionView `json:"version,omitempty"`
}

type VersionsOutput struct {
	Versions []VersionView `json:"versions"`
}

type GenerateKeyInput struct{}

type KeyOutput struct {
	Key    string `json:"key,omitempty"`
	Marker string `json:"marker,omitempty"`
}

type ValidateKeyInput struct {
	Text string `json:"text" jsonschema:"The text to search"`
	Key  string `json:"key" jsonschema:"The expected bridge key"`
}

type ValidateKeyOutput struct {
	Valid bool `json:"valid"`
}

type ExtractKeyInput struct {
	Text string `json:"text" jsonschema:"The text to search"`
}

type ExtractKeyOutput struct {
	Found bool   `json:"found"`
	Key   string `json:"key,omitempty"`
}

type CreatePendingInput struct {
	StreamID       string   `json:"streamId" jsonschema:"The stream awaiting a reply"`
	BridgeKey      string   `json:"bridgeKey" jsonschema:"The bridge key the reply must carry"`
	StagedEntryIDs []string `json:"stagedEntryIds,omitempty" jsonschema:"The exported entry ids"`
	Directive      string   `json:"directive" jsonschema:"DUMP, CRITIQUE or GENERATE"`
}

type StreamInput struct {
	StreamID string `json:"streamId" jsonschema:"The stream id"`
}

type PendingOutput struct {
	Found bool              `json:"found"`
	Block *PendingBlockView `json:"block,omitempty"`
}

type DeletePendingInput struct {
	ID string `json:"id" jsonschema:"The pending block id"`
}

type MessageOutput struct {
	Message string `json:"message"`
}

type StageInput struct {
	StreamID string   `json:"streamId" jsonschema:"The stream to make active"`
	Stage    []string `json:"stage,omitempty" jsonschema:"Entry ids to stage"`
	Unstage  []string `json:"unstage,omitempty" jsonschema:"Entry ids to unstage"`
	Clear    bool     `json:"clear,omitempty" jsonschema:"Clear the selection before staging"`
}

type StageOutput struct {
	StreamID string   `json:"streamId"`
	Staged   []string `json:"staged"`
}

type ExportInput struct {
	Directive string `json:"directive,omitempty" jsonschema:"DUMP, CRITIQUE or GENERATE; the configured default when empty"`
}

type ExportOutput struct {
	Text       string            `json:"text"`
	Block      *PendingBlockView `json:"block"`
	ReplacedID string            `json:"replacedId,omitempty"`
}

type ImportInput struct {
	Reply         string `json:"reply" jsonschema:"The AI reply including its bridge marker"`
	TargetEntryID string `json:"targetEntryId,omitempty" jsonschema:"Commit the reply as a new version of this entry instead of creating one"`
	Model         string `json:"model,omitempty" jsonschema:"The model that wrote the reply"`
	Provider      string `json:"provider,omitempty" jsonschema:"The provider of the model"`
}

type ImportOutput struct {
	Matched  bool         `json:"matched"`
	FoundKey string       `json:"foundKey,omitempty"`
	EntryID  string       `json:"entryId,omitempty"`
	Version  *VersionView `json:"version,omitempty"`
}

func (s *Server) handleListStreams(ctx context.Context, req *mcp.CallToolRequest, input ListStreamsInput) (*mcp.CallToolResult, ListStreamsOutput, error) {
	streams, err := s.app.Streams.List(ctx)
	if err != nil {
		return nil, ListStreamsOutput{}, fmt.Errorf("failed to list streams: %w", err)
	}
	out := ListStreamsOutput{Streams: make([]StreamView, 0, len(streams))}
	for _, stream := range streams {
		out.Streams = append(out.Streams, streamView(stream))
	}
	return nil, out, nil
}

func (s *Server) handleListEntries(ctx context.Context, req *mcp.CallToolRequest, input ListEntriesInput) (*mcp.CallToolResult, ListEntriesOutput, error) {
	entries, err := s.app.Entries.List(ctx, input.StreamID)
	if err != nil {
		return nil, ListEntriesOutput{}, fmt.Errorf("failed to list entries: %w", err)
	}
	out := ListEntriesOutput{Entries: make([]EntryView, 0, len(entries))}
	for _, entry := range entries {
		out.Entries = append(out.Entries, entryView(entry, entry.IsStaged))
	}
	return nil, out, nil
}

func (s *Server) handleCommit(ctx context.Context, req *mcp.CallToolRequest, input CommitInput) (*mcp.CallToolResult, VersionOutput, error) {
	version, err := s.app.CommitEntryVersion(ctx, input.EntryID, input.Message)
	if err != nil {
		return nil, VersionOutput{}, fmt.Errorf("failed to commit version: %w", err)
	}
	return nil, VersionOutput{Found: true, Version: versionViewPtr(version)}, nil
}

func (s *Server) handleVersions(ctx context.Context, req *mcp.CallToolRequest, input EntryInput) (*mcp.CallToolResult, VersionsOutput, error) {
	versions, err := s.app.EntryVersions(ctx, input.EntryID)
	if err != nil {
		return nil, VersionsOutput{}, fmt.Errorf("failed to list versions: %w", err)
	}
	out := VersionsOutput{Versions: make([]VersionView, 0, len(versions))}
	for _, v := range versions {
		out.Versions = append(out.Versions, versionView(v))
	}
	return nil, out, nil
}

func (s *Server) handleLatest(ctx context.Context, req *mcp.CallToolRequest, input EntryInput) (*mcp.CallToolResult, VersionOutput, error) {
	version, err := s.app.LatestVersion(ctx, input.EntryID)
	if err != nil {
		return nil, VersionOutput{}, fmt.Errorf("failed to get latest version: %w", err)
	}
	return nil, VersionOutput{Found: version != nil, Version: versionViewPtr(version)}, nil
}

func (s *Server) handleByNumber(ctx context.Context, req *mcp.CallToolRequest, input VersionInput) (*mcp.CallToolResult, VersionOutput, error) {
	version, err := s.app.VersionByNumber(ctx, input.EntryID, input.Number)
	if err != nil {
		return nil, VersionOutput{}, fmt.Errorf("failed to get version: %w", err)
	}
	return nil, VersionOutput{Found: version != nil, Version: versionViewPtr(version)}, nil
}

func (s *Server) handleRevert(ctx context.Context, req *mcp.CallToolRequest, input VersionInput) (*mcp.CallToolResult, VersionOutput, error) {
	version, err := s.app.RevertToVersion(ctx, input.EntryID, input.Number)
	if err != nil {
		return nil, VersionOutput{}, fmt.Errorf("failed to revert: %w", err)
	}
	return nil, VersionOutput{Found: true, Version: versionViewPtr(version)}, nil
}

func (s *Server) handleGenerateKey(ctx context.Context, req *mcp.CallToolRequest, input GenerateKeyInput) (*mcp.CallToolResult, KeyOutput, error) {
	key, err := s.app.GenerateBridgeKey()
	if err != nil {
		return nil, KeyOutput{}, fmt.Errorf("failed to generate key: %w", err)
	}
	return nil, KeyOutput{Key: key, Marker: bridgekey.Marker(key)}, nil
}

func (s *Server) handleValidateKey(ctx context.Context, req *mcp.CallToolRequest, input ValidateKeyInput) (*mcp.CallToolResult, ValidateKeyOutput, error) {
	return nil, ValidateKeyOutput{Valid: s.app.ValidateBridgeKey(input.Text, input.Key)}, nil
}

func (s *Server) handleExtractKey(ctx context.Context, req *mcp.CallToolRequest, input ExtractKeyInput) (*mcp.CallToolResult, ExtractKeyOutput, error) {
	key, ok := s.app.ExtractBridgeKey(input.Text)
	return nil, ExtractKeyOutput{Found: ok, Key: key}, nil
}

func (s *Server) handleCreatePending(ctx context.Context, req *mcp.CallToolRequest, input CreatePendingInput) (*mcp.CallToolResult, PendingOutput, error) {
	block, err := s.app.CreatePendingBlock(ctx, input.StreamID, input.BridgeKey, input.StagedEntryIDs, model.Directive(input.Directive))
	if err != nil {
		return nil, PendingOutput{}, fmt.Errorf("failed to create pending block: %w", err)
	}
	return nil, PendingOutput{Found: true, Block: pendingBlockView(block)}, nil
}

func (s *Server) handleGetPending(ctx context.Context, req *mcp.CallToolRequest, input StreamInput) (*mcp.CallToolResult, PendingOutput, error) {
	block, err := s.app.PendingBlock(ctx, input.StreamID)
	if err != nil {
		return nil, PendingOutput{}, fmt.Errorf("failed to get pending block: %w", err)
	}
	return nil, PendingOutput{Found: block != nil, Block: pendingBlockView(block)}, nil
}

func (s *Server) handleDeletePending(ctx context.Context, req *mcp.CallToolRequest, input DeletePendingInput) (*mcp.CallToolResult, MessageOutput, error) {
	if err := s.app.DeletePendingBlock(ctx, input.ID); err != nil {
		return nil, MessageOutput{}, fmt.Errorf("failed to delete pending block: %w", err)
	}
	return nil, MessageOutput{Message: fmt.Sprintf("Deleted pending block %s", input.ID)}, nil
}

func (s *Server) handleStage(ctx context.Context, req *mcp.CallToolRequest, input StageInput) (*mcp.CallToolResult, StageOutput, error) {
	if s.ws.ActiveStream() != input.StreamID {
		if err := s.ws.SetActiveStream(ctx, input.StreamID); err != nil {
			return nil, StageOutput{}, fmt.Errorf("failed to open stream: %w", err)
		}
	}
	if input.Clear {
		if err := s.ws.ClearStaging(ctx); err != nil {
			return nil, StageOutput{}, fmt.Errorf("failed to clear staging: %w", err)
		}
	}
	if len(input.Stage) > 0 {
		if err := s.ws.Stage(ctx, input.Stage...); err != nil {
			return nil, StageOutput{}, fmt.Errorf("failed to stage: %w", err)
		}
	}
	if len(input.Unstage) > 0 {
		if err := s.ws.Unstage(ctx, input.Unstage...); err != nil {
			return nil, StageOutput{}, fmt.Errorf("failed to unstage: %w", err)
		}
	}
	return nil, StageOutput{StreamID: input.StreamID, Staged: s.ws.Selector().IDs()}, nil
}

func (s *Server) handleExport(ctx context.Context, req *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
	result, err := s.ws.Export(ctx, model.Directive(input.Directive))
	if err != nil {
		return nil, ExportOutput{}, fmt.Errorf("failed to export: %w", err)
	}
	return nil, ExportOutput{
		Text:       result.Text,
		Block:      pendingBlockView(&result.Block),
		ReplacedID: result.ReplacedID,
	}, nil
}

func (s *Server) handleImport(ctx context.Context, req *mcp.CallToolRequest, input ImportInput) (*mcp.CallToolResult, ImportOutput, error) {
	result, err := s.ws.Import(ctx, bridge.ImportRequest{
		Reply:         input.Reply,
		TargetEntryID: input.TargetEntryID,
		Model:         input.Model,
		Provider:      input.Provider,
	})
	if err != nil {
		return nil, ImportOutput{}, fmt.Errorf("failed to import: %w", err)
	}
	out := ImportOutput{Matched: result.Matched, FoundKey: result.FoundKey, Version: versionViewPtr(result.Version)}
	if result.Entry != nil {
		out.EntryID = result.Entry.ID
	}
	return nil, out, nil
}
