package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/kolam-ikan/kolam/internal/config"
	"github.com/kolam-ikan/kolam/internal/database"
	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/logging"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/services"
	"github.com/kolam-ikan/kolam/internal/usecase"
)

func setupServer(t *testing.T) (*Server, *usecase.App) {
	t.Helper()
	t.Setenv("KOLAM_DIR", t.TempDir())

	dbCtx, err := database.CreateDatabase("")
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() {
		if err := database.CloseDatabase(dbCtx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	app := usecase.NewApp(database.NewSQLStore(dbCtx), config.Defaults(), logging.Discard())
	return NewServer(app, "test"), app
}

func TestServerBridgeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, app := setupServer(t)

	stream, err := app.Streams.Create(ctx, services.CreateStreamInput{Title: "s"})
	if err != nil {
		t.Fatalf("create stream: %v", err)
	}
	entry, err := app.Entries.Create(ctx, services.CreateEntryInput{StreamID: stream.ID, Content: document.FromText("rough notes")})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	_, staged, err := s.handleStage(ctx, nil, StageInput{StreamID: stream.ID, Stage: []string{entry.ID}})
	if err != nil {
		t.Fatalf("stage returned error: %v", err)
	}
	if len(staged.Staged) != 1 || staged.Staged[0] != entry.ID {
		t.Fatalf("unexpected staged ids %v", staged.Staged)
	}

	_, exported, err := s.handleExport(ctx, nil, ExportInput{Directive: "critique"})
	if err != nil {
		t.Fatalf("export returned error: %v", err)
	}
	if exported.Block.Directive != string(model.DirectiveCritique) {
		t.Fatalf("expected CRITIQUE, got %s", exported.Block.Directive)
	}
	if !strings.Contains(exported.Text, "rough notes") {
		t.Fatalf("expected export to carry entry text:\n%s", exported.Text)
	}

	_, pending, err := s.handleGetPending(ctx, nil, StreamInput{StreamID: stream.ID})
	if err != nil {
		t.Fatalf("get pending returned error: %v", err)
	}
	if !pending.Found || pending.Block.BridgeKey != exported.Block.BridgeKey {
		t.Fatalf("unexpected pending block %+v", pending)
	}

	marker := strings.SplitN(exported.Text, "\n", 2)[0]
	_, imported, err := s.handleImport(ctx, nil, ImportInput{Reply: marker + "\nsharper notes", Model: "m"})
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if !imported.Matched || imported.Version == nil || imported.Version.Text != "sharper notes" {
		t.Fatalf("unexpected import output %+v", imported)
	}

	_, pending, err = s.handleGetPending(ctx, nil, StreamInput{StreamID: stream.ID})
	if err != nil {
		t.Fatalf("get pending returned error: %v", err)
	}
	if pending.Found {
		t.Fatalf("expected no pending block after import")
	}
}

func TestServerVersionTools(t *testing.T) {
	ctx := context.Background()
	s, app := setupServer(t)

	stream, err := app.Streams.Create(ctx, services.CreateStreamInput{Title: "s"})
	if err != nil {
		t.Fatalf("create stream: %v", err)
	}
	entry, err := app.Entries.Create(ctx, services.CreateEntryInput{StreamID: stream.ID, Content: document.FromText("first")})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	_, latest, err := s.handleLatest(ctx, nil, EntryInput{EntryID: entry.ID})
	if err != nil {
		t.Fatalf("latest returned error: %v", err)
	}
	if latest.Found {
		t.Fatalf("expected no version before the first commit")
	}

	msg := "initial"
	_, committed, err := s.handleCommit(ctx, nil, CommitInput{EntryID: entry.ID, Message: &msg})
	if err != nil {
		t.Fatalf("commit returned error: %v", err)
	}
	if committed.Version.Number != 1 || committed.Version.Text != "first" {
		t.Fatalf("unexpected committed version %+v", committed.Version)
	}

	_, list, err := s.handleVersions(ctx, nil, EntryInput{EntryID: entry.ID})
	if err != nil {
		t.Fatalf("versions returned error: %v", err)
	}
	if len(list.Versions) != 1 {
		t.Fatalf("expected one version, got %d", len(list.Versions))
	}

	_, missing, err := s.handleByNumber(ctx, nil, VersionInput{EntryID: entry.ID, Number: 4})
	if err != nil {
		t.Fatalf("by number returned error: %v", err)
	}
	if missing.Found {
		t.Fatalf("expected version 4 to be absent")
	}

	if _, _, err := s.handleRevert(ctx, nil, VersionInput{EntryID: entry.ID, Number: 4}); err == nil {
		t.Fatalf("expected revert to a missing version to fail")
	}
}

func TestServerKeyTools(t *testing.T) {
	ctx := context.Background()
	s, _ := setupServer(t)

	_, generated, err := s.handleGenerateKey(ctx, nil, GenerateKeyInput{})
	if err != nil {
		t.Fatalf("generate returned error: %v", err)
	}

	text := "reply body\n" + generated.Marker
	_, valid, _ := s.handleValidateKey(ctx, nil, ValidateKeyInput{Text: text, Key: generated.Key})
	if !valid.Valid {
		t.Fatalf("expected generated key to validate")
	}
	_, extracted, _ := s.handleExtractKey(ctx, nil, ExtractKeyInput{Text: text})
	if !extracted.Found || extracted.Key != generated.Key {
		t.Fatalf("expected extracted key %q, got %+v", generated.Key, extracted)
	}
	_, none, _ := s.handleExtractKey(ctx, nil, ExtractKeyInput{Text: "plain"})
	if none.Found {
		t.Fatalf("expected no key in plain text")
	}
}
