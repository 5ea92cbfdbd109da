package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kolam-ikan/kolam/internal/bridge"
	"github.com/kolam-ikan/kolam/internal/bridgekey"
	"github.com/kolam-ikan/kolam/internal/config"
	"github.com/kolam-ikan/kolam/internal/database"
	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/logging"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/services"
	"github.com/kolam-ikan/kolam/internal/store"
)

func setupApp(t *testing.T) *App {
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
	return NewApp(database.NewSQLStore(dbCtx), config.Defaults(), logging.Discard())
}

func createStream(t *testing.T, app *App, title string) *model.Stream {
	t.Helper()
	stream, err := app.Streams.Create(context.Background(), services.CreateStreamInput{Title: title})
	if err != nil {
		t.Fatalf("create stream: %v", err)
	}
	return stream
}

func createEntry(t *testing.T, app *App, streamID string, role model.Role, text string) *model.Entry {
	t.Helper()
	entry, err := app.Entries.Create(context.Background(), services.CreateEntryInput{
		StreamID: streamID,
		Role:     role,
		Content:  document.FromText(text),
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	return entry
}

func activeWorkspace(t *testing.T, app *App, streamID string) *Workspace {
	t.Helper()
	ws := app.NewWorkspace()
	if err := ws.SetActiveStream(context.Background(), streamID); err != nil {
		t.Fatalf("SetActiveStream returned error: %v", err)
	}
	return ws
}

func TestWorkspaceRequiresActiveStream(t *testing.T) {
	app := setupApp(t)
	ws := app.NewWorkspace()

	if err := ws.Stage(context.Background(), "e1"); !errors.Is(err, ErrNoActiveStream) {
		t.Fatalf("expected ErrNoActiveStream, got %v", err)
	}
	if _, err := ws.Export(context.Background(), model.DirectiveDump); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := ws.SetActiveStream(context.Background(), "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletingStagedEntryDropsItFromSelection(t *testing.T) {
	ctx := context.Background()
	app := setupApp(t)
	stream := createStream(t, app, "s")
	e1 := createEntry(t, app, stream.ID, model.RoleUser, "one")
	e2 := createEntry(t, app, stream.ID, model.RoleUser, "two")
	e3 := createEntry(t, app, stream.ID, model.RoleUser, "three")

	ws := activeWorkspace(t, app, stream.ID)
	if err := ws.Stage(ctx, e1.ID, e2.ID, e3.ID); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	if _, err := ws.DeleteEntry(ctx, e2.ID); err != nil {
		t.Fatalf("DeleteEntry returned error: %v", err)
	}

	staged, err := ws.StagedEntries(ctx)
	if err != nil {
		t.Fatalf("StagedEntries returned error: %v", err)
	}
	if len(staged) != 2 || staged[0].ID != e1.ID || staged[1].ID != e3.ID {
		t.Fatalf("expected e1 and e3 staged, got %d entries", len(staged))
	}
	if ws.Selector().Has(e2.ID) {
		t.Fatalf("expected deleted entry to leave the selection")
	}
}

func TestStageRejectsForeignEntries(t *testing.T) {
	ctx := context.Background()
	app := setupApp(t)
	a := createStream(t, app, "a")
	b := createStream(t, app, "b")
	foreign := createEntry(t, app, b.ID, model.RoleUser, "elsewhere")

	ws := activeWorkspace(t, app, a.ID)
	if err := ws.Stage(ctx, foreign.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ws.Selector().Len() != 0 {
		t.Fatalf("expected empty selection")
	}
	if err := ws.Unstage(ctx, "gone"); err != nil {
		t.Fatalf("expected unstaging an unknown id to succeed, got %v", err)
	}
}

func TestSwitchingStreamResetsAndHydratesSelection(t *testing.T) {
	ctx := context.Background()
	app := setupApp(t)
	a := createStream(t, app, "a")
	b := createStream(t, app, "b")
	e1 := createEntry(t, app, a.ID, model.RoleUser, "one")
	e2 := createEntry(t, app, a.ID, model.RoleUser, "two")

	ws := activeWorkspace(t, app, a.ID)
	if err := ws.StageAll(ctx); err != nil {
		t.Fatalf("StageAll returned error: %v", err)
	}
	staged, err := ws.Toggle(ctx, e2.ID)
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if staged {
		t.Fatalf("expected toggle to unstage e2")
	}

	if err := ws.SetActiveStream(ctx, b.ID); err != nil {
		t.Fatalf("SetActiveStream returned error: %v", err)
	}
	if ws.Selector().Len() != 0 {
		t.Fatalf("expected selection reset on stream switch")
	}
	e3 := createEntry(t, app, b.ID, model.RoleUser, "three")
	if err := ws.Stage(ctx, e3.ID); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	if err := ws.SetActiveStream(ctx, a.ID); err != nil {
		t.Fatalf("SetActiveStream returned error: %v", err)
	}
	if ids := ws.Selector().IDs(); len(ids) != 1 || ids[0] != e1.ID {
		t.Fatalf("expected a's own selection [e1] after switching back, got %v", ids)
	}

	other := activeWorkspace(t, app, a.ID)
	ids := other.Selector().IDs()
	if len(ids) != 1 || ids[0] != e1.ID {
		t.Fatalf("expected hydrated selection [e1], got %v", ids)
	}

	if err := other.ClearStaging(ctx); err != nil {
		t.Fatalf("ClearStaging returned error: %v", err)
	}
	if ids := activeWorkspace(t, app, a.ID).Selector().IDs(); len(ids) != 0 {
		t.Fatalf("expected cleared mirror, got %v", ids)
	}
}

func TestReassignStagedProfileSkipsAssistantEntries(t *testing.T) {
	ctx := context.Background()
	app := setupApp(t)
	stream := createStream(t, app, "s")
	u1 := createEntry(t, app, stream.ID, model.RoleUser, "one")
	u2 := createEntry(t, app, stream.ID, model.RoleUser, "two")
	ai := createEntry(t, app, stream.ID, model.RoleAssistant, "reply")

	profile, err := app.Profiles.Create(ctx, services.CreateProfileInput{Name: "Editor"})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	ws := activeWorkspace(t, app, stream.ID)
	if err := ws.Stage(ctx, u1.ID, u2.ID, ai.ID); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}

	result, err := ws.ReassignStagedProfile(ctx, &profile.ID)
	if err != nil {
		t.Fatalf("ReassignStagedProfile returned error: %v", err)
	}
	if result.Updated != 2 || result.IgnoredAICount != 1 {
		t.Fatalf("expected 2 updated and 1 ignored, got %+v", result)
	}

	got, err := app.Entries.Get(ctx, ai.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.ProfileID != nil {
		t.Fatalf("expected assistant entry to keep no profile")
	}
}

func TestWorkspaceExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	app := setupApp(t)
	stream := createStream(t, app, "s")
	e1 := createEntry(t, app, stream.ID, model.RoleUser, "draft idea")

	ws := activeWorkspace(t, app, stream.ID)
	if err := ws.Stage(ctx, e1.ID); err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}

	exported, err := ws.Export(ctx, "")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if exported.Block.Directive != model.DirectiveDump {
		t.Fatalf("expected default directive DUMP, got %s", exported.Block.Directive)
	}

	miss, err := ws.Import(ctx, bridge.ImportRequest{Reply: "no marker here"})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if miss.Matched {
		t.Fatalf("expected mismatch")
	}

	reply := bridgekey.Marker(exported.Block.BridgeKey) + "\nrefined idea"
	result, err := ws.Import(ctx, bridge.ImportRequest{Reply: reply})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if !result.Matched || result.Entry.Role != model.RoleAssistant {
		t.Fatalf("unexpected import result %+v", result)
	}
	if ws.Selector().Len() != 0 {
		t.Fatalf("expected selection cleared after import")
	}

	pending, err := app.PendingBlock(ctx, stream.ID)
	if err != nil {
		t.Fatalf("PendingBlock returned error: %v", err)
	}
	if pending != nil {
		t.Fatalf("expected no pending block after import")
	}
	if err := ws.Discard(ctx); !errors.Is(err, model.ErrNoPendingBlock) {
		t.Fatalf("expected ErrNoPendingBlock, got %v", err)
	}
}

func TestVersionCommands(t *testing.T) {
	ctx := context.Background()
	app := setupApp(t)
	stream := createStream(t, app, "s")
	entry := createEntry(t, app, stream.ID, model.RoleUser, "v1")

	if v, err := app.LatestVersion(ctx, entry.ID); err != nil || v != nil {
		t.Fatalf("expected no versions yet, got %v (%v)", v, err)
	}

	if _, err := app.CommitEntryVersion(ctx, entry.ID, nil); err != nil {
		t.Fatalf("CommitEntryVersion returned error: %v", err)
	}
	if _, err := app.Entries.UpdateContent(ctx, entry.ID, document.FromText("v2")); err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}
	msg := "second"
	if _, err := app.CommitEntryVersion(ctx, entry.ID, &msg); err != nil {
		t.Fatalf("CommitEntryVersion returned error: %v", err)
	}

	reverted, err := app.RevertToVersion(ctx, entry.ID, 1)
	if err != nil {
		t.Fatalf("RevertToVersion returned error: %v", err)
	}
	if reverted.Number != 3 {
		t.Fatalf("expected revert to create version 3, got %d", reverted.Number)
	}

	versions, err := app.EntryVersions(ctx, entry.ID)
	if err != nil {
		t.Fatalf("EntryVersions returned error: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}

	first, err := app.VersionByNumber(ctx, entry.ID, 1)
	if err != nil {
		t.Fatalf("VersionByNumber returned error: %v", err)
	}
	if !document.Equal(first.Content, reverted.Content) {
		t.Fatalf("expected reverted content to equal version 1")
	}
	if v, err := app.VersionByNumber(ctx, entry.ID, 9); err != nil || v != nil {
		t.Fatalf("expected absent version 9, got %v (%v)", v, err)
	}
}

func TestBridgeKeyAndPendingBlockCommands(t *testing.T) {
	ctx := context.Background()
	app := setupApp(t)
	stream := createStream(t, app, "s")

	key, err := app.GenerateBridgeKey()
	if err != nil {
		t.Fatalf("GenerateBridgeKey returned error: %v", err)
	}
	if len(key) != app.Settings.Bridge.KeyLength {
		t.Fatalf("expected key of length %d, got %q", app.Settings.Bridge.KeyLength, key)
	}

	text := "reply\n" + bridgekey.Marker(key)
	if !app.ValidateBridgeKey(text, key) {
		t.Fatalf("expected key to validate")
	}
	if found, ok := app.ExtractBridgeKey(text); !ok || found != key {
		t.Fatalf("expected extracted key %q, got %q", key, found)
	}

	block, err := app.CreatePendingBlock(ctx, stream.ID, key, nil, model.DirectiveCritique)
	if err != nil {
		t.Fatalf("CreatePendingBlock returned error: %v", err)
	}
	got, err := app.PendingBlock(ctx, stream.ID)
	if err != nil {
		t.Fatalf("PendingBlock returned error: %v", err)
	}
	if got == nil || got.ID != block.ID || got.BridgeKey != key {
		t.Fatalf("unexpected pending block %+v", got)
	}

	if err := app.DeletePendingBlock(ctx, block.ID); err != nil {
		t.Fatalf("DeletePendingBlock returned error: %v", err)
	}
	if err := app.DeletePendingBlock(ctx, block.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsureTutorialStream(t *testing.T) {
	ctx := context.Background()
	app := setupApp(t)

	stream, err := app.EnsureTutorialStream(ctx)
	if err != nil {
		t.Fatalf("EnsureTutorialStream returned error: %v", err)
	}
	if stream == nil || !stream.Pinned || stream.Title != tutorialTitle {
		t.Fatalf("unexpected tutorial stream %+v", stream)
	}

	entries, err := app.Entries.List(ctx, stream.ID)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 tutorial entries, got %d", len(entries))
	}

	again, err := app.EnsureTutorialStream(ctx)
	if err != nil {
		t.Fatalf("EnsureTutorialStream returned error: %v", err)
	}
	if again != nil {
		t.Fatalf("expected no second tutorial stream")
	}
}

var errSeedEntry = errors.New("seed entry failed")

// failingEntryStore fails the nth CreateEntry, inside or outside a transaction.
type failingEntryStore struct {
	store.Store
	calls  *int
	failAt int
}

func (s failingEntryStore) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.Atomic(ctx, func(tx store.Store) error {
		return fn(failingEntryStore{Store: tx, calls: s.calls, failAt: s.failAt})
	})
}

func (s failingEntryStore) CreateEntry(ctx context.Context, entry model.Entry) error {
	*s.calls++
	if *s.calls == s.failAt {
		return errSeedEntry
	}
	return s.Store.CreateEntry(ctx, entry)
}

func TestEnsureTutorialStreamIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	app := setupApp(t)

	calls := 0
	failing := NewApp(failingEntryStore{Store: app.Store, calls: &calls, failAt: 2}, config.Defaults(), logging.Discard())
	if _, err := failing.EnsureTutorialStream(ctx); !errors.Is(err, errSeedEntry) {
		t.Fatalf("expected seed failure, got %v", err)
	}

	streams, err := app.Streams.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(streams) != 0 {
		t.Fatalf("expected no partial tutorial stream, got %d streams", len(streams))
	}

	stream, err := app.EnsureTutorialStream(ctx)
	if err != nil {
		t.Fatalf("EnsureTutorialStream returned error: %v", err)
	}
	if stream == nil {
		t.Fatalf("expected tutorial stream after retry")
	}
	entries, err := app.Entries.List(ctx, stream.ID)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 tutorial entries, got %d", len(entries))
	}
}
