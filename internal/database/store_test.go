package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/store"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedStream(t *testing.T, s *SQLStore, title string) string {
	t.Helper()
	id := uuid.NewString()
	err := s.CreateStream(context.Background(), model.Stream{
		ID:        id,
		Title:     title,
		Tags:      []string{"notes"},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("CreateStream returned error: %v", err)
	}
	return id
}

func seedEntry(t *testing.T, s *SQLStore, streamID string) string {
	t.Helper()
	ctx := context.Background()
	seq, err := s.NextSequence(ctx, streamID)
	if err != nil {
		t.Fatalf("NextSequence returned error: %v", err)
	}
	id := uuid.NewString()
	err = s.CreateEntry(ctx, model.Entry{
		ID:         id,
		StreamID:   streamID,
		SequenceID: seq,
		Role:       model.RoleUser,
		Content:    document.FromText("draft"),
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	})
	if err != nil {
		t.Fatalf("CreateEntry returned error: %v", err)
	}
	return id
}

func seedVersion(t *testing.T, s *SQLStore, entryID string, n int64) {
	t.Helper()
	content := document.FromText("snapshot")
	err := s.InsertVersion(context.Background(), model.EntryVersion{
		ID:          uuid.NewString(),
		EntryID:     entryID,
		Number:      n,
		Content:     content,
		ContentHash: document.Hash(content),
		CreatedAt:   testNow,
	})
	if err != nil {
		t.Fatalf("InsertVersion returned error: %v", err)
	}
}

func seedPendingBlock(t *testing.T, s *SQLStore, streamID, key string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := s.UpsertPendingBlock(context.Background(), model.PendingBlock{
		ID:             id,
		StreamID:       streamID,
		BridgeKey:      key,
		StagedEntryIDs: []string{"a", "b"},
		Directive:      model.DirectiveDump,
		CreatedAt:      testNow,
	})
	if err != nil {
		t.Fatalf("UpsertPendingBlock returned error: %v", err)
	}
	return id
}

func seedProfile(t *testing.T, s *SQLStore, name string) string {
	t.Helper()
	id := uuid.NewString()
	err := s.CreateProfile(context.Background(), model.Profile{ID: id, Name: name, CreatedAt: testNow, UpdatedAt: testNow})
	if err != nil {
		t.Fatalf("CreateProfile returned error: %v", err)
	}
	return id
}

func TestStreamLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t))

	older := seedStream(t, s, "Older")
	pinned := seedStream(t, s, "Pinned")
	seedEntry(t, s, older)
	seedEntry(t, s, older)

	pin := true
	title := "Pinned stream"
	updated, err := s.UpdateStream(ctx, pinned, model.StreamPatch{Title: &title, Pinned: &pin}, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("UpdateStream returned error: %v", err)
	}
	if updated.Title != title || !updated.Pinned {
		t.Fatalf("unexpected stream after update: %#v", updated)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "notes" {
		t.Fatalf("expected tags preserved, got %v", updated.Tags)
	}

	summaries, err := s.ListStreams(ctx)
	if err != nil {
		t.Fatalf("ListStreams returned error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(summaries))
	}
	if summaries[0].ID != pinned {
		t.Fatalf("expected pinned stream first, got %s", summaries[0].Title)
	}
	if summaries[1].EntryCount != 2 {
		t.Fatalf("expected entry count 2, got %d", summaries[1].EntryCount)
	}

	if err := s.DeleteStream(ctx, older); err != nil {
		t.Fatalf("DeleteStream returned error: %v", err)
	}
	if _, err := s.GetStream(ctx, older); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteStream(ctx, older); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSequenceIsNeverReused(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t))
	streamID := seedStream(t, s, "Seq")

	first := seedEntry(t, s, streamID)
	second := seedEntry(t, s, streamID)
	if err := s.DeleteEntry(ctx, second); err != nil {
		t.Fatalf("DeleteEntry returned error: %v", err)
	}

	next, err := s.NextSequence(ctx, streamID)
	if err != nil {
		t.Fatalf("NextSequence returned error: %v", err)
	}
	if next != 3 {
		t.Fatalf("expected sequence 3 after deleting tail entry, got %d", next)
	}

	entry, err := s.GetEntry(ctx, first)
	if err != nil {
		t.Fatalf("GetEntry returned error: %v", err)
	}
	if entry.SequenceID != 1 {
		t.Fatalf("expected first entry sequence 1, got %d", entry.SequenceID)
	}

	if _, err := s.NextSequence(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing stream, got %v", err)
	}
}

func TestEntryProfileIsJoined(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t))
	streamID := seedStream(t, s, "Profiles")
	entryID := seedEntry(t, s, streamID)
	profileID := seedProfile(t, s, "Researcher")

	if err := s.SetEntryProfile(ctx, entryID, &profileID, testNow); err != nil {
		t.Fatalf("SetEntryProfile returned error: %v", err)
	}

	entry, err := s.GetEntry(ctx, entryID)
	if err != nil {
		t.Fatalf("GetEntry returned error: %v", err)
	}
	if entry.Profile == nil || entry.Profile.Name != "Researcher" {
		t.Fatalf("expected joined profile, got %#v", entry.Profile)
	}

	if err := s.DeleteProfile(ctx, profileID); err != nil {
		t.Fatalf("DeleteProfile returned error: %v", err)
	}
	entry, err = s.GetEntry(ctx, entryID)
	if err != nil {
		t.Fatalf("GetEntry returned error: %v", err)
	}
	if entry.ProfileID != nil || entry.Profile != nil {
		t.Fatalf("expected profile cleared after delete, got %#v", entry)
	}
}

func TestEntryMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t))
	streamID := seedStream(t, s, "AI")

	id := uuid.NewString()
	err := s.CreateEntry(ctx, model.Entry{
		ID:               id,
		StreamID:         streamID,
		SequenceID:       1,
		Role:             model.RoleAssistant,
		Content:          document.FromText("reply"),
		ParentContextIDs: []string{"e1", "e2"},
		AIMetadata:       &model.AIMetadata{Model: "gpt", Directive: model.DirectiveCritique, BridgeKey: "k3y"},
		CreatedAt:        testNow,
		UpdatedAt:        testNow,
	})
	if err != nil {
		t.Fatalf("CreateEntry returned error: %v", err)
	}

	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("GetEntry returned error: %v", err)
	}
	if entry.Role != model.RoleAssistant {
		t.Fatalf("expected assistant role, got %q", entry.Role)
	}
	if len(entry.ParentContextIDs) != 2 || entry.ParentContextIDs[1] != "e2" {
		t.Fatalf("unexpected parents %v", entry.ParentContextIDs)
	}
	if entry.AIMetadata == nil || entry.AIMetadata.Directive != model.DirectiveCritique {
		t.Fatalf("unexpected metadata %#v", entry.AIMetadata)
	}
	if !entry.CreatedAt.Equal(testNow) {
		t.Fatalf("expected created_at %v, got %v", testNow, entry.CreatedAt)
	}
}

func TestVersionsAreImmutable(t *testing.T) {
	dbCtx := setupTestDB(t)
	ctx := context.Background()
	s := NewSQLStore(dbCtx)
	entryID := seedEntry(t, s, seedStream(t, s, "V"))
	seedVersion(t, s, entryID, 1)

	_, err := dbCtx.DB.ExecContext(ctx, `UPDATE entry_versions SET content_snapshot = 'x' WHERE entry_id = ?`, entryID)
	if err == nil {
		t.Fatalf("expected update of a version to fail")
	}

	err = s.InsertVersion(ctx, model.EntryVersion{
		ID:          uuid.NewString(),
		EntryID:     entryID,
		Number:      1,
		Content:     document.Empty(),
		ContentHash: document.Hash(document.Empty()),
		CreatedAt:   testNow,
	})
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate version number, got %v", err)
	}

	count, highest, err := s.VersionStats(ctx, entryID)
	if err != nil {
		t.Fatalf("VersionStats returned error: %v", err)
	}
	if count != 1 || highest != 1 {
		t.Fatalf("expected 1/1, got %d/%d", count, highest)
	}

	if _, err := s.VersionByNumber(ctx, entryID, 2); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertPendingBlockReplacesPerStream(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t))
	streamA := seedStream(t, s, "A")
	streamB := seedStream(t, s, "B")

	firstID := seedPendingBlock(t, s, streamA, "aaaa1111")

	replaced, err := s.UpsertPendingBlock(ctx, model.PendingBlock{
		ID:        uuid.NewString(),
		StreamID:  streamA,
		BridgeKey: "bbbb2222",
		Directive: model.DirectiveGenerate,
		CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("UpsertPendingBlock returned error: %v", err)
	}
	if replaced != firstID {
		t.Fatalf("expected replaced id %s, got %s", firstID, replaced)
	}

	block, err := s.GetPendingBlock(ctx, streamA)
	if err != nil {
		t.Fatalf("GetPendingBlock returned error: %v", err)
	}
	if block.BridgeKey != "bbbb2222" || block.Directive != model.DirectiveGenerate {
		t.Fatalf("unexpected block %#v", block)
	}
	if len(block.StagedEntryIDs) != 0 {
		t.Fatalf("expected empty staged ids, got %v", block.StagedEntryIDs)
	}

	inUse, err := s.BridgeKeyInUse(ctx, "aaaa1111")
	if err != nil || inUse {
		t.Fatalf("expected old key released, got %v (%v)", inUse, err)
	}

	_, err = s.UpsertPendingBlock(ctx, model.PendingBlock{
		ID:        uuid.NewString(),
		StreamID:  streamB,
		BridgeKey: "bbbb2222",
		Directive: model.DirectiveDump,
		CreatedAt: testNow,
	})
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate key across streams, got %v", err)
	}

	deleted, err := s.DeletePendingBlockByID(ctx, firstID)
	if err != nil || deleted {
		t.Fatalf("expected stale id delete to affect nothing, got %v (%v)", deleted, err)
	}
	deleted, err = s.DeletePendingBlock(ctx, streamA)
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got %v (%v)", deleted, err)
	}
	if _, err := s.GetPendingBlock(ctx, streamA); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStagingMirror(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t))
	streamID := seedStream(t, s, "Stage")
	e1 := seedEntry(t, s, streamID)
	e2 := seedEntry(t, s, streamID)

	if err := s.SetStaged(ctx, streamID, []string{e2, e1, "missing"}, true); err != nil {
		t.Fatalf("SetStaged returned error: %v", err)
	}

	ids, err := s.StagedEntryIDs(ctx, streamID)
	if err != nil {
		t.Fatalf("StagedEntryIDs returned error: %v", err)
	}
	if len(ids) != 2 || ids[0] != e1 || ids[1] != e2 {
		t.Fatalf("expected ids in sequence order, got %v", ids)
	}

	if err := s.ClearStaged(ctx, streamID); err != nil {
		t.Fatalf("ClearStaged returned error: %v", err)
	}
	ids, err = s.StagedEntryIDs(ctx, streamID)
	if err != nil {
		t.Fatalf("StagedEntryIDs returned error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no staged ids, got %v", ids)
	}
}

func TestSetStagedIgnoresOtherStreams(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t))
	streamA := seedStream(t, s, "A")
	streamB := seedStream(t, s, "B")
	owned := seedEntry(t, s, streamA)
	foreign := seedEntry(t, s, streamB)

	if err := s.SetStaged(ctx, streamB, []string{foreign}, true); err != nil {
		t.Fatalf("SetStaged returned error: %v", err)
	}
	if err := s.SetStaged(ctx, streamA, []string{owned, foreign}, true); err != nil {
		t.Fatalf("SetStaged returned error: %v", err)
	}
	ids, err := s.StagedEntryIDs(ctx, streamA)
	if err != nil {
		t.Fatalf("StagedEntryIDs returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != owned {
		t.Fatalf("expected only %s staged in A, got %v", owned, ids)
	}

	if err := s.SetStaged(ctx, streamA, []string{foreign}, false); err != nil {
		t.Fatalf("SetStaged returned error: %v", err)
	}
	ids, err = s.StagedEntryIDs(ctx, streamB)
	if err != nil {
		t.Fatalf("StagedEntryIDs returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != foreign {
		t.Fatalf("expected B's mirror untouched, got %v", ids)
	}
}

func TestSearchEntriesEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t))
	streamID := seedStream(t, s, "Search")
	entryID := seedEntry(t, s, streamID)

	if err := s.UpdateEntryContent(ctx, entryID, document.FromText("100% done"), testNow); err != nil {
		t.Fatalf("UpdateEntryContent returned error: %v", err)
	}
	other := seedEntry(t, s, streamID)
	if err := s.UpdateEntryContent(ctx, other, document.FromText("1000 items"), testNow); err != nil {
		t.Fatalf("UpdateEntryContent returned error: %v", err)
	}

	results, err := s.SearchEntries(ctx, "100%", 50)
	if err != nil {
		t.Fatalf("SearchEntries returned error: %v", err)
	}
	if len(results) != 1 || results[0].ID != entryID {
		t.Fatalf("expected only the literal match, got %d results", len(results))
	}
}

func TestAtomicRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t))
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx store.Store) error {
		if err := tx.CreateStream(ctx, model.Stream{ID: "s1", Title: "tx", CreatedAt: testNow, UpdatedAt: testNow}); err != nil {
			return err
		}
		return tx.Atomic(ctx, func(inner store.Store) error {
			if _, err := inner.GetStream(ctx, "s1"); err != nil {
				return err
			}
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := s.GetStream(ctx, "s1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected rollback to discard stream, got %v", err)
	}
}

func TestDeleteStreamCascades(t *testing.T) {
	dbCtx := setupTestDB(t)
	ctx := context.Background()
	s := NewSQLStore(dbCtx)
	streamID := seedStream(t, s, "Cascade")
	entryID := seedEntry(t, s, streamID)
	seedVersion(t, s, entryID, 1)
	seedPendingBlock(t, s, streamID, "cccc3333")

	if err := s.DeleteStream(ctx, streamID); err != nil {
		t.Fatalf("DeleteStream returned error: %v", err)
	}

	assertCount(t, dbCtx.DB, "entries", 0)
	assertCount(t, dbCtx.DB, "entry_versions", 0)
	assertCount(t, dbCtx.DB, "pending_blocks", 0)
}

func TestDefaultProfileIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t))
	first := seedProfile(t, s, "First")
	second := seedProfile(t, s, "Second")

	for _, id := range []string{first, second} {
		err := s.Atomic(ctx, func(tx store.Store) error {
			return tx.SetDefaultProfile(ctx, id, testNow)
		})
		if err != nil {
			t.Fatalf("SetDefaultProfile returned error: %v", err)
		}
	}

	def, err := s.DefaultProfile(ctx)
	if err != nil {
		t.Fatalf("DefaultProfile returned error: %v", err)
	}
	if def.ID != second {
		t.Fatalf("expected second profile as default, got %s", def.Name)
	}

	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles returned error: %v", err)
	}
	defaults := 0
	for _, p := range profiles {
		if p.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default profile, got %d", defaults)
	}
}
