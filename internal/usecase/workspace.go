package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kolam-ikan/kolam/internal/bridge"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/staging"
	"github.com/kolam-ikan/kolam/internal/store"
)

// ErrNoActiveStream is returned by workspace operations before a stream is selected.
var ErrNoActiveStream = fmt.Errorf("%w: no active stream", model.ErrValidation)

// Workspace is the session state of one client: the active stream and its
// staging selection. Staging changes are mirrored to the entries' is_staged
// flag so a later process can pick the selection up again.
type Workspace struct {
	app *App

	mu       sync.Mutex
	streamID string
	sel      *staging.Selector
}

func (a *App) NewWorkspace() *Workspace {
	return &Workspace{app: a, sel: staging.NewSelector()}
}

// ActiveStream returns the active stream id, or "" when none is selected.
func (w *Workspace) ActiveStream() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.streamID
}

// SetActiveStream switches the workspace to streamID. The previous stream's
// selection is dropped and replaced by streamID's own persisted is_staged
// flags; nothing carries over between streams.
func (w *Workspace) SetActiveStream(ctx context.Context, streamID string) error {
	if _, err := w.app.Store.GetStream(ctx, streamID); err != nil {
		return err
	}
	ids, err := w.app.Store.StagedEntryIDs(ctx, streamID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.streamID = streamID
	w.sel = staging.NewSelector(ids...)
	return nil
}

// Selector returns the live selection of the active stream.
func (w *Workspace) Selector() *staging.Selector {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel
}

func (w *Workspace) active() (string, *staging.Selector, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.streamID == "" {
		return "", nil, ErrNoActiveStream
	}
	return w.streamID, w.sel, nil
}

// Stage adds entries of the active stream to the selection.
func (w *Workspace) Stage(ctx context.Context, ids ...string) error {
	return w.mark(ctx, ids, true)
}

// Unstage removes entries from the selection.
func (w *Workspace) Unstage(ctx context.Context, ids ...string) error {
	return w.mark(ctx, ids, false)
}

// Toggle flips one entry and reports whether it is now staged.
func (w *Workspace) Toggle(ctx context.Context, id string) (bool, error) {
	_, sel, err := w.active()
	if err != nil {
		return false, err
	}
	staged := !sel.Has(id)
	if err := w.mark(ctx, []string{id}, staged); err != nil {
		return false, err
	}
	return staged, nil
}

func (w *Workspace) mark(ctx context.Context, ids []string, staged bool) error {
	streamID, sel, err := w.active()
	if err != nil {
		return err
	}

	err = w.app.Store.Atomic(ctx, func(tx store.Store) error {
		for _, id := range ids {
			entry, err := tx.GetEntry(ctx, id)
			if !staged && errors.Is(err, model.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if entry.StreamID != streamID {
				return fmt.Errorf("entry %s in stream %s: %w", id, streamID, model.ErrNotFound)
			}
		}
		return tx.SetStaged(ctx, streamID, ids, staged)
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		if staged {
			sel.Stage(id)
		} else {
			sel.Unstage(id)
		}
	}
	return nil
}

// ClearStaging empties the selection of the active stream.
func (w *Workspace) ClearStaging(ctx context.Context) error {
	streamID, sel, err := w.active()
	if err != nil {
		return err
	}
	if err := w.app.Store.ClearStaged(ctx, streamID); err != nil {
		return err
	}
	sel.ClearAll()
	return nil
}

// StageAll selects every entry of the active stream.
func (w *Workspace) StageAll(ctx context.Context) error {
	streamID, sel, err := w.active()
	if err != nil {
		return err
	}

	var ids []string
	err = w.app.Store.Atomic(ctx, func(tx store.Store) error {
		entries, err := tx.ListEntries(ctx, streamID)
		if err != nil {
			return err
		}
		ids = make([]string, 0, len(entries))
		for _, entry := range entries {
			ids = append(ids, entry.ID)
		}
		return tx.SetStaged(ctx, streamID, ids, true)
	})
	if err != nil {
		return err
	}
	sel.SetAll(ids)
	return nil
}

// StagedEntries returns the staged entries of the active stream in sequence
// order. Ids of deleted entries are dropped from the selection.
func (w *Workspace) StagedEntries(ctx context.Context) ([]model.Entry, error) {
	streamID, sel, err := w.active()
	if err != nil {
		return nil, err
	}
	entries, err := w.app.Store.ListEntries(ctx, streamID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	sel.Retain(ids)
	return sel.Staged(entries), nil
}

// DeleteEntry deletes an entry and drops it from the selection.
func (w *Workspace) DeleteEntry(ctx context.Context, id string) (*model.Entry, error) {
	deleted, err := w.app.Entries.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	if deleted.StreamID == w.streamID {
		w.sel.Unstage(id)
	}
	w.mu.Unlock()
	return deleted, nil
}

// Export composes the selection under d. An empty d uses the configured default.
func (w *Workspace) Export(ctx context.Context, d model.Directive) (*bridge.ExportResult, error) {
	streamID, sel, err := w.active()
	if err != nil {
		return nil, err
	}
	if d == "" {
		d = model.Directive(w.app.Settings.DefaultDirective)
	}
	return w.app.Bridge.Export(ctx, streamID, sel, d)
}

// Import accepts a reply for the active stream.
func (w *Workspace) Import(ctx context.Context, req bridge.ImportRequest) (*bridge.ImportResult, error) {
	streamID, sel, err := w.active()
	if err != nil {
		return nil, err
	}
	req.StreamID = streamID
	return w.app.Bridge.Import(ctx, req, sel)
}

// Discard cancels the active stream's pending export. The selection is kept.
func (w *Workspace) Discard(ctx context.Context) error {
	streamID, _, err := w.active()
	if err != nil {
		return err
	}
	return w.app.Bridge.Discard(ctx, streamID)
}

// ReassignResult reports a bulk profile reassignment.
type ReassignResult struct {
	Updated        int
	IgnoredAICount int
}

// ReassignStagedProfile assigns profileID to every staged user entry.
// Staged assistant entries are counted and left alone.
func (w *Workspace) ReassignStagedProfile(ctx context.Context, profileID *string) (*ReassignResult, error) {
	staged, err := w.StagedEntries(ctx)
	if err != nil {
		return nil, err
	}
	user, assistant := w.Selector().Partition(staged)

	updated, err := w.app.Profiles.AssignMany(ctx, user, profileID)
	if err != nil {
		return nil, err
	}
	return &ReassignResult{Updated: updated, IgnoredAICount: len(assistant)}, nil
}
