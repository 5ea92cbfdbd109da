// Package versioning maintains the append-only snapshot chain of each entry.
package versioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/keyedmutex"
	"github.com/kolam-ikan/kolam/internal/logging"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/store"
)

// Engine commits, lists and reverts entry versions. Commits on one entry are
// serialized; the engine keeps no version state between calls.
type Engine struct {
	store store.Store
	log   logging.Logger
	locks keyedmutex.Mutex
	now   func() time.Time
}

// NewEngine creates an Engine backed by s.
func NewEngine(s store.Store, log logging.Logger) *Engine {
	return &Engine{
		store: s,
		log:   log.With("component", "versioning"),
		now:   time.Now,
	}
}

// Lock takes the commit lock of entryID. Callers that commit through
// CommitTx must hold it.
func (e *Engine) Lock(entryID string) (unlock func()) {
	return e.locks.Lock(entryID)
}

// Commit stores content as the next version of the entry and makes it the live content.
func (e *Engine) Commit(ctx context.Context, entryID string, content document.Document, message *string) (*model.EntryVersion, error) {
	unlock := e.Lock(entryID)
	defer unlock()

	var version *model.EntryVersion
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		version, err = e.CommitTx(ctx, tx, entryID, content, message)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info(ctx, "version committed", "entry", entryID, "version", version.Number)
	return version, nil
}

// CommitCurrent snapshots the entry's live content as a new version.
func (e *Engine) CommitCurrent(ctx context.Context, entryID string, message *string) (*model.EntryVersion, error) {
	unlock := e.Lock(entryID)
	defer unlock()

	var version *model.EntryVersion
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		entry, err := tx.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		version, err = e.CommitTx(ctx, tx, entryID, entry.Content, message)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info(ctx, "draft committed", "entry", entryID, "version", version.Number)
	return version, nil
}

// CommitTx appends a version inside tx. The caller holds Lock(entryID).
func (e *Engine) CommitTx(ctx context.Context, tx store.Store, entryID string, content document.Document, message *string) (*model.EntryVersion, error) {
	entry, err := tx.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	count, highest, err := tx.VersionStats(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if count != highest {
		return nil, fmt.Errorf("%w: entry %s has %d versions but highest number %d", model.ErrInvariant, entryID, count, highest)
	}
	if entry.VersionHead != highest {
		return nil, fmt.Errorf("%w: entry %s head %d does not match latest version %d", model.ErrInvariant, entryID, entry.VersionHead, highest)
	}

	doc, err := document.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	now := e.now()
	version := model.EntryVersion{
		ID:          uuid.NewString(),
		EntryID:     entryID,
		Number:      highest + 1,
		Content:     doc,
		ContentHash: document.Hash(doc),
		Message:     normalizeMessage(message),
		CreatedAt:   now,
	}

	if err := tx.InsertVersion(ctx, version); err != nil {
		return nil, err
	}
	if err := tx.SetEntryHead(ctx, entryID, doc, version.Number, now); err != nil {
		return nil, err
	}
	return &version, nil
}

// ListVersions returns the entry's versions in ascending order. An unknown
// entry has no versions.
func (e *Engine) ListVersions(ctx context.Context, entryID string) ([]model.EntryVersion, error) {
	versions, err := e.store.ListVersions(ctx, entryID)
	if err != nil {
		return nil, err
	}
	for i := range versions {
		if want := int64(i + 1); versions[i].Number != want {
			return nil, fmt.Errorf("%w: entry %s version chain has %d where %d was expected", model.ErrInvariant, entryID, versions[i].Number, want)
		}
		if err := verify(&versions[i]); err != nil {
			return nil, err
		}
	}
	return versions, nil
}

// Latest returns the newest version, or nil when the entry has none.
func (e *Engine) Latest(ctx context.Context, entryID string) (*model.EntryVersion, error) {
	version, err := e.store.LatestVersion(ctx, entryID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := verify(version); err != nil {
		return nil, err
	}
	return version, nil
}

// ByNumber returns version n, or nil when n is outside the chain.
func (e *Engine) ByNumber(ctx context.Context, entryID string, n int64) (*model.EntryVersion, error) {
	if n < 1 {
		return nil, nil
	}
	version, err := e.store.VersionByNumber(ctx, entryID, n)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := verify(version); err != nil {
		return nil, err
	}
	return version, nil
}

// Revert commits the snapshot of version n as a new version. Existing
// versions are never altered.
func (e *Engine) Revert(ctx context.Context, entryID string, n int64) (*model.EntryVersion, error) {
	unlock := e.Lock(entryID)
	defer unlock()

	var version *model.EntryVersion
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.GetEntry(ctx, entryID); err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("version %d of entry %s: %w", n, entryID, model.ErrNotFound)
		}
		target, err := tx.VersionByNumber(ctx, entryID, n)
		if err != nil {
			return err
		}
		if err := verify(target); err != nil {
			return err
		}
		message := fmt.Sprintf("Revert to version %d", n)
		version, err = e.CommitTx(ctx, tx, entryID, target.Content, &message)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info(ctx, "version reverted", "entry", entryID, "target", n, "version", version.Number)
	return version, nil
}

func verify(v *model.EntryVersion) error {
	if got := document.Hash(v.Content); got != v.ContentHash {
		return fmt.Errorf("%w: version %d of entry %s fails its content hash", model.ErrInvariant, v.Number, v.EntryID)
	}
	return nil
}

func normalizeMessage(message *string) *string {
	if message == nil || *message == "" {
		return nil
	}
	return message
}
