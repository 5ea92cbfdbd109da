// Package bridge runs the export/import protocol between a stream and an
// external AI chat.
//
// Each stream is either idle or awaiting a reply. Export stages a pending block
// carrying a fresh bridge key; Import accepts a reply only when it contains that
// key and commits it through the versioning engine.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kolam-ikan/kolam/internal/bridgekey"
	"github.com/kolam-ikan/kolam/internal/directive"
	"github.com/kolam-ikan/kolam/internal/keyedmutex"
	"github.com/kolam-ikan/kolam/internal/logging"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/staging"
	"github.com/kolam-ikan/kolam/internal/store"
	"github.com/kolam-ikan/kolam/internal/versioning"
)

// Options tunes key generation.
type Options struct {
	KeyLength   int
	KeyAttempts int
}

// Engine coordinates pending blocks, key checks and imports. Operations on the
// same stream are serialized; pending-block state is always read from the store.
type Engine struct {
	store    store.Store
	versions *versioning.Engine
	log      logging.Logger
	opts     Options
	locks    keyedmutex.Mutex
	now      func() time.Time
	generate func(int) (string, error)
}

// NewEngine creates an Engine. Zero options fall back to defaults.
func NewEngine(s store.Store, versions *versioning.Engine, log logging.Logger, opts Options) *Engine {
	if opts.KeyLength <= 0 {
		opts.KeyLength = bridgekey.DefaultLength
	}
	if opts.KeyAttempts <= 0 {
		opts.KeyAttempts = 5
	}
	return &Engine{
		store:    s,
		versions: versions,
		log:      log.With("component", "bridge"),
		opts:     opts,
		now:      time.Now,
		generate: bridgekey.Generate,
	}
}

// ExportResult is the outcome of Export.
type ExportResult struct {
	Block model.PendingBlock
	Text  string
	// ReplacedID is the id of the pending block this export superseded, if any.
	ReplacedID string
}

// Export composes the staged entries of a stream under d and records the
// pending block awaiting the reply. Staged ids whose entries no longer exist
// are dropped from sel.
func (e *Engine) Export(ctx context.Context, streamID string, sel *staging.Selector, d model.Directive) (*ExportResult, error) {
	d, err := model.ParseDirective(string(d))
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(streamID)
	defer unlock()

	var result ExportResult
	err = e.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.GetStream(ctx, streamID); err != nil {
			return err
		}

		entries, err := tx.ListEntries(ctx, streamID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(entries))
		for _, entry := range entries {
			ids = append(ids, entry.ID)
		}
		sel.Retain(ids)

		staged := sel.Staged(entries)
		if len(staged) == 0 {
			return fmt.Errorf("%w: nothing is staged in stream %s", model.ErrValidation, streamID)
		}
		stagedIDs := make([]string, 0, len(staged))
		for _, entry := range staged {
			stagedIDs = append(stagedIDs, entry.ID)
		}

		key, err := e.uniqueKey(ctx, tx)
		if err != nil {
			return err
		}

		text, err := directive.Compose(d, staged, key)
		if err != nil {
			return err
		}

		block, replaced, err := e.upsert(ctx, tx, streamID, key, stagedIDs, d)
		if err != nil {
			return err
		}

		result = ExportResult{Block: *block, Text: text, ReplacedID: replaced}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.ReplacedID != "" {
		e.log.Info(ctx, "pending block replaced", "stream", streamID, "replaced", result.ReplacedID)
	}
	e.log.Info(ctx, "export composed", "stream", streamID, "directive", d, "entries", len(result.Block.StagedEntryIDs))
	return &result, nil
}

// CreatePendingBlock records a pending block for streamID with a caller
// supplied key, replacing any existing one.
func (e *Engine) CreatePendingBlock(ctx context.Context, streamID, key string, stagedIDs []string, d model.Directive) (*model.PendingBlock, error) {
	if !bridgekey.WellFormed(key) {
		return nil, fmt.Errorf("%w: malformed bridge key %q", model.ErrValidation, key)
	}
	d, err := model.ParseDirective(string(d))
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(streamID)
	defer unlock()

	var block *model.PendingBlock
	var replaced string
	err = e.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.GetStream(ctx, streamID); err != nil {
			return err
		}
		for _, id := range stagedIDs {
			entry, err := tx.GetEntry(ctx, id)
			if err != nil {
				return err
			}
			if entry.StreamID != streamID {
				return fmt.Errorf("entry %s in stream %s: %w", id, streamID, model.ErrNotFound)
			}
		}
		var err error
		block, replaced, err = e.upsert(ctx, tx, streamID, key, stagedIDs, d)
		return err
	})
	if err != nil {
		return nil, err
	}

	if replaced != "" {
		e.log.Info(ctx, "pending block replaced", "stream", streamID, "replaced", replaced)
	}
	return block, nil
}

// Pending returns the stream's pending block, or nil when it is idle.
func (e *Engine) Pending(ctx context.Context, streamID string) (*model.PendingBlock, error) {
	block, err := e.store.GetPendingBlock(ctx, streamID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return block, nil
}

// DeletePendingBlock removes the pending block with the given id.
func (e *Engine) DeletePendingBlock(ctx context.Context, id string) error {
	deleted, err := e.store.DeletePendingBlockByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("pending block %s: %w", id, model.ErrNotFound)
	}
	e.log.Info(ctx, "pending block deleted", "block", id)
	return nil
}

// Discard cancels the stream's outstanding export without importing anything.
func (e *Engine) Discard(ctx context.Context, streamID string) error {
	unlock := e.locks.Lock(streamID)
	defer unlock()

	deleted, err := e.store.DeletePendingBlock(ctx, streamID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("stream %s: %w", streamID, model.ErrNoPendingBlock)
	}
	e.log.Info(ctx, "pending block discarded", "stream", streamID)
	return nil
}

func (e *Engine) upsert(ctx context.Context, tx store.Store, streamID, key string, stagedIDs []string, d model.Directive) (*model.PendingBlock, string, error) {
	block := model.PendingBlock{
		ID:             uuid.NewString(),
		StreamID:       streamID,
		BridgeKey:      key,
		StagedEntryIDs: append(make([]string, 0, len(stagedIDs)), stagedIDs...),
		Directive:      d,
		CreatedAt:      e.now(),
	}
	replaced, err := tx.UpsertPendingBlock(ctx, block)
	if err != nil {
		return nil, "", err
	}
	return &block, replaced, nil
}

func (e *Engine) uniqueKey(ctx context.Context, tx store.Store) (string, error) {
	for attempt := 1; attempt <= e.opts.KeyAttempts; attempt++ {
		key, err := e.generate(e.opts.KeyLength)
		if err != nil {
			return "", err
		}
		inUse, err := tx.BridgeKeyInUse(ctx, key)
		if err != nil {
			return "", err
		}
		if !inUse {
			return key, nil
		}
		e.log.Warn(ctx, "bridge key collision", "attempt", attempt)
	}
	return "", fmt.Errorf("%w: no unique bridge key after %d attempts", model.ErrConflict, e.opts.KeyAttempts)
}
