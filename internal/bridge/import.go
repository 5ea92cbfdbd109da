package bridge

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kolam-ikan/kolam/internal/bridgekey"
	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/staging"
	"github.com/kolam-ikan/kolam/internal/store"
)

// ImportRequest carries a reply pasted back from the external chat.
type ImportRequest struct {
	StreamID string
	Reply    string
	// TargetEntryID, when set, receives the reply as a new version. Otherwise
	// the reply becomes a new assistant entry.
	TargetEntryID string
	Message       string
	Model         string
	Provider      string
	Summary       string
}

// ImportResult reports the outcome of Import. A key mismatch is not an error:
// Matched is false and nothing changed.
type ImportResult struct {
	Matched bool
	// FoundKey is the key-shaped token found in the reply, if any.
	FoundKey string
	Block    model.PendingBlock
	Entry    *model.Entry
	Version  *model.EntryVersion
}

// Import validates req.Reply against the stream's pending block. On a match it
// commits the reply without protocol markers, deletes the pending block and
// unstages the exported entries in one transaction, then clears them from sel.
func (e *Engine) Import(ctx context.Context, req ImportRequest, sel *staging.Selector) (*ImportResult, error) {
	unlock := e.locks.Lock(req.StreamID)
	defer unlock()

	if _, err := e.store.GetStream(ctx, req.StreamID); err != nil {
		return nil, err
	}
	block, err := e.Pending(ctx, req.StreamID)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, fmt.Errorf("stream %s: %w", req.StreamID, model.ErrNoPendingBlock)
	}

	result := &ImportResult{Block: *block}
	result.FoundKey, _ = bridgekey.Extract(req.Reply)

	if !bridgekey.Validate(req.Reply, block.BridgeKey) {
		e.log.Info(ctx, "reply key mismatch", "stream", req.StreamID, "found", result.FoundKey)
		return result, nil
	}
	result.Matched = true

	payload := bridgekey.Strip(req.Reply)
	if payload == "" {
		return nil, fmt.Errorf("%w: reply has no content besides the bridge marker", model.ErrValidation)
	}
	content := document.FromText(payload)

	message := req.Message
	if message == "" {
		message = fmt.Sprintf("Import %s reply", block.Directive)
	}

	entryID := req.TargetEntryID
	if entryID == "" {
		entryID = uuid.NewString()
	}
	unlockEntry := e.versions.Lock(entryID)
	defer unlockEntry()

	err = e.store.Atomic(ctx, func(tx store.Store) error {
		if req.TargetEntryID == "" {
			if err := e.createAssistantEntry(ctx, tx, entryID, block, content, req); err != nil {
				return err
			}
		} else {
			target, err := tx.GetEntry(ctx, entryID)
			if err != nil {
				return err
			}
			if target.StreamID != req.StreamID {
				return fmt.Errorf("entry %s in stream %s: %w", entryID, req.StreamID, model.ErrNotFound)
			}
		}

		version, err := e.versions.CommitTx(ctx, tx, entryID, content, &message)
		if err != nil {
			return err
		}
		result.Version = version

		deleted, err := tx.DeletePendingBlockByID(ctx, block.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: pending block %s was replaced during import", model.ErrConflict, block.ID)
		}

		if err := tx.SetStaged(ctx, req.StreamID, block.StagedEntryIDs, false); err != nil {
			return err
		}
		if err := tx.TouchStream(ctx, req.StreamID, e.now()); err != nil {
			return err
		}

		result.Entry, err = tx.GetEntry(ctx, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if sel != nil {
		for _, id := range block.StagedEntryIDs {
			sel.Unstage(id)
		}
	}

	e.log.Info(ctx, "reply imported", "stream", req.StreamID, "entry", entryID, "version", result.Version.Number)
	return result, nil
}

func (e *Engine) createAssistantEntry(ctx context.Context, tx store.Store, id string, block *model.PendingBlock, content document.Document, req ImportRequest) error {
	seq, err := tx.NextSequence(ctx, req.StreamID)
	if err != nil {
		return err
	}
	now := e.now()
	return tx.CreateEntry(ctx, model.Entry{
		ID:               id,
		StreamID:         req.StreamID,
		SequenceID:       seq,
		Role:             model.RoleAssistant,
		Content:          content,
		ParentContextIDs: block.StagedEntryIDs,
		AIMetadata: &model.AIMetadata{
			Model:     req.Model,
			Provider:  req.Provider,
			Directive: block.Directive,
			BridgeKey: block.BridgeKey,
			Summary:   req.Summary,
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
}
