package database

import (
	"context"
	"database/sql"
	"errors"

	sqldb "github.com/kolam-ikan/kolam/internal/database/sqlc"
	"github.com/kolam-ikan/kolam/internal/model"
)

func (s *SQLStore) UpsertPendingBlock(ctx context.Context, block model.PendingBlock) (string, error) {
	q, err := s.queries()
	if err != nil {
		return "", err
	}

	var replacedID string
	existing, err := q.GetPendingBlockByStream(ctx, block.StreamID)
	switch {
	case err == nil:
		replacedID = existing.ID
	case errors.Is(err, sql.ErrNoRows):
	default:
		return "", translate("read pending block", err)
	}

	ids, err := encodeJSON(nonNilStrings(block.StagedEntryIDs))
	if err != nil {
		return "", err
	}

	err = q.UpsertPendingBlock(ctx, sqldb.UpsertPendingBlockParams{
		ID:             block.ID,
		StreamID:       block.StreamID,
		BridgeKey:      block.BridgeKey,
		StagedEntryIds: ids,
		Directive:      string(block.Directive),
		CreatedAt:      toMillis(block.CreatedAt),
	})
	if err != nil {
		return "", translate("upsert pending block", err)
	}
	return replacedID, nil
}

func (s *SQLStore) GetPendingBlock(ctx context.Context, streamID string) (*model.PendingBlock, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}

	row, err := q.GetPendingBlockByStream(ctx, streamID)
	if err != nil {
		return nil, translate("pending block of stream "+streamID, err)
	}

	block, err := mapPendingBlockRow(row)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (s *SQLStore) DeletePendingBlock(ctx context.Context, streamID string) (bool, error) {
	q, err := s.queries()
	if err != nil {
		return false, err
	}
	affected, err := q.DeletePendingBlockByStream(ctx, streamID)
	if err != nil {
		return false, translate("delete pending block", err)
	}
	return affected > 0, nil
}

func (s *SQLStore) DeletePendingBlockByID(ctx context.Context, id string) (bool, error) {
	q, err := s.queries()
	if err != nil {
		return false, err
	}
	affected, err := q.DeletePendingBlockByID(ctx, id)
	if err != nil {
		return false, translate("delete pending block", err)
	}
	return affected > 0, nil
}

func (s *SQLStore) BridgeKeyInUse(ctx context.Context, key string) (bool, error) {
	q, err := s.queries()
	if err != nil {
		return false, err
	}
	count, err := q.CountPendingBlocksByKey(ctx, key)
	if err != nil {
		return false, translate("check bridge key", err)
	}
	return count > 0, nil
}
