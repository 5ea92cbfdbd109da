package sqldb

import "context"

const upsertPendingBlock = `INSERT INTO pending_blocks (id, stream_id, bridge_key, staged_entry_ids, directive, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(stream_id) DO UPDATE SET
    id = excluded.id,
    bridge_key = excluded.bridge_key,
    staged_entry_ids = excluded.staged_entry_ids,
    directive = excluded.directive,
    created_at = excluded.created_at`

type UpsertPendingBlockParams struct {
	ID             string
	StreamID       string
	BridgeKey      string
	StagedEntryIds string
	Directive      string
	CreatedAt      int64
}

func (q *Queries) UpsertPendingBlock(ctx context.Context, arg UpsertPendingBlockParams) error {
	_, err := q.db.ExecContext(ctx, upsertPendingBlock,
		arg.ID,
		arg.StreamID,
		arg.BridgeKey,
		arg.StagedEntryIds,
		arg.Directive,
		arg.CreatedAt,
	)
	return err
}

const getPendingBlockByStream = `SELECT id, stream_id, bridge_key, staged_entry_ids, directive, created_at
FROM pending_blocks
WHERE stream_id = ?`

func (q *Queries) GetPendingBlockByStream(ctx context.Context, streamID string) (PendingBlock, error) {
	row := q.db.QueryRowContext(ctx, getPendingBlockByStream, streamID)
	var i PendingBlock
	err := row.Scan(
		&i.ID,
		&i.StreamID,
		&i.BridgeKey,
		&i.StagedEntryIds,
		&i.Directive,
		&i.CreatedAt,
	)
	return i, err
}

const countPendingBlocksByKey = `SELECT COUNT(*) FROM pending_blocks WHERE bridge_key = ?`

func (q *Queries) CountPendingBlocksByKey(ctx context.Context, bridgeKey string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPendingBlocksByKey, bridgeKey)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deletePendingBlockByStream = `DELETE FROM pending_blocks WHERE stream_id = ?`

func (q *Queries) DeletePendingBlockByStream(ctx context.Context, streamID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePendingBlockByStream, streamID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deletePendingBlockByID = `DELETE FROM pending_blocks WHERE id = ?`

func (q *Queries) DeletePendingBlockByID(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePendingBlockByID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
