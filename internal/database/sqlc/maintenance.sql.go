package sqldb

import "context"

const deleteAllPendingBlocks = `DELETE FROM pending_blocks`

func (q *Queries) DeleteAllPendingBlocks(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllPendingBlocks)
	return err
}

const deleteAllEntries = `DELETE FROM entries`

func (q *Queries) DeleteAllEntries(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllEntries)
	return err
}

const deleteAllStreams = `DELETE FROM streams`

func (q *Queries) DeleteAllStreams(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllStreams)
	return err
}

const deleteAllProfiles = `DELETE FROM profiles`

func (q *Queries) DeleteAllProfiles(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllProfiles)
	return err
}
