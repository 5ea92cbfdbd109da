package sqldb

import (
	"context"
	"database/sql"
)

const insertStream = `INSERT INTO streams (id, title, description, tags, color, pinned, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type InsertStreamParams struct {
	ID          string
	Title       string
	Description sql.NullString
	Tags        string
	Color       sql.NullString
	Pinned      int64
	CreatedAt   int64
	UpdatedAt   int64
}

func (q *Queries) InsertStream(ctx context.Context, arg InsertStreamParams) error {
	_, err := q.db.ExecContext(ctx, insertStream,
		arg.ID,
		arg.Title,
		arg.Description,
		arg.Tags,
		arg.Color,
		arg.Pinned,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getStream = `SELECT id, title, description, tags, color, pinned, last_sequence, created_at, updated_at
FROM streams WHERE id = ?`

func (q *Queries) GetStream(ctx context.Context, id string) (Stream, error) {
	row := q.db.QueryRowContext(ctx, getStream, id)
	var i Stream
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Description,
		&i.Tags,
		&i.Color,
		&i.Pinned,
		&i.LastSequence,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listStreamSummaries = `SELECT s.id, s.title, s.description, s.tags, s.color, s.pinned, s.last_sequence, s.created_at, s.updated_at,
       (SELECT COUNT(*) FROM entries e WHERE e.stream_id = s.id) AS entry_count
FROM streams s
ORDER BY s.pinned DESC, s.updated_at DESC, s.id`

type ListStreamSummariesRow struct {
	Stream
	EntryCount int64
}

func (q *Queries) ListStreamSummaries(ctx context.Context) ([]ListStreamSummariesRow, error) {
	rows, err := q.db.QueryContext(ctx, listStreamSummaries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListStreamSummariesRow
	for rows.Next() {
		var i ListStreamSummariesRow
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.Description,
			&i.Tags,
			&i.Color,
			&i.Pinned,
			&i.LastSequence,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.EntryCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateStream = `UPDATE streams
SET title = ?, description = ?, tags = ?, color = ?, pinned = ?, updated_at = ?
WHERE id = ?`

type UpdateStreamParams struct {
	Title       string
	Description sql.NullString
	Tags        string
	Color       sql.NullString
	Pinned      int64
	UpdatedAt   int64
	ID          string
}

func (q *Queries) UpdateStream(ctx context.Context, arg UpdateStreamParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateStream,
		arg.Title,
		arg.Description,
		arg.Tags,
		arg.Color,
		arg.Pinned,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const touchStream = `UPDATE streams SET updated_at = ? WHERE id = ?`

type TouchStreamParams struct {
	UpdatedAt int64
	ID        string
}

func (q *Queries) TouchStream(ctx context.Context, arg TouchStreamParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, touchStream, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const nextStreamSequence = `UPDATE streams SET last_sequence = last_sequence + 1
WHERE id = ?
RETURNING last_sequence`

func (q *Queries) NextStreamSequence(ctx context.Context, id string) (int64, error) {
	row := q.db.QueryRowContext(ctx, nextStreamSequence, id)
	var lastSequence int64
	err := row.Scan(&lastSequence)
	return lastSequence, err
}

const deleteStream = `DELETE FROM streams WHERE id = ?`

func (q *Queries) DeleteStream(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStream, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
