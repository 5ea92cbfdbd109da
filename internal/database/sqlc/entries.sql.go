package sqldb

import (
	"context"
	"database/sql"
)

const insertEntry = `INSERT INTO entries (
    id, stream_id, sequence_id, role, content, profile_id, version_head,
    is_staged, parent_context_ids, ai_metadata, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?)`

type InsertEntryParams struct {
	ID               string
	StreamID         string
	SequenceID       int64
	Role             string
	Content          string
	ProfileID        sql.NullString
	ParentContextIds sql.NullString
	AiMetadata       sql.NullString
	CreatedAt        int64
	UpdatedAt        int64
}

func (q *Queries) InsertEntry(ctx context.Context, arg InsertEntryParams) error {
	_, err := q.db.ExecContext(ctx, insertEntry,
		arg.ID,
		arg.StreamID,
		arg.SequenceID,
		arg.Role,
		arg.Content,
		arg.ProfileID,
		arg.ParentContextIds,
		arg.AiMetadata,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const entryWithProfileColumns = `SELECT e.id, e.stream_id, e.sequence_id, e.role, e.content, e.profile_id, e.version_head,
       e.is_staged, e.parent_context_ids, e.ai_metadata, e.created_at, e.updated_at,
       p.name, p.role, p.color, p.is_default, p.created_at, p.updated_at
FROM entries e
LEFT JOIN profiles p ON p.id = e.profile_id`

type EntryWithProfileRow struct {
	Entry
	ProfileName      sql.NullString
	ProfileRole      sql.NullString
	ProfileColor     sql.NullString
	ProfileIsDefault sql.NullInt64
	ProfileCreatedAt sql.NullInt64
	ProfileUpdatedAt sql.NullInt64
}

func scanEntryWithProfile(scanner interface{ Scan(...any) error }) (EntryWithProfileRow, error) {
	var i EntryWithProfileRow
	err := scanner.Scan(
		&i.ID,
		&i.StreamID,
		&i.SequenceID,
		&i.Role,
		&i.Content,
		&i.ProfileID,
		&i.VersionHead,
		&i.IsStaged,
		&i.ParentContextIds,
		&i.AiMetadata,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ProfileName,
		&i.ProfileRole,
		&i.ProfileColor,
		&i.ProfileIsDefault,
		&i.ProfileCreatedAt,
		&i.ProfileUpdatedAt,
	)
	return i, err
}

func (q *Queries) queryEntriesWithProfile(ctx context.Context, query string, args ...any) ([]EntryWithProfileRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EntryWithProfileRow
	for rows.Next() {
		i, err := scanEntryWithProfile(rows)
		if err != nil {
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

const getEntry = entryWithProfileColumns + `
WHERE e.id = ?`

func (q *Queries) GetEntry(ctx context.Context, id string) (EntryWithProfileRow, error) {
	row := q.db.QueryRowContext(ctx, getEntry, id)
	return scanEntryWithProfile(row)
}

const listEntriesByStream = entryWithProfileColumns + `
WHERE e.stream_id = ?
ORDER BY e.sequence_id`

func (q *Queries) ListEntriesByStream(ctx context.Context, streamID string) ([]EntryWithProfileRow, error) {
	return q.queryEntriesWithProfile(ctx, listEntriesByStream, streamID)
}

const searchEntries = entryWithProfileColumns + `
WHERE e.content LIKE '%' || ? || '%' ESCAPE '\'
ORDER BY e.updated_at DESC, e.id
LIMIT ?`

type SearchEntriesParams struct {
	Pattern string
	Limit   int64
}

func (q *Queries) SearchEntries(ctx context.Context, arg SearchEntriesParams) ([]EntryWithProfileRow, error) {
	return q.queryEntriesWithProfile(ctx, searchEntries, arg.Pattern, arg.Limit)
}

const updateEntryContent = `UPDATE entries SET content = ?, updated_at = ? WHERE id = ?`

type UpdateEntryContentParams struct {
	Content   string
	UpdatedAt int64
	ID        string
}

func (q *Queries) UpdateEntryContent(ctx context.Context, arg UpdateEntryContentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateEntryContent, arg.Content, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateEntryHead = `UPDATE entries SET content = ?, version_head = ?, updated_at = ? WHERE id = ?`

type UpdateEntryHeadParams struct {
	Content     string
	VersionHead int64
	UpdatedAt   int64
	ID          string
}

func (q *Queries) UpdateEntryHead(ctx context.Context, arg UpdateEntryHeadParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateEntryHead, arg.Content, arg.VersionHead, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setEntryStaged = `UPDATE entries SET is_staged = ? WHERE id = ? AND stream_id = ?`

type SetEntryStagedParams struct {
	IsStaged int64
	ID       string
	StreamID string
}

func (q *Queries) SetEntryStaged(ctx context.Context, arg SetEntryStagedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setEntryStaged, arg.IsStaged, arg.ID, arg.StreamID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const clearStreamStaged = `UPDATE entries SET is_staged = 0 WHERE stream_id = ? AND is_staged = 1`

func (q *Queries) ClearStreamStaged(ctx context.Context, streamID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, clearStreamStaged, streamID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listStagedEntryIDs = `SELECT id FROM entries WHERE stream_id = ? AND is_staged = 1 ORDER BY sequence_id`

func (q *Queries) ListStagedEntryIDs(ctx context.Context, streamID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listStagedEntryIDs, streamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setEntryProfile = `UPDATE entries SET profile_id = ?, updated_at = ? WHERE id = ?`

type SetEntryProfileParams struct {
	ProfileID sql.NullString
	UpdatedAt int64
	ID        string
}

func (q *Queries) SetEntryProfile(ctx context.Context, arg SetEntryProfileParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setEntryProfile, arg.ProfileID, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteEntry = `DELETE FROM entries WHERE id = ?`

func (q *Queries) DeleteEntry(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEntry, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countEntriesByProfile = `SELECT COUNT(*) FROM entries WHERE profile_id = ?`

func (q *Queries) CountEntriesByProfile(ctx context.Context, profileID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countEntriesByProfile, profileID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
