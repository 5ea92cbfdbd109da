package sqldb

import (
	"context"
	"database/sql"
)

const insertEntryVersion = `INSERT INTO entry_versions (id, entry_id, version_number, content_snapshot, content_hash, commit_message, committed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type InsertEntryVersionParams struct {
	ID              string
	EntryID         string
	VersionNumber   int64
	ContentSnapshot string
	ContentHash     string
	CommitMessage   sql.NullString
	CommittedAt     int64
}

func (q *Queries) InsertEntryVersion(ctx context.Context, arg InsertEntryVersionParams) error {
	_, err := q.db.ExecContext(ctx, insertEntryVersion,
		arg.ID,
		arg.EntryID,
		arg.VersionNumber,
		arg.ContentSnapshot,
		arg.ContentHash,
		arg.CommitMessage,
		arg.CommittedAt,
	)
	return err
}

const entryVersionColumns = `SELECT id, entry_id, version_number, content_snapshot, content_hash, commit_message, committed_at
FROM entry_versions`

func scanEntryVersion(scanner interface{ Scan(...any) error }) (EntryVersion, error) {
	var i EntryVersion
	err := scanner.Scan(
		&i.ID,
		&i.EntryID,
		&i.VersionNumber,
		&i.ContentSnapshot,
		&i.ContentHash,
		&i.CommitMessage,
		&i.CommittedAt,
	)
	return i, err
}

const listEntryVersions = entryVersionColumns + `
WHERE entry_id = ?
ORDER BY version_number`

func (q *Queries) ListEntryVersions(ctx context.Context, entryID string) ([]EntryVersion, error) {
	rows, err := q.db.QueryContext(ctx, listEntryVersions, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EntryVersion
	for rows.Next() {
		i, err := scanEntryVersion(rows)
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

const getLatestEntryVersion = entryVersionColumns + `
WHERE entry_id = ?
ORDER BY version_number DESC
LIMIT 1`

func (q *Queries) GetLatestEntryVersion(ctx context.Context, entryID string) (EntryVersion, error) {
	row := q.db.QueryRowContext(ctx, getLatestEntryVersion, entryID)
	return scanEntryVersion(row)
}

const getEntryVersionByNumber = entryVersionColumns + `
WHERE entry_id = ? AND version_number = ?`

type GetEntryVersionByNumberParams struct {
	EntryID       string
	VersionNumber int64
}

func (q *Queries) GetEntryVersionByNumber(ctx context.Context, arg GetEntryVersionByNumberParams) (EntryVersion, error) {
	row := q.db.QueryRowContext(ctx, getEntryVersionByNumber, arg.EntryID, arg.VersionNumber)
	return scanEntryVersion(row)
}

const getEntryVersionStats = `SELECT COUNT(*) AS version_count, COALESCE(MAX(version_number), 0) AS max_version
FROM entry_versions
WHERE entry_id = ?`

type GetEntryVersionStatsRow struct {
	VersionCount int64
	MaxVersion   int64
}

func (q *Queries) GetEntryVersionStats(ctx context.Context, entryID string) (GetEntryVersionStatsRow, error) {
	row := q.db.QueryRowContext(ctx, getEntryVersionStats, entryID)
	var i GetEntryVersionStatsRow
	err := row.Scan(&i.VersionCount, &i.MaxVersion)
	return i, err
}
