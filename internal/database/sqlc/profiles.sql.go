package sqldb

import (
	"context"
	"database/sql"
)

const insertProfile = `INSERT INTO profiles (id, name, role, color, is_default, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type InsertProfileParams struct {
	ID        string
	Name      string
	Role      sql.NullString
	Color     sql.NullString
	IsDefault int64
	CreatedAt int64
	UpdatedAt int64
}

func (q *Queries) InsertProfile(ctx context.Context, arg InsertProfileParams) error {
	_, err := q.db.ExecContext(ctx, insertProfile,
		arg.ID,
		arg.Name,
		arg.Role,
		arg.Color,
		arg.IsDefault,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const profileColumns = `SELECT id, name, role, color, is_default, created_at, updated_at FROM profiles`

func scanProfile(scanner interface{ Scan(...any) error }) (Profile, error) {
	var i Profile
	err := scanner.Scan(
		&i.ID,
		&i.Name,
		&i.Role,
		&i.Color,
		&i.IsDefault,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getProfile = profileColumns + ` WHERE id = ?`

func (q *Queries) GetProfile(ctx context.Context, id string) (Profile, error) {
	return scanProfile(q.db.QueryRowContext(ctx, getProfile, id))
}

const getDefaultProfile = profileColumns + ` WHERE is_default = 1 LIMIT 1`

func (q *Queries) GetDefaultProfile(ctx context.Context) (Profile, error) {
	return scanProfile(q.db.QueryRowContext(ctx, getDefaultProfile))
}

const listProfiles = profileColumns + ` ORDER BY is_default DESC, name`

func (q *Queries) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := q.db.QueryContext(ctx, listProfiles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Profile
	for rows.Next() {
		i, err := scanProfile(rows)
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

const clearDefaultProfile = `UPDATE profiles SET is_default = 0, updated_at = ? WHERE is_default = 1`

func (q *Queries) ClearDefaultProfile(ctx context.Context, updatedAt int64) error {
	_, err := q.db.ExecContext(ctx, clearDefaultProfile, updatedAt)
	return err
}

const markDefaultProfile = `UPDATE profiles SET is_default = 1, updated_at = ? WHERE id = ?`

type MarkDefaultProfileParams struct {
	UpdatedAt int64
	ID        string
}

func (q *Queries) MarkDefaultProfile(ctx context.Context, arg MarkDefaultProfileParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markDefaultProfile, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteProfile = `DELETE FROM profiles WHERE id = ?`

func (q *Queries) DeleteProfile(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteProfile, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
