package database

import (
	"context"
	"fmt"

	sqldb "github.com/kolam-ikan/kolam/internal/database/sqlc"
	"github.com/kolam-ikan/kolam/internal/model"
)

func (s *SQLStore) InsertVersion(ctx context.Context, version model.EntryVersion) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	err = q.InsertEntryVersion(ctx, sqldb.InsertEntryVersionParams{
		ID:              version.ID,
		EntryID:         version.EntryID,
		VersionNumber:   version.Number,
		ContentSnapshot: string(version.Content),
		ContentHash:     version.ContentHash,
		CommitMessage:   stringPtrToNullString(version.Message),
		CommittedAt:     toMillis(version.CreatedAt),
	})
	return translate(fmt.Sprintf("insert version %d of entry %s", version.Number, version.EntryID), err)
}

func (s *SQLStore) ListVersions(ctx context.Context, entryID string) ([]model.EntryVersion, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}

	rows, err := q.ListEntryVersions(ctx, entryID)
	if err != nil {
		return nil, translate("list versions", err)
	}

	result := make([]model.EntryVersion, 0, len(rows))
	for _, row := range rows {
		result = append(result, mapVersionRow(row))
	}
	return result, nil
}

func (s *SQLStore) LatestVersion(ctx context.Context, entryID string) (*model.EntryVersion, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}

	row, err := q.GetLatestEntryVersion(ctx, entryID)
	if err != nil {
		return nil, translate("latest version of entry "+entryID, err)
	}
	version := mapVersionRow(row)
	return &version, nil
}

func (s *SQLStore) VersionByNumber(ctx context.Context, entryID string, number int64) (*model.EntryVersion, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}

	row, err := q.GetEntryVersionByNumber(ctx, sqldb.GetEntryVersionByNumberParams{EntryID: entryID, VersionNumber: number})
	if err != nil {
		return nil, translate(fmt.Sprintf("version %d of entry %s", number, entryID), err)
	}
	version := mapVersionRow(row)
	return &version, nil
}

func (s *SQLStore) VersionStats(ctx context.Context, entryID string) (int64, int64, error) {
	q, err := s.queries()
	if err != nil {
		return 0, 0, err
	}

	row, err := q.GetEntryVersionStats(ctx, entryID)
	if err != nil {
		return 0, 0, translate("version stats", err)
	}
	return row.VersionCount, row.MaxVersion, nil
}
