package database

import (
	"context"
	"time"

	sqldb "github.com/kolam-ikan/kolam/internal/database/sqlc"
	"github.com/kolam-ikan/kolam/internal/model"
)

func (s *SQLStore) CreateStream(ctx context.Context, stream model.Stream) error {
	q, err := s.queries()
	if err != nil {
		return err
	}

	tags, err := encodeJSON(nonNilStrings(stream.Tags))
	if err != nil {
		return err
	}

	err = q.InsertStream(ctx, sqldb.InsertStreamParams{
		ID:          stream.ID,
		Title:       stream.Title,
		Description: stringPtrToNullString(stream.Description),
		Tags:        tags,
		Color:       stringPtrToNullString(stream.Color),
		Pinned:      boolToInt64(stream.Pinned),
		CreatedAt:   toMillis(stream.CreatedAt),
		UpdatedAt:   toMillis(stream.UpdatedAt),
	})
	return translate("create stream", err)
}

func (s *SQLStore) GetStream(ctx context.Context, id string) (*model.Stream, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}

	row, err := q.GetStream(ctx, id)
	if err != nil {
		return nil, translate("get stream "+id, err)
	}

	stream, err := mapStreamRow(row)
	if err != nil {
		return nil, err
	}
	return &stream, nil
}

func (s *SQLStore) ListStreams(ctx context.Context) ([]model.StreamSummary, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}

	rows, err := q.ListStreamSummaries(ctx)
	if err != nil {
		return nil, translate("list streams", err)
	}

	result := make([]model.StreamSummary, 0, len(rows))
	for _, row := range rows {
		stream, err := mapStreamRow(row.Stream)
		if err != nil {
			return nil, err
		}
		result = append(result, model.StreamSummary{Stream: stream, EntryCount: row.EntryCount})
	}
	return result, nil
}

func (s *SQLStore) UpdateStream(ctx context.Context, id string, patch model.StreamPatch, now time.Time) (*model.Stream, error) {
	current, err := s.GetStream(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Description != nil {
		current.Description = patch.Description
	}
	if patch.Tags != nil {
		current.Tags = patch.Tags
	}
	if patch.Color != nil {
		current.Color = patch.Color
	}
	if patch.Pinned != nil {
		current.Pinned = *patch.Pinned
	}
	current.UpdatedAt = now

	tags, err := encodeJSON(nonNilStrings(current.Tags))
	if err != nil {
		return nil, err
	}

	affected, err := s.q.UpdateStream(ctx, sqldb.UpdateStreamParams{
		Title:       current.Title,
		Description: stringPtrToNullString(current.Description),
		Tags:        tags,
		Color:       stringPtrToNullString(current.Color),
		Pinned:      boolToInt64(current.Pinned),
		UpdatedAt:   toMillis(now),
		ID:          id,
	})
	if err := expectOne("update stream "+id, affected, err); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *SQLStore) TouchStream(ctx context.Context, id string, now time.Time) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	affected, err := q.TouchStream(ctx, sqldb.TouchStreamParams{UpdatedAt: toMillis(now), ID: id})
	return expectOne("touch stream "+id, affected, err)
}

func (s *SQLStore) DeleteStream(ctx context.Context, id string) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	affected, err := q.DeleteStream(ctx, id)
	return expectOne("delete stream "+id, affected, err)
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
