package database

import (
	"context"
	"time"

	sqldb "github.com/kolam-ikan/kolam/internal/database/sqlc"
	"github.com/kolam-ikan/kolam/internal/model"
)

func (s *SQLStore) CreateProfile(ctx context.Context, profile model.Profile) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	err = q.InsertProfile(ctx, sqldb.InsertProfileParams{
		ID:        profile.ID,
		Name:      profile.Name,
		Role:      stringPtrToNullString(profile.Role),
		Color:     stringPtrToNullString(profile.Color),
		IsDefault: boolToInt64(profile.IsDefault),
		CreatedAt: toMillis(profile.CreatedAt),
		UpdatedAt: toMillis(profile.UpdatedAt),
	})
	return translate("create profile", err)
}

func (s *SQLStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}
	row, err := q.GetProfile(ctx, id)
	if err != nil {
		return nil, translate("get profile "+id, err)
	}
	profile := mapProfileRow(row)
	return &profile, nil
}

func (s *SQLStore) DefaultProfile(ctx context.Context) (*model.Profile, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}
	row, err := q.GetDefaultProfile(ctx)
	if err != nil {
		return nil, translate("default profile", err)
	}
	profile := mapProfileRow(row)
	return &profile, nil
}

func (s *SQLStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}
	rows, err := q.ListProfiles(ctx)
	if err != nil {
		return nil, translate("list profiles", err)
	}
	result := make([]model.Profile, 0, len(rows))
	for _, row := range rows {
		result = append(result, mapProfileRow(row))
	}
	return result, nil
}

// SetDefaultProfile marks id as the only default profile. Callers wrap it in Atomic.
func (s *SQLStore) SetDefaultProfile(ctx context.Context, id string, now time.Time) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	if err := q.ClearDefaultProfile(ctx, toMillis(now)); err != nil {
		return translate("clear default profile", err)
	}
	affected, err := q.MarkDefaultProfile(ctx, sqldb.MarkDefaultProfileParams{UpdatedAt: toMillis(now), ID: id})
	return expectOne("set default profile "+id, affected, err)
}

func (s *SQLStore) ProfileEntryCount(ctx context.Context, id string) (int64, error) {
	q, err := s.queries()
	if err != nil {
		return 0, err
	}
	count, err := q.CountEntriesByProfile(ctx, id)
	if err != nil {
		return 0, translate("count profile entries", err)
	}
	return count, nil
}

func (s *SQLStore) DeleteProfile(ctx context.Context, id string) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	affected, err := q.DeleteProfile(ctx, id)
	return expectOne("delete profile "+id, affected, err)
}
