package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/store"
)

// ProfileService manages author profiles and their assignment to entries.
type ProfileService struct {
	store store.Store
	now   func() time.Time
}

// NewProfileService creates a ProfileService.
func NewProfileService(s store.Store) *ProfileService {
	return &ProfileService{store: s, now: time.Now}
}

// CreateProfileInput describes a new profile.
type CreateProfileInput struct {
	Name      string
	Role      *string
	Color     *string
	IsDefault bool
}

func (s *ProfileService) Create(ctx context.Context, in CreateProfileInput) (*model.Profile, error) {
	name, err := requireText("name", in.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	profile := model.Profile{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      in.Role,
		Color:     in.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.Atomic(ctx, func(tx store.Store) error {
		if err := tx.CreateProfile(ctx, profile); err != nil {
			return err
		}
		if in.IsDefault {
			return tx.SetDefaultProfile(ctx, profile.ID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	profile.IsDefault = in.IsDefault
	return &profile, nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (*model.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

func (s *ProfileService) List(ctx context.Context) ([]model.Profile, error) {
	return s.store.ListProfiles(ctx)
}

func (s *ProfileService) SetDefault(ctx context.Context, id string) error {
	return s.store.Atomic(ctx, func(tx store.Store) error {
		return tx.SetDefaultProfile(ctx, id, s.now())
	})
}

func (s *ProfileService) EntryCount(ctx context.Context, id string) (int64, error) {
	if _, err := s.store.GetProfile(ctx, id); err != nil {
		return 0, err
	}
	return s.store.ProfileEntryCount(ctx, id)
}

// Delete removes the profile. Entries that used it keep no profile.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteProfile(ctx, id)
}

// Assign sets or clears the profile of a user entry. The returned entry
// carries the profile view read back from the store.
func (s *ProfileService) Assign(ctx context.Context, entryID string, profileID *string) (*model.Entry, error) {
	var updated *model.Entry
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		entry, err := tx.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Role != model.RoleUser {
			return fmt.Errorf("%w: entry %s is not a user entry", model.ErrValidation, entryID)
		}
		if profileID != nil && *profileID != "" {
			if _, err := tx.GetProfile(ctx, *profileID); err != nil {
				return err
			}
		}
		if err := tx.SetEntryProfile(ctx, entryID, profileID, s.now()); err != nil {
			return err
		}
		updated, err = tx.GetEntry(ctx, entryID)
		return err
	})
	return updated, err
}

// AssignMany assigns profileID to every given user entry in one transaction.
func (s *ProfileService) AssignMany(ctx context.Context, entries []model.Entry, profileID *string) (int, error) {
	updated := 0
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if profileID != nil && *profileID != "" {
			if _, err := tx.GetProfile(ctx, *profileID); err != nil {
				return err
			}
		}
		now := s.now()
		for _, entry := range entries {
			if entry.Role != model.RoleUser {
				continue
			}
			if err := tx.SetEntryProfile(ctx, entry.ID, profileID, now); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
