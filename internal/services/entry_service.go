package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/store"
)

// EntryService manages entry drafts. Versions are committed through the versioning engine.
type EntryService struct {
	store store.Store
	now   func() time.Time
}

// NewEntryService creates an EntryService.
func NewEntryService(s store.Store) *EntryService {
	return &EntryService{store: s, now: time.Now}
}

// CreateEntryInput describes a new entry. Nil content yields an empty document.
type CreateEntryInput struct {
	StreamID  string
	Role      model.Role
	Content   document.Document
	ProfileID *string
}

// Create appends an entry to the stream. User entries without a profile get
// the default profile, if one is set.
func (s *EntryService) Create(ctx context.Context, in CreateEntryInput) (*model.Entry, error) {
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleUser && role != model.RoleAssistant {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, role)
	}

	content := in.Content
	if len(content) == 0 {
		content = document.Empty()
	}
	content, err := document.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	var created *model.Entry
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.GetStream(ctx, in.StreamID); err != nil {
			return err
		}

		profileID, err := s.resolveProfile(ctx, tx, role, in.ProfileID)
		if err != nil {
			return err
		}

		seq, err := tx.NextSequence(ctx, in.StreamID)
		if err != nil {
			return err
		}

		now := s.now()
		entry := model.Entry{
			ID:         uuid.NewString(),
			StreamID:   in.StreamID,
			SequenceID: seq,
			Role:       role,
			Content:    content,
			ProfileID:  profileID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}
		if err := tx.TouchStream(ctx, in.StreamID, now); err != nil {
			return err
		}

		created, err = tx.GetEntry(ctx, entry.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *EntryService) Get(ctx context.Context, id string) (*model.Entry, error) {
	return s.store.GetEntry(ctx, id)
}

// List returns the stream's entries in sequence order.
func (s *EntryService) List(ctx context.Context, streamID string) ([]model.Entry, error) {
	if _, err := s.store.GetStream(ctx, streamID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, streamID)
}

// UpdateContent replaces the live draft without committing a version.
func (s *EntryService) UpdateContent(ctx context.Context, id string, content document.Document) (*model.Entry, error) {
	doc, err := document.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	var updated *model.Entry
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if err := tx.UpdateEntryContent(ctx, id, doc, now); err != nil {
			return err
		}
		if err := tx.TouchStream(ctx, entry.StreamID, now); err != nil {
			return err
		}
		updated, err = tx.GetEntry(ctx, id)
		return err
	})
	return updated, err
}

// Delete removes the entry and its versions. The sequence id is not reused.
func (s *EntryService) Delete(ctx context.Context, id string) (*model.Entry, error) {
	var deleted *model.Entry
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, id); err != nil {
			return err
		}
		deleted = entry
		return tx.TouchStream(ctx, entry.StreamID, s.now())
	})
	return deleted, err
}

// Search finds entries whose content contains query.
func (s *EntryService) Search(ctx context.Context, query string, limit int) ([]model.Entry, error) {
	q, err := requireText("query", query)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", model.ErrValidation)
	}
	return s.store.SearchEntries(ctx, q, limit)
}

func (s *EntryService) resolveProfile(ctx context.Context, tx store.Store, role model.Role, requested *string) (*string, error) {
	if requested != nil && *requested != "" {
		if role != model.RoleUser {
			return nil, fmt.Errorf("%w: only user entries carry a profile", model.ErrValidation)
		}
		if _, err := tx.GetProfile(ctx, *requested); err != nil {
			return nil, err
		}
		return requested, nil
	}
	if role != model.RoleUser {
		return nil, nil
	}

	def, err := tx.DefaultProfile(ctx)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &def.ID, nil
}
