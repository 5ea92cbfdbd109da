package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/store"
)

// StreamService manages streams.
type StreamService struct {
	store store.Store
	now   func() time.Time
}

// NewStreamService creates a StreamService.
func NewStreamService(s store.Store) *StreamService {
	return &StreamService{store: s, now: time.Now}
}

// CreateStreamInput describes a new stream.
type CreateStreamInput struct {
	Title       string
	Description *string
	Tags        []string
	Color       *string
	Pinned      bool
}

// StreamDetails is a stream with its entries in sequence order.
type StreamDetails struct {
	Stream  model.Stream
	Entries []model.Entry
}

func (s *StreamService) Create(ctx context.Context, in CreateStreamInput) (*model.Stream, error) {
	title, err := requireText("title", in.Title)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stream := model.Stream{
		ID:          uuid.NewString(),
		Title:       title,
		Description: in.Description,
		Tags:        in.Tags,
		Color:       in.Color,
		Pinned:      in.Pinned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateStream(ctx, stream); err != nil {
		return nil, err
	}
	return &stream, nil
}

func (s *StreamService) Get(ctx context.Context, id string) (*model.Stream, error) {
	return s.store.GetStream(ctx, id)
}

// List returns every stream, pinned first, then most recently updated.
func (s *StreamService) List(ctx context.Context) ([]model.StreamSummary, error) {
	return s.store.ListStreams(ctx)
}

func (s *StreamService) Details(ctx context.Context, id string) (*StreamDetails, error) {
	var details StreamDetails
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		stream, err := tx.GetStream(ctx, id)
		if err != nil {
			return err
		}
		entries, err := tx.ListEntries(ctx, id)
		if err != nil {
			return err
		}
		details = StreamDetails{Stream: *stream, Entries: entries}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

func (s *StreamService) Update(ctx context.Context, id string, patch model.StreamPatch) (*model.Stream, error) {
	if patch.Title != nil {
		title, err := requireText("title", *patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	var updated *model.Stream
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		updated, err = tx.UpdateStream(ctx, id, patch, s.now())
		return err
	})
	return updated, err
}

// Delete removes the stream with its entries, versions and pending block.
func (s *StreamService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteStream(ctx, id)
}
