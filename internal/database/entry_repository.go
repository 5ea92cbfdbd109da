package database

import (
	"context"
	"strings"
	"time"

	sqldb "github.com/kolam-ikan/kolam/internal/database/sqlc"
	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *SQLStore) NextSequence(ctx context.Context, streamID string) (int64, error) {
	q, err := s.queries()
	if err != nil {
		return 0, err
	}
	seq, err := q.NextStreamSequence(ctx, streamID)
	if err != nil {
		return 0, translate("next sequence for stream "+streamID, err)
	}
	return seq, nil
}

func (s *SQLStore) CreateEntry(ctx context.Context, entry model.Entry) error {
	q, err := s.queries()
	if err != nil {
		return err
	}

	parents, err := encodeNullJSON(entry.ParentContextIDs, len(entry.ParentContextIDs) > 0)
	if err != nil {
		return err
	}
	meta, err := encodeNullJSON(entry.AIMetadata, entry.AIMetadata != nil)
	if err != nil {
		return err
	}

	err = q.InsertEntry(ctx, sqldb.InsertEntryParams{
		ID:               entry.ID,
		StreamID:         entry.StreamID,
		SequenceID:       entry.SequenceID,
		Role:             string(entry.Role),
		Content:          string(entry.Content),
		ProfileID:        stringPtrToNullString(entry.ProfileID),
		ParentContextIds: parents,
		AiMetadata:       meta,
		CreatedAt:        toMillis(entry.CreatedAt),
		UpdatedAt:        toMillis(entry.UpdatedAt),
	})
	return translate("create entry", err)
}

func (s *SQLStore) GetEntry(ctx context.Context, id string) (*model.Entry, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}

	row, err := q.GetEntry(ctx, id)
	if err != nil {
		return nil, translate("get entry "+id, err)
	}

	entry, err := mapEntryRow(row)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *SQLStore) ListEntries(ctx context.Context, streamID string) ([]model.Entry, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}

	rows, err := q.ListEntriesByStream(ctx, streamID)
	if err != nil {
		return nil, translate("list entries", err)
	}
	return mapEntryRows(rows)
}

func (s *SQLStore) SearchEntries(ctx context.Context, query string, limit int) ([]model.Entry, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}

	rows, err := q.SearchEntries(ctx, sqldb.SearchEntriesParams{
		Pattern: likeEscaper.Replace(query),
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, translate("search entries", err)
	}
	return mapEntryRows(rows)
}

func (s *SQLStore) UpdateEntryContent(ctx context.Context, id string, content document.Document, now time.Time) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	affected, err := q.UpdateEntryContent(ctx, sqldb.UpdateEntryContentParams{
		Content:   string(content),
		UpdatedAt: toMillis(now),
		ID:        id,
	})
	return expectOne("update entry "+id, affected, err)
}

func (s *SQLStore) SetEntryHead(ctx context.Context, id string, content document.Document, head int64, now time.Time) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	affected, err := q.UpdateEntryHead(ctx, sqldb.UpdateEntryHeadParams{
		Content:     string(content),
		VersionHead: head,
		UpdatedAt:   toMillis(now),
		ID:          id,
	})
	return expectOne("set head of entry "+id, affected, err)
}

func (s *SQLStore) SetEntryProfile(ctx context.Context, id string, profileID *string, now time.Time) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	affected, err := q.SetEntryProfile(ctx, sqldb.SetEntryProfileParams{
		ProfileID: stringPtrToNullString(profileID),
		UpdatedAt: toMillis(now),
		ID:        id,
	})
	return expectOne("set profile of entry "+id, affected, err)
}

func (s *SQLStore) DeleteEntry(ctx context.Context, id string) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	affected, err := q.DeleteEntry(ctx, id)
	return expectOne("delete entry "+id, affected, err)
}

// SetStaged updates the staging mirror of streamID. Ids that are unknown or
// belong to another stream are skipped.
func (s *SQLStore) SetStaged(ctx context.Context, streamID string, ids []string, staged bool) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := q.SetEntryStaged(ctx, sqldb.SetEntryStagedParams{IsStaged: boolToInt64(staged), ID: id, StreamID: streamID}); err != nil {
			return translate("set staged "+id, err)
		}
	}
	return nil
}

func (s *SQLStore) ClearStaged(ctx context.Context, streamID string) error {
	q, err := s.queries()
	if err != nil {
		return err
	}
	_, err = q.ClearStreamStaged(ctx, streamID)
	return translate("clear staged", err)
}

func (s *SQLStore) StagedEntryIDs(ctx context.Context, streamID string) ([]string, error) {
	q, err := s.queries()
	if err != nil {
		return nil, err
	}
	ids, err := q.ListStagedEntryIDs(ctx, streamID)
	if err != nil {
		return nil, translate("list staged", err)
	}
	return ids, nil
}
