package database

import (
	"encoding/json"
	"fmt"

	sqldb "github.com/kolam-ikan/kolam/internal/database/sqlc"
	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
)

func mapStreamRow(row sqldb.Stream) (model.Stream, error) {
	tags, err := decodeStrings(row.Tags)
	if err != nil {
		return model.Stream{}, fmt.Errorf("stream %s: %w", row.ID, err)
	}
	return model.Stream{
		ID:          row.ID,
		Title:       row.Title,
		Description: optionalString(row.Description),
		Tags:        tags,
		Color:       optionalString(row.Color),
		Pinned:      row.Pinned != 0,
		CreatedAt:   fromMillis(row.CreatedAt),
		UpdatedAt:   fromMillis(row.UpdatedAt),
	}, nil
}

func mapEntryRow(row sqldb.EntryWithProfileRow) (model.Entry, error) {
	parents, err := decodeStrings(row.ParentContextIds.String)
	if err != nil {
		return model.Entry{}, fmt.Errorf("entry %s: %w", row.ID, err)
	}

	var meta *model.AIMetadata
	if row.AiMetadata.Valid && row.AiMetadata.String != "" {
		meta = &model.AIMetadata{}
		if err := json.Unmarshal([]byte(row.AiMetadata.String), meta); err != nil {
			return model.Entry{}, fmt.Errorf("entry %s: decode ai metadata: %w", row.ID, err)
		}
	}

	entry := model.Entry{
		ID:               row.ID,
		StreamID:         row.StreamID,
		SequenceID:       row.SequenceID,
		Role:             model.Role(row.Role),
		Content:          document.Document(row.Content),
		ProfileID:        optionalString(row.ProfileID),
		VersionHead:      row.VersionHead,
		IsStaged:         row.IsStaged != 0,
		ParentContextIDs: parents,
		AIMetadata:       meta,
		CreatedAt:        fromMillis(row.CreatedAt),
		UpdatedAt:        fromMillis(row.UpdatedAt),
	}

	if row.ProfileID.Valid && row.ProfileName.Valid {
		entry.Profile = &model.Profile{
			ID:        row.ProfileID.String,
			Name:      row.ProfileName.String,
			Role:      optionalString(row.ProfileRole),
			Color:     optionalString(row.ProfileColor),
			IsDefault: row.ProfileIsDefault.Int64 != 0,
			CreatedAt: fromMillis(row.ProfileCreatedAt.Int64),
			UpdatedAt: fromMillis(row.ProfileUpdatedAt.Int64),
		}
	}

	return entry, nil
}

func mapEntryRows(rows []sqldb.EntryWithProfileRow) ([]model.Entry, error) {
	result := make([]model.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := mapEntryRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, nil
}

func mapVersionRow(row sqldb.EntryVersion) model.EntryVersion {
	return model.EntryVersion{
		ID:          row.ID,
		EntryID:     row.EntryID,
		Number:      row.VersionNumber,
		Content:     document.Document(row.ContentSnapshot),
		ContentHash: row.ContentHash,
		Message:     optionalString(row.CommitMessage),
		CreatedAt:   fromMillis(row.CommittedAt),
	}
}

func mapPendingBlockRow(row sqldb.PendingBlock) (model.PendingBlock, error) {
	ids, err := decodeStrings(row.StagedEntryIds)
	if err != nil {
		return model.PendingBlock{}, fmt.Errorf("pending block %s: %w", row.ID, err)
	}
	return model.PendingBlock{
		ID:             row.ID,
		StreamID:       row.StreamID,
		BridgeKey:      row.BridgeKey,
		StagedEntryIDs: ids,
		Directive:      model.Directive(row.Directive),
		CreatedAt:      fromMillis(row.CreatedAt),
	}, nil
}

func mapProfileRow(row sqldb.Profile) model.Profile {
	return model.Profile{
		ID:        row.ID,
		Name:      row.Name,
		Role:      optionalString(row.Role),
		Color:     optionalString(row.Color),
		IsDefault: row.IsDefault != 0,
		CreatedAt: fromMillis(row.CreatedAt),
		UpdatedAt: fromMillis(row.UpdatedAt),
	}
}
