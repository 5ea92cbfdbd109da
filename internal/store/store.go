// Package store declares the persistence contract the kolam engines depend on.
//
// Single-row lookups return an error wrapping model.ErrNotFound when the row is
// absent. Implementations live in internal/database.
package store

import (
	"context"
	"time"

	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
)

// Streams persists stream records.
type Streams interface {
	CreateStream(ctx context.Context, stream model.Stream) error
	GetStream(ctx context.Context, id string) (*model.Stream, error)
	ListStreams(ctx context.Context) ([]model.StreamSummary, error)
	UpdateStream(ctx context.Context, id string, patch model.StreamPatch, now time.Time) (*model.Stream, error)
	TouchStream(ctx context.Context, id string, now time.Time) error
	DeleteStream(ctx context.Context, id string) error
}

// Entries persists entries and their staging mirror.
type Entries interface {
	// NextSequence reserves the next sequence id of a stream. Numbers are never reused.
	NextSequence(ctx context.Context, streamID string) (int64, error)
	CreateEntry(ctx context.Context, entry model.Entry) error
	GetEntry(ctx context.Context, id string) (*model.Entry, error)
	ListEntries(ctx context.Context, streamID string) ([]model.Entry, error)
	SearchEntries(ctx context.Context, query string, limit int) ([]model.Entry, error)
	UpdateEntryContent(ctx context.Context, id string, content document.Document, now time.Time) error
	// SetEntryHead writes the live content and version head together.
	SetEntryHead(ctx context.Context, id string, content document.Document, head int64, now time.Time) error
	SetEntryProfile(ctx context.Context, id string, profileID *string, now time.Time) error
	DeleteEntry(ctx context.Context, id string) error

	// SetStaged only touches entries of streamID.
	SetStaged(ctx context.Context, streamID string, ids []string, staged bool) error
	ClearStaged(ctx context.Context, streamID string) error
	StagedEntryIDs(ctx context.Context, streamID string) ([]string, error)
}

// Versions persists immutable entry snapshots.
type Versions interface {
	InsertVersion(ctx context.Context, version model.EntryVersion) error
	ListVersions(ctx context.Context, entryID string) ([]model.EntryVersion, error)
	LatestVersion(ctx context.Context, entryID string) (*model.EntryVersion, error)
	VersionByNumber(ctx context.Context, entryID string, number int64) (*model.EntryVersion, error)
	// VersionStats returns the number of snapshots and the highest version number.
	VersionStats(ctx context.Context, entryID string) (count int64, highest int64, err error)
}

// PendingBlocks persists the per-stream export awaiting a reply.
type PendingBlocks interface {
	// UpsertPendingBlock stores block as the stream's only pending block and
	// returns the id of the block it replaced, if any.
	UpsertPendingBlock(ctx context.Context, block model.PendingBlock) (replacedID string, err error)
	GetPendingBlock(ctx context.Context, streamID string) (*model.PendingBlock, error)
	DeletePendingBlock(ctx context.Context, streamID string) (bool, error)
	DeletePendingBlockByID(ctx context.Context, id string) (bool, error)
	BridgeKeyInUse(ctx context.Context, key string) (bool, error)
}

// Profiles persists author profiles.
type Profiles interface {
	CreateProfile(ctx context.Context, profile model.Profile) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	DefaultProfile(ctx context.Context) (*model.Profile, error)
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	SetDefaultProfile(ctx context.Context, id string, now time.Time) error
	ProfileEntryCount(ctx context.Context, id string) (int64, error)
	DeleteProfile(ctx context.Context, id string) error
}

// Store is the full persistence contract.
type Store interface {
	Streams
	Entries
	Versions
	PendingBlocks
	Profiles

	// Atomic runs fn inside one transaction. A nested call joins the outer one.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}
