package sqldb

import "database/sql"

type Stream struct {
	ID           string
	Title        string
	Description  sql.NullString
	Tags         string
	Color        sql.NullString
	Pinned       int64
	LastSequence int64
	CreatedAt    int64
	UpdatedAt    int64
}

type Profile struct {
	ID        string
	Name      string
	Role      sql.NullString
	Color     sql.NullString
	IsDefault int64
	CreatedAt int64
	UpdatedAt int64
}

type Entry struct {
	ID               string
	StreamID         string
	SequenceID       int64
	Role             string
	Content          string
	ProfileID        sql.NullString
	VersionHead      int64
	IsStaged         int64
	ParentContextIds sql.NullString
	AiMetadata       sql.NullString
	CreatedAt        int64
	UpdatedAt        int64
}

type EntryVersion struct {
	ID              string
	EntryID         string
	VersionNumber   int64
	ContentSnapshot string
	ContentHash     string
	CommitMessage   sql.NullString
	CommittedAt     int64
}

type PendingBlock struct {
	ID             string
	StreamID       string
	BridgeKey      string
	StagedEntryIds string
	Directive      string
	CreatedAt      int64
}
