// Package usecase wires the kolam engines into the commands the CLI and the
// MCP server expose.
package usecase

import (
	"context"

	"github.com/kolam-ikan/kolam/internal/bridge"
	"github.com/kolam-ikan/kolam/internal/bridgekey"
	"github.com/kolam-ikan/kolam/internal/config"
	"github.com/kolam-ikan/kolam/internal/logging"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/services"
	"github.com/kolam-ikan/kolam/internal/store"
	"github.com/kolam-ikan/kolam/internal/versioning"
)

// App holds one instance of every engine over a shared store.
type App struct {
	Store    store.Store
	Settings config.Settings

	Streams  *services.StreamService
	Entries  *services.EntryService
	Profiles *services.ProfileService
	Versions *versioning.Engine
	Bridge   *bridge.Engine

	log logging.Logger
}

func NewApp(s store.Store, settings config.Settings, log logging.Logger) *App {
	versions := versioning.NewEngine(s, log)
	return &App{
		Store:    s,
		Settings: settings,
		Streams:  services.NewStreamService(s),
		Entries:  services.NewEntryService(s),
		Profiles: services.NewProfileService(s),
		Versions: versions,
		Bridge: bridge.NewEngine(s, versions, log, bridge.Options{
			KeyLength:   settings.Bridge.KeyLength,
			KeyAttempts: settings.Bridge.KeyAttempts,
		}),
		log: log,
	}
}

// CommitEntryVersion snapshots the entry's current content as a new version.
func (a *App) CommitEntryVersion(ctx context.Context, entryID string, message *string) (*model.EntryVersion, error) {
	return a.Versions.CommitCurrent(ctx, entryID, message)
}

// EntryVersions lists every version of an entry, oldest first.
func (a *App) EntryVersions(ctx context.Context, entryID string) ([]model.EntryVersion, error) {
	return a.Versions.ListVersions(ctx, entryID)
}

// LatestVersion returns the newest version, or nil when none was committed.
func (a *App) LatestVersion(ctx context.Context, entryID string) (*model.EntryVersion, error) {
	return a.Versions.Latest(ctx, entryID)
}

// VersionByNumber returns version n, or nil when it does not exist.
func (a *App) VersionByNumber(ctx context.Context, entryID string, n int64) (*model.EntryVersion, error) {
	return a.Versions.ByNumber(ctx, entryID, n)
}

// RevertToVersion restores version n as a new version and returns it.
func (a *App) RevertToVersion(ctx context.Context, entryID string, n int64) (*model.EntryVersion, error) {
	return a.Versions.Revert(ctx, entryID, n)
}

func (a *App) GenerateBridgeKey() (string, error) {
	length := a.Settings.Bridge.KeyLength
	if length <= 0 {
		length = bridgekey.DefaultLength
	}
	return bridgekey.Generate(length)
}

func (a *App) ValidateBridgeKey(text, key string) bool {
	return bridgekey.Validate(text, key)
}

func (a *App) ExtractBridgeKey(text string) (string, bool) {
	return bridgekey.Extract(text)
}

func (a *App) CreatePendingBlock(ctx context.Context, streamID, key string, stagedIDs []string, d model.Directive) (*model.PendingBlock, error) {
	return a.Bridge.CreatePendingBlock(ctx, streamID, key, stagedIDs, d)
}

// PendingBlock returns the stream's pending block, or nil when it is idle.
func (a *App) PendingBlock(ctx context.Context, streamID string) (*model.PendingBlock, error) {
	return a.Bridge.Pending(ctx, streamID)
}

func (a *App) DeletePendingBlock(ctx context.Context, id string) error {
	return a.Bridge.DeletePendingBlock(ctx, id)
}

// SearchEntries searches entry content, capped at the configured limit.
func (a *App) SearchEntries(ctx context.Context, query string) ([]model.Entry, error) {
	limit := a.Settings.SearchLimit
	if limit <= 0 {
		limit = config.Defaults().SearchLimit
	}
	return a.Entries.Search(ctx, query, limit)
}
