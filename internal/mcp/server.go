// Package mcp exposes the kolam version and bridge commands as MCP tools over stdio.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kolam-ikan/kolam/internal/usecase"
)

// Server wraps the MCP server with kolam-specific functionality.
type Server struct {
	server *mcp.Server
	app    *usecase.App
	ws     *usecase.Workspace
}

// NewServer creates a server over app. Staging tools share one workspace for
// the lifetime of the server.
func NewServer(app *usecase.App, version string) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "kolam",
		Version: version,
	}, nil)

	s := &Server{
		server: mcpServer,
		app:    app,
		ws:     app.NewWorkspace(),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	// streams and entries
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_list_streams",
		Description: "List streams with their entry counts",
	}, s.handleListStreams)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_list_entries",
		Description: "List the entries of a stream in sequence order",
	}, s.handleListEntries)

	// version control
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_commit_entry_version",
		Description: "Snapshot an entry's current content as a new version",
	}, s.handleCommit)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_get_entry_versions",
		Description: "List every version of an entry, oldest first",
	}, s.handleVersions)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_get_latest_version",
		Description: "Get the newest version of an entry",
	}, s.handleLatest)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_get_version_by_number",
		Description: "Get a specific version of an entry",
	}, s.handleByNumber)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_revert_to_version",
		Description: "Restore an older version by committing it as a new version",
	}, s.handleRevert)

	// bridge keys and pending blocks
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_generate_bridge_key",
		Description: "Generate a fresh bridge key",
	}, s.handleGenerateKey)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_validate_bridge_key",
		Description: "Check whether a text carries the marker for a bridge key",
	}, s.handleValidateKey)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_extract_bridge_key",
		Description: "Find the bridge key marker in a text",
	}, s.handleExtractKey)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_create_pending_block",
		Description: "Record a pending block for a stream, replacing any existing one",
	}, s.handleCreatePending)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_get_pending_block",
		Description: "Get the pending block of a stream",
	}, s.handleGetPending)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_delete_pending_block",
		Description: "Delete a pending block by id",
	}, s.handleDeletePending)

	// workspace
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_stage_entries",
		Description: "Make a stream active and stage or unstage entries in it",
	}, s.handleStage)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_export",
		Description: "Compose the staged entries under a directive and return the bridge block",
	}, s.handleExport)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kolam_import",
		Description: "Import an AI reply into the active stream if it carries the pending bridge key",
	}, s.handleImport)
}
