package main

import (
	"context"
	"os"

	"github.com/kolam-ikan/kolam/internal/config"
	"github.com/kolam-ikan/kolam/internal/database"
	"github.com/kolam-ikan/kolam/internal/logging"
	"github.com/kolam-ikan/kolam/internal/usecase"
)

// openApp loads settings, opens the database and seeds the tutorial stream on
// first use. The returned func closes the database.
func openApp(ctx context.Context) (*usecase.App, func(), error) {
	settings, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log, err := logging.New(os.Stderr, settings.Log)
	if err != nil {
		return nil, nil, err
	}

	dbCtx, err := database.CreateDatabase("")
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		_ = database.CloseDatabase(dbCtx)
	}

	app := usecase.NewApp(database.NewSQLStore(dbCtx), settings, log)
	if _, err := app.EnsureTutorialStream(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}
	return app, closeDB, nil
}

// openWorkspace opens the app with streamID as the active stream.
func openWorkspace(ctx context.Context, streamID string) (*usecase.App, *usecase.Workspace, func(), error) {
	app, closeDB, err := openApp(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	ws := app.NewWorkspace()
	if err := ws.SetActiveStream(ctx, streamID); err != nil {
		closeDB()
		return nil, nil, nil, err
	}
	return app, ws, closeDB, nil
}
