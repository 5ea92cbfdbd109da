package database

import (
	"database/sql"
	"errors"
	"fmt"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/kolam-ikan/kolam/internal/model"
)

// translate maps driver errors onto the model sentinels.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}

	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%s: %w: %v", op, model.ErrConflict, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%s: %w: %v", op, model.ErrNotFound, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return fmt.Errorf("%s: %w: %v", op, model.ErrValidation, err)
		case sqlite3.SQLITE_CONSTRAINT_TRIGGER:
			return fmt.Errorf("%s: %w: %v", op, model.ErrInvariant, err)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, model.ErrNotFound)
}
