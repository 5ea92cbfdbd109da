// Package services implements stream, entry and profile bookkeeping on top of the store.
package services

import (
	"fmt"
	"strings"

	"github.com/kolam-ikan/kolam/internal/model"
)

func requireText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s must not be empty", model.ErrValidation, field)
	}
	return trimmed, nil
}
