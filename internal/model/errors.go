package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a concurrent change or exhausted retries.
	ErrConflict = errors.New("conflict")
	// ErrInvariant indicates stored state violates a data invariant.
	ErrInvariant = errors.New("invariant violated")
	// ErrValidation indicates invalid caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNoPendingBlock is returned when a stream has no export awaiting a reply.
	ErrNoPendingBlock = fmt.Errorf("no pending block: %w", ErrNotFound)
)
