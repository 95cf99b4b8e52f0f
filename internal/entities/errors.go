// Package entities contains core business entities and errors.
package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument signals failed input validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when a member, duplicate pair or merge history entry does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals that the target is not in the state the transition requires.
	ErrConflict = errors.New("conflict")
	// ErrExpired signals an undo requested after its deadline.
	ErrExpired = errors.New("undo window expired")
	// ErrPartialTransfer signals that one or more relationship categories failed to move.
	ErrPartialTransfer = errors.New("partial relationship transfer")
)

// PartialTransferError lists relationship categories that could not be repointed during a merge.
// It is attached to a completed merge as a warning rather than failing it.
type PartialTransferError struct {
	Failures []TransferOutcome
}

func (e *PartialTransferError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Category, f.Error))
	}
	return fmt.Sprintf("%s: %s", ErrPartialTransfer, strings.Join(parts, "; "))
}

func (e *PartialTransferError) Unwrap() error {
	return ErrPartialTransfer
}
