package memento

import (
	"errors"
	"fmt"
)

var (
	// ErrNilSnapshot is the cause of a RestoreError for a nil snapshot.
	ErrNilSnapshot = errors.New("nil snapshot")

	// ErrForeignSnapshot is the cause of a RestoreError for a snapshot
	// produced by a different originator.
	ErrForeignSnapshot = errors.New("snapshot belongs to another originator")

	// ErrInvalidState is the cause of a RestoreError when the captured state
	// is rejected by the originator's validator.
	ErrInvalidState = errors.New("invalid snapshot state")

	// ErrUncopyable is returned when a state value cannot be copied without
	// sharing memory with the original.
	ErrUncopyable = errors.New("state cannot be copied")
)

// RestoreError reports that a snapshot could not be applied. The
// originator's state is unchanged when it is returned.
type RestoreError struct {
	SnapshotID string
	Err        error
}

// Error implements the error interface.
func (e *RestoreError) Error() string {
	if e.SnapshotID == "" {
		return fmt.Sprintf("restore failed: %v", e.Err)
	}
	return fmt.Sprintf("restore snapshot %s: %v", e.SnapshotID, e.Err)
}

// Unwrap enables error unwrapping for errors.Is and errors.As.
func (e *RestoreError) Unwrap() error {
	return e.Err
}
