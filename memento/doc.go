// Package memento captures point-in-time snapshots of state and restores
// them in LIFO order.
//
// # Core Components
//
// Snapshot - immutable capture of one state value plus creation time and a
// short label
//
// Originator - owner of the state; produces snapshots with Save and applies
// them with Restore
//
// Capturer - the capture machinery (copying, labelling, validation) shared
// by Value and custom originators
//
// History - the caretaker: a stack of snapshots with Backup and Undo
//
// # Usage
//
//	doc, err := memento.NewValue("Super-duper-super-puper-super.")
//	if err != nil {
//		return err
//	}
//	history := memento.NewHistory[string](doc)
//
//	history.Backup(ctx)
//	doc.Set("something else")
//	history.Undo(ctx) // doc is back to "Super-duper-super-puper-super."
//
// # Copying
//
// Snapshots never share memory with the originator. State that can hold
// references (slices, maps, pointers, interfaces) is copied with DeepCopy
// unless WithCloner supplies another copier such as CloneJSON. A state that
// cannot be copied fails with ErrUncopyable: NewValue rejects it up front,
// and a snapshot captured from it fails every restore with ErrInvalidState.
//
// # Confidentiality
//
// History never hands out captured state. Entries returns Info values
// (identifier, timestamp, label) and the label is truncated, so a listing
// never contains a state longer than the label length.
//
// # Failed restores
//
// Restore may fail with a *RestoreError. Undo then discards the failed
// snapshot and tries the next older one, until one restores or the history
// is empty. Undo reports whether any snapshot was restored.
package memento
