package memento

import "github.com/tailored-agentic-units/statekit/observability"

// History event types emitted on backup and undo.
const (
	EventBackup        observability.EventType = "memento.backup"
	EventUndo          observability.EventType = "memento.undo"
	EventRestoreFailed observability.EventType = "memento.restore.failed"
	EventEvict         observability.EventType = "memento.evict"
)
