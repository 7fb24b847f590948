package machine

import "github.com/tailored-agentic-units/statekit/observability"

// Machine event types emitted on dispatch and transition.
const (
	EventTransition    observability.EventType = "machine.transition"
	EventRequest       observability.EventType = "machine.request"
	EventRequestFailed observability.EventType = "machine.request.failed"
)
