package subject

import "github.com/tailored-agentic-units/statekit/observability"

// Subject event types emitted on registration and notification.
const (
	EventAttach observability.EventType = "subject.attach"
	EventDetach observability.EventType = "subject.detach"
	EventNotify observability.EventType = "subject.notify"
)
