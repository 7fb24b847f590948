package machine

import "errors"

var (
	// ErrNilHandler is returned when a nil Handler is installed.
	ErrNilHandler = errors.New("nil handler")

	// ErrUnknownRequest is returned by Mux for request names it has no route for.
	ErrUnknownRequest = errors.New("unknown request")

	// ErrDispatchClosed is returned by a Transitioner used after its
	// dispatch has returned.
	ErrDispatchClosed = errors.New("dispatch closed")
)
