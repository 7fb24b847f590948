package subject

import "errors"

var (
	// ErrNilObserver is returned by Attach for a nil observer.
	ErrNilObserver = errors.New("nil observer")

	// ErrIncomparableObserver is returned by Attach when the observer's
	// dynamic type cannot be compared for identity (func, map or slice
	// based types). Wrap such observers in a pointer, e.g. NewFunc.
	ErrIncomparableObserver = errors.New("observer type is not comparable")
)
