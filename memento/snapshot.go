package memento

import (
	"time"
)

const infoTimeFormat = "2006-01-02 15:04:05"

// Snapshot is an immutable capture of an originator's state. The captured
// value is copied on the way in and again on the way out, so neither the
// originator nor a reader can alter it.
type Snapshot[S any] struct {
	id           string
	originatorID string
	state        S
	err          error
	clone        Cloner[S]
	createdAt    time.Time
	label        string
}

// ID returns the snapshot identifier.
func (s *Snapshot[S]) ID() string {
	return s.id
}

// OriginatorID identifies the originator that produced the snapshot.
func (s *Snapshot[S]) OriginatorID() string {
	return s.originatorID
}

// CreatedAt returns the capture time.
func (s *Snapshot[S]) CreatedAt() time.Time {
	return s.createdAt
}

// Label returns the short description derived from the state.
func (s *Snapshot[S]) Label() string {
	return s.label
}

// State returns a copy of the captured value. It is meant for the
// originator restoring from the snapshot. The error is set when the value
// could not be copied at capture time or now.
func (s *Snapshot[S]) State() (S, error) {
	if s.err != nil {
		var zero S
		return zero, s.err
	}
	if s.clone == nil {
		return s.state, nil
	}
	return s.clone(s.state)
}

// Err reports why the state could not be captured, or nil.
func (s *Snapshot[S]) Err() error {
	return s.err
}

// Info returns the snapshot metadata.
func (s *Snapshot[S]) Info() Info {
	return Info{
		ID:        s.id,
		CreatedAt: s.createdAt,
		Label:     s.label,
	}
}

// Info is the metadata view of a Snapshot. It never carries the captured
// state.
type Info struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Label     string    `json:"label"`
}

// String renders the entry as "2006-01-02 15:04:05 / (label)".
func (i Info) String() string {
	return i.CreatedAt.Format(infoTimeFormat) + " / (" + i.Label + ")"
}
