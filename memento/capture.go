package memento

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// DefaultLabelLength is the number of runes of the state kept in a label.
const DefaultLabelLength = 9

// Capturer turns state values into snapshots for one originator and opens
// them again. Value uses one; custom originators can embed their own.
type Capturer[S any] struct {
	id          string
	clone       Cloner[S]
	labeler     func(S) string
	validate    func(S) error
	labelLength int
	now         func() time.Time
	err         error
}

// Option configures a Capturer (and therefore a Value).
type Option[S any] func(*Capturer[S])

// WithCloner sets the copy function used at capture and restore time. By
// default state that can hold references is copied with DeepCopy; CloneJSON
// or a hand-written copier can replace it.
func WithCloner[S any](clone Cloner[S]) Option[S] {
	return func(c *Capturer[S]) {
		c.clone = clone
	}
}

// WithLabeler replaces the label derivation. The result is still truncated
// to the label length.
func WithLabeler[S any](labeler func(S) string) Option[S] {
	return func(c *Capturer[S]) {
		c.labeler = labeler
	}
}

// WithValidator sets a check applied to captured state before restore.
// A failing check aborts the restore with ErrInvalidState.
func WithValidator[S any](validate func(S) error) Option[S] {
	return func(c *Capturer[S]) {
		c.validate = validate
	}
}

// WithLabelLength sets how many runes of the state a label keeps.
// Non-positive values are ignored.
func WithLabelLength[S any](n int) Option[S] {
	return func(c *Capturer[S]) {
		if n > 0 {
			c.labelLength = n
		}
	}
}

// WithClock overrides the capture timestamp source.
func WithClock[S any](now func() time.Time) Option[S] {
	return func(c *Capturer[S]) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCapturer returns a Capturer with a fresh originator identifier.
func NewCapturer[S any](opts ...Option[S]) *Capturer[S] {
	c := &Capturer[S]{
		id:          uuid.New().String(),
		labelLength: DefaultLabelLength,
		now:         time.Now,
		labeler: func(s S) string {
			return fmt.Sprint(s)
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.clone == nil {
		if t := reflect.TypeFor[S](); holdsReferences(t) {
			c.clone = DeepCopy[S]
			c.err = checkCopyable(t)
		}
	}
	return c
}

// Err reports why the default copier cannot handle S. It is nil when a
// cloner was supplied or S is copied by assignment.
func (c *Capturer[S]) Err() error {
	return c.err
}

// ID identifies the originator this Capturer serves.
func (c *Capturer[S]) ID() string {
	return c.id
}

// Copy applies the configured cloner.
func (c *Capturer[S]) Copy(s S) (S, error) {
	if c.clone == nil {
		return s, nil
	}
	return c.clone(s)
}

// Capture snapshots state. It always returns a snapshot; when state cannot
// be copied the snapshot keeps the error and every restore from it fails.
func (c *Capturer[S]) Capture(state S) *Snapshot[S] {
	captured, err := c.Copy(state)
	return &Snapshot[S]{
		id:           uuid.New().String(),
		originatorID: c.id,
		state:        captured,
		err:          err,
		clone:        c.clone,
		createdAt:    c.now(),
		label:        Truncate(c.labeler(state), c.labelLength),
	}
}

// Open checks that snap can be restored by this originator and returns a
// copy of its state. Failures are *RestoreError.
func (c *Capturer[S]) Open(snap *Snapshot[S]) (S, error) {
	var zero S

	if snap == nil {
		return zero, &RestoreError{Err: ErrNilSnapshot}
	}
	if snap.originatorID != c.id {
		return zero, &RestoreError{SnapshotID: snap.id, Err: ErrForeignSnapshot}
	}

	state, err := snap.State()
	if err != nil {
		return zero, &RestoreError{
			SnapshotID: snap.id,
			Err:        fmt.Errorf("%w: %w", ErrInvalidState, err),
		}
	}
	if c.validate != nil {
		if err := c.validate(state); err != nil {
			return zero, &RestoreError{
				SnapshotID: snap.id,
				Err:        fmt.Errorf("%w: %w", ErrInvalidState, err),
			}
		}
	}
	return state, nil
}

// Truncate keeps the first n runes of s and appends "..." when anything
// was cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
