package memento

import "sync"

// Originator owns state that can be captured into and restored from
// snapshots. Save always succeeds. Restore either replaces the state
// completely or returns an error and leaves it untouched.
type Originator[S any] interface {
	Save() *Snapshot[S]
	Restore(snap *Snapshot[S]) error
}

// Value is a ready-made Originator holding a single value of type S.
type Value[S any] struct {
	capturer *Capturer[S]
	state    S
	mu       sync.RWMutex
}

// NewValue creates a Value holding a copy of initial. It fails with
// ErrUncopyable when S cannot be copied and no cloner was supplied.
func NewValue[S any](initial S, opts ...Option[S]) (*Value[S], error) {
	c := NewCapturer(opts...)
	if err := c.Err(); err != nil {
		return nil, err
	}

	state, err := c.Copy(initial)
	if err != nil {
		return nil, err
	}
	return &Value[S]{capturer: c, state: state}, nil
}

// ID identifies the originator; snapshots carry it.
func (v *Value[S]) ID() string {
	return v.capturer.ID()
}

// Get returns a copy of the current state. The held state was produced by
// a successful copy, so copying it again only fails for a cloner that is
// not deterministic; Get then returns the zero value.
func (v *Value[S]) Get() S {
	v.mu.RLock()
	defer v.mu.RUnlock()

	state, err := v.capturer.Copy(v.state)
	if err != nil {
		var zero S
		return zero
	}
	return state
}

// Set replaces the current state with a copy of state. On error the state
// is unchanged.
func (v *Value[S]) Set(state S) error {
	copied, err := v.capturer.Copy(state)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = copied
	return nil
}

// Update replaces the state with fn applied to a copy of it and returns a
// copy of the result. On error the state is unchanged.
func (v *Value[S]) Update(fn func(current S) S) (S, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var zero S
	current, err := v.capturer.Copy(v.state)
	if err != nil {
		return zero, err
	}
	next, err := v.capturer.Copy(fn(current))
	if err != nil {
		return zero, err
	}
	v.state = next
	return v.capturer.Copy(next)
}

func (v *Value[S]) Save() *Snapshot[S] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.capturer.Capture(v.state)
}

func (v *Value[S]) Restore(snap *Snapshot[S]) error {
	state, err := v.capturer.Open(snap)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = state
	return nil
}
