package subject

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/statekit/observability"
)

// Subject holds a value of type T and notifies attached observers when it
// changes. All methods are safe for concurrent use; mutations and their
// notifications are serialised per Subject.
type Subject[T any] struct {
	name      string
	state     T
	observers []Observer[T]
	clone     func(T) T
	telemetry observability.Observer

	mu       sync.RWMutex // guards state and observers
	notifyMu sync.Mutex   // serialises mutation and fan-out
}

// Option configures a Subject.
type Option[T any] func(*Subject[T])

// WithName labels the subject in telemetry events.
func WithName[T any](name string) Option[T] {
	return func(s *Subject[T]) {
		s.name = name
	}
}

// WithObserver sets the telemetry observer. It does not attach a
// subscriber; use Attach for that.
func WithObserver[T any](obs observability.Observer) Option[T] {
	return func(s *Subject[T]) {
		s.telemetry = observability.OrNoOp(obs)
	}
}

// WithClone sets the copy function applied to the state handed to each
// observer. Use it when T contains maps, slices or pointers.
func WithClone[T any](clone func(T) T) Option[T] {
	return func(s *Subject[T]) {
		s.clone = clone
	}
}

// New creates a Subject holding initial.
func New[T any](initial T, opts ...Option[T]) *Subject[T] {
	s := &Subject[T]{
		name:      "subject",
		state:     initial,
		telemetry: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig creates a Subject whose name and telemetry observer come
// from cfg.
func NewFromConfig[T any](initial T, cfg Config, opts ...Option[T]) (*Subject[T], error) {
	obs, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	base := []Option[T]{WithObserver[T](obs)}
	if cfg.Name != "" {
		base = append(base, WithName[T](cfg.Name))
	}
	return New(initial, append(base, opts...)...), nil
}

// Name returns the subject label.
func (s *Subject[T]) Name() string {
	return s.name
}

// State returns the current value, copied with the clone function when one
// is configured.
func (s *Subject[T]) State() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copy(s.state)
}

// Len reports how many observers are attached.
func (s *Subject[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// Attach registers o. It reports false when o is already attached.
func (s *Subject[T]) Attach(o Observer[T]) (bool, error) {
	if o == nil {
		return false, ErrNilObserver
	}
	if !isComparable(o) {
		return false, ErrIncomparableObserver
	}

	s.mu.Lock()
	if s.indexOf(o) >= 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.observers = append(s.observers, o)
	count := len(s.observers)
	s.mu.Unlock()

	observability.Emit(context.Background(), s.telemetry, EventAttach, observability.LevelVerbose, "subject.Attach", map[string]any{
		"subject":   s.name,
		"observers": count,
	})
	return true, nil
}

// Detach removes o. It reports false when o was not attached.
func (s *Subject[T]) Detach(o Observer[T]) bool {
	if o == nil || !isComparable(o) {
		return false
	}

	s.mu.Lock()
	i := s.indexOf(o)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.observers = slices.Delete(s.observers, i, i+1)
	count := len(s.observers)
	s.mu.Unlock()

	observability.Emit(context.Background(), s.telemetry, EventDetach, observability.LevelVerbose, "subject.Detach", map[string]any{
		"subject":   s.name,
		"observers": count,
	})
	return true
}

// Notify invokes every attached observer with the current state.
func (s *Subject[T]) Notify(ctx context.Context) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.RLock()
	state := s.state
	observers := slices.Clone(s.observers)
	s.mu.RUnlock()

	s.fanOut(ctx, state, observers)
}

// Set replaces the state and notifies observers afterwards.
func (s *Subject[T]) Set(ctx context.Context, value T) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.commit(ctx, value)
}

// Update replaces the state with fn applied to a copy of the current state
// and notifies observers afterwards. It returns the new state.
func (s *Subject[T]) Update(ctx context.Context, fn func(current T) T) T {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.RLock()
	current := s.copy(s.state)
	s.mu.RUnlock()

	next := fn(current)
	s.commit(ctx, next)
	return s.copy(next)
}

// commit stores value and fans it out. Caller holds notifyMu.
func (s *Subject[T]) commit(ctx context.Context, value T) {
	s.mu.Lock()
	s.state = value
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	s.fanOut(ctx, value, observers)
}

func (s *Subject[T]) fanOut(ctx context.Context, state T, observers []Observer[T]) {
	observability.Emit(ctx, s.telemetry, EventNotify, observability.LevelVerbose, "subject.Notify", map[string]any{
		"subject":   s.name,
		"observers": len(observers),
	})

	for _, o := range observers {
		o.Update(ctx, s.copy(state))
	}
}

func (s *Subject[T]) copy(v T) T {
	if s.clone == nil {
		return v
	}
	return s.clone(v)
}

// isComparable reports whether o can be compared with ==. The check looks at
// the dynamic contents, so a struct whose interface field holds a func is
// rejected.
func isComparable(o any) bool {
	return reflect.ValueOf(o).Comparable()
}

// indexOf returns the registry position of o, or -1. Caller holds mu.
func (s *Subject[T]) indexOf(o Observer[T]) int {
	for i, existing := range s.observers {
		if existing == o {
			return i
		}
	}
	return -1
}
