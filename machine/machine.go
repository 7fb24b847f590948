package machine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/statekit/observability"
)

// Machine delegates named requests to its current Handler.
type Machine struct {
	id          string
	current     Handler
	transitions int
	observer    observability.Observer
	mu          sync.Mutex
}

// Option configures a Machine.
type Option func(*Machine)

// WithObserver sets the telemetry observer.
func WithObserver(obs observability.Observer) Option {
	return func(m *Machine) {
		m.observer = observability.OrNoOp(obs)
	}
}

// New creates a Machine and installs initial as its first Handler.
func New(initial Handler, opts ...Option) (*Machine, error) {
	if initial == nil {
		return nil, ErrNilHandler
	}

	m := &Machine{
		id:       uuid.New().String(),
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}

	m.install(context.Background(), initial)
	return m, nil
}

// NewFromConfig creates a Machine whose observer is resolved from cfg.
func NewFromConfig(initial Handler, cfg Config) (*Machine, error) {
	obs, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}
	return New(initial, WithObserver(obs))
}

// ID returns the Machine identifier.
func (m *Machine) ID() string {
	return m.id
}

// Current returns the Handler that will serve the next request.
func (m *Machine) Current() Handler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Transitions reports how many handlers have been installed, including the
// initial one.
func (m *Machine) Transitions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitions
}

// TransitionTo installs next from outside a request. Handlers serving a
// request must use their Transitioner instead.
func (m *Machine) TransitionTo(ctx context.Context, next Handler) error {
	if next == nil {
		return ErrNilHandler
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.install(ctx, next)
	return nil
}

// Request forwards a named request to the current Handler. A transition
// requested by the Handler is installed before Request returns, even when
// the Handler fails.
func (m *Machine) Request(ctx context.Context, name string, args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.current
	observability.Emit(ctx, m.observer, EventRequest, observability.LevelVerbose, "machine.Request", map[string]any{
		"machine": m.id,
		"handler": h.Name(),
		"request": name,
	})

	d := &dispatch{machineID: m.id}
	err := h.Handle(ctx, d, Request{Name: name, Args: args})

	if next := d.close(); next != nil {
		m.install(ctx, next)
	}

	if err != nil {
		observability.Emit(ctx, m.observer, EventRequestFailed, observability.LevelWarning, "machine.Request", map[string]any{
			"machine": m.id,
			"handler": h.Name(),
			"request": name,
			"error":   err.Error(),
		})
		return fmt.Errorf("%s: %s: %w", h.Name(), name, err)
	}
	return nil
}

// install binds and replaces the current handler. Caller holds m.mu or
// owns m exclusively.
func (m *Machine) install(ctx context.Context, next Handler) {
	from := ""
	if m.current != nil {
		from = m.current.Name()
	}

	if b, ok := next.(Binder); ok {
		b.Bind(Ref{id: m.id})
	}
	m.current = next
	m.transitions++

	observability.Emit(ctx, m.observer, EventTransition, observability.LevelInfo, "machine.TransitionTo", map[string]any{
		"machine": m.id,
		"from":    from,
		"to":      next.Name(),
	})
}

// dispatch is the Transitioner handed to a Handler for one request.
type dispatch struct {
	machineID string
	next      Handler
	closed    bool
	mu        sync.Mutex
}

func (d *dispatch) TransitionTo(next Handler) error {
	if next == nil {
		return ErrNilHandler
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDispatchClosed
	}
	d.next = next
	return nil
}

func (d *dispatch) MachineID() string {
	return d.machineID
}

func (d *dispatch) close() Handler {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	return d.next
}
