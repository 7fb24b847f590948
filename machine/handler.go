package machine

import (
	"context"
	"fmt"
)

// Request is a named operation forwarded to the current Handler.
type Request struct {
	Name string
	Args []any
}

// Arg returns the i-th argument, or nil and false when absent.
func (r Request) Arg(i int) (any, bool) {
	if i < 0 || i >= len(r.Args) {
		return nil, false
	}
	return r.Args[i], true
}

// Transitioner is the view of a Machine a Handler gets while serving a
// request. It is valid only until Handle returns.
type Transitioner interface {
	// TransitionTo makes next the Handler for subsequent requests.
	// Calling it several times within one dispatch keeps the last Handler.
	TransitionTo(next Handler) error

	// MachineID identifies the Machine being served.
	MachineID() string
}

// Handler is the behaviour of one state of a Machine.
type Handler interface {
	// Name identifies the handler in events and errors.
	Name() string

	// Handle serves req. Errors are propagated to the Request caller.
	Handle(ctx context.Context, t Transitioner, req Request) error
}

// Ref is a lookup-only reference to a Machine.
type Ref struct {
	id string
}

// ID returns the identifier of the referenced Machine.
func (r Ref) ID() string {
	return r.id
}

// Binder is implemented by handlers that want to know which Machine they
// were installed into. Bind is called as part of the transition, before any
// request reaches the handler.
type Binder interface {
	Bind(ref Ref)
}

// HandlerFunc serves a single named request.
type HandlerFunc func(ctx context.Context, t Transitioner, req Request) error

// Mux is a Handler that routes request names to HandlerFuncs. Routes are
// registered with On before the Mux is installed and are read-only after.
type Mux struct {
	name   string
	routes map[string]HandlerFunc
}

// NewMux returns an empty Mux with the given handler name.
func NewMux(name string) *Mux {
	return &Mux{
		name:   name,
		routes: make(map[string]HandlerFunc),
	}
}

// On registers fn for request and returns the Mux for chaining.
func (m *Mux) On(request string, fn HandlerFunc) *Mux {
	m.routes[request] = fn
	return m
}

func (m *Mux) Name() string {
	return m.name
}

func (m *Mux) Handle(ctx context.Context, t Transitioner, req Request) error {
	fn, ok := m.routes[req.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, req.Name)
	}
	return fn(ctx, t, req)
}
