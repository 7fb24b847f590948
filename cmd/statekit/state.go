package main

import (
	"context"
	"fmt"
	"io"

	"github.com/tailored-agentic-units/statekit/machine"
	"github.com/tailored-agentic-units/statekit/observability"
)

// concreteA serves request1 and then hands the machine to concreteB.
type concreteA struct {
	out io.Writer
}

// concreteB serves request2 and then hands the machine back to concreteA.
type concreteB struct {
	out io.Writer
}

func (s *concreteA) Name() string { return "ConcreteStateA" }
func (s *concreteB) Name() string { return "ConcreteStateB" }

func (s *concreteA) Handle(ctx context.Context, t machine.Transitioner, req machine.Request) error {
	switch req.Name {
	case "request1":
		fmt.Fprintln(s.out, "ConcreteStateA handles request1.")
		fmt.Fprintln(s.out, "ConcreteStateA wants to change the state of the context.")
		return t.TransitionTo(&concreteB{out: s.out})
	case "request2":
		fmt.Fprintln(s.out, "ConcreteStateA handles request2.")
		return nil
	default:
		return fmt.Errorf("%w: %s", machine.ErrUnknownRequest, req.Name)
	}
}

func (s *concreteB) Handle(ctx context.Context, t machine.Transitioner, req machine.Request) error {
	switch req.Name {
	case "request1":
		fmt.Fprintln(s.out, "ConcreteStateB handles request1.")
		return nil
	case "request2":
		fmt.Fprintln(s.out, "ConcreteStateB handles request2.")
		fmt.Fprintln(s.out, "ConcreteStateB wants to change the state of the context.")
		return t.TransitionTo(&concreteA{out: s.out})
	default:
		return fmt.Errorf("%w: %s", machine.ErrUnknownRequest, req.Name)
	}
}

// transitionPrinter echoes every transition as the context's trace line.
type transitionPrinter struct {
	out  io.Writer
	next observability.Observer
}

func (p *transitionPrinter) OnEvent(ctx context.Context, event observability.Event) {
	if event.Type == machine.EventTransition {
		fmt.Fprintf(p.out, "Context: Transition to %s.\n", event.Data["to"])
	}
	p.next.OnEvent(ctx, event)
}

func runState(ctx context.Context, e *env) error {
	obs, err := observability.GetObserver(e.cfg.Machine.Observer)
	if err != nil {
		return fmt.Errorf("failed to resolve observer: %w", err)
	}

	m, err := machine.New(&concreteA{out: e.out}, machine.WithObserver(&transitionPrinter{out: e.out, next: obs}))
	if err != nil {
		return err
	}

	for _, req := range []string{"request1", "request2"} {
		if err := m.Request(ctx, req); err != nil {
			return err
		}
	}
	return nil
}
