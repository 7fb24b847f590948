package main

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/statekit/subject"
)

func runObserver(ctx context.Context, e *env) error {
	s, err := subject.NewFromConfig(0, e.cfg.Subject)
	if err != nil {
		return err
	}

	a := subject.When(func(v int) bool { return v < 3 }, func(ctx context.Context, v int) {
		fmt.Fprintln(e.out, "ConcreteObserverA: Reacted to the event.")
	})
	b := subject.When(func(v int) bool { return v == 0 || v >= 2 }, func(ctx context.Context, v int) {
		fmt.Fprintln(e.out, "ConcreteObserverB: Reacted to the event.")
	})

	for _, o := range []*subject.Func[int]{a, b} {
		if _, err := s.Attach(o); err != nil {
			return err
		}
		fmt.Fprintln(e.out, "Subject: Attached an observer.")
	}

	businessLogic := func() {
		fmt.Fprintln(e.out, "\nSubject: I'm doing something important.")
		v := e.rnd.IntN(11)
		fmt.Fprintf(e.out, "Subject: My state has just changed to: %d\n", v)
		fmt.Fprintln(e.out, "Subject: Notifying observers...")
		s.Set(ctx, v)
	}

	businessLogic()
	businessLogic()

	s.Detach(b)
	fmt.Fprintln(e.out, "Subject: Detached an observer.")

	businessLogic()
	return nil
}
