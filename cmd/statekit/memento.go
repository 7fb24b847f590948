package main

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/statekit/memento"
)

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomString(e *env, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[e.rnd.IntN(len(letters))]
	}
	return string(b)
}

func runMemento(ctx context.Context, e *env) error {
	originator, err := memento.NewValue("Super-duper-super-puper-super.",
		memento.WithLabelLength[string](e.cfg.History.LabelLength))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Originator: My initial state is: %s\n", originator.Get())

	history, err := memento.NewHistoryFromConfig[string](originator, e.cfg.History)
	if err != nil {
		return err
	}

	for range 3 {
		fmt.Fprintln(e.out, "\nCaretaker: Saving Originator's state...")
		history.Backup(ctx)

		fmt.Fprintln(e.out, "Originator: I'm doing something important.")
		if err := originator.Set(randomString(e, 30)); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Originator: and my state has changed to: %s\n", originator.Get())
	}

	fmt.Fprintln(e.out, "\nCaretaker: Here's the list of mementos:")
	for _, info := range history.Entries() {
		fmt.Fprintln(e.out, info)
	}

	for _, prompt := range []string{"Now, let's rollback!", "Once more!"} {
		fmt.Fprintf(e.out, "\nClient: %s\n\n", prompt)
		info, ok := history.Undo(ctx)
		if !ok {
			fmt.Fprintln(e.out, "Caretaker: Nothing to restore.")
			continue
		}
		fmt.Fprintf(e.out, "Caretaker: Restoring state to: %s\n", info)
		fmt.Fprintf(e.out, "Originator: My state has changed to: %s\n", originator.Get())
	}
	return nil
}
