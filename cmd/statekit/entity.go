package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/statekit/entity"
	"github.com/tailored-agentic-units/statekit/machine"
	"github.com/tailored-agentic-units/statekit/subject"
)

var errPublished = errors.New("document is published")

// documentHandlers returns the editing handler. Editing backs up and
// appends a line per write; published rejects writes until reopened.
func documentHandlers() machine.Handler {
	editing := machine.NewMux("Editing")
	published := machine.NewMux("Published")

	editing.
		On("write", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
			doc, ok := entity.FromContext[[]string](ctx)
			if !ok {
				return errors.New("no document in context")
			}
			line, _ := req.Arg(0)
			doc.Backup(ctx)
			doc.Update(ctx, func(lines []string) []string {
				return append(lines, fmt.Sprint(line))
			})
			return nil
		}).
		On("publish", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
			return t.TransitionTo(published)
		})

	published.
		On("write", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
			return errPublished
		}).
		On("reopen", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
			return t.TransitionTo(editing)
		})

	return editing
}

func runEntity(ctx context.Context, e *env) error {
	doc, err := entity.New([]string{"Title"}, documentHandlers(), e.cfg)
	if err != nil {
		return err
	}

	_, err = doc.Attach(subject.NewFunc(func(ctx context.Context, lines []string) {
		fmt.Fprintf(e.out, "Subscriber: The document now has %d lines.\n", len(lines))
	}))
	if err != nil {
		return err
	}

	steps := []struct {
		request string
		args    []any
	}{
		{request: "write", args: []any{"Opening paragraph"}},
		{request: "write", args: []any{randomString(e, 12)}},
		{request: "publish"},
		{request: "write", args: []any{"Late edit"}},
		{request: "reopen"},
	}

	for _, step := range steps {
		fmt.Fprintf(e.out, "\nClient: %s while %s.\n", step.request, doc.Handler().Name())
		if err := doc.Request(ctx, step.request, step.args...); err != nil {
			if !errors.Is(err, errPublished) {
				return err
			}
			fmt.Fprintf(e.out, "Document: %v\n", err)
		}
	}

	fmt.Fprintln(e.out, "\nClient: Undo the last edit.")
	if info, ok := doc.Undo(ctx); ok {
		fmt.Fprintf(e.out, "History: Restored %s\n", info)
	}
	fmt.Fprintf(e.out, "Document: %s\n", strings.Join(doc.State(), " | "))
	return nil
}
