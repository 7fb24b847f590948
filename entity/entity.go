// Package entity puts a state machine, observable state and undo history on
// one logical object.
//
// Requests are served by the current machine.Handler; handlers reach the
// entity they serve through FromContext and mutate it with Set or Update,
// which notifies subscribers. Backup and Undo snapshot and restore the
// observable state, and a restore notifies subscribers like any other
// mutation.
//
// Subscribers may read the entity and call Backup, Entries or Attach from
// inside a notification. They must not call Set, Update, Undo or Request
// there: those wait for the notification in progress.
package entity

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/statekit/machine"
	"github.com/tailored-agentic-units/statekit/memento"
	"github.com/tailored-agentic-units/statekit/subject"
)

// Entity is observable state of type S with behaviour and history.
type Entity[S any] struct {
	name     string
	capturer *memento.Capturer[S]
	subject  *subject.Subject[S]
	history  *memento.History[S]
	machine  *machine.Machine
}

// New builds an Entity from cfg. The memento options configure copying,
// labelling and validation; the cloner also protects the state handed to
// subscribers.
func New[S any](initial S, handler machine.Handler, cfg *Config, opts ...memento.Option[S]) (*Entity[S], error) {
	if cfg == nil {
		defaults := DefaultConfig()
		cfg = &defaults
	}

	capturerOpts := append([]memento.Option[S]{memento.WithLabelLength[S](cfg.History.LabelLength)}, opts...)
	e := &Entity[S]{
		name:     cfg.Name,
		capturer: memento.NewCapturer(capturerOpts...),
	}
	if err := e.capturer.Err(); err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}

	state, err := e.capturer.Copy(initial)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}

	subjectCfg := cfg.Subject
	if subjectCfg.Name == "" || subjectCfg.Name == subject.DefaultConfig().Name {
		subjectCfg.Name = cfg.Name
	}

	e.subject, err = subject.NewFromConfig(state, subjectCfg, subject.WithClone(e.share))
	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}

	e.history, err = memento.NewHistoryFromConfig[S](e, cfg.History)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	e.machine, err = machine.NewFromConfig(handler, cfg.Machine)
	if err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}

	return e, nil
}

// Name returns the entity name.
func (e *Entity[S]) Name() string {
	return e.name
}

// Request forwards a named request to the current handler. The handler
// can retrieve this entity with FromContext.
func (e *Entity[S]) Request(ctx context.Context, name string, args ...any) error {
	return e.machine.Request(withEntity(ctx, e), name, args...)
}

// State returns a copy of the current state.
func (e *Entity[S]) State() S {
	return e.subject.State()
}

// Set replaces the state and notifies subscribers.
func (e *Entity[S]) Set(ctx context.Context, state S) {
	e.subject.Set(ctx, state)
}

// Update replaces the state with fn applied to a copy of it and notifies
// subscribers.
func (e *Entity[S]) Update(ctx context.Context, fn func(current S) S) S {
	return e.subject.Update(ctx, fn)
}

// Attach subscribes o to state changes.
func (e *Entity[S]) Attach(o subject.Observer[S]) (bool, error) {
	return e.subject.Attach(o)
}

// Detach unsubscribes o.
func (e *Entity[S]) Detach(o subject.Observer[S]) bool {
	return e.subject.Detach(o)
}

// Backup records a snapshot of the current state.
func (e *Entity[S]) Backup(ctx context.Context) memento.Info {
	return e.history.Backup(ctx)
}

// Undo restores the most recent restorable snapshot.
func (e *Entity[S]) Undo(ctx context.Context) (memento.Info, bool) {
	return e.history.Undo(ctx)
}

// Entries lists the history, oldest first.
func (e *Entity[S]) Entries() []memento.Info {
	return e.history.Entries()
}

// Handler returns the handler serving the next request.
func (e *Entity[S]) Handler() machine.Handler {
	return e.machine.Current()
}

func (e *Entity[S]) Machine() *machine.Machine {
	return e.machine
}

func (e *Entity[S]) Subject() *subject.Subject[S] {
	return e.subject
}

func (e *Entity[S]) History() *memento.History[S] {
	return e.history
}

// Save implements memento.Originator.
func (e *Entity[S]) Save() *memento.Snapshot[S] {
	return e.capturer.Capture(e.subject.State())
}

// Restore implements memento.Originator. A successful restore notifies
// subscribers.
func (e *Entity[S]) Restore(snap *memento.Snapshot[S]) error {
	state, err := e.capturer.Open(snap)
	if err != nil {
		return err
	}
	e.subject.Set(context.Background(), state)
	return nil
}

// share copies state for a subscriber or reader. S passed the copier check
// in New, so a failure can only come from a value held in an interface the
// copier rejects; that value is then handed out as is. Snapshots of it
// still fail to restore.
func (e *Entity[S]) share(state S) S {
	copied, err := e.capturer.Copy(state)
	if err != nil {
		return state
	}
	return copied
}

type contextKey struct{}

func withEntity[S any](ctx context.Context, e *Entity[S]) context.Context {
	return context.WithValue(ctx, contextKey{}, e)
}

// FromContext returns the entity whose request is being served.
func FromContext[S any](ctx context.Context) (*Entity[S], bool) {
	e, ok := ctx.Value(contextKey{}).(*Entity[S])
	return e, ok
}
