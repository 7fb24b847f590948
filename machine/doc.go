// Package machine implements a state machine whose behaviour is delegated
// to a replaceable Handler.
//
// A Machine holds exactly one current Handler. Named requests are forwarded
// to it, and the Handler may move the Machine to another Handler while it
// serves a request:
//
//	a := machine.NewMux("A").
//	    On("request1", func(ctx context.Context, t machine.Transitioner, req machine.Request) error {
//	        return t.TransitionTo(b)
//	    })
//	m, err := machine.New(a)
//	err = m.Request(ctx, "request1") // served by A, next request goes to B
//
// # Transitions
//
// No transition table exists. Any Handler may transition to any other;
// keeping the handler graph legal is the handlers' job. During a request
// every TransitionTo replaces the pending Handler, and the last one is
// bound and installed before Request returns. The next request is served
// by it.
//
// # Back-reference
//
// A Handler never owns its Machine. It reaches the Machine only through the
// Transitioner passed to Handle, which is scoped to that one dispatch and
// rejects use after the dispatch returns. Handlers that implement Binder
// additionally receive a lookup-only Ref when they are installed.
//
// # Concurrency
//
// Request and TransitionTo are serialised per Machine. A transition always
// completes before the next request is dispatched, so a half-installed
// Handler is never observable.
package machine
