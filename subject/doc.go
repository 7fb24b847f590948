// Package subject implements observable state with a registry of
// subscribers.
//
// A Subject owns a value of type T. Every mutation through Set or Update
// is committed first and then fanned out to the attached observers,
// sequentially and in attach order, so each observer sees the
// post-mutation value:
//
//	s := subject.New(0)
//	low := subject.When(func(v int) bool { return v < 3 }, func(ctx context.Context, v int) {
//	    fmt.Println("low:", v)
//	})
//	s.Attach(low)
//	s.Set(ctx, 1) // prints "low: 1"
//
// Observers are identified by the value passed to Attach; use pointer types
// (Func is one) so identity is well defined. Attaching the same observer
// twice is a no-op, as is detaching one that is not attached.
//
// Observers read state but have no write-back channel. Calling Set, Update
// or Notify on the same Subject from inside an observer deadlocks. Attach
// and Detach are allowed and take effect from the next notification.
package subject
