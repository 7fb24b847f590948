package subject

import "context"

// Observer reacts to the state of a Subject it is attached to.
type Observer[T any] interface {
	Update(ctx context.Context, state T)
}

// Func adapts a function to Observer. Identity is the *Func pointer, so two
// Funcs wrapping the same function are distinct observers.
type Func[T any] struct {
	fn func(ctx context.Context, state T)
}

// NewFunc wraps fn as an Observer.
func NewFunc[T any](fn func(ctx context.Context, state T)) *Func[T] {
	return &Func[T]{fn: fn}
}

func (f *Func[T]) Update(ctx context.Context, state T) {
	f.fn(ctx, state)
}

// When returns an Observer that calls fn only for states matching pred.
func When[T any](pred func(state T) bool, fn func(ctx context.Context, state T)) *Func[T] {
	return NewFunc(func(ctx context.Context, state T) {
		if pred(state) {
			fn(ctx, state)
		}
	})
}
