package fetchstate

// Fallback handles events whose tag is not bound in the Actions table.
// Like the Reducer, it must not modify the state it receives, including
// its Cache; it returns a new state or the received one.
type Fallback[T comparable, R, D any] interface {
	Reduce(*State[R, D], Event[T, R, D]) *State[R, D]
}

// FallbackFunc is a function type that implements the Fallback interface.
type FallbackFunc[T comparable, R, D any] func(*State[R, D], Event[T, R, D]) *State[R, D]

// Reduce calls the function.
func (f FallbackFunc[T, R, D]) Reduce(s *State[R, D], ev Event[T, R, D]) *State[R, D] {
	return f(s, ev)
}
