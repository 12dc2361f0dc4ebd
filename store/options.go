package store

import (
	"log/slog"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/fetchstate"
)

// Option configures a Store.
type Option[T comparable, R, D any] interface {
	apply(*Store[T, R, D])
}

type optionFunc[T comparable, R, D any] func(*Store[T, R, D])

func (f optionFunc[T, R, D]) apply(s *Store[T, R, D]) {
	f(s)
}

// WithInitialState sets the state the store starts from.
// The default is the reducer's initial state.
func WithInitialState[T comparable, R, D any](state *fetchstate.State[R, D]) Option[T, R, D] {
	return optionFunc[T, R, D](func(s *Store[T, R, D]) {
		s.state = state
	})
}

// WithEqual sets the function deciding whether two states are equal.
// Subscribers are only called when it returns false.
func WithEqual[T comparable, R, D any](equal func(a, b *fetchstate.State[R, D]) bool) Option[T, R, D] {
	return optionFunc[T, R, D](func(s *Store[T, R, D]) {
		s.equal = equal
	})
}

// WithCmpOptions adds go-cmp options to the default equality.
// Use it to compare payloads with unexported fields, e.g. cmp.AllowUnexported.
func WithCmpOptions[T comparable, R, D any](opts ...cmp.Option) Option[T, R, D] {
	return optionFunc[T, R, D](func(s *Store[T, R, D]) {
		s.cmpOpts = append(s.cmpOpts, opts...)
	})
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger[T comparable, R, D any](logger *slog.Logger) Option[T, R, D] {
	return optionFunc[T, R, D](func(s *Store[T, R, D]) {
		s.logger = logger
	})
}
