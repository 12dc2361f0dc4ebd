package fetchstate

import "github.com/karupanerura/fetchstate/expiration"

// Option configures a Reducer.
type Option[T comparable, R, D any] interface {
	apply(*Reducer[T, R, D])
}

type optionFunc[T comparable, R, D any] func(*Reducer[T, R, D])

func (f optionFunc[T, R, D]) apply(r *Reducer[T, R, D]) {
	f(r)
}

// WithFallback sets the handler for events whose tag is not in the Actions table.
// Without it such events leave the state unchanged.
func WithFallback[T comparable, R, D any](fallback Fallback[T, R, D]) Option[T, R, D] {
	return optionFunc[T, R, D](func(r *Reducer[T, R, D]) {
		r.fallback = fallback
	})
}

// WithExpirationMerger sets the merger that computes the expiration stored by Cache events.
// The default merger is an expiration.Resolver using expiration.SystemClock.
func WithExpirationMerger[T comparable, R, D any](merger expiration.Merger) Option[T, R, D] {
	return optionFunc[T, R, D](func(r *Reducer[T, R, D]) {
		r.merger = merger
	})
}

// WithDataCloner sets the cloner used to copy the initial Data on a full Reset.
// The default cloner is NopValueCloner.
func WithDataCloner[T comparable, R, D any](cloner ValueCloner[D]) Option[T, R, D] {
	return optionFunc[T, R, D](func(r *Reducer[T, R, D]) {
		r.cloner = cloner
	})
}

// WithTag binds kind to tag, overriding the Actions table.
// Unlike the table, it also binds a zero-valued tag.
// It panics if kind is KindUnknown or tag is already bound to another kind.
func WithTag[T comparable, R, D any](kind Kind, tag T) Option[T, R, D] {
	return optionFunc[T, R, D](func(r *Reducer[T, R, D]) {
		r.table.bind(kind, tag)
		r.actions = r.actions.set(kind, tag)
	})
}
