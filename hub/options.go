package hub

// DefaultBucketsSize is the default number of buckets of a Hub.
var DefaultBucketsSize = 64

// Option is the interface for the options of a Hub.
type Option[K comparable] interface {
	apply(*options[K])
}

type optionFunc[K comparable] func(*options[K])

func (f optionFunc[K]) apply(o *options[K]) {
	f(o)
}

// WithKeyHash sets the key hash function used to select buckets.
// It is required for key types that internal hashing does not support.
func WithKeyHash[K comparable](f func(K) int) Option[K] {
	return optionFunc[K](func(o *options[K]) {
		o.hashKey = f
	})
}

// WithBucketsSize sets the number of buckets.
// The number of buckets must be a natural number.
func WithBucketsSize[K comparable](bucketsSize int) Option[K] {
	if bucketsSize <= 0 {
		panic("bucketsSize must be natural number")
	}
	return optionFunc[K](func(o *options[K]) {
		o.bucketsSize = bucketsSize
	})
}

type options[K comparable] struct {
	hashKey     func(K) int
	bucketsSize int
}
