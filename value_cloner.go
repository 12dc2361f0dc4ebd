package fetchstate

import "reflect"

// ValueCloner clones payloads.
// CloneValue should return a deep copy of the input value.
type ValueCloner[V any] interface {
	CloneValue(V) V
}

// ValueClonerFunc is a function type that implements the ValueCloner interface.
type ValueClonerFunc[V any] func(v V) V

// CloneValue calls the function.
func (f ValueClonerFunc[V]) CloneValue(v V) V {
	return f(v)
}

// NopValueCloner returns values as is.
// It is enough for primitive payloads and payloads that are never modified.
type NopValueCloner[V any] struct{}

// CloneValue returns the input value.
func (NopValueCloner[V]) CloneValue(v V) V {
	return v
}

// DefaultValueCloner returns a cloner for V.
// It uses the Clone or DeepCopy method of V if there is one, and a
// NopValueCloner for primitive kinds.
// It panics for any other type.
func DefaultValueCloner[V any]() ValueCloner[V] {
	type cloner interface {
		Clone() V
	}
	type deepCopier interface {
		DeepCopy() V
	}

	typ := reflect.TypeFor[V]()
	switch {
	case typ.Implements(reflect.TypeFor[cloner]()):
		return ValueClonerFunc[V](func(v V) V {
			var a any = v
			return a.(cloner).Clone()
		})
	case typ.Implements(reflect.TypeFor[deepCopier]()):
		return ValueClonerFunc[V](func(v V) V {
			var a any = v
			return a.(deepCopier).DeepCopy()
		})
	}

	switch typ.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return NopValueCloner[V]{}
	default:
		panic("fetchstate: " + typ.String() + " does not have Clone or DeepCopy method")
	}
}
