// Package keyhash hashes comparable keys for bucket selection.
package keyhash

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/goccy/go-reflect"
)

var (
	cacheMu sync.RWMutex
	cache   = map[reflect.Type]any{}
)

// For returns the FNV-1a hash function for K.
// K must have a string, boolean or integer underlying type; For panics otherwise.
// Hash functions are built once per type and shared.
func For[K comparable]() func(K) int {
	typ := reflect.TypeOf((*K)(nil)).Elem()

	cacheMu.RLock()
	f, ok := cache[typ]
	cacheMu.RUnlock()
	if ok {
		return f.(func(K) int)
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if f, ok := cache[typ]; ok {
		return f.(func(K) int)
	}

	h := create[K](typ)
	cache[typ] = h
	return h
}

func create[K comparable](typ reflect.Type) func(K) int {
	switch typ.Kind() {
	case reflect.String:
		return func(k K) int {
			return sum([]byte(reflect.ValueOf(k).String()))
		}
	case reflect.Bool:
		return func(k K) int {
			if reflect.ValueOf(k).Bool() {
				return sum([]byte{1})
			}
			return sum([]byte{0})
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(k K) int {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], uint64(reflect.ValueOf(k).Int()))
			return sum(b[:])
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(k K) int {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], reflect.ValueOf(k).Uint())
			return sum(b[:])
		}
	default:
		panic(fmt.Sprintf("keyhash: unsupported key type: %s", typ))
	}
}

// sum returns the FNV-1a hash of b as a non-negative int.
func sum(b []byte) int {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return int(h.Sum64() >> 1)
}
