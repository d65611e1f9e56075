package swisstable

import (
	"reflect"

	"github.com/dolthub/maphash"
)

// Comparer is the external hash/equality strategy the core dispatches
// through (spec §6). Implementations must satisfy
// equals(a,b) => hash(a) == hash(b).
type Comparer[K any] interface {
	Hash(k K) uint64
	Equal(a, b K) bool
}

// defaultComparer hashes with dolthub/maphash's generic Hasher, grounded on
// other_examples' flier/goutil arena swiss map (pkg/arena/swiss/map.go),
// which wires the same library the same way (`hash maphash.Hasher[K]`,
// `m.hash.Hash(key)`). Equality is Go's native == on comparable K.
type defaultComparer[K comparable] struct {
	hasher maphash.Hasher[K]
}

func newDefaultComparer[K comparable]() *defaultComparer[K] {
	return &defaultComparer[K]{hasher: maphash.NewHasher[K]()}
}

func (c *defaultComparer[K]) Hash(k K) uint64 {
	return c.hasher.Hash(k)
}

func (c *defaultComparer[K]) Equal(a, b K) bool {
	return a == b
}

// isNilKey reports whether key is a nil value of a nilable kind (pointer,
// interface, map, slice, channel, or func). For every other kind — in
// particular every kind a comparable type parameter can be instantiated
// with besides these — it returns false, so NullKey can never trigger for
// e.g. K = int or K = string. Grounded on the pack's use of
// reflect-driven, kind-dependent generic logic
// (nikgalushko-swisstable-bench/main.go's randT[T], which switches on
// reflect.TypeOf((*T)(nil)).Elem().Kind()).
func isNilKey[K any](key K) bool {
	v := reflect.ValueOf(key)
	if !v.IsValid() {
		// K is itself an interface type (e.g. K = error) and key's
		// dynamic value is nil: boxing it into the interface reflect.ValueOf
		// receives produced the nil interface, which reflect reports as
		// the invalid Value.
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}
