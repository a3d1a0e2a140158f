package hashmap

import (
	"fmt"

	"github.com/npillmayer/persistent/maybe"
)

// Key is the capability contract required of map keys: an equality relation
// plus a stable hash function consistent with it (equal keys must produce
// equal hashes). Keys need no ordering. Ready-made key types for common cases
// are String and Int.
type Key[K any] interface {
	Equal(other K) bool
	Hash() uint32
}

// Entry is an immutable (key, value) pair.
type Entry[K Key[K], V any] struct {
	Key   K
	Value V
}

// Map is a persistent hash map. An empty instance is usable as an empty map,
// i.e. this is legal:
//
//	m := hashmap.Map[hashmap.String, int]{}.With("one", 1)
//
// returning a map containing a single entry ⟨"one"⟩ associated with value 1.
//
// Every mutating operation returns a new map incarnation, leaving the
// receiver (and anything referencing it) untouched and valid. Incarnations
// share all untouched subtrees, so a “modification” costs O(log32 n) in time
// and space. Maps may therefore be handed to arbitrary numbers of goroutines
// without synchronization.
type Map[K Key[K], V any] struct {
	count int
	root  hnode[K, V]
	eq    eqFunc[V]
}

// Immutable constructs an empty map with options, if you need any.
// Use it like this:
//
//	m := hashmap.Immutable[hashmap.String, int]()
//	m = m.With("answer", 42)
//	value := m.Find("answer")   // returns Just(42)
func Immutable[K Key[K], V any](opts ...Option[K, V]) Map[K, V] {
	m := Map[K, V]{}
	for _, option := range opts {
		m = option(m)
	}
	return m
}

// Option is a type to help initializing maps at creation time.
type Option[K Key[K], V any] func(Map[K, V]) Map[K, V]

// ValueEquality is an option to provide an equality relation for values.
// When set, With recognizes a replacement by an equal value and returns the
// receiver unchanged, allocating nothing. This is a pure optimization; maps
// without it are just as correct, but derive a fresh incarnation on every
// replacement.
//
// Use it like this:
//
//	m := hashmap.Immutable(hashmap.ValueEquality[hashmap.String](func(u, v int) bool {
//	    return u == v
//	}))
func ValueEquality[K Key[K], V any](eq func(u, v V) bool) Option[K, V] {
	return func(m Map[K, V]) Map[K, V] {
		m.eq = eq
		return m
	}
}

// --- API -------------------------------------------------------------------

// Len returns the number of entries contained in the map. The count is
// maintained incrementally; Len never traverses the trie.
func (m Map[K, V]) Len() int {
	return m.count
}

// Has reports whether an entry for key is contained in the map.
// A nil key raises an *InvalidArgumentError panic.
func (m Map[K, V]) Has(key K) bool {
	if isNil(key) {
		invalid("Has", "nil key")
	}
	if m.root == nil {
		return false
	}
	_, found := m.root.find(0, key.Hash(), key)
	return found
}

// Find locates a key in the map, if present, and returns the value associated
// with the key. An absent key is not an error; it yields maybe.Nothing.
// A nil key raises an *InvalidArgumentError panic.
func (m Map[K, V]) Find(key K) maybe.Maybe[V] {
	if isNil(key) {
		invalid("Find", "nil key")
	}
	if m.root == nil {
		return maybe.Nothing[V]()
	}
	if value, found := m.root.find(0, key.Hash(), key); found {
		return maybe.Just(value)
	}
	return maybe.Nothing[V]()
}

// With returns a copy of the map with a new key inserted, which is associated
// with value. If an entry for key is already present, the associated value
// will be replaced (in a new incarnation of the map, nevertheless)—unless the
// ValueEquality option recognizes the stored value as equal, in which case
// the receiver is returned as is.
// Nil keys and nil values raise an *InvalidArgumentError panic.
func (m Map[K, V]) With(key K, value V) Map[K, V] {
	if isNil(key) {
		invalid("With", "nil key")
	}
	if isNil(value) {
		invalid("With", "nil value")
	}
	hash := key.Hash()
	if m.root == nil { // virgin map ⇒ new leaf becomes the root
		return Map[K, V]{count: 1, root: &leaf[K, V]{hash: hash, key: key, value: value}, eq: m.eq}
	}
	cow, added := m.root.with(0, hash, key, value, m.eq)
	if cow == m.root {
		tracer().Debugf("insert of %v: value unchanged, reusing map incarnation", key)
		return m
	}
	newCount := m.count
	if added {
		newCount++
	}
	tracer().Debugf("insert of %v: new root = %s", key, cow)
	return Map[K, V]{count: newCount, root: cow, eq: m.eq}
}

// WithDeleted returns a copy of the map with key deleted, if present.
// If key is not found, the map is returned unchanged, allocating nothing.
// A nil key raises an *InvalidArgumentError panic.
func (m Map[K, V]) WithDeleted(key K) Map[K, V] {
	if isNil(key) {
		invalid("WithDeleted", "nil key")
	}
	if m.root == nil {
		return m
	}
	cow, deleted := m.root.without(0, key.Hash(), key)
	if !deleted {
		return m
	}
	tracer().Debugf("deletion of %v: new root = %v", key, cow)
	return Map[K, V]{count: m.count - 1, root: cow, eq: m.eq}
}

// Each walks all entries of the map in trie order, calling f for every entry
// until f returns false. Trie order is stable for a given map incarnation,
// but bears no relation to insertion order.
func (m Map[K, V]) Each(f func(key K, value V) bool) {
	if m.root == nil {
		return
	}
	m.root.each(f)
}

// Entries returns all entries of the map, in trie order. The returned slice
// is a suitable input for FromPairs, round-tripping the map.
func (m Map[K, V]) Entries() []Entry[K, V] {
	entries := make([]Entry[K, V], 0, m.count)
	m.Each(func(key K, value V) bool {
		entries = append(entries, Entry[K, V]{key, value})
		return true
	})
	return entries
}

// Equal reports whether two maps contain the same keys with equal values,
// where value equality is decided by eq.
func Equal[K Key[K], V any](m, other Map[K, V], eq func(u, v V) bool) bool {
	if m.count != other.count {
		return false
	}
	equal := true
	m.Each(func(key K, value V) bool {
		w, found := other.Find(key).Get()
		if !found || !eq(value, w) {
			equal = false
		}
		return equal
	})
	return equal
}

// --- Bulk construction -----------------------------------------------------

// FromPairs folds a sequence of pairs into successively derived maps,
// starting from the empty map. Unlike folding With manually, FromPairs
// validates its input: it fails with an *InvalidInputError on a nil key, a
// nil value, or a key duplicating one appearing earlier in the sequence (a
// plain fold would silently overwrite). No partial map escapes a failed
// construction.
func FromPairs[K Key[K], V any](pairs []Entry[K, V], opts ...Option[K, V]) (Map[K, V], error) {
	m := Immutable(opts...)
	for i, pair := range pairs {
		switch {
		case isNil(pair.Key):
			return Map[K, V]{}, &InvalidInputError{Index: i, Reason: "nil key"}
		case isNil(pair.Value):
			return Map[K, V]{}, &InvalidInputError{Index: i, Reason: "nil value"}
		case m.Has(pair.Key):
			return Map[K, V]{}, &InvalidInputError{Index: i, Reason: fmt.Sprintf("duplicate key %v", pair.Key)}
		}
		m = m.With(pair.Key, pair.Value)
	}
	tracer().Debugf("constructed map with %d entries from pair sequence", m.count)
	return m, nil
}
