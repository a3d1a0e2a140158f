package hashmap

// Iterator is an iterator over map entries. It can be used like this:
//
//	for it := m.Iterator(); it.HasElem(); it.Next() {
//	    key, value := it.Elem()
//	    // do something with the entry…
//	}
//
// Each call to Map.Iterator starts a fresh walk; re-walking the identical map
// incarnation yields the identical sequence. Since maps are immutable,
// concurrent walks over the same map (or over derived maps sharing subtrees)
// never interfere.
type Iterator[K Key[K], V any] interface {
	// Elem returns the current key-value pair.
	Elem() (K, V)
	// HasElem returns whether the iterator is pointing to an entry.
	HasElem() bool
	// Next moves the iterator to the next position.
	Next()
}

// Iterator returns an iterator over the map: a depth-first pre-order walk of
// the trie, descending into children by ascending slot index, with collision
// buckets yielding their entries in stored order.
func (m Map[K, V]) Iterator() Iterator[K, V] {
	if m.root == nil {
		return emptyIterator[K, V]{}
	}
	return m.root.iterator()
}

type emptyIterator[K Key[K], V any] struct{}

func (it emptyIterator[K, V]) Elem() (K, V) {
	var key K
	var value V
	return key, value
}

func (it emptyIterator[K, V]) HasElem() bool { return false }

func (it emptyIterator[K, V]) Next() {}

// --- Per-variant iterators -------------------------------------------------

func (l *leaf[K, V]) iterator() Iterator[K, V] {
	return &leafIterator[K, V]{l: l}
}

type leafIterator[K Key[K], V any] struct {
	l    *leaf[K, V]
	done bool
}

func (it *leafIterator[K, V]) Elem() (K, V) {
	return it.l.key, it.l.value
}

func (it *leafIterator[K, V]) HasElem() bool {
	return !it.done
}

func (it *leafIterator[K, V]) Next() {
	it.done = true
}

func (n *collision[K, V]) iterator() Iterator[K, V] {
	return &collisionIterator[K, V]{n: n}
}

type collisionIterator[K Key[K], V any] struct {
	n     *collision[K, V]
	index int
}

func (it *collisionIterator[K, V]) Elem() (K, V) {
	entry := it.n.entries[it.index]
	return entry.Key, entry.Value
}

func (it *collisionIterator[K, V]) HasElem() bool {
	return it.index < len(it.n.entries)
}

func (it *collisionIterator[K, V]) Next() {
	it.index++
}

func (n *bitmapNode[K, V]) iterator() Iterator[K, V] {
	it := &bitmapNodeIterator[K, V]{n: n}
	it.fixCurrent()
	return it
}

// bitmapNodeIterator walks the dense child slice in order, delegating to the
// current child's iterator. Child nodes are never empty, so a fresh child
// iterator always has an element.
type bitmapNodeIterator[K Key[K], V any] struct {
	n       *bitmapNode[K, V]
	index   int
	current Iterator[K, V]
}

func (it *bitmapNodeIterator[K, V]) fixCurrent() {
	if it.index < len(it.n.children) {
		it.current = it.n.children[it.index].iterator()
	} else {
		it.current = nil
	}
}

func (it *bitmapNodeIterator[K, V]) Elem() (K, V) {
	return it.current.Elem()
}

func (it *bitmapNodeIterator[K, V]) HasElem() bool {
	return it.current != nil
}

func (it *bitmapNodeIterator[K, V]) Next() {
	it.current.Next()
	if !it.current.HasElem() {
		it.index++
		it.fixCurrent()
	}
}

func (n *arrayNode[K, V]) iterator() Iterator[K, V] {
	it := &arrayNodeIterator[K, V]{n: n}
	it.fixCurrent()
	return it
}

type arrayNodeIterator[K Key[K], V any] struct {
	n       *arrayNode[K, V]
	index   int
	current Iterator[K, V]
}

func (it *arrayNodeIterator[K, V]) fixCurrent() {
	for ; it.index < int(nodeCap) && it.n.children[it.index] == nil; it.index++ {
	}
	if it.index < int(nodeCap) {
		it.current = it.n.children[it.index].iterator()
	} else {
		it.current = nil
	}
}

func (it *arrayNodeIterator[K, V]) Elem() (K, V) {
	return it.current.Elem()
}

func (it *arrayNodeIterator[K, V]) HasElem() bool {
	return it.current != nil
}

func (it *arrayNodeIterator[K, V]) Next() {
	it.current.Next()
	if !it.current.HasElem() {
		it.index++
		it.fixCurrent()
	}
}
