package hashmap

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	chunkBits uint32 = 5              // consume 5 hash bits per trie level
	nodeCap   uint32 = 1 << chunkBits // maximum number of children per node
	chunkMask uint32 = nodeCap - 1
)

// Representation thresholds: a bitmapNode unpacks into an arrayNode when it
// grows beyond half capacity; an arrayNode packs back into a bitmapNode when
// deletion leaves it at quarter capacity or below.
const (
	unpackThreshold = int(nodeCap) / 2
	packThreshold   = int(nodeCap) / 4
)

func chunk(shift, hash uint32) uint32 {
	return (hash >> shift) & chunkMask
}

func bitpos(shift, hash uint32) uint32 {
	return 1 << chunk(shift, hash)
}

// sparseIndex maps a bit position to an index into the dense child slice of
// a bitmapNode: the number of populated slots below bit.
func sparseIndex(bitmap, bit uint32) int {
	return bits.OnesCount32(bitmap & (bit - 1))
}

type eqFunc[V any] func(u, v V) bool

// hnode is a node of the hash trie. Nodes are never mutated after
// construction; with and without return fresh incarnations, copying only the
// path from the root to the affected slot and reusing every sibling subtree
// by reference.
//
// with returns the new node together with a flag telling whether the key was
// previously absent (a pair has been added instead of replaced). It returns
// the receiver itself when nothing changed (equal-value replacement).
// without returns the receiver itself when the key is absent, and nil when
// removal empties the subtree entirely.
type hnode[K Key[K], V any] interface {
	find(shift, hash uint32, key K) (V, bool)
	with(shift, hash uint32, key K, value V, eq eqFunc[V]) (hnode[K, V], bool)
	without(shift, hash uint32, key K) (hnode[K, V], bool)
	each(f func(key K, value V) bool) bool
	iterator() Iterator[K, V]
	fmt.Stringer
}

// --- Leaf ------------------------------------------------------------------

// leaf holds a single entry, together with the full hash of its key.
type leaf[K Key[K], V any] struct {
	hash  uint32
	key   K
	value V
}

func (l *leaf[K, V]) find(shift, hash uint32, key K) (V, bool) {
	if hash == l.hash && key.Equal(l.key) {
		return l.value, true
	}
	var none V
	return none, false
}

func (l *leaf[K, V]) with(shift, hash uint32, key K, value V, eq eqFunc[V]) (hnode[K, V], bool) {
	if hash == l.hash && key.Equal(l.key) {
		if eq != nil && eq(l.value, value) {
			return l, false // replacement value considered equal ⇒ reuse
		}
		return &leaf[K, V]{hash: hash, key: key, value: value}, false
	}
	if hash == l.hash { // full hash collision with a distinct key
		tracer().Debugf("hash collision at %#x, creating collision bucket", hash)
		return &collision[K, V]{
			hash:    hash,
			entries: []Entry[K, V]{{l.key, l.value}, {key, value}},
		}, true
	}
	return splitLeafs(shift, l, &leaf[K, V]{hash: hash, key: key, value: value}), true
}

func (l *leaf[K, V]) without(shift, hash uint32, key K) (hnode[K, V], bool) {
	if hash == l.hash && key.Equal(l.key) {
		return nil, true
	}
	return l, false
}

func (l *leaf[K, V]) each(f func(key K, value V) bool) bool {
	return f(l.key, l.value)
}

func (l *leaf[K, V]) String() string {
	return fmt.Sprintf("⟨%v⟩", l.key)
}

// splitLeafs disambiguates two leafs with different hashes by their hash
// chunks at the given level, descending one level deeper as long as the
// chunks still coincide. Since hashes differ in at least one bit, the
// recursion terminates before the hash bits are exhausted.
func splitLeafs[K Key[K], V any](shift uint32, a, b *leaf[K, V]) hnode[K, V] {
	assertThat(shift < 32, "hash bits exhausted while splitting distinct hashes %#x, %#x", a.hash, b.hash)
	ca, cb := chunk(shift, a.hash), chunk(shift, b.hash)
	if ca == cb {
		child := splitLeafs(shift+chunkBits, a, b)
		return &bitmapNode[K, V]{bitmap: 1 << ca, children: []hnode[K, V]{child}}
	}
	if ca < cb {
		return &bitmapNode[K, V]{bitmap: 1<<ca | 1<<cb, children: []hnode[K, V]{a, b}}
	}
	return &bitmapNode[K, V]{bitmap: 1<<ca | 1<<cb, children: []hnode[K, V]{b, a}}
}

// --- Collision node --------------------------------------------------------

// collision is a bucket of entries whose keys hash identically through the
// full trie depth. Entries are scanned linearly with the key's equality
// relation, so correctness never depends on hash quality.
type collision[K Key[K], V any] struct {
	hash    uint32
	entries []Entry[K, V]
}

func (n *collision[K, V]) findIndex(key K) int {
	for i, entry := range n.entries {
		if key.Equal(entry.Key) {
			return i
		}
	}
	return -1
}

func (n *collision[K, V]) find(shift, hash uint32, key K) (V, bool) {
	if hash == n.hash {
		if i := n.findIndex(key); i >= 0 {
			return n.entries[i].Value, true
		}
	}
	var none V
	return none, false
}

func (n *collision[K, V]) with(shift, hash uint32, key K, value V, eq eqFunc[V]) (hnode[K, V], bool) {
	if hash != n.hash {
		// not a colliding key after all ⇒ wrap the bucket in a bitmap node
		// and descend from there
		wrap := &bitmapNode[K, V]{bitmap: bitpos(shift, n.hash), children: []hnode[K, V]{n}}
		return wrap.with(shift, hash, key, value, eq)
	}
	if i := n.findIndex(key); i >= 0 {
		if eq != nil && eq(n.entries[i].Value, value) {
			return n, false
		}
		cow := make([]Entry[K, V], len(n.entries))
		copy(cow, n.entries)
		cow[i] = Entry[K, V]{key, value}
		return &collision[K, V]{hash: n.hash, entries: cow}, false
	}
	cow := make([]Entry[K, V], len(n.entries), len(n.entries)+1)
	copy(cow, n.entries)
	cow = append(cow, Entry[K, V]{key, value})
	return &collision[K, V]{hash: n.hash, entries: cow}, true
}

func (n *collision[K, V]) without(shift, hash uint32, key K) (hnode[K, V], bool) {
	if hash != n.hash {
		return n, false
	}
	i := n.findIndex(key)
	if i < 0 {
		return n, false
	}
	if len(n.entries) == 2 { // bucket collapses into a plain leaf
		rest := n.entries[1-i]
		return &leaf[K, V]{hash: n.hash, key: rest.Key, value: rest.Value}, true
	}
	cow := make([]Entry[K, V], 0, len(n.entries)-1)
	cow = append(cow, n.entries[:i]...)
	cow = append(cow, n.entries[i+1:]...)
	return &collision[K, V]{hash: n.hash, entries: cow}, true
}

func (n *collision[K, V]) each(f func(key K, value V) bool) bool {
	for _, entry := range n.entries {
		if !f(entry.Key, entry.Value) {
			return false
		}
	}
	return true
}

func (n *collision[K, V]) String() string {
	return fmt.Sprintf("⟨collision(%#x)×%d⟩", n.hash, len(n.entries))
}

// --- Bitmap-indexed node ---------------------------------------------------

// bitmapNode represents a sparse trie level: a 32-bit presence bitmap plus a
// dense slice holding children for the populated slots only. The number of
// set bits always equals the length of the child slice.
type bitmapNode[K Key[K], V any] struct {
	bitmap   uint32
	children []hnode[K, V]
}

func (n *bitmapNode[K, V]) find(shift, hash uint32, key K) (V, bool) {
	bit := bitpos(shift, hash)
	if n.bitmap&bit == 0 {
		var none V
		return none, false
	}
	return n.children[sparseIndex(n.bitmap, bit)].find(shift+chunkBits, hash, key)
}

func (n *bitmapNode[K, V]) with(shift, hash uint32, key K, value V, eq eqFunc[V]) (hnode[K, V], bool) {
	bit := bitpos(shift, hash)
	idx := sparseIndex(n.bitmap, bit)
	if n.bitmap&bit == 0 { // slot is free
		entry := &leaf[K, V]{hash: hash, key: key, value: value}
		if len(n.children) >= unpackThreshold {
			tracer().Debugf("node grows beyond %d children, unpacking to array node", unpackThreshold)
			return n.unpack(chunk(shift, hash), entry), true
		}
		cow := make([]hnode[K, V], len(n.children)+1)
		copy(cow[:idx], n.children[:idx])
		cow[idx] = entry
		copy(cow[idx+1:], n.children[idx:])
		return &bitmapNode[K, V]{bitmap: n.bitmap | bit, children: cow}, true
	}
	child := n.children[idx]
	cow, added := child.with(shift+chunkBits, hash, key, value, eq)
	if cow == child {
		return n, false
	}
	return n.withReplacedChild(idx, cow), added
}

func (n *bitmapNode[K, V]) without(shift, hash uint32, key K) (hnode[K, V], bool) {
	bit := bitpos(shift, hash)
	if n.bitmap&bit == 0 {
		return n, false
	}
	idx := sparseIndex(n.bitmap, bit)
	child := n.children[idx]
	cow, deleted := child.without(shift+chunkBits, hash, key)
	if cow == child {
		return n, false
	}
	if cow == nil { // child subtree emptied out
		if n.bitmap == bit {
			return nil, true
		}
		return n.withoutChild(bit, idx).collapsed(), true
	}
	return n.withReplacedChild(idx, cow).collapsed(), deleted
}

func (n *bitmapNode[K, V]) withReplacedChild(idx int, child hnode[K, V]) *bitmapNode[K, V] {
	cow := make([]hnode[K, V], len(n.children))
	copy(cow, n.children)
	cow[idx] = child
	return &bitmapNode[K, V]{bitmap: n.bitmap, children: cow}
}

func (n *bitmapNode[K, V]) withoutChild(bit uint32, idx int) *bitmapNode[K, V] {
	assertThat(len(n.children) > 1, "attempt to remove the only child of a bitmap node")
	cow := make([]hnode[K, V], 0, len(n.children)-1)
	cow = append(cow, n.children[:idx]...)
	cow = append(cow, n.children[idx+1:]...)
	return &bitmapNode[K, V]{bitmap: n.bitmap &^ bit, children: cow}
}

// collapsed merges a bitmap node holding a single leaf or collision child
// into that child directly. This compaction keeps the trie depth bounded
// under heavy delete workloads. Inner nodes are never pulled up, since their
// placement depends on the level they were built for; leafs and collision
// buckets carry their full hash and are valid at any level.
func (n *bitmapNode[K, V]) collapsed() hnode[K, V] {
	if len(n.children) == 1 {
		switch child := n.children[0].(type) {
		case *leaf[K, V]:
			return child
		case *collision[K, V]:
			return child
		}
	}
	return n
}

// unpack spreads the children of a bitmap node into the fixed-size array of
// an arrayNode, placing the new child at slot idx. Children transfer by
// reference; their interpretation level does not change.
func (n *bitmapNode[K, V]) unpack(idx uint32, child hnode[K, V]) *arrayNode[K, V] {
	a := &arrayNode[K, V]{nChildren: len(n.children) + 1}
	a.children[idx] = child
	j := 0
	for i := uint32(0); i < nodeCap; i++ {
		if n.bitmap&(1<<i) != 0 {
			a.children[i] = n.children[j]
			j++
		}
	}
	assertThat(j == len(n.children), "bitmap popcount does not match child count")
	return a
}

func (n *bitmapNode[K, V]) each(f func(key K, value V) bool) bool {
	for _, child := range n.children {
		if !child.each(f) {
			return false
		}
	}
	return true
}

func (n *bitmapNode[K, V]) String() string {
	b := strings.Builder{}
	b.WriteByte('[')
	for i := uint32(0); i < nodeCap; i++ {
		if n.bitmap&(1<<i) != 0 {
			b.WriteString("▪︎")
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteByte(']')
	return b.String()
}

// --- Array node ------------------------------------------------------------

// arrayNode represents a dense trie level: all 32 slots are materialized and
// children are addressed by hash chunk directly, trading space for simpler
// indexing.
type arrayNode[K Key[K], V any] struct {
	nChildren int
	children  [nodeCap]hnode[K, V]
}

func (n *arrayNode[K, V]) withNewChild(idx uint32, child hnode[K, V], delta int) *arrayNode[K, V] {
	cow := n.children
	cow[idx] = child
	return &arrayNode[K, V]{nChildren: n.nChildren + delta, children: cow}
}

func (n *arrayNode[K, V]) find(shift, hash uint32, key K) (V, bool) {
	child := n.children[chunk(shift, hash)]
	if child == nil {
		var none V
		return none, false
	}
	return child.find(shift+chunkBits, hash, key)
}

func (n *arrayNode[K, V]) with(shift, hash uint32, key K, value V, eq eqFunc[V]) (hnode[K, V], bool) {
	idx := chunk(shift, hash)
	child := n.children[idx]
	if child == nil {
		return n.withNewChild(idx, &leaf[K, V]{hash: hash, key: key, value: value}, 1), true
	}
	cow, added := child.with(shift+chunkBits, hash, key, value, eq)
	if cow == child {
		return n, false
	}
	return n.withNewChild(idx, cow, 0), added
}

func (n *arrayNode[K, V]) without(shift, hash uint32, key K) (hnode[K, V], bool) {
	idx := chunk(shift, hash)
	child := n.children[idx]
	if child == nil {
		return n, false
	}
	cow, deleted := child.without(shift+chunkBits, hash, key)
	if cow == child {
		return n, false
	}
	if cow == nil {
		if n.nChildren <= packThreshold+1 {
			tracer().Debugf("array node shrinks to %d children, packing to bitmap node", n.nChildren-1)
			return n.pack(idx), true
		}
		return n.withNewChild(idx, nil, -1), true
	}
	return n.withNewChild(idx, cow, 0), deleted
}

// pack condenses a sparse array node back into a bitmap node, skipping the
// slot that has just been emptied.
func (n *arrayNode[K, V]) pack(skip uint32) *bitmapNode[K, V] {
	packed := &bitmapNode[K, V]{children: make([]hnode[K, V], 0, n.nChildren-1)}
	for i := uint32(0); i < nodeCap; i++ {
		if i != skip && n.children[i] != nil {
			packed.bitmap |= 1 << i
			packed.children = append(packed.children, n.children[i])
		}
	}
	return packed
}

func (n *arrayNode[K, V]) each(f func(key K, value V) bool) bool {
	for _, child := range n.children {
		if child != nil && !child.each(f) {
			return false
		}
	}
	return true
}

func (n *arrayNode[K, V]) String() string {
	b := strings.Builder{}
	b.WriteByte('[')
	for _, child := range n.children {
		if child == nil {
			b.WriteByte('_')
		} else {
			b.WriteString("▪︎")
		}
	}
	b.WriteByte(']')
	return b.String()
}

// --- Helpers ---------------------------------------------------------------

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("hashmap: "+msg, msgargs...)
		panic(msg)
	}
}
