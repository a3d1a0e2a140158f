package hashmap

// Ready-made key types for the common cases, so that clients do not have to
// wrap every string or integer key themselves. Client-defined key types just
// need to satisfy interface Key; equality may be any relation, as long as the
// hash function is consistent with it.

// String is a key type for string keys.
type String string

func (s String) Equal(other String) bool {
	return s == other
}

// Hash returns the 32-bit FNV-1a hash of s.
func (s String) Hash() uint32 {
	const offset32 uint32 = 2166136261
	const prime32 uint32 = 16777619
	h := offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

// Int is a key type for integer keys.
type Int int

func (n Int) Equal(other Int) bool {
	return n == other
}

// Hash spreads the bits of n with a Fibonacci multiplier, so that dense key
// ranges do not cluster in neighbouring trie slots.
func (n Int) Hash() uint32 {
	h := uint64(n) * 0x9e3779b97f4a7c15
	return uint32(h >> 32)
}
