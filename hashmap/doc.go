/*
Package hashmap implements an immutable persistent hash map, designed for
use-cases similar to Go maps.

An immutable persistent map has copy-on-write behaviour: Each “modification” of
the map (insertion, replacement or deletion) creates a copy, leaving the original
unmodified. Under the hood, copy-on-write retains most of the memory held by the
original, and creates a new incarnation of parts of the structure only. Thus,
most of the structure/memory is shared between original and copy, transparently
to clients.

The implementation is a hash-array-mapped trie (HAMT): a trie keyed by
successive 5-bit chunks of a key's hash value, using bitmaps to compactly
represent sparse levels. Every operation touches at most the nodes on the path
from the root to the affected slot, i.e. O(log32 n) nodes.

Immutable maps are inherently concurrency-safe.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package hashmap

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'persistent.hashmap'.
func tracer() tracing.Trace {
	return tracing.Select("persistent.hashmap")
}
