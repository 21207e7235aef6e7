// Package similarity implements the L2 similarity engine: normalized
// edit distance over strings and node sequences, with a process-wide,
// identity-keyed memo for node-pair distances. It is grounded on the
// teacher's own memoized Levenshtein helper
// (internal/inducer/editdistance.go), generalized from string keys to
// tag-tree node identity keys.
package similarity

import (
	"sync"
	"unsafe"

	"github.com/agnivade/levenshtein"
	"github.com/projectdiscovery/mdr/tagtree"
)

// EditDistance returns the normalized Levenshtein distance between s1
// and s2 in [0,1], per spec §4.2:
//   - both empty → 0
//   - exactly one empty → 1
//   - otherwise Levenshtein(s1,s2) / max(len(s1),len(s2))
//
// As a fast-rejection, if one string is more than twice the length of
// the other the strings are declared maximally dissimilar (1) without
// running the Levenshtein computation.
func EditDistance(s1, s2 string) float64 {
	len1, len2 := len(s1), len(s2)
	if len1 == 0 && len2 == 0 {
		return 0
	}
	if len1 == 0 || len2 == 0 {
		return 1
	}
	if len1 > 2*len2 || len2 > 2*len1 {
		return 1
	}
	d := levenshtein.ComputeDistance(s1, s2)
	maxLen := len1
	if len2 > maxLen {
		maxLen = len2
	}
	return float64(d) / float64(maxLen)
}

// pairKey is an order-independent identity key for two nodes, built
// from their pointer addresses the same way the Rust original pairs
// Arc::as_ptr values: lower address first so (a,b) and (b,a) collide.
type pairKey struct {
	lo, hi uintptr
}

func makePairKey(a, b *tagtree.Node) pairKey {
	pa := uintptr(unsafe.Pointer(a))
	pb := uintptr(unsafe.Pointer(b))
	if pa <= pb {
		return pairKey{lo: pa, hi: pb}
	}
	return pairKey{lo: pb, hi: pa}
}

// Cache is the process-wide node-pair distance memo described in spec
// §4.2/§9. It is safe for concurrent reads and writes; duplicate
// inserts for the same pair are idempotent since node distance is a
// pure function of the pair's (cached) flattenings.
type Cache struct {
	mu   sync.RWMutex
	memo map[pairKey]float64
}

// NewCache creates an empty node-pair distance cache.
func NewCache() *Cache {
	return &Cache{memo: make(map[pairKey]float64)}
}

// Reset clears all cached pair distances, per spec §5/§9 ("cleared
// between independent runs ... via an explicit reset").
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memo = make(map[pairKey]float64)
}

// Size returns the number of cached pair distances.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memo)
}

// NodeDistance returns the normalized edit distance between the
// flattened serializations of a and b, memoized by unordered node
// identity pair.
func (c *Cache) NodeDistance(a, b *tagtree.Node) float64 {
	key := makePairKey(a, b)

	c.mu.RLock()
	if d, ok := c.memo[key]; ok {
		c.mu.RUnlock()
		return d
	}
	c.mu.RUnlock()

	d := EditDistance(a.Flatten(), b.Flatten())

	c.mu.Lock()
	c.memo[key] = d
	c.mu.Unlock()

	return d
}

// flattenSequence concatenates the flattened serialization of each
// node in order, per spec §4.2's sequence distance contract.
func flattenSequence(nodes []*tagtree.Node) string {
	var total int
	flats := make([]string, len(nodes))
	for i, n := range nodes {
		flats[i] = n.Flatten()
		total += len(flats[i])
	}
	buf := make([]byte, 0, total)
	for _, f := range flats {
		buf = append(buf, f...)
	}
	return string(buf)
}

// SequenceDistance returns the normalized edit distance between two
// node sequences: the concatenation of each side's flattened
// serializations, compared with the same 2x-length fast-rejection
// rule as EditDistance. This is NOT the sum of pairwise distances.
func (c *Cache) SequenceDistance(a, b []*tagtree.Node) float64 {
	return EditDistance(flattenSequence(a), flattenSequence(b))
}

// Epsilon is the floating-point tolerance applied to every `D <= t`
// comparison in the core: a match requires D <= t-Epsilon, so a
// distance equal to t, or above it only by floating-point noise (as
// when t came from a single-precision value), is not a match.
const Epsilon = 1e-7

// Similar reports whether two nodes are similar under threshold t,
// i.e. their node distance is at most t-Epsilon.
func (c *Cache) Similar(a, b *tagtree.Node, t float64) bool {
	return c.NodeDistance(a, b) <= t-Epsilon
}

// AllSimilar reports whether every unordered pair within siblings is
// Similar under t. Fewer than two siblings is vacuously true. The
// predicate short-circuits on the first failing pair.
func (c *Cache) AllSimilar(siblings []*tagtree.Node, t float64) bool {
	if len(siblings) < 2 {
		return true
	}
	for i := 0; i < len(siblings)-1; i++ {
		for j := i + 1; j < len(siblings); j++ {
			if !c.Similar(siblings[i], siblings[j], t) {
				return false
			}
		}
	}
	return true
}

// SequenceSimilar reports whether two node sequences are similar under
// threshold t using SequenceDistance, i.e. the distance is at most
// t-Epsilon.
func (c *Cache) SequenceSimilar(a, b []*tagtree.Node, t float64) bool {
	return c.SequenceDistance(a, b) <= t-Epsilon
}
