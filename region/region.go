// Package region implements the L3 region finder (MDR): for a
// parent's child sequence it finds the maximal tiling of
// non-overlapping DataRegions built from repeating generalized nodes,
// then recurses over the whole tree. Grounded on
// packages/rust-mdr/src/mdr_algorithm.rs, the authoritative variant
// named in spec §9.
package region

import (
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/mdr/similarity"
	"github.com/projectdiscovery/mdr/tagtree"
	"golang.org/x/sync/errgroup"
)

// DataRegion is a run of gn_length-sized generalized nodes, per spec §3.
type DataRegion struct {
	GNLength   int
	StartIndex int
	NodeCount  int
}

// RegionsMap is keyed by the xpath of the parent node that owns the
// regions, per spec §3.
type RegionsMap map[string][]DataRegion

// Options configures the region finder.
type Options struct {
	// K is the maximum generalized-node length explored. Must be >= 1.
	K int
	// T is the similarity threshold in [0,1].
	T float64
	// Parallel enables the optional fan-out described in spec §5: the
	// per-gn_length phase-offset scan runs across goroutines instead
	// of sequentially. Champion selection always happens sequentially
	// afterward. Default false.
	Parallel bool
}

// IdentDRs implements spec §4.3's ident_drs: starting no earlier than
// startChildIdx, it finds the best (champion) region for each
// gn_length in [1,k], keeps the overall champion per the tie-break
// rule, appends it, and recurses to the right of it until no further
// region is found.
func IdentDRs(startChildIdx int, children []*tagtree.Node, k int, t float64, cache *similarity.Cache, opts Options) []DataRegion {
	var result []DataRegion
	n := len(children)

	var champion *DataRegion
	for gnLength := 1; gnLength <= k; gnLength++ {
		candidates := scanPhaseOffsets(startChildIdx, gnLength, children, n, t, cache, opts.Parallel)
		for _, dr := range candidates {
			if dr == nil {
				continue
			}
			champion = considerCandidate(champion, dr)
		}
	}

	if champion != nil {
		result = append(result, *champion)
		next := champion.StartIndex + champion.NodeCount
		if next < n {
			result = append(result, IdentDRs(next, children, k, t, cache, opts)...)
		}
	}
	return result
}

// scanPhaseOffsets scans every phase offset in
// [startChildIdx, startChildIdx+gnLength) for a given gnLength, either
// sequentially or fanned out across goroutines per opts.Parallel.
func scanPhaseOffsets(startChildIdx, gnLength int, children []*tagtree.Node, n int, t float64, cache *similarity.Cache, parallel bool) []*DataRegion {
	offsets := make([]int, 0, gnLength)
	for off := startChildIdx; off < startChildIdx+gnLength; off++ {
		offsets = append(offsets, off)
	}

	results := make([]*DataRegion, len(offsets))

	if !parallel {
		for i, off := range offsets {
			results[i] = scanOnePhase(off, gnLength, children, n, t, cache)
		}
		return results
	}

	var eg errgroup.Group
	for i, off := range offsets {
		i, off := i, off
		eg.Go(func() error {
			results[i] = scanOnePhase(off, gnLength, children, n, t, cache)
			return nil
		})
	}
	_ = eg.Wait() // scanOnePhase never errors; Wait only synchronizes.
	return results
}

// scanOnePhase walks a single phase offset forward in steps of
// gnLength, opening/extending/closing a run exactly per spec §4.3.
func scanOnePhase(startIdx, gnLength int, children []*tagtree.Node, n int, t float64, cache *similarity.Cache) *DataRegion {
	if startIdx >= n {
		return nil
	}

	var current *DataRegion
	continuing := false

	i := startIdx
	for i+2*gnLength <= n {
		gn1 := children[i : i+gnLength]
		gn2 := children[i+gnLength : i+2*gnLength]

		if cache.SequenceSimilar(gn1, gn2, t) {
			if !continuing {
				current = &DataRegion{GNLength: gnLength, StartIndex: i, NodeCount: 2 * gnLength}
				continuing = true
			} else {
				current.NodeCount += gnLength
			}
		} else {
			continuing = false
			if current != nil {
				break
			}
		}
		i += gnLength
	}
	return current
}

// considerCandidate applies spec §4.3's champion comparison rule. The
// first candidate seen becomes champion unconditionally.
func considerCandidate(champion, dr *DataRegion) *DataRegion {
	if champion == nil {
		cp := *dr
		return &cp
	}
	// (a) larger coverage, with a tie-break toward earlier regions.
	if dr.NodeCount > champion.NodeCount && (champion.StartIndex == 0 || dr.StartIndex <= champion.StartIndex) {
		cp := *dr
		return &cp
	}
	// (b) same coverage and start, prefer the finer (smaller) gn_length.
	if dr.NodeCount == champion.NodeCount && dr.StartIndex == champion.StartIndex && dr.GNLength < champion.GNLength {
		cp := *dr
		return &cp
	}
	return champion
}

// FindDRsRecursive implements spec §4.3's find_drs_recursive: for each
// node it runs IdentDRs at that level when it has grandchildren and at
// least two children, recurses into children, then propagates upward
// any region lists belonging to children that this node's own regions
// did not cover.
func FindDRsRecursive(node *tagtree.Node, k int, t float64, cache *similarity.Cache, opts Options, out RegionsMap) {
	out[node.XPath] = nil

	var nodeDRs []DataRegion
	if node.HasGrandchildren() && len(node.Children) >= 2 {
		nodeDRs = IdentDRs(0, node.Children, k, t, cache, opts)
		if len(nodeDRs) > 0 {
			out[node.XPath] = nodeDRs
			gologger.Debug().Msgf("mdr: found %d region(s) at %s", len(nodeDRs), node.XPath)
		}
	}

	var uncovered []DataRegion
	for idx, child := range node.Children {
		FindDRsRecursive(child, k, t, cache, opts, out)

		covered := false
		for _, dr := range nodeDRs {
			end := dr.StartIndex + dr.NodeCount - 1
			if idx >= dr.StartIndex && idx <= end {
				covered = true
				break
			}
		}
		if !covered {
			uncovered = append(uncovered, out[child.XPath]...)
		}
	}

	final := append(append([]DataRegion{}, nodeDRs...), uncovered...)
	if len(final) > 0 {
		out[node.XPath] = final
	}
}

// RunMDR is the package's top-level entry point: it runs
// FindDRsRecursive over the whole tree and returns only the non-empty
// entries, per spec §4.3's "every node with a non-empty region list
// becomes one RegionsMapItem".
func RunMDR(root *tagtree.Node, k int, t float64, cache *similarity.Cache, opts Options) RegionsMap {
	full := make(RegionsMap)
	FindDRsRecursive(root, k, t, cache, opts, full)

	out := make(RegionsMap, len(full))
	for xpath, drs := range full {
		if len(drs) > 0 {
			out[xpath] = drs
		}
	}
	return out
}
