package record

import (
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/mdr/region"
	"github.com/projectdiscovery/mdr/similarity"
	"github.com/projectdiscovery/mdr/tagtree"
)

// FindOrphans implements spec §4.5's orphan recovery sweep, matching
// record_extraction.rs's find_orphan_records: per region_item (i.e. per
// parent xpath, independently of every other parent — two unrelated
// regions on the same page must never cross-pollinate exemplars), the
// representative is the first node of that parent's own first region's
// first generalized node. Every child not covered by any of that
// parent's regions is tested two ways against the representative: each
// of the orphan's own children first (catching a wrapper that doesn't
// match but whose content does), then the orphan node itself.
func FindOrphans(regions region.RegionsMap, t float64, tree *tagtree.Tree, cache *similarity.Cache) []*tagtree.Node {
	var orphans []*tagtree.Node

	for parentXPath, drs := range regions {
		if len(drs) == 0 {
			continue
		}
		parentNode, ok := tree.NodeByXPath(parentXPath)
		if !ok {
			continue
		}
		children := parentNode.Children

		covered := coveredIndices(drs)
		var orphanIndices []int
		for idx := range children {
			if !covered[idx] {
				orphanIndices = append(orphanIndices, idx)
			}
		}
		if len(orphanIndices) == 0 {
			continue
		}

		repr := drs[0]
		representativeGN, ok := boundedSlice(children, repr.StartIndex, repr.GNLength)
		if !ok || len(representativeGN) == 0 {
			continue
		}
		representative := representativeGN[0]
		if !nonEmptyFlatten(representative) {
			continue
		}

		for _, orphanIdx := range orphanIndices {
			orphanNode := children[orphanIdx]

			for _, orphanChild := range orphanNode.Children {
				if similarNonEmpty(cache, orphanChild, representative, t) {
					orphans = append(orphans, orphanChild)
					gologger.Debug().Msgf("mdr: recovered orphan child at %s", orphanChild.XPath)
				}
			}

			if similarNonEmpty(cache, orphanNode, representative, t) {
				orphans = append(orphans, orphanNode)
				gologger.Debug().Msgf("mdr: recovered orphan at %s", orphanNode.XPath)
			}
		}
	}
	return orphans
}

// nonEmptyFlatten reports whether n's structural serialization is
// non-empty, per spec §4.5's "skip if empty" guard: two pseudo-nodes
// that both flatten to "" would otherwise register D==0 and spuriously
// match.
func nonEmptyFlatten(n *tagtree.Node) bool {
	return n.Flatten() != ""
}

// similarNonEmpty applies the §4.5 empty-serialization guard to both
// sides before comparing, then delegates to Cache.Similar.
func similarNonEmpty(cache *similarity.Cache, candidate, representative *tagtree.Node, t float64) bool {
	if !nonEmptyFlatten(candidate) || !nonEmptyFlatten(representative) {
		return false
	}
	return cache.Similar(candidate, representative, t)
}

func coveredIndices(drs []region.DataRegion) map[int]bool {
	covered := make(map[int]bool)
	for _, dr := range drs {
		for i := dr.StartIndex; i < dr.StartIndex+dr.NodeCount; i++ {
			covered[i] = true
		}
	}
	return covered
}
