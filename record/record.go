// Package record implements the L4 record extractor: turning the
// RegionsMap produced by L3 into DataRecords (splitting multi-node
// regions column-wise when their internals are themselves similar,
// merging adjacent compatible regions), plus the orphan-recovery
// sweep. Grounded on packages/rust-mdr/src/record_extraction.rs.
package record

import (
	"fmt"
	"sort"

	"github.com/projectdiscovery/gologger"

	"github.com/projectdiscovery/mdr/region"
	"github.com/projectdiscovery/mdr/similarity"
	"github.com/projectdiscovery/mdr/tagtree"
)

// trTag is the row tag that suppresses the children-as-records split,
// per spec §4.4's "Special case — tr".
const trTag = "tr"

// Record is either a Single node or an ordered Multi-node group,
// preserving sibling order, per spec §3.
type Record interface {
	isRecord()
}

// Single is a one-node data record.
type Single struct {
	Node *tagtree.Node
}

func (Single) isRecord() {}

// XPaths returns the single node's xpath as a one-element slice, so
// callers can treat Single and Multi uniformly.
func (s Single) XPaths() []string { return []string{s.Node.XPath} }

// Multi is an ordered, ≥1-node data record.
type Multi struct {
	Nodes []*tagtree.Node
}

func (Multi) isRecord() {}

// XPaths returns the xpath of every node in the group, in order.
func (m Multi) XPaths() []string {
	paths := make([]string, len(m.Nodes))
	for i, n := range m.Nodes {
		paths[i] = n.XPath
	}
	return paths
}

// findRecords1 implements spec §4.4's find_records1 (gn_length == 1):
// if the node's children are all mutually similar and it is not a
// `tr`, each child becomes its own Single; otherwise the node itself
// is the Single.
func findRecords1(cache *similarity.Cache, g *tagtree.Node, t float64) []*tagtree.Node {
	if len(g.Children) > 0 && g.TagName != trTag && cache.AllSimilar(g.Children, t) {
		return g.Children
	}
	return []*tagtree.Node{g}
}

// splittable reports whether the component nodes in g all have the
// same non-zero child count, and each component's children are
// mutually similar — the shared precondition for column-wise record
// splitting used by both findRecordsN and the adjacent-region merge.
func splittable(cache *similarity.Cache, g []*tagtree.Node, t float64) (childCount int, ok bool) {
	if len(g) == 0 {
		return 0, false
	}
	childCount = len(g[0].Children)
	if childCount == 0 {
		return 0, false
	}
	for _, component := range g {
		if len(component.Children) != childCount {
			return 0, false
		}
		if !cache.AllSimilar(component.Children, t) {
			return 0, false
		}
	}
	return childCount, true
}

// columnRecords gathers the i-th child of every component in
// components into a Multi, for i in [0, childCount).
func columnRecords(components []*tagtree.Node, childCount int) []Record {
	records := make([]Record, 0, childCount)
	for i := 0; i < childCount; i++ {
		group := make([]*tagtree.Node, 0, len(components))
		for _, comp := range components {
			if i < len(comp.Children) {
				group = append(group, comp.Children[i])
			}
		}
		if len(group) > 0 {
			records = append(records, Multi{Nodes: group})
		}
	}
	return records
}

// findRecordsN implements spec §4.4's find_records_n (gn_length > 1):
// splittable components emit column-wise Multi records; otherwise the
// gn_length components themselves form one Multi record.
func findRecordsN(cache *similarity.Cache, g []*tagtree.Node, t float64) []Record {
	if len(g) == 0 {
		return nil
	}
	if childCount, ok := splittable(cache, g, t); ok {
		return columnRecords(g, childCount)
	}
	return []Record{Multi{Nodes: append([]*tagtree.Node{}, g...)}}
}

// boundedSlice returns children[start:start+n] only if it is fully in
// range, and ok=false otherwise. Regions propagated upward through a
// single-child ancestor (spec §4.3's "upward propagation of uncovered
// descendant regions") can carry indices that were only valid for
// their original owner's child list; rather than panic on such a
// region, extraction skips it.
func boundedSlice(children []*tagtree.Node, start, n int) ([]*tagtree.Node, bool) {
	if start < 0 || n < 0 || start+n > len(children) {
		return nil, false
	}
	return children[start : start+n], true
}

// ExtractRecords implements spec §4.4/§4.6's identify_records: for
// every parent in regions, walked in the tree's own left-to-right,
// depth-first order (spec §5's ordering guarantee — lexical xpath sort
// does not agree with document order once an ancestor has 10+
// children), it performs adjacent-region merging where applicable,
// then standard per-GN extraction, tracking processed region keys so a
// region consumed as the second half of a merge is not re-extracted.
func ExtractRecords(regions region.RegionsMap, t float64, tree *tagtree.Tree, cache *similarity.Cache) ([]Record, error) {
	var all []Record

	for _, parentXPath := range orderedParents(regions, tree) {
		parentNode, ok := tree.NodeByXPath(parentXPath)
		if !ok {
			continue
		}
		children := parentNode.Children

		sorted := append([]region.DataRegion{}, regions[parentXPath]...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartIndex < sorted[j].StartIndex })

		processed := map[string]bool{}

		for i, dr := range sorted {
			key := regionKey(parentXPath, dr.StartIndex)
			if processed[key] {
				continue
			}

			if i+1 < len(sorted) {
				next := sorted[i+1]
				if merged, ok := tryMerge(cache, children, dr, next, t); ok {
					all = append(all, merged...)
					processed[key] = true
					processed[regionKey(parentXPath, next.StartIndex)] = true
					continue
				}
			}

			all = append(all, extractStandard(cache, children, dr, t)...)
			processed[key] = true
		}
	}

	return all, nil
}

func regionKey(parentXPath string, startIdx int) string {
	return fmt.Sprintf("%s-%d", parentXPath, startIdx)
}

// orderedParents returns regions' keys in the tree's left-to-right,
// depth-first traversal order rather than lexical string order: a
// plain sort.Strings over xpaths like "/body/div[10]" and "/body/div[2]"
// would place the tenth child before the second.
func orderedParents(regions region.RegionsMap, tree *tagtree.Tree) []string {
	if tree == nil || tree.Root == nil {
		parents := make([]string, 0, len(regions))
		for p := range regions {
			parents = append(parents, p)
		}
		sort.Strings(parents)
		return parents
	}

	ordered := make([]string, 0, len(regions))
	for _, xpath := range tagtree.PreOrderXPaths(tree.Root) {
		if _, ok := regions[xpath]; ok {
			ordered = append(ordered, xpath)
		}
	}
	return ordered
}

// tryMerge implements spec §4.4's adjacent-region merge: applicable
// only when gn_length > 1, the next region has the same gn_length and
// starts exactly where this one ends, the first GN slices of each are
// sequence-similar, and both sides are splittable.
func tryMerge(cache *similarity.Cache, children []*tagtree.Node, a, b region.DataRegion, t float64) ([]Record, bool) {
	if a.GNLength <= 1 || a.GNLength != b.GNLength {
		return nil, false
	}
	if a.StartIndex+a.NodeCount != b.StartIndex {
		return nil, false
	}

	aGN, ok := boundedSlice(children, a.StartIndex, a.GNLength)
	if !ok || len(aGN) == 0 {
		return nil, false
	}
	bGN, ok := boundedSlice(children, b.StartIndex, b.GNLength)
	if !ok || len(bGN) == 0 {
		return nil, false
	}

	if !cache.SequenceSimilar(aGN, bGN, t) {
		return nil, false
	}

	if _, ok := splittable(cache, aGN, t); !ok {
		return nil, false
	}
	if _, ok := splittable(cache, bGN, t); !ok {
		return nil, false
	}

	components := append(append([]*tagtree.Node{}, aGN...), bGN...)
	childCount := len(components[0].Children)
	records := columnRecords(components, childCount)

	gologger.Debug().Msgf("mdr: merged adjacent regions at %d and %d into %d record(s)", a.StartIndex, b.StartIndex, len(records))
	return records, true
}

// extractStandard implements spec §4.4's per-GN standard extraction
// over one region.
func extractStandard(cache *similarity.Cache, children []*tagtree.Node, dr region.DataRegion, t float64) []Record {
	if dr.GNLength <= 0 {
		return nil
	}
	if _, ok := boundedSlice(children, dr.StartIndex, dr.NodeCount); !ok {
		return nil
	}
	numGNs := dr.NodeCount / dr.GNLength

	var out []Record
	for i := 0; i < numGNs; i++ {
		gnStart := dr.StartIndex + i*dr.GNLength
		components, ok := boundedSlice(children, gnStart, dr.GNLength)
		if !ok || len(components) == 0 {
			continue
		}

		if dr.GNLength == 1 {
			for _, n := range findRecords1(cache, components[0], t) {
				out = append(out, Single{Node: n})
			}
			continue
		}
		out = append(out, findRecordsN(cache, components, t)...)
	}
	return out
}
