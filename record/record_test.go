package record

import (
	"testing"

	"github.com/projectdiscovery/mdr/region"
	"github.com/projectdiscovery/mdr/similarity"
	"github.com/projectdiscovery/mdr/tagtree"
	"github.com/stretchr/testify/require"
)

func leaf(tag, xpath string) *tagtree.Node {
	return &tagtree.Node{TagName: tag, XPath: xpath}
}

func TestFindRecords1SplitsSimilarChildren(t *testing.T) {
	cache := similarity.NewCache()
	ul := &tagtree.Node{TagName: "ul", XPath: "/ul", Children: []*tagtree.Node{
		leaf("li", "/ul/li1"),
		leaf("li", "/ul/li2"),
	}}
	records := findRecords1(cache, ul, 0.3)
	require.Len(t, records, 2)
}

func TestFindRecords1KeepsTrTagWhole(t *testing.T) {
	cache := similarity.NewCache()
	tr := &tagtree.Node{TagName: "tr", XPath: "/tr", Children: []*tagtree.Node{
		leaf("td", "/tr/td1"),
		leaf("td", "/tr/td2"),
	}}
	records := findRecords1(cache, tr, 0.3)
	require.Len(t, records, 1)
	require.Same(t, tr, records[0])
}

func TestFindRecords1NoChildrenKeepsNodeWhole(t *testing.T) {
	cache := similarity.NewCache()
	n := leaf("img", "/img")
	records := findRecords1(cache, n, 0.3)
	require.Equal(t, []*tagtree.Node{n}, records)
}

func divWithCols(xpath string, cols int) *tagtree.Node {
	n := &tagtree.Node{TagName: "div", XPath: xpath}
	for i := 0; i < cols; i++ {
		n.Children = append(n.Children, leaf("span", xpath+"/span"))
	}
	return n
}

func TestFindRecordsNColumnSplit(t *testing.T) {
	cache := similarity.NewCache()
	g := []*tagtree.Node{divWithCols("/a", 2), divWithCols("/b", 2)}
	records := findRecordsN(cache, g, 0.3)
	require.Len(t, records, 2)
	for _, r := range records {
		m, ok := r.(Multi)
		require.True(t, ok)
		require.Len(t, m.Nodes, 2)
	}
}

func TestFindRecordsNNotSplittableKeepsWhole(t *testing.T) {
	cache := similarity.NewCache()
	g := []*tagtree.Node{divWithCols("/a", 1), divWithCols("/b", 2)}
	records := findRecordsN(cache, g, 0.3)
	require.Len(t, records, 1)
	m, ok := records[0].(Multi)
	require.True(t, ok)
	require.Len(t, m.Nodes, 2)
}

func buildTreeWithRegion() (*tagtree.Tree, region.RegionsMap) {
	li1 := leaf("li", "/ul/li1")
	li2 := leaf("li", "/ul/li2")
	root := &tagtree.Node{TagName: "ul", XPath: "/ul", Children: []*tagtree.Node{li1, li2}}
	tree := tagtree.NewTree(root)
	regions := region.RegionsMap{
		"/ul": {{GNLength: 1, StartIndex: 0, NodeCount: 2}},
	}
	return tree, regions
}

func TestExtractRecordsStandardSingleGN(t *testing.T) {
	tree, regions := buildTreeWithRegion()
	cache := similarity.NewCache()
	records, err := ExtractRecords(regions, 0.3, tree, cache)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		_, ok := r.(Single)
		require.True(t, ok)
	}
}

func TestExtractRecordsSkipsOutOfBoundsRegion(t *testing.T) {
	li1 := leaf("li", "/ul/li1")
	root := &tagtree.Node{TagName: "ul", XPath: "/ul", Children: []*tagtree.Node{li1}}
	tree := tagtree.NewTree(root)
	// a region claiming 2 nodes starting at 0, but the parent has only 1 child
	regions := region.RegionsMap{
		"/ul": {{GNLength: 1, StartIndex: 0, NodeCount: 2}},
	}
	cache := similarity.NewCache()
	records, err := ExtractRecords(regions, 0.3, tree, cache)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestExtractRecordsUnknownParentXPathSkipped(t *testing.T) {
	root := leaf("html", "/html")
	tree := tagtree.NewTree(root)
	regions := region.RegionsMap{
		"/missing": {{GNLength: 1, StartIndex: 0, NodeCount: 2}},
	}
	cache := similarity.NewCache()
	records, err := ExtractRecords(regions, 0.3, tree, cache)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestExtractRecordsDoesNotMergeSingleNodeGNs(t *testing.T) {
	// gn_length == 1 never reaches tryMerge's real branch (record.go's
	// short-circuit on a.GNLength <= 1), so two adjacent single-node
	// regions must fall through to standard per-GN extraction instead.
	var children []*tagtree.Node
	for i := 0; i < 4; i++ {
		children = append(children, divWithCols("/root/row", 2))
	}
	root := &tagtree.Node{TagName: "div", XPath: "/root", Children: children}
	tree := tagtree.NewTree(root)
	regions := region.RegionsMap{
		"/root": {
			{GNLength: 1, StartIndex: 0, NodeCount: 2},
			{GNLength: 1, StartIndex: 2, NodeCount: 2},
		},
	}
	cache := similarity.NewCache()
	records, err := ExtractRecords(regions, 0.3, tree, cache)
	require.NoError(t, err)
	// standard extraction of four gn_length:1 "row" nodes, each splitting
	// into its 2 span children, none of them a tr.
	require.Len(t, records, 8)
	for _, r := range records {
		_, ok := r.(Single)
		require.True(t, ok)
	}
}

// TestExtractRecordsMergesAdjacentGNLength2Regions is the genuine
// spec §4.4/S6 adjacent-region merge: two gn_length:2 regions, each
// one generalized node of two similar "row" components, sitting back
// to back. tryMerge should fuse them into column-wise Multi records
// spanning all four rows.
func TestExtractRecordsMergesAdjacentGNLength2Regions(t *testing.T) {
	var rows []*tagtree.Node
	for i := 0; i < 4; i++ {
		rows = append(rows, divWithCols("/root/row", 2))
	}
	root := &tagtree.Node{TagName: "div", XPath: "/root", Children: rows}
	tree := tagtree.NewTree(root)
	regions := region.RegionsMap{
		"/root": {
			{GNLength: 2, StartIndex: 0, NodeCount: 2},
			{GNLength: 2, StartIndex: 2, NodeCount: 2},
		},
	}
	cache := similarity.NewCache()
	records, err := ExtractRecords(regions, 0.3, tree, cache)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		m, ok := r.(Multi)
		require.True(t, ok)
		require.Len(t, m.Nodes, 4)
	}
	// column 0 gathers the first span of every row, in row order.
	first, ok := records[0].(Multi)
	require.True(t, ok)
	require.Same(t, rows[0].Children[0], first.Nodes[0])
	require.Same(t, rows[1].Children[0], first.Nodes[1])
	require.Same(t, rows[2].Children[0], first.Nodes[2])
	require.Same(t, rows[3].Children[0], first.Nodes[3])
}

func TestRegionKeyDistinctForDifferentStarts(t *testing.T) {
	require.NotEqual(t, regionKey("/a", 0), regionKey("/a", 1))
	require.Equal(t, regionKey("/a", 0), regionKey("/a", 0))
}

func TestBoundedSliceRejectsOutOfRange(t *testing.T) {
	children := []*tagtree.Node{leaf("a", "/a"), leaf("b", "/b")}
	_, ok := boundedSlice(children, 1, 2)
	require.False(t, ok)
	s, ok := boundedSlice(children, 0, 2)
	require.True(t, ok)
	require.Len(t, s, 2)
}
