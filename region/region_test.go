package region

import (
	"testing"

	"github.com/projectdiscovery/mdr/similarity"
	"github.com/projectdiscovery/mdr/tagtree"
	"github.com/stretchr/testify/require"
)

func leaf(tag, xpath string) *tagtree.Node {
	return &tagtree.Node{TagName: tag, XPath: xpath}
}

func divWithSpan(xpath string) *tagtree.Node {
	return &tagtree.Node{
		TagName: "div",
		XPath:   xpath,
		Children: []*tagtree.Node{
			leaf("span", xpath+"/span"),
		},
	}
}

func TestIdentDRsTwoIdenticalSiblings(t *testing.T) {
	children := []*tagtree.Node{divWithSpan("/root/div[1]"), divWithSpan("/root/div[2]")}
	drs := IdentDRs(0, children, 2, 0.3, similarity.NewCache(), Options{})

	require.Len(t, drs, 1)
	require.Equal(t, DataRegion{GNLength: 1, StartIndex: 0, NodeCount: 2}, drs[0])
}

func TestIdentDRsAlternatingPatternPrefersLargerGN(t *testing.T) {
	a := func(xp string) *tagtree.Node {
		return &tagtree.Node{TagName: "a", XPath: xp, Children: []*tagtree.Node{leaf("span", xp+"/s")}}
	}
	b := func(xp string) *tagtree.Node {
		return &tagtree.Node{TagName: "b", XPath: xp, Children: []*tagtree.Node{leaf("em", xp+"/e")}}
	}
	children := []*tagtree.Node{a("/0"), b("/1"), a("/2"), b("/3"), a("/4"), b("/5")}

	drs := IdentDRs(0, children, 2, 0.3, similarity.NewCache(), Options{})
	require.Len(t, drs, 1)
	require.Equal(t, 2, drs[0].GNLength)
	require.Equal(t, 0, drs[0].StartIndex)
	require.Equal(t, 6, drs[0].NodeCount)
}

func TestIdentDRsNonOverlapAndAlignment(t *testing.T) {
	var children []*tagtree.Node
	for i := 0; i < 9; i++ {
		children = append(children, divWithSpan("/root/div"))
	}
	// one odd one out breaks the run into two regions
	children[4] = leaf("hr", "/root/hr")

	drs := IdentDRs(0, children, 3, 0.3, similarity.NewCache(), Options{})
	for i := 1; i < len(drs); i++ {
		require.LessOrEqual(t, drs[i-1].StartIndex+drs[i-1].NodeCount, drs[i].StartIndex)
	}
	for _, dr := range drs {
		require.Zero(t, dr.NodeCount%dr.GNLength)
		require.GreaterOrEqual(t, dr.NodeCount, 2*dr.GNLength)
		require.LessOrEqual(t, dr.StartIndex+dr.NodeCount, len(children))
	}
}

func TestIdentDRsTieBreakPrefersSmallerGNLength(t *testing.T) {
	champion := &DataRegion{GNLength: 2, StartIndex: 0, NodeCount: 4}
	candidate := &DataRegion{GNLength: 1, StartIndex: 0, NodeCount: 4}

	result := considerCandidate(champion, candidate)
	require.Equal(t, 1, result.GNLength)
}

func TestIdentDRsDeterministicParallelVsSequential(t *testing.T) {
	var children []*tagtree.Node
	for i := 0; i < 12; i++ {
		children = append(children, divWithSpan("/root/div"))
	}

	seq := IdentDRs(0, children, 4, 0.3, similarity.NewCache(), Options{Parallel: false})
	par := IdentDRs(0, children, 4, 0.3, similarity.NewCache(), Options{Parallel: true})
	require.Equal(t, seq, par)
}

func TestFindDRsRecursiveEmptyTree(t *testing.T) {
	root := leaf("html", "/html")
	out := RunMDR(root, 10, 0.3, similarity.NewCache(), Options{})
	require.Empty(t, out)
}

func TestFindDRsRecursiveRequiresGrandchildren(t *testing.T) {
	// two children but no grandchildren: should not be treated as a
	// region candidate.
	root := &tagtree.Node{
		TagName: "ul",
		XPath:   "/ul",
		Children: []*tagtree.Node{
			leaf("li", "/ul/li1"),
			leaf("li", "/ul/li2"),
		},
	}
	out := RunMDR(root, 10, 0.3, similarity.NewCache(), Options{})
	require.Empty(t, out)
}

func TestFindDRsRecursivePropagatesUncoveredChildRegions(t *testing.T) {
	// /root/section has its own internal region (two identical li's);
	// /root has only one other child, so no region opens at /root, but
	// /root must still report the uncovered child's region.
	li1 := leaf("li", "/root/section/ul/li1")
	li2 := leaf("li", "/root/section/ul/li2")
	ul := &tagtree.Node{TagName: "ul", XPath: "/root/section/ul", Children: []*tagtree.Node{
		{TagName: "div", XPath: "/root/section/ul/li1", Children: []*tagtree.Node{li1}},
		{TagName: "div", XPath: "/root/section/ul/li2", Children: []*tagtree.Node{li2}},
	}}
	section := &tagtree.Node{TagName: "section", XPath: "/root/section", Children: []*tagtree.Node{ul}}
	aside := leaf("aside", "/root/aside")
	root := &tagtree.Node{TagName: "root", XPath: "/root", Children: []*tagtree.Node{section, aside}}

	out := RunMDR(root, 10, 0.3, similarity.NewCache(), Options{})
	require.Contains(t, out, "/root/section/ul")
	require.Contains(t, out, "/root")
}
