// Package tagtree implements the L0 tag tree model and the L1 subtree
// serializer described by the MDR engine: an immutable, rooted tree of
// tagged nodes with a stable xpath and a lazily computed, memoized
// structural flattening used by the similarity engine.
package tagtree

import (
	"strings"
	"sync"
	"sync/atomic"
)

// TextTag is the reserved tag name for text pseudo-nodes.
const TextTag = "text"

// Node is a single element of a tag tree. Nodes are built once by the
// caller (or by internal/treeio for the CLI) and are not mutated once
// handed to the similarity, region or record packages; AddChild exists
// purely as a construction convenience.
type Node struct {
	TagName  string
	Children []*Node
	RawText  string
	XPath    string

	flattened atomic.Pointer[string]
}

// NewNode creates an empty node with the given tag name and xpath.
func NewNode(tagName, xpath string) *Node {
	return &Node{TagName: tagName, XPath: xpath}
}

// AddChild appends a child node. Construction-time only.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// IsText reports whether n is a text pseudo-node.
func (n *Node) IsText() bool {
	return n.TagName == TextTag
}

// HasGrandchildren reports whether any direct child of n itself has
// children, the precondition §4.3 requires before a node is a region
// candidate.
func (n *Node) HasGrandchildren() bool {
	for _, c := range n.Children {
		if len(c.Children) > 0 {
			return true
		}
	}
	return false
}

// Flatten returns the canonical structural serialization of the
// subtree rooted at n, per spec §4.1:
//   - a non-empty, trimmed text node emits nothing (text content is
//     elided so structural similarity dominates);
//   - otherwise "<tag>" + flatten(children) + "</tag>", except text
//     nodes never emit a closing tag.
//
// The result is cached on the node; concurrent first computations are
// safe to race because the computed string is a pure function of the
// (immutable) subtree, so a duplicate computation is simply discarded.
func (n *Node) Flatten() string {
	if cached := n.flattened.Load(); cached != nil {
		return *cached
	}
	var sb strings.Builder
	sb.Grow(128)
	flattenInto(&sb, n)
	s := sb.String()
	n.flattened.CompareAndSwap(nil, &s)
	// another goroutine may have published first; return whichever
	// won, they are guaranteed to be equal.
	if cached := n.flattened.Load(); cached != nil {
		return *cached
	}
	return s
}

func flattenInto(sb *strings.Builder, n *Node) {
	if n.IsText() && strings.TrimSpace(n.RawText) != "" {
		return
	}
	sb.WriteByte('<')
	sb.WriteString(n.TagName)
	sb.WriteByte('>')
	for _, c := range n.Children {
		flattenInto(sb, c)
	}
	if !n.IsText() {
		sb.WriteString("</")
		sb.WriteString(n.TagName)
		sb.WriteByte('>')
	}
}

// FlattenWithXPath is a debug-only flattener that includes each node's
// xpath and raw text. It is never used by the similarity engine and is
// not cached; it exists for inspecting a tree during development, per
// spec §4.1's "second flattener ... provided for debugging".
func FlattenWithXPath(n *Node) string {
	var sb strings.Builder
	sb.Grow(256)
	flattenWithXPathInto(&sb, n)
	return sb.String()
}

func flattenWithXPathInto(sb *strings.Builder, n *Node) {
	sb.WriteByte('<')
	sb.WriteString(n.TagName)
	sb.WriteString(` xpath="`)
	sb.WriteString(n.XPath)
	sb.WriteString(`">`)
	sb.WriteString(n.RawText)
	for _, c := range n.Children {
		flattenWithXPathInto(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(n.TagName)
	sb.WriteByte('>')
}

// Tree wraps a root node together with a lazily built xpath → *Node
// index, used in place of parent/back pointers on Node itself so that
// the core never needs cyclic ownership to resolve an xpath back to a
// node (spec §9's "Cyclic ownership risk").
type Tree struct {
	Root *Node

	once  sync.Once
	index map[string]*Node
}

// NewTree wraps root into a Tree.
func NewTree(root *Node) *Tree {
	return &Tree{Root: root}
}

// NodeByXPath resolves an xpath to its node via the tree's index,
// built on first use.
func (t *Tree) NodeByXPath(xpath string) (*Node, bool) {
	t.once.Do(t.buildIndex)
	n, ok := t.index[xpath]
	return n, ok
}

func (t *Tree) buildIndex() {
	t.index = make(map[string]*Node)
	if t.Root == nil {
		return
	}
	var walk func(n *Node)
	walk = func(n *Node) {
		t.index[n.XPath] = n
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
}

// PreOrderXPaths returns the xpath of every node in the subtree rooted
// at n, in left-to-right, depth-first (document) order. Used wherever
// a caller must walk a set of xpaths in document order rather than
// lexical string order, per spec §5's ordering guarantee.
func PreOrderXPaths(n *Node) []string {
	if n == nil {
		return nil
	}
	paths := make([]string, 0, CountNodes(n))
	var walk func(*Node)
	walk = func(cur *Node) {
		paths = append(paths, cur.XPath)
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return paths
}

// CountNodes returns the number of nodes in the subtree rooted at n.
func CountNodes(n *Node) int {
	count := 1
	for _, c := range n.Children {
		count += CountNodes(c)
	}
	return count
}

// Depth returns the height of the subtree rooted at n (a leaf has
// depth 1).
func Depth(n *Node) int {
	if len(n.Children) == 0 {
		return 1
	}
	max := 0
	for _, c := range n.Children {
		if d := Depth(c); d > max {
			max = d
		}
	}
	return 1 + max
}
