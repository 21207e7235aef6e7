// Package treeio loads a tagtree.Node from a JSON or YAML file. It is
// CLI-only glue: the core (tagtree/similarity/region/record and the
// mdr façade) never imports it, since the spec treats tag-tree
// construction as an out-of-scope upstream parser's job.
package treeio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goccyyaml "github.com/goccy/go-yaml"
	fileutil "github.com/projectdiscovery/utils/file"

	"github.com/projectdiscovery/mdr/tagtree"
)

// nodeDTO mirrors tagtree.Node's shape for (de)serialization, decoupling
// the wire format from the in-memory type so the core type can stay
// free of struct tags.
type nodeDTO struct {
	Tag      string    `json:"tag" yaml:"tag"`
	Text     string    `json:"text,omitempty" yaml:"text,omitempty"`
	XPath    string    `json:"xpath" yaml:"xpath"`
	Children []nodeDTO `json:"children,omitempty" yaml:"children,omitempty"`
}

func (d nodeDTO) toNode() *tagtree.Node {
	n := &tagtree.Node{TagName: d.Tag, RawText: d.Text, XPath: d.XPath}
	for _, c := range d.Children {
		n.AddChild(c.toNode())
	}
	return n
}

// LoadFile reads a tag tree from path, dispatching on extension: .yml
// and .yaml decode with goccy/go-yaml, everything else is treated as
// JSON.
func LoadFile(path string) (*tagtree.Node, error) {
	if !fileutil.FileExists(path) {
		return nil, fmt.Errorf("treeio: input file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("treeio: reading %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		return LoadYAML(data)
	default:
		return LoadJSON(data)
	}
}

// LoadJSON decodes a tag tree from JSON bytes.
func LoadJSON(data []byte) (*tagtree.Node, error) {
	var dto nodeDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("treeio: decoding json: %w", err)
	}
	return dto.toNode(), nil
}

// LoadYAML decodes a tag tree from YAML bytes.
func LoadYAML(data []byte) (*tagtree.Node, error) {
	var dto nodeDTO
	if err := goccyyaml.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("treeio: decoding yaml: %w", err)
	}
	return dto.toNode(), nil
}
