package treeio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const jsonTree = `{
  "tag": "ul",
  "xpath": "/ul",
  "children": [
    {"tag": "li", "xpath": "/ul/li1"},
    {"tag": "li", "xpath": "/ul/li2"}
  ]
}`

const yamlTree = `
tag: ul
xpath: /ul
children:
  - tag: li
    xpath: /ul/li1
  - tag: li
    xpath: /ul/li2
`

func TestLoadJSON(t *testing.T) {
	root, err := LoadJSON([]byte(jsonTree))
	require.NoError(t, err)
	require.Equal(t, "ul", root.TagName)
	require.Len(t, root.Children, 2)
	require.Equal(t, "/ul/li1", root.Children[0].XPath)
}

func TestLoadYAML(t *testing.T) {
	root, err := LoadYAML([]byte(yamlTree))
	require.NoError(t, err)
	require.Equal(t, "ul", root.TagName)
	require.Len(t, root.Children, 2)
}

func TestLoadJSONAndYAMLProduceEquivalentTrees(t *testing.T) {
	jsonRoot, err := LoadJSON([]byte(jsonTree))
	require.NoError(t, err)
	yamlRoot, err := LoadYAML([]byte(yamlTree))
	require.NoError(t, err)

	require.Equal(t, jsonRoot.Flatten(), yamlRoot.Flatten())
}

func TestLoadFileMissingFile(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/tree.json")
	require.Error(t, err)
}

func TestLoadJSONMalformed(t *testing.T) {
	_, err := LoadJSON([]byte("not json"))
	require.Error(t, err)
}
