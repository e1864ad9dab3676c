package yamlpatch

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ToolsSequence returns the sequence node under the top-level "tools" key, creating it when absent.
func ToolsSequence(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping at the top of the config, found %s", kindName(doc.Kind))
	}

	if value := mappingValue(doc, "tools"); value != nil {
		switch {
		case value.Kind == yaml.SequenceNode:
			return value, nil
		case value.Tag == "!!null":
			// "tools:" with no entries
			value.Kind = yaml.SequenceNode
			value.Tag = "!!seq"
			value.Value = ""
			return value, nil
		}
		return nil, fmt.Errorf("expected 'tools' to be a list, found %s", kindName(value.Kind))
	}

	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	doc.Content = append(doc.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "tools"},
		seq,
	)
	return seq, nil
}

// ToolNode returns the mapping node of the tool with the given name (nil if not configured).
func ToolNode(tools *yaml.Node, name string) *yaml.Node {
	for _, item := range tools.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		if n := mappingValue(item, "name"); n != nil && n.Value == name {
			return item
		}
	}
	return nil
}

// SetVersionWant sets tool.version.want, adding the version mapping if the tool has none.
func SetVersionWant(toolNode *yaml.Node, want string) {
	version := mappingValue(toolNode, "version")
	if version == nil || version.Kind != yaml.MappingNode {
		newVersion := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if version != nil {
			*version = *newVersion
		} else {
			version = newVersion
			toolNode.Content = append(toolNode.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "version"},
				version,
			)
		}
	}

	if wantNode := mappingValue(version, "want"); wantNode != nil {
		wantNode.Value = want
		return
	}

	version.Content = append(version.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "want"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: want},
	)
}

// Node encodes any value into a yaml node (the content of the returned document node).
func Node(v any) (*yaml.Node, error) {
	by, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}

	var n yaml.Node
	if err := yaml.Unmarshal(by, &n); err != nil {
		return nil, err
	}

	if len(n.Content) != 1 {
		return nil, fmt.Errorf("unable to encode %T as a single yaml node", v)
	}
	return n.Content[0], nil
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	// mapping content alternates key, value
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "a document"
	case yaml.SequenceNode:
		return "a list"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	}
	return "nothing"
}
