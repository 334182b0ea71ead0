package properties

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML renders groups as ordered mappings and attaches descriptions
// as line comments.
func (n *Node) MarshalYAML() (interface{}, error) {
	return n.yamlNode()
}

func (n *Node) yamlNode() (*yaml.Node, error) {
	switch n.Type {
	case TypeGroup:
		return membersNode(n.Children)
	case TypeGroupArray:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range n.Items {
			var child *yaml.Node
			var err error
			if members, ok := item.([]*Node); ok {
				child, err = membersNode(members)
			} else {
				child, err = encode(item)
			}
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, child)
		}
		return seq, nil
	case TypeUnsupported:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	default:
		return encode(n.Value())
	}
}

func membersNode(members []*Node) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range members {
		val, err := c.yamlNode()
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", c.Name, err)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: c.Name}
		if c.Description != nil {
			if val.Kind == yaml.ScalarNode {
				val.LineComment = *c.Description
			} else {
				key.LineComment = *c.Description
			}
		}
		m.Content = append(m.Content, key, val)
	}
	return m, nil
}

func encode(v any) (*yaml.Node, error) {
	var out yaml.Node
	if err := out.Encode(v); err != nil {
		return nil, err
	}
	return &out, nil
}
