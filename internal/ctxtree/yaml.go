package ctxtree

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const mergeTag = "!!merge"

// ParseYAML decodes a YAML document into a node in n's scope. Mapping order is
// preserved. An empty document yields a nil scalar.
func (n *Node) ParseYAML(src []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	return n.DecodeYAML(&doc)
}

// DecodeYAML converts a parsed YAML node into a node in n's scope.
func (n *Node) DecodeYAML(y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case 0:
		return n.NewScalar(nil), nil
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return n.NewScalar(nil), nil
		}
		return n.DecodeYAML(y.Content[0])
	case yaml.AliasNode:
		return n.DecodeYAML(y.Alias)
	case yaml.MappingNode:
		m := n.NewData()
		if err := m.decodeMapping(y); err != nil {
			return nil, err
		}
		return m, nil
	case yaml.SequenceNode:
		items := make([]*Node, 0, len(y.Content))
		for _, c := range y.Content {
			item, err := n.DecodeYAML(c)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return n.NewSequence(items), nil
	case yaml.ScalarNode:
		var v any
		if err := y.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return n.NewScalar(v), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", y.Line, y.Kind)
	}
}

// decodeMapping sets explicit keys in document order, then fills in keys from
// merge ("<<") sources that were not set explicitly.
func (n *Node) decodeMapping(y *yaml.Node) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(y.Content); i += 2 {
		k, v := y.Content[i], y.Content[i+1]
		if isMergeKey(k) {
			merges = append(merges, v)
			continue
		}
		child, err := n.DecodeYAML(v)
		if err != nil {
			return err
		}
		if err := n.insert(k.Value, child); err != nil {
			return fmt.Errorf("line %d: %w", k.Line, err)
		}
	}
	for _, m := range merges {
		if err := n.mergeYAML(m); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) mergeYAML(y *yaml.Node) error {
	if y.Kind == yaml.AliasNode {
		y = y.Alias
	}
	switch y.Kind {
	case yaml.SequenceNode:
		for _, c := range y.Content {
			if err := n.mergeYAML(c); err != nil {
				return err
			}
		}
		return nil
	case yaml.MappingNode:
		src := n.NewData()
		if err := src.decodeMapping(y); err != nil {
			return err
		}
		for _, k := range src.keys {
			if _, exists := n.entries[k]; exists {
				continue
			}
			if err := n.insert(k, src.entries[k]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: merge value must be a mapping", y.Line)
	}
}

func isMergeKey(k *yaml.Node) bool {
	if k.Kind != yaml.ScalarNode {
		return false
	}
	return k.Tag == mergeTag || (k.Tag == "" && k.Value == "<<")
}
