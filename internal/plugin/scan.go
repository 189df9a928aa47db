package plugin

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IncludesOf returns the include files a plugin file needs, in declaration
// order and without duplicates. The file is only parsed, nothing is applied.
// Includes are declared by the "includes" key of a check_info entry or by a
// check_includes entry.
func IncludesOf(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, nil
	}

	var names []string
	seen := make(map[string]struct{})
	add := func(list *yaml.Node) {
		for _, el := range list.Content {
			if el.Kind != yaml.ScalarNode {
				continue
			}
			if _, ok := seen[el.Value]; !ok {
				seen[el.Value] = struct{}{}
				names = append(names, el.Value)
			}
		}
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]
		if value.Kind != yaml.MappingNode {
			continue
		}
		switch key.Value {
		case "check_info":
			for j := 0; j+1 < len(value.Content); j += 2 {
				decl := value.Content[j+1]
				if decl.Kind != yaml.MappingNode {
					continue
				}
				for k := 0; k+1 < len(decl.Content); k += 2 {
					if decl.Content[k].Value != "includes" {
						continue
					}
					list := decl.Content[k+1]
					if list.Kind != yaml.SequenceNode {
						return nil, fmt.Errorf("%s: includes must be a list of include file names, found %s",
							path, nodeKind(list))
					}
					add(list)
				}
			}
		case "check_includes":
			for j := 0; j+1 < len(value.Content); j += 2 {
				if list := value.Content[j+1]; list.Kind == yaml.SequenceNode {
					add(list)
				}
			}
		}
	}
	return names, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar " + n.Tag
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "sequence"
	}
}
