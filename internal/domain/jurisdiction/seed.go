package jurisdiction

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Node is one entry of a jurisdiction hierarchy file:
//
//	USA:
//	  State 1:
//	    County 1:
//	  State 2:
type Node struct {
	Name     string
	Children []Node
}

// ParseTree reads a hierarchy file, keeping the order of the document.
func ParseTree(r io.Reader) ([]Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode jurisdiction file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return parseLevel(doc.Content[0])
}

func parseLevel(n *yaml.Node) ([]Node, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return nil, fmt.Errorf("line %d: expected a mapping of jurisdiction names", n.Line)
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("line %d: expected a mapping of jurisdiction names", n.Line)
	}
	var out []Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.Value == "" {
			return nil, fmt.Errorf("line %d: jurisdiction name is empty", key.Line)
		}
		children, err := parseLevel(val)
		if err != nil {
			return nil, err
		}
		out = append(out, Node{Name: key.Value, Children: children})
	}
	return out, nil
}

// Seed creates every jurisdiction in nodes, reusing rows whose path already
// exists. It returns the number of jurisdictions written.
func Seed(ctx context.Context, repo Repository, nodes []Node) (int, error) {
	return seed(ctx, repo, nil, nodes)
}

func seed(ctx context.Context, repo Repository, parent *Jurisdiction, nodes []Node) (int, error) {
	count := 0
	for _, n := range nodes {
		j := &Jurisdiction{Name: n.Name, Path: n.Name}
		if parent != nil {
			anc := parent.ChildAncestry()
			j.Ancestry = &anc
			j.Path = JoinPath(parent.Path, n.Name)
		}
		if err := repo.Create(ctx, j); err != nil {
			return count, fmt.Errorf("create jurisdiction %q: %w", j.Path, err)
		}
		count++
		c, err := seed(ctx, repo, j, n.Children)
		count += c
		if err != nil {
			return count, err
		}
	}
	return count, nil
}
