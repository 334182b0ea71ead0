package properties

import "strings"

// MetadataKey names the group child that carries UI metadata for its
// siblings.
const MetadataKey = "_RNA_UI"

// descriptionKey is the metadata entry lifted into Node.Description. It is
// matched without regard to case.
const descriptionKey = "description"

// PostProcess removes every metadata child from the tree and attaches the
// descriptions it held to the siblings they describe. It modifies root in
// place and returns it.
func PostProcess(root *Node) *Node {
	if root == nil {
		return nil
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.Type {
		case TypeGroup:
			n.Children = mergeMetadata(n.Children)
			stack = append(stack, n.Children...)
		case TypeGroupArray:
			for i, item := range n.Items {
				if members, ok := item.([]*Node); ok {
					members = mergeMetadata(members)
					n.Items[i] = members
					stack = append(stack, members...)
				}
			}
		}
	}
	return root
}

// mergeMetadata folds the metadata member of a group into its siblings.
func mergeMetadata(members []*Node) []*Node {
	idx := -1
	for i, m := range members {
		if m.Name == MetadataKey {
			idx = i
			break
		}
	}
	if idx < 0 {
		return members
	}

	meta := members[idx]
	out := make([]*Node, 0, len(members)-1)
	for i, m := range members {
		if i != idx && m.Name != MetadataKey {
			out = append(out, m)
		}
	}

	if meta.Type != TypeGroup {
		return out
	}
	for _, entry := range meta.Children {
		if entry.Type != TypeGroup {
			continue
		}
		desc := description(entry)
		if desc == nil {
			continue
		}
		for _, sibling := range out {
			if sibling.Name == entry.Name {
				text := desc.Str
				sibling.Description = &text
			}
		}
	}
	return out
}

func description(entry *Node) *Node {
	for _, c := range entry.Children {
		if c.Type == TypeString && strings.EqualFold(c.Name, descriptionKey) {
			return c
		}
	}
	return nil
}
