// Package properties parses custom property trees attached to file records
// into typed nodes and folds their UI metadata into descriptions.
package properties

import "fmt"

// Type is the variant of a property node.
type Type int

// Property node types.
const (
	TypeUnsupported Type = iota
	TypeString
	TypeInt
	TypeFloat
	TypeDouble
	TypeIntArray
	TypeFloatArray
	TypeDoubleArray
	TypeGroup
	TypeGroupArray
)

// String returns a human-readable type name.
func (t Type) String() string {
	switch t {
	case TypeUnsupported:
		return "Unsupported"
	case TypeString:
		return "String"
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	case TypeIntArray:
		return "IntArray"
	case TypeFloatArray:
		return "FloatArray"
	case TypeDoubleArray:
		return "DoubleArray"
	case TypeGroup:
		return "Group"
	case TypeGroupArray:
		return "GroupArray"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Node is one property. Only the field matching Type is meaningful.
type Node struct {
	Name        string
	Type        Type
	Description *string

	Str     string
	Int     int32
	Float   float32
	Double  float64
	Ints    []int32
	Floats  []float32
	Doubles []float64

	// Children holds the members of a Group.
	Children []*Node
	// Items holds the values of a GroupArray's elements.
	Items []any
}

// Value returns the node's value as a plain Go value. Groups return their
// children, group arrays their item values, unsupported nodes nil.
func (n *Node) Value() any {
	switch n.Type {
	case TypeString:
		return n.Str
	case TypeInt:
		return n.Int
	case TypeFloat:
		return n.Float
	case TypeDouble:
		return n.Double
	case TypeIntArray:
		return n.Ints
	case TypeFloatArray:
		return n.Floats
	case TypeDoubleArray:
		return n.Doubles
	case TypeGroup:
		return n.Children
	case TypeGroupArray:
		return n.Items
	default:
		return nil
	}
}

// IsScalar reports whether the node holds a single string or number.
func (n *Node) IsScalar() bool {
	switch n.Type {
	case TypeString, TypeInt, TypeFloat, TypeDouble:
		return true
	}
	return false
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Flatten returns the scalar values of a group's direct children keyed by
// name. Non-group nodes return an empty map.
func (n *Node) Flatten() map[string]any {
	out := make(map[string]any)
	if n.Type != TypeGroup {
		return out
	}
	for _, c := range n.Children {
		if c.IsScalar() {
			out[c.Name] = c.Value()
		}
	}
	return out
}
