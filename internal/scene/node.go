// Package scene provides the renderer-agnostic scene graph produced by an
// import: typed nodes with local transforms, children and user data.
package scene

import (
	"fmt"

	"github.com/Faultbox/blendscene/pkg/blend"
)

// Kind is the payload variant of a node.
type Kind int

// Node kinds.
const (
	KindEmpty Kind = iota
	KindMesh
	KindCurve
	KindLight
	KindCamera
	KindArmature
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindMesh:
		return "Mesh"
	case KindCurve:
		return "Curve"
	case KindLight:
		return "Light"
	case KindCamera:
		return "Camera"
	case KindArmature:
		return "Armature"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Node is one element of the scene graph. Nodes live for the whole import
// session; the parent link is non-owning.
type Node struct {
	Name    string
	Kind    Kind
	Address blend.Address

	// Local is the transform relative to the parent.
	Local Transform

	// Visible is false when the object is hidden in the viewport.
	Visible bool
	// Mirrored is set when the scale flips handedness.
	Mirrored bool

	// Payload is the value produced by the kind's payload builder, if any.
	Payload any
	// Geometry is the node's own bounding box, set by payload builders for
	// leaves that carry geometry.
	Geometry *Bounds

	Children []*Node
	UserData map[string]any

	bounds    Bounds
	hasBounds bool
	parent    *Node
}

// NewNode creates a node with an identity transform.
func NewNode(name string, kind Kind) *Node {
	return &Node{
		Name:     name,
		Kind:     kind,
		Local:    IdentityTransform(),
		UserData: make(map[string]any),
	}
}

// Parent returns the node this one is attached to, or nil for roots.
func (n *Node) Parent() *Node {
	return n.parent
}

// Attach adds child under n, detaching it from any previous parent.
func (n *Node) Attach(child *Node) {
	if child == nil || child.parent == n {
		return
	}
	if child.parent != nil {
		child.parent.Detach(child)
	}
	child.parent = n
	n.Children = append(n.Children, child)
}

// Detach removes child from n.
func (n *Node) Detach(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// World returns the node transform composed with every ancestor.
func (n *Node) World() Transform {
	t := n.Local
	for p := n.parent; p != nil; p = p.parent {
		t = p.Local.Combine(t)
	}
	return t
}

// SetUserData stores a user value.
func (n *Node) SetUserData(key string, v any) {
	if n.UserData == nil {
		n.UserData = make(map[string]any)
	}
	n.UserData[key] = v
}

// UpdateBound recomputes the node's bounding box, in its parent's space,
// from its own geometry and its children. It returns false when nothing in
// the subtree has geometry.
func (n *Node) UpdateBound() bool {
	var b Bounds
	has := false
	if n.Geometry != nil {
		b, has = *n.Geometry, true
	}
	for _, c := range n.Children {
		if !c.UpdateBound() {
			continue
		}
		if has {
			b = b.Union(c.bounds)
		} else {
			b, has = c.bounds, true
		}
	}
	n.hasBounds = has
	if has {
		n.bounds = b.Transformed(n.Local.Matrix())
	}
	return has
}

// Bounds returns the last computed bounding box.
func (n *Node) Bounds() (Bounds, bool) {
	return n.bounds, n.hasBounds
}

// String returns the node name and kind.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Name, n.Kind)
}
