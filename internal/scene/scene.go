// Package scene assembles the node hierarchy of a decoded document: one
// root node with one child per model, each bound to a mesh and an
// optional material.
package scene

import (
	"github.com/Faultbox/objscene/internal/registry"
	"github.com/Faultbox/objscene/pkg/math"
)

// NodeID indexes Scene.Nodes.
type NodeID int

// NoParent is the parent of the root node.
const NoParent NodeID = -1

// RootID is the index of the root node.
const RootID NodeID = 0

// Node is one entry of the scene arena.
type Node struct {
	Name      string
	Parent    NodeID
	Children  []NodeID
	Transform math.Mat4
	Mesh      registry.Handle // invalid on the root
	Material  registry.Handle // invalid when no material is bound
}

// Scene is a node arena. Nodes[RootID] is the root.
type Scene struct {
	Nodes []Node
}

// Binding describes one model to attach under the root.
type Binding struct {
	Name        string
	Mesh        registry.Handle
	MaterialID  int
	HasMaterial bool
}

// Assemble creates the root node and one child per binding, in order.
// A binding whose material id is outside materials gets no material;
// the indices of such bindings are returned.
func Assemble(name string, bindings []Binding, materials []registry.Handle) (*Scene, []int) {
	s := &Scene{Nodes: make([]Node, 0, len(bindings)+1)}
	s.Nodes = append(s.Nodes, Node{
		Name:      name,
		Parent:    NoParent,
		Transform: math.Identity(),
	})

	var unbound []int
	for i, b := range bindings {
		child := Node{
			Name:      b.Name,
			Parent:    RootID,
			Transform: math.Identity(),
			Mesh:      b.Mesh,
		}
		if b.HasMaterial {
			if b.MaterialID >= 0 && b.MaterialID < len(materials) {
				child.Material = materials[b.MaterialID]
			} else {
				unbound = append(unbound, i)
			}
		}

		id := NodeID(len(s.Nodes))
		s.Nodes = append(s.Nodes, child)
		s.Nodes[RootID].Children = append(s.Nodes[RootID].Children, id)
	}
	return s, unbound
}

// Root returns the root node.
func (s *Scene) Root() *Node {
	return &s.Nodes[RootID]
}

// Node returns the node with the given id, or nil.
func (s *Scene) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(s.Nodes) {
		return nil
	}
	return &s.Nodes[id]
}

// Walk visits nodes depth-first starting at the root.
func (s *Scene) Walk(fn func(id NodeID, depth int, n *Node)) {
	if len(s.Nodes) == 0 {
		return
	}
	var visit func(id NodeID, depth int)
	visit = func(id NodeID, depth int) {
		n := &s.Nodes[id]
		fn(id, depth, n)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(RootID, 0)
}

// WorldTransform returns the node transform composed with its ancestors.
func (s *Scene) WorldTransform(id NodeID) math.Mat4 {
	n := s.Node(id)
	if n == nil {
		return math.Identity()
	}
	if n.Parent == NoParent {
		return n.Transform
	}
	return s.WorldTransform(n.Parent).Mul(n.Transform)
}
