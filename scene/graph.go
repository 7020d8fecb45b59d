// Package scene provides the minimal scene graph the animation engine
// animates: named nodes in a hierarchy, each carrying a local TRS transform.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/rig/pool"
)

// Node is a single scene graph node.
type Node struct {
	name     string
	parent   pool.Handle
	children []pool.Handle

	position mgl32.Vec3
	scale    mgl32.Vec3
	rotation mgl32.Quat
}

// NewNode creates a node with an identity local transform.
func NewNode(name string) Node {
	return Node{
		name:     name,
		scale:    mgl32.Vec3{1, 1, 1},
		rotation: mgl32.QuatIdent(),
	}
}

func (n *Node) Name() string {
	return n.name
}

// Parent returns the parent handle, or pool.None for roots.
func (n *Node) Parent() pool.Handle {
	return n.parent
}

// Children returns the child handles. Callers must not mutate the slice.
func (n *Node) Children() []pool.Handle {
	return n.children
}

func (n *Node) LocalPosition() mgl32.Vec3 {
	return n.position
}

func (n *Node) LocalScale() mgl32.Vec3 {
	return n.scale
}

func (n *Node) LocalRotation() mgl32.Quat {
	return n.rotation
}

// SetLocalTransform overwrites the node's local TRS in one call.
func (n *Node) SetLocalTransform(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	n.position = position
	n.rotation = rotation
	n.scale = scale
}

func (n *Node) SetLocalPosition(position mgl32.Vec3) {
	n.position = position
}

func (n *Node) SetLocalRotation(rotation mgl32.Quat) {
	n.rotation = rotation
}

func (n *Node) SetLocalScale(scale mgl32.Vec3) {
	n.scale = scale
}

// Graph owns nodes in a generational pool and tracks their hierarchy.
type Graph struct {
	nodes pool.Pool[Node]
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode inserts a node and returns its handle.
func (g *Graph) AddNode(n Node) pool.Handle {
	return g.nodes.Spawn(n)
}

// LinkNodes makes child a child of parent. A node already linked elsewhere
// keeps its old parent's child entry; callers link each node once.
func (g *Graph) LinkNodes(parent, child pool.Handle) {
	p := g.nodes.Borrow(parent)
	c := g.nodes.Borrow(child)
	if p == nil || c == nil {
		return
	}
	c.parent = parent
	p.children = append(p.children, child)
}

// Node returns the node behind h, or nil if h is stale.
func (g *Graph) Node(h pool.Handle) *Node {
	return g.nodes.Borrow(h)
}

// TryNode returns the node behind h and whether it exists.
func (g *Graph) TryNode(h pool.Handle) (*Node, bool) {
	return g.nodes.TryBorrow(h)
}

// FindByName returns the first node with the given name, or pool.None.
func (g *Graph) FindByName(name string) pool.Handle {
	found := pool.None
	g.nodes.ForEach(func(h pool.Handle, n *Node) {
		if found == pool.None && n.name == name {
			found = h
		}
	})
	return found
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return g.nodes.Len()
}

// ForEach visits every live node.
func (g *Graph) ForEach(fn func(pool.Handle, *Node)) {
	g.nodes.ForEach(fn)
}
