package replan

import (
	"slices"

	"github.com/o0olele/octree-nav/builder"
	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
)

// ReplanNode is a waypoint of the replanning graph. G is the settled cost to
// the goal and RHS its one-step lookahead; the node is locally consistent
// when both agree.
type ReplanNode struct {
	ID       octree.NodeID  `json:"id"`
	Position math32.Vector3 `json:"position"`
	G        float32        `json:"g"`
	RHS      float32        `json:"rhs"`
	Blocked  bool           `json:"blocked"`

	neighbors []*ReplanNode
	item      *queueItem
}

func newReplanNode(id octree.NodeID, pos math32.Vector3) *ReplanNode {
	return &ReplanNode{
		ID:       id,
		Position: pos,
		G:        math32.Inf(),
		RHS:      math32.Inf(),
	}
}

// Neighbors returns the adjacent nodes ordered by id.
func (n *ReplanNode) Neighbors() []*ReplanNode {
	return n.neighbors
}

// Consistent reports whether G and RHS agree.
func (n *ReplanNode) Consistent() bool {
	return math32.ApproxEqual(n.G, n.RHS)
}

func (n *ReplanNode) link(other *ReplanNode) bool {
	i, found := slices.BinarySearchFunc(n.neighbors, other.ID, func(x *ReplanNode, id octree.NodeID) int {
		return int(x.ID - id)
	})
	if found {
		return false
	}
	n.neighbors = slices.Insert(n.neighbors, i, other)
	return true
}

// Graph is the undirected node set the planner searches.
type Graph struct {
	nodes map[octree.NodeID]*ReplanNode
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[octree.NodeID]*ReplanNode)}
}

// FromNavigationGraph creates a node at the centre of every graph node and
// links the pairs joined by an edge.
func FromNavigationGraph(nav *builder.NavigationGraph) *Graph {
	g := NewGraph()
	for _, n := range nav.Nodes() {
		g.AddNode(n.ID, n.Center)
	}
	for _, e := range nav.Edges() {
		g.Connect(e.A.ID, e.B.ID)
	}
	return g
}

// AddNode adds a node, or returns the existing node with that id.
func (g *Graph) AddNode(id octree.NodeID, pos math32.Vector3) *ReplanNode {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := newReplanNode(id, pos)
	g.nodes[id] = n
	return n
}

// Connect links a and b in both directions. Unknown ids, self pairs and
// existing links are ignored.
func (g *Graph) Connect(a, b octree.NodeID) bool {
	na, nb := g.nodes[a], g.nodes[b]
	if na == nil || nb == nil || a == b {
		return false
	}
	linked := na.link(nb)
	nb.link(na)
	return linked
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id octree.NodeID) *ReplanNode {
	return g.nodes[id]
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns every node ordered by id.
func (g *Graph) Nodes() []*ReplanNode {
	nodes := make([]*ReplanNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(x, y *ReplanNode) int { return int(x.ID - y.ID) })
	return nodes
}

// cost is the distance between two unblocked nodes and +Inf otherwise.
func cost(a, b *ReplanNode) float32 {
	if a.Blocked || b.Blocked {
		return math32.Inf()
	}
	return a.Position.Distance(b.Position)
}

func heuristic(a, b *ReplanNode) float32 {
	return a.Position.Distance(b.Position)
}
