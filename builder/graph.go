package builder

import (
	"slices"

	"github.com/o0olele/octree-nav/geometry"
	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
)

// GraphNode 寻路节点，对应八叉树中的空白叶子节点
// Its ID is the id of that leaf.
type GraphNode struct {
	ID     octree.NodeID  `json:"id"`
	Bounds geometry.AABB  `json:"bounds"`
	Center math32.Vector3 `json:"center"`
	Edges  []*Edge        `json:"-"`
}

// Neighbors returns the far endpoints of every incident edge.
func (n *GraphNode) Neighbors() []*GraphNode {
	neighbors := make([]*GraphNode, 0, len(n.Edges))
	for _, e := range n.Edges {
		neighbors = append(neighbors, e.Other(n))
	}
	return neighbors
}

func (n *GraphNode) detach(e *Edge) {
	for i, edge := range n.Edges {
		if edge == e {
			n.Edges = slices.Delete(n.Edges, i, i+1)
			return
		}
	}
}

// Edge 寻路边，连接相邻的空白节点
// Cost is the distance between the centres.
type Edge struct {
	A    *GraphNode `json:"-"`
	B    *GraphNode `json:"-"`
	Cost float32    `json:"cost"`
}

// Other returns the endpoint that is not n.
func (e *Edge) Other(n *GraphNode) *GraphNode {
	if e.A == n {
		return e.B
	}
	return e.A
}

// Key returns the unordered key of the edge.
func (e *Edge) Key() EdgeKey {
	return MakeEdgeKey(e.A.ID, e.B.ID)
}

// EdgeKey identifies an unordered pair, lower id first.
type EdgeKey struct {
	A octree.NodeID `json:"a"`
	B octree.NodeID `json:"b"`
}

func MakeEdgeKey(a, b octree.NodeID) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b}
}

func compareEdgeKeys(x, y EdgeKey) int {
	if x.A != y.A {
		return int(x.A - y.A)
	}
	return int(x.B - y.B)
}

// NavigationGraph 寻路图
// One node per empty leaf, one edge per pair of intersecting leaves.
type NavigationGraph struct {
	nodes map[octree.NodeID]*GraphNode
	edges map[EdgeKey]*Edge
}

func NewNavigationGraph() *NavigationGraph {
	return &NavigationGraph{
		nodes: make(map[octree.NodeID]*GraphNode),
		edges: make(map[EdgeKey]*Edge),
	}
}

// AddNode adds a node for the leaf, or returns the existing one.
func (g *NavigationGraph) AddNode(leaf octree.NodeID, bounds geometry.AABB) *GraphNode {
	if node, ok := g.nodes[leaf]; ok {
		return node
	}

	node := &GraphNode{
		ID:     leaf,
		Bounds: bounds,
		Center: bounds.Center(),
	}
	g.nodes[leaf] = node
	return node
}

// RemoveNode drops a node and detaches all of its edges from both endpoints.
func (g *NavigationGraph) RemoveNode(id octree.NodeID) bool {
	node, ok := g.nodes[id]
	if !ok {
		return false
	}

	for _, e := range node.Edges {
		e.Other(node).detach(e)
		delete(g.edges, e.Key())
	}
	node.Edges = nil
	delete(g.nodes, id)
	return true
}

// AddEdge connects a and b. Self pairs and existing pairs are ignored.
func (g *NavigationGraph) AddEdge(a, b *GraphNode) bool {
	if a == nil || b == nil || a.ID == b.ID {
		return false
	}

	key := MakeEdgeKey(a.ID, b.ID)
	if _, ok := g.edges[key]; ok {
		return false
	}

	edge := &Edge{
		A:    a,
		B:    b,
		Cost: a.Center.Distance(b.Center),
	}
	g.edges[key] = edge
	a.Edges = append(a.Edges, edge)
	b.Edges = append(b.Edges, edge)
	return true
}

func (g *NavigationGraph) HasEdge(a, b octree.NodeID) bool {
	_, ok := g.edges[MakeEdgeKey(a, b)]
	return ok
}

func (g *NavigationGraph) Edge(a, b octree.NodeID) *Edge {
	return g.edges[MakeEdgeKey(a, b)]
}

// Node returns the node for a leaf id, or nil.
func (g *NavigationGraph) Node(id octree.NodeID) *GraphNode {
	return g.nodes[id]
}

func (g *NavigationGraph) NodeCount() int {
	return len(g.nodes)
}

func (g *NavigationGraph) EdgeCount() int {
	return len(g.edges)
}

// Nodes returns every node ordered by id.
func (g *NavigationGraph) Nodes() []*GraphNode {
	nodes := make([]*GraphNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(x, y *GraphNode) int { return int(x.ID - y.ID) })
	return nodes
}

// EdgeKeys returns every edge key in ascending order.
func (g *NavigationGraph) EdgeKeys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(g.edges))
	for k := range g.edges {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareEdgeKeys)
	return keys
}

// Edges returns every edge ordered by key.
func (g *NavigationGraph) Edges() []*Edge {
	keys := g.EdgeKeys()
	edges := make([]*Edge, len(keys))
	for i, k := range keys {
		edges[i] = g.edges[k]
	}
	return edges
}

// Neighbors returns the neighbours of id, or nil for an unknown node.
func (g *NavigationGraph) Neighbors(id octree.NodeID) []*GraphNode {
	node := g.nodes[id]
	if node == nil {
		return nil
	}
	return node.Neighbors()
}
