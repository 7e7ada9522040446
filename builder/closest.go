package builder

import (
	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
)

// FindClosestNode returns the graph node for the empty leaf containing pos,
// falling back to the node with the nearest centre. Results are cached until
// the graph changes.
func (nd *NavigationData) FindClosestNode(pos math32.Vector3) (octree.NodeID, bool) {
	if id, ok := nd.cache.Get(pos); ok {
		return id, true
	}

	id := nd.octree.LeafAt(pos)
	if id == octree.NoNode || nd.graph.Node(id) == nil {
		id = nd.FindClosestNodeBruteForce(pos)
	}
	if id == octree.NoNode {
		return octree.NoNode, false
	}

	nd.cache.Put(pos, id)
	return id, true
}

// FindClosestNodeBruteForce finds the closest node by brute force. Ties go to
// the lower id.
func (nd *NavigationData) FindClosestNodeBruteForce(pos math32.Vector3) octree.NodeID {
	bestNodeID := octree.NoNode
	bestDistance := math32.Inf()

	for _, node := range nd.graph.Nodes() {
		distance := pos.DistanceSquared(node.Center)
		if distance < bestDistance {
			bestDistance = distance
			bestNodeID = node.ID
		}
	}
	return bestNodeID
}
