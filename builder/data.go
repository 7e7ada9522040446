package builder

import (
	"slices"

	"github.com/o0olele/octree-nav/geometry"
	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidGraph is returned by Validate.
var ErrInvalidGraph = errors.New("builder: invalid navigation graph")

// NavigationData couples the octree with the graph over its empty leaves and
// keeps both in step when obstacles are added.
type NavigationData struct {
	octree *octree.Octree
	graph  *NavigationGraph
	cache  *math32.Cache[math32.Vector3, octree.NodeID]
	logger log.FieldLogger
}

// Update lists the graph nodes changed by AddPosition.
type Update struct {
	Removed []octree.NodeID `json:"removed"`
	Added   []octree.NodeID `json:"added"`
}

// Empty reports whether the graph was left unchanged.
func (u Update) Empty() bool {
	return len(u.Removed) == 0 && len(u.Added) == 0
}

func newNavigationData(tree *octree.Octree, graph *NavigationGraph, opts BuildOptions) *NavigationData {
	return &NavigationData{
		octree: tree,
		graph:  graph,
		cache:  math32.NewCache[math32.Vector3, octree.NodeID](opts.CacheSize),
		logger: opts.Logger,
	}
}

func (nd *NavigationData) Octree() *octree.Octree {
	return nd.octree
}

func (nd *NavigationData) Graph() *NavigationGraph {
	return nd.graph
}

func (nd *NavigationData) Bounds() geometry.AABB {
	return nd.octree.Bounds()
}

// GetNodeCount 获取节点数量
func (nd *NavigationData) GetNodeCount() int {
	return nd.graph.NodeCount()
}

// GetEdgeCount 获取边数量
func (nd *NavigationData) GetEdgeCount() int {
	return nd.graph.EdgeCount()
}

// AddPosition inserts an obstacle point and updates the graph before
// returning. Leaves that were split or became occupied are removed together
// with their edges; the new empty leaves are added and connected. Only the
// new leaves and the former neighbours of the removed ones are tested.
func (nd *NavigationData) AddPosition(p math32.Vector3) (Update, error) {
	delta, err := nd.octree.AddPosition(p)
	if err != nil {
		return Update{}, err
	}

	update := nd.applyDelta(delta)
	if !update.Empty() {
		nd.cache.Clear()
	}
	nd.logger.WithFields(log.Fields{
		"point":   p,
		"removed": len(update.Removed),
		"added":   len(update.Added),
	}).Debug("obstacle added")
	return update, nil
}

func (nd *NavigationData) applyDelta(delta octree.Delta) Update {
	var update Update

	retired := make([]octree.NodeID, 0, len(delta.Split)+len(delta.Occupied))
	retired = append(retired, delta.Split...)
	retired = append(retired, delta.Occupied...)

	candidates := make(map[octree.NodeID]struct{})
	for _, id := range retired {
		node := nd.graph.Node(id)
		if node == nil {
			// created and retired within the same insertion
			continue
		}
		for _, neighbor := range node.Neighbors() {
			candidates[neighbor.ID] = struct{}{}
		}
		nd.graph.RemoveNode(id)
		update.Removed = append(update.Removed, id)
	}
	for _, id := range retired {
		delete(candidates, id)
	}

	ids := make([]octree.NodeID, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	added := make([]*GraphNode, 0, len(delta.Created))
	for _, id := range delta.Created {
		if !nd.octree.IsEmptyLeaf(id) {
			continue
		}
		added = append(added, nd.graph.AddNode(id, nd.octree.Node(id).Bounds))
		update.Added = append(update.Added, id)
	}

	for i, a := range added {
		for _, b := range added[i+1:] {
			if a.Bounds.Intersects(b.Bounds) {
				nd.graph.AddEdge(a, b)
			}
		}
		for _, id := range ids {
			if c := nd.graph.Node(id); c != nil && a.Bounds.Intersects(c.Bounds) {
				nd.graph.AddEdge(a, c)
			}
		}
	}
	return update
}

// Validate checks that the graph matches the empty leaves of the octree.
func (nd *NavigationData) Validate() error {
	leaves := nd.octree.EmptyLeaves()
	if len(leaves) != nd.graph.NodeCount() {
		return errors.Wrapf(ErrInvalidGraph, "%d empty leaves but %d graph nodes", len(leaves), nd.graph.NodeCount())
	}
	for _, id := range leaves {
		node := nd.graph.Node(id)
		if node == nil {
			return errors.Wrapf(ErrInvalidGraph, "empty leaf %d has no graph node", id)
		}
		if node.Bounds != nd.octree.Node(id).Bounds {
			return errors.Wrapf(ErrInvalidGraph, "node %d bounds differ from its leaf", id)
		}
	}

	for key, edge := range nd.graph.edges {
		if key.A == key.B {
			return errors.Wrapf(ErrInvalidGraph, "self edge on node %d", key.A)
		}
		if edge.Key() != key {
			return errors.Wrapf(ErrInvalidGraph, "edge %v stored under key %v", edge.Key(), key)
		}
		a, b := nd.graph.Node(key.A), nd.graph.Node(key.B)
		if a == nil || b == nil || a != edge.A && a != edge.B || b != edge.A && b != edge.B {
			return errors.Wrapf(ErrInvalidGraph, "edge %v references a missing node", key)
		}
		if !slices.Contains(a.Edges, edge) || !slices.Contains(b.Edges, edge) {
			return errors.Wrapf(ErrInvalidGraph, "edge %v is not attached to both endpoints", key)
		}
		if !a.Bounds.Intersects(b.Bounds) {
			return errors.Wrapf(ErrInvalidGraph, "edge %v joins disjoint leaves", key)
		}
		if edge.Cost < 0 {
			return errors.Wrapf(ErrInvalidGraph, "edge %v has negative cost %f", key, edge.Cost)
		}
	}
	return nil
}

// NavigationStats 导航统计信息
type NavigationStats struct {
	OctreeNodes int               `json:"octree_nodes"`
	MaxDepth    uint8             `json:"max_depth"`
	MinSize     float32           `json:"min_size"`
	NodeCount   int               `json:"node_count"`
	EdgeCount   int               `json:"edge_count"`
	Bounds      geometry.AABB     `json:"bounds"`
	Cache       math32.CacheStats `json:"cache"`
}

// GetStats 获取统计信息
func (nd *NavigationData) GetStats() NavigationStats {
	return NavigationStats{
		OctreeNodes: nd.octree.Len(),
		MaxDepth:    nd.octree.MaxDepth(),
		MinSize:     nd.octree.MinSize(),
		NodeCount:   nd.graph.NodeCount(),
		EdgeCount:   nd.graph.EdgeCount(),
		Bounds:      nd.octree.Bounds(),
		Cache:       nd.cache.Stats(),
	}
}
