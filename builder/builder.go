package builder

import (
	"runtime"
	"time"

	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
	log "github.com/sirupsen/logrus"
)

// BuildOptions 构建参数
type BuildOptions struct {
	MinNodeSize     float32         // leaves stop subdividing at this side length
	BruteForceEdges bool            // derive edges with the pairwise test instead of tree queries
	CacheSize       int             // closest-node lookup cache capacity
	Logger          log.FieldLogger // defaults to the standard logger
}

// DefaultBuildOptions returns the default build configuration.
func DefaultBuildOptions() *BuildOptions {
	return &BuildOptions{
		MinNodeSize: 1,
		CacheSize:   10000,
		Logger:      log.StandardLogger(),
	}
}

// Builder 导航图构建器
type Builder struct {
	opts   BuildOptions
	points []math32.Vector3
}

// NewBuilder creates a builder. A nil opts uses DefaultBuildOptions.
func NewBuilder(opts *BuildOptions) *Builder {
	defaults := DefaultBuildOptions()
	if opts == nil {
		opts = defaults
	}

	b := &Builder{opts: *opts}
	if b.opts.Logger == nil {
		b.opts.Logger = defaults.Logger
	}
	if b.opts.CacheSize <= 0 {
		b.opts.CacheSize = defaults.CacheSize
	}
	return b
}

// AddPoint adds one obstacle point.
func (b *Builder) AddPoint(p math32.Vector3) {
	b.points = append(b.points, p)
}

// AddPoints adds obstacle points in any order.
func (b *Builder) AddPoints(points []math32.Vector3) {
	b.points = append(b.points, points...)
}

// Build builds the octree and its navigation graph.
func (b *Builder) Build() (*NavigationData, error) {
	logger := b.opts.Logger
	startTime := time.Now()

	logger.WithField("points", len(b.points)).Info("building octree")
	octreeStart := time.Now()
	tree, err := octree.Build(b.points, b.opts.MinNodeSize)
	if err != nil {
		return nil, err
	}
	tree.SetLogger(logger)
	logger.WithFields(log.Fields{
		"nodes":   tree.Len(),
		"depth":   tree.MaxDepth(),
		"elapsed": time.Since(octreeStart),
	}).Debug("octree built")

	graphStart := time.Now()
	graph := BuildGraph(tree, b.opts.BruteForceEdges)
	logger.WithFields(log.Fields{
		"nodes":       graph.NodeCount(),
		"edges":       graph.EdgeCount(),
		"brute_force": b.opts.BruteForceEdges,
		"elapsed":     time.Since(graphStart),
	}).Debug("navigation graph built")

	data := newNavigationData(tree, graph, b.opts)
	logger.WithField("elapsed", time.Since(startTime)).Info("navigation data built")
	return data, nil
}

// BuildGraph creates a node per empty leaf and an edge per intersecting pair.
func BuildGraph(tree *octree.Octree, bruteForce bool) *NavigationGraph {
	graph := NewNavigationGraph()
	leaves := collectEmptyLeaves(tree)
	for _, id := range leaves {
		graph.AddNode(id, tree.Node(id).Bounds)
	}

	if bruteForce {
		connectPairwise(graph, leaves)
	} else {
		connectByQuery(tree, graph, leaves)
	}
	return graph
}

// collectEmptyLeaves 收集所有空白叶子节点
func collectEmptyLeaves(tree *octree.Octree) []octree.NodeID {
	return tree.EmptyLeaves()
}

// connectPairwise tests every pair of leaves.
func connectPairwise(graph *NavigationGraph, leaves []octree.NodeID) {
	for i, a := range leaves {
		na := graph.Node(a)
		for _, b := range leaves[i+1:] {
			nb := graph.Node(b)
			if na.Bounds.Intersects(nb.Bounds) {
				graph.AddEdge(na, nb)
			}
		}
	}
}

// connectByQuery looks up the neighbours of each leaf with a bounds query
// that prunes every subtree not touching the leaf.
func connectByQuery(tree *octree.Octree, graph *NavigationGraph, leaves []octree.NodeID) {
	for _, id := range leaves {
		node := graph.Node(id)
		tree.QueryEmptyLeaves(node.Bounds, func(other octree.NodeID) {
			if other > id {
				graph.AddEdge(node, graph.Node(other))
			}
		})
	}
}

// BuildMemoryStats 构建过程的内存统计
type BuildMemoryStats struct {
	TotalAlloc  uint64 `json:"total_alloc"`
	Sys         uint64 `json:"sys"`
	HeapAlloc   uint64 `json:"heap_alloc"`
	HeapSys     uint64 `json:"heap_sys"`
	NumGC       uint32 `json:"num_gc"`
	OctreeNodes int    `json:"octree_nodes"`
	PathNodes   int    `json:"path_nodes"`
	PathEdges   int    `json:"path_edges"`
}

// GetMemoryUsage reports runtime memory together with the sizes of nd.
func GetMemoryUsage(nd *NavigationData) BuildMemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := BuildMemoryStats{
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		HeapAlloc:  m.HeapAlloc,
		HeapSys:    m.HeapSys,
		NumGC:      m.NumGC,
	}
	if nd != nil {
		stats.OctreeNodes = nd.octree.Len()
		stats.PathNodes = nd.graph.NodeCount()
		stats.PathEdges = nd.graph.EdgeCount()
	}
	return stats
}
