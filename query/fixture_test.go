package query

import (
	"math"
	"math/rand"
	"testing"

	"github.com/o0olele/octree-nav/builder"
	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// fixture builds navigation data over random obstacle points.
func fixture(t *testing.T, seed int64) *builder.NavigationData {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	points := make([]math32.Vector3, 25)
	for i := range points {
		points[i] = math32.Vector3{X: float32(r.Intn(14)), Y: float32(r.Intn(14)), Z: float32(r.Intn(14))}
	}

	logger, _ := test.NewNullLogger()
	b := builder.NewBuilder(&builder.BuildOptions{MinNodeSize: 1, Logger: logger})
	b.AddPoints(points)
	nd, err := b.Build()
	require.NoError(t, err)
	return nd
}

// oracle runs Dijkstra over a gonum copy of g.
func oracle(g *builder.NavigationGraph, from octree.NodeID) path.Shortest {
	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for _, n := range g.Nodes() {
		wg.AddNode(simple.Node(n.ID))
	}
	for _, e := range g.Edges() {
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(e.A.ID), simple.Node(e.B.ID), float64(e.Cost)))
	}
	return path.DijkstraFrom(simple.Node(from), wg)
}

// farthestReachable returns the reachable node with the largest distance
// from start.
func farthestReachable(g *builder.NavigationGraph, start octree.NodeID) octree.NodeID {
	shortest := oracle(g, start)
	best, bestCost := start, 0.0
	for _, n := range g.Nodes() {
		if w := shortest.WeightTo(int64(n.ID)); !math.IsInf(w, 1) && w > bestCost {
			best, bestCost = n.ID, w
		}
	}
	return best
}

// requireConnected checks that consecutive path nodes share an edge.
func requireConnected(t *testing.T, g *builder.NavigationGraph, p *Path) {
	t.Helper()
	for i := 1; i < len(p.Nodes); i++ {
		require.True(t, g.HasEdge(p.Nodes[i-1].ID, p.Nodes[i].ID), "hop %d -> %d", p.Nodes[i-1].ID, p.Nodes[i].ID)
	}
}

func quietLogger() Option {
	logger, _ := test.NewNullLogger()
	return WithLogger(logger)
}
