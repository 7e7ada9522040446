package query

import (
	"math"
	"math/rand"
	"testing"

	"github.com/o0olele/octree-nav/math32"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

func fullGrid(t *testing.T, n int32, blocked func(math32.Vector3i) bool) *Grid {
	t.Helper()
	size := math32.Vector3i{X: n, Y: n, Z: n}
	g := NewGrid(size)
	for z := int32(0); z < n; z++ {
		for y := int32(0); y < n; y++ {
			for x := int32(0); x < n; x++ {
				pos := math32.Vector3i{X: x, Y: y, Z: z}
				if blocked != nil && blocked(pos) {
					continue
				}
				_, err := g.AddCell(pos)
				require.NoError(t, err)
			}
		}
	}
	return g
}

func TestFindGridPathDiagonal(t *testing.T) {
	g := fullGrid(t, 10, nil)
	require.Equal(t, 1000, g.Len())

	p, err := FindGridPath(g, math32.Vector3i{}, math32.Vector3i{X: 9, Y: 9, Z: 9}, quietLogger())
	require.NoError(t, err)
	require.Len(t, p.Cells, 10)
	for i, pos := range p.Positions() {
		require.Equal(t, math32.Vector3i{X: int32(i), Y: int32(i), Z: int32(i)}, pos)
	}
	require.InDelta(t, 9*math32.Sqrt3, p.Cost, 1e-4)
}

func TestFindGridPathMatchesDijkstra(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	start, goal := math32.Vector3i{}, math32.Vector3i{X: 7, Y: 7, Z: 7}
	g := fullGrid(t, 8, func(p math32.Vector3i) bool {
		return p != start && p != goal && r.Float64() < 0.3
	})

	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for _, n := range g.nodes {
		wg.AddNode(simple.Node(n.ID))
	}
	for _, n := range g.nodes {
		for _, m := range neighborOffsets {
			other := g.Cell(n.Position.Add(m.offset))
			if other != nil && other.ID > n.ID {
				wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(n.ID), simple.Node(other.ID), float64(m.cost)))
			}
		}
	}
	want := path.DijkstraFrom(simple.Node(g.Cell(start).ID), wg).WeightTo(int64(g.Cell(goal).ID))

	p, err := FindGridPath(g, start, goal, quietLogger())
	if math.IsInf(want, 1) {
		require.ErrorIs(t, err, ErrNoPath)
		return
	}
	require.NoError(t, err)
	require.InDelta(t, want, float64(p.Cost), 1e-3)
	for i := 1; i < len(p.Cells); i++ {
		d := p.Cells[i].Position.Sub(p.Cells[i-1].Position).Abs()
		require.LessOrEqual(t, max(d.X, d.Y, d.Z), int32(1))
	}
}

func TestOctileIsExactOnOpenGrid(t *testing.T) {
	cases := []struct {
		b    math32.Vector3i
		want float32
	}{
		{math32.Vector3i{X: 3}, 3},
		{math32.Vector3i{X: 2, Y: 2}, 2 * math32.Sqrt2},
		{math32.Vector3i{X: 4, Y: 1, Z: 2}, math32.Sqrt3 + (math32.Sqrt2) + 2},
		{math32.Vector3i{X: -5, Y: 5, Z: -5}, 5 * math32.Sqrt3},
	}
	for _, c := range cases {
		require.InDelta(t, c.want, octile(math32.Vector3i{}, c.b), 1e-5, "to %v", c.b)
	}
}

func TestGridErrors(t *testing.T) {
	g := fullGrid(t, 4, func(p math32.Vector3i) bool { return p.X == 2 })

	_, err := g.AddCell(math32.Vector3i{X: 4})
	require.ErrorIs(t, err, ErrCellOutOfRange)
	_, err = g.AddCell(math32.Vector3i{Y: -1})
	require.ErrorIs(t, err, ErrCellOutOfRange)

	_, err = FindGridPath(g, math32.Vector3i{X: 2}, math32.Vector3i{}, quietLogger())
	require.ErrorIs(t, err, ErrCellNotFound)

	// the x == 2 plane separates the two halves
	_, err = FindGridPath(g, math32.Vector3i{}, math32.Vector3i{X: 3}, quietLogger())
	require.ErrorIs(t, err, ErrNoPath)

	_, err = FindGridPath(g, math32.Vector3i{}, math32.Vector3i{X: 1, Y: 3, Z: 3}, WithMaxIterations(1), quietLogger())
	require.ErrorIs(t, err, ErrIterationLimit)

	again, err := g.AddCell(math32.Vector3i{})
	require.NoError(t, err)
	require.Equal(t, int32(0), again.ID)
}
