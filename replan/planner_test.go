package replan

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/o0olele/octree-nav/builder"
	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
	"github.com/o0olele/octree-nav/query"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type scenario struct {
	nd      *builder.NavigationData
	graph   *Graph
	planner *Planner
	start   octree.NodeID
	goal    octree.NodeID
}

// newScenario builds navigation data over random points and a planner
// between the first node and the farthest node A* can reach.
func newScenario(t *testing.T, seed int64) *scenario {
	t.Helper()
	logger, _ := test.NewNullLogger()

	r := rand.New(rand.NewSource(seed))
	points := make([]math32.Vector3, 30)
	for i := range points {
		points[i] = math32.Vector3{X: float32(r.Intn(16)), Y: float32(r.Intn(16)), Z: float32(r.Intn(16))}
	}
	b := builder.NewBuilder(&builder.BuildOptions{MinNodeSize: 1, Logger: logger})
	b.AddPoints(points)
	nd, err := b.Build()
	require.NoError(t, err)

	nav := nd.Graph()
	start := nav.Nodes()[0].ID
	goal, best := start, float32(0)
	for _, n := range nav.Nodes() {
		p, err := query.FindPath(nav, start, n.ID, query.WithLogger(logger))
		if err == nil && p.Cost > best {
			goal, best = n.ID, p.Cost
		}
	}
	require.NotEqual(t, start, goal)

	g := FromNavigationGraph(nav)
	planner, err := NewPlanner(g, start, goal, WithLogger(logger))
	require.NoError(t, err)
	planner.Initialize()
	require.NoError(t, planner.ComputeShortestPath())
	return &scenario{nd: nd, graph: g, planner: planner, start: start, goal: goal}
}

// requirePathMatchesAStar checks the planner path against A* over the
// navigation graph.
func (s *scenario) requirePathMatchesAStar(t *testing.T, start octree.NodeID) []*ReplanNode {
	t.Helper()
	logger, _ := test.NewNullLogger()
	want, aerr := query.FindPath(s.nd.Graph(), start, s.goal, query.WithLogger(logger))

	path, err := s.planner.GetPath()
	if aerr != nil {
		require.ErrorIs(t, err, ErrNoPath)
		return nil
	}
	require.NoError(t, err)
	require.Equal(t, start, path[0].ID)
	require.Equal(t, s.goal, path[len(path)-1].ID)
	for i := 1; i < len(path); i++ {
		require.True(t, slices.Contains(path[i-1].Neighbors(), path[i]))
		require.False(t, path[i].Blocked)
	}
	require.InDelta(t, want.Cost, PathCost(path), float64(1e-3*math32.Max(1, want.Cost)))
	return path
}

func (s *scenario) requireLocallyConsistent(t *testing.T) {
	t.Helper()
	for _, n := range s.graph.Nodes() {
		require.True(t, s.planner.Pending(n.ID) || s.planner.Consistent(n.ID),
			"node %d: G=%v RHS=%v", n.ID, n.G, n.RHS)
	}
}

func TestPlannerMatchesAStar(t *testing.T) {
	for _, seed := range []int64{2, 8, 21} {
		s := newScenario(t, seed)
		s.requirePathMatchesAStar(t, s.start)
		s.requireLocallyConsistent(t)
		require.Greater(t, s.planner.Steps(), 0)
	}
}

func TestPlannerBlocking(t *testing.T) {
	s := newScenario(t, 4)
	path := s.requirePathMatchesAStar(t, s.start)
	if len(path) < 3 {
		t.Skip("path has no interior node")
	}
	before := PathCost(path)
	mid := path[len(path)/2].ID

	require.NoError(t, s.planner.SetBlocked(mid, true))
	s.nd.Graph().RemoveNode(mid)
	s.requireLocallyConsistent(t)
	blocked := s.requirePathMatchesAStar(t, s.start)
	for _, n := range blocked {
		require.NotEqual(t, mid, n.ID)
	}

	require.NoError(t, s.planner.SetBlocked(mid, false))
	s.requireLocallyConsistent(t)
	restored, err := s.planner.GetPath()
	require.NoError(t, err)
	require.InDelta(t, before, PathCost(restored), float64(1e-3*math32.Max(1, before)))
}

func TestPlannerMoveStart(t *testing.T) {
	s := newScenario(t, 6)
	path := s.requirePathMatchesAStar(t, s.start)
	next := path[1].ID

	require.NoError(t, s.planner.MoveStart(next))
	require.NoError(t, s.planner.ComputeShortestPath())
	require.Greater(t, s.planner.KM(), float32(0))
	require.Equal(t, next, s.planner.Start().ID)
	s.requirePathMatchesAStar(t, next)
	s.requireLocallyConsistent(t)

	require.ErrorIs(t, s.planner.MoveStart(octree.NoNode), ErrNodeNotFound)
}

func TestPlannerSync(t *testing.T) {
	s := newScenario(t, 10)
	path := s.requirePathMatchesAStar(t, s.start)
	if len(path) < 3 {
		t.Skip("path has no interior node")
	}

	obstacle := path[len(path)/2].Position
	update, err := s.nd.AddPosition(obstacle)
	require.NoError(t, err)
	require.False(t, update.Empty())
	require.NoError(t, s.planner.Sync(s.nd.Graph(), update))

	for _, id := range update.Added {
		require.NotNil(t, s.graph.Node(id))
	}
	for _, id := range update.Removed {
		require.True(t, s.graph.Node(id).Blocked)
	}
	s.requireLocallyConsistent(t)

	if slices.Contains(update.Removed, s.start) || slices.Contains(update.Removed, s.goal) {
		_, err := s.planner.GetPath()
		require.ErrorIs(t, err, ErrNoPath)
		return
	}
	s.requirePathMatchesAStar(t, s.start)
}

func TestPlannerErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	g := NewGraph()
	g.AddNode(1, math32.Vector3{})
	g.AddNode(2, math32.Vector3{X: 1})
	g.AddNode(3, math32.Vector3{X: 5})
	require.True(t, g.Connect(1, 2))
	require.False(t, g.Connect(2, 1))
	require.False(t, g.Connect(1, 1))
	require.False(t, g.Connect(1, 9))

	_, err := NewPlanner(g, 1, 9)
	require.ErrorIs(t, err, ErrNodeNotFound)

	t.Run("not initialized", func(t *testing.T) {
		p, err := NewPlanner(g, 1, 2, WithLogger(logger))
		require.NoError(t, err)
		_, err = p.GetPath()
		require.ErrorIs(t, err, ErrNotInitialized)
		require.ErrorIs(t, p.ComputeShortestPath(), ErrNotInitialized)
	})

	t.Run("unreachable goal", func(t *testing.T) {
		p, err := NewPlanner(g, 1, 3, WithLogger(logger))
		require.NoError(t, err)
		p.Initialize()
		require.NoError(t, p.ComputeShortestPath())
		_, err = p.GetPath()
		require.ErrorIs(t, err, ErrNoPath)
	})

	t.Run("adjacent goal", func(t *testing.T) {
		p, err := NewPlanner(g, 1, 2, WithLogger(logger))
		require.NoError(t, err)
		p.Initialize()
		require.NoError(t, p.ComputeShortestPath())
		path, err := p.GetPath()
		require.NoError(t, err)
		require.Len(t, path, 2)
		require.InDelta(t, 1, PathCost(path), 1e-6)
	})

	t.Run("step limit", func(t *testing.T) {
		s := newScenario(t, 12)
		p, err := NewPlanner(FromNavigationGraph(s.nd.Graph()), s.start, s.goal, WithMaxSteps(1), WithLogger(logger))
		require.NoError(t, err)
		p.Initialize()
		require.ErrorIs(t, p.ComputeShortestPath(), ErrIterationLimit)
	})
}

func TestKeyLess(t *testing.T) {
	require.True(t, Key{1, 5}.Less(Key{2, 0}))
	require.True(t, Key{1, 1}.Less(Key{1, 2}))
	require.False(t, Key{1, 2}.Less(Key{1, 2}))
	require.False(t, Key{1, 1}.Less(Key{1 + 1e-7, 1}))
	require.True(t, Key{1, 1}.Less(Key{math32.Inf(), math32.Inf()}))
	require.False(t, Key{math32.Inf(), math32.Inf()}.Less(Key{math32.Inf(), math32.Inf()}))
}
