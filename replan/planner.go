package replan

import (
	"time"

	"github.com/o0olele/octree-nav/builder"
	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultMaxSteps caps a single ComputeShortestPath call.
const DefaultMaxSteps = 1000000

// Options 重规划参数
type Options struct {
	MaxSteps int
	Logger   log.FieldLogger
}

// Option customises a planner.
type Option func(*Options)

func WithMaxSteps(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxSteps = n
		}
	}
}

func WithLogger(logger log.FieldLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// Planner keeps a lifelong shortest-path search between a start and a goal.
// The search is rooted at the goal: G is the cost from a node to the goal, so
// the start may move without discarding earlier work. The search state lives
// on the graph nodes; a graph serves one planner at a time.
type Planner struct {
	graph       *Graph
	start       *ReplanNode
	goal        *ReplanNode
	lastStart   *ReplanNode
	km          float32
	open        queue
	steps       int
	opts        Options
	initialized bool
}

// NewPlanner creates a planner between two nodes of graph. Call Initialize
// before searching.
func NewPlanner(graph *Graph, start, goal octree.NodeID, opts ...Option) (*Planner, error) {
	o := Options{MaxSteps: DefaultMaxSteps, Logger: log.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	s, g := graph.Node(start), graph.Node(goal)
	if s == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "start %d", start)
	}
	if g == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "goal %d", goal)
	}
	return &Planner{
		graph:     graph,
		start:     s,
		goal:      g,
		lastStart: s,
		opts:      o,
	}, nil
}

// Initialize resets every node to infinite cost and queues the goal.
func (p *Planner) Initialize() {
	p.open.clear()
	for _, n := range p.graph.nodes {
		n.G = math32.Inf()
		n.RHS = math32.Inf()
		n.item = nil
	}
	p.km = 0
	p.steps = 0
	p.lastStart = p.start

	p.goal.RHS = 0
	p.open.set(p.goal, p.calculateKey(p.goal))
	p.initialized = true
}

func (p *Planner) Start() *ReplanNode {
	return p.start
}

func (p *Planner) Goal() *ReplanNode {
	return p.goal
}

// KM returns the accumulated key modifier.
func (p *Planner) KM() float32 {
	return p.km
}

// Steps counts the queue pops since Initialize.
func (p *Planner) Steps() int {
	return p.steps
}

// Consistent reports whether node id has G == RHS.
func (p *Planner) Consistent(id octree.NodeID) bool {
	n := p.graph.Node(id)
	return n != nil && n.Consistent()
}

// Pending reports whether node id waits in the open queue.
func (p *Planner) Pending(id octree.NodeID) bool {
	n := p.graph.Node(id)
	return n != nil && p.open.contains(n)
}

func (p *Planner) calculateKey(n *ReplanNode) Key {
	m := math32.Min(n.G, n.RHS)
	return Key{K1: m + heuristic(n, p.start) + p.km, K2: m}
}

// bestSuccessor returns the minimum of cost + G over the neighbours of n.
func bestSuccessor(n *ReplanNode) float32 {
	best := math32.Inf()
	for _, s := range n.neighbors {
		best = math32.Min(best, cost(n, s)+s.G)
	}
	return best
}

// updateVertex queues n when it is inconsistent and dequeues it otherwise.
func (p *Planner) updateVertex(n *ReplanNode) {
	if n.Consistent() {
		p.open.remove(n)
		return
	}
	p.open.set(n, p.calculateKey(n))
}

// rescan recomputes the lookahead of n and its neighbours after a cost
// change around n.
func (p *Planner) rescan(n *ReplanNode) {
	for _, u := range append([]*ReplanNode{n}, n.neighbors...) {
		if u != p.goal {
			u.RHS = bestSuccessor(u)
		}
		p.updateVertex(u)
	}
}

// ComputeShortestPath expands queued nodes until the start is consistent
// and no queued key is smaller than the start's.
func (p *Planner) ComputeShortestPath() error {
	if !p.initialized {
		return ErrNotInitialized
	}

	p.bumpKM()

	startTime := time.Now()
	steps := 0
	for p.open.Len() > 0 {
		top := p.open.top()
		if !top.key.Less(p.calculateKey(p.start)) && p.start.Consistent() {
			break
		}
		if steps >= p.opts.MaxSteps {
			err := errors.Wrapf(ErrIterationLimit, "after %d steps", steps)
			p.opts.Logger.WithFields(log.Fields{
				"start": p.start.ID,
				"goal":  p.goal.ID,
			}).WithError(err).Debug("replanning stopped")
			return err
		}
		steps++
		p.steps++

		u := top.node
		kOld, kNew := top.key, p.calculateKey(u)
		switch {
		case kOld.Less(kNew):
			p.open.set(u, kNew)
		case u.Consistent():
			p.open.remove(u)
		case u.G > u.RHS:
			u.G = u.RHS
			p.open.remove(u)
			for _, s := range u.neighbors {
				if s != p.goal {
					s.RHS = math32.Min(s.RHS, cost(s, u)+u.G)
				}
				p.updateVertex(s)
			}
		default:
			u.G = math32.Inf()
			p.rescan(u)
		}
	}

	p.opts.Logger.WithFields(log.Fields{
		"start":   p.start.ID,
		"goal":    p.goal.ID,
		"steps":   steps,
		"queued":  p.open.Len(),
		"elapsed": time.Since(startTime),
	}).Debug("shortest path computed")
	return nil
}

// GetPath walks from the start to the goal, stepping each time to the
// neighbour with the smallest cost + G.
func (p *Planner) GetPath() ([]*ReplanNode, error) {
	if !p.initialized {
		return nil, ErrNotInitialized
	}
	if math32.IsInf(p.start.G) {
		return nil, errors.Wrapf(ErrNoPath, "start %d has infinite cost", p.start.ID)
	}

	path := []*ReplanNode{p.start}
	visited := map[octree.NodeID]bool{p.start.ID: true}
	for current := p.start; current != p.goal; {
		var next *ReplanNode
		best := math32.Inf()
		for _, s := range current.neighbors {
			if c := cost(current, s) + s.G; c < best {
				best, next = c, s
			}
		}
		if next == nil {
			return nil, errors.Wrapf(ErrNoPath, "no finite successor of node %d", current.ID)
		}
		if visited[next.ID] {
			err := errors.Wrapf(ErrCorruptState, "path revisits node %d", next.ID)
			p.opts.Logger.WithField("start", p.start.ID).WithError(err).Error("path extraction aborted")
			return nil, err
		}
		visited[next.ID] = true
		path = append(path, next)
		current = next
	}
	return path, nil
}

// PathCost sums the edge costs along path.
func PathCost(path []*ReplanNode) float32 {
	var total float32
	for i := 1; i < len(path); i++ {
		total += cost(path[i-1], path[i])
	}
	return total
}

// bumpKM adds the distance the start moved since the last change.
func (p *Planner) bumpKM() {
	p.km += heuristic(p.lastStart, p.start)
	p.lastStart = p.start
}

// RecalculateNode refreshes the lookahead around a node whose edge costs
// changed and repairs the search.
func (p *Planner) RecalculateNode(id octree.NodeID) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	n := p.graph.Node(id)
	if n == nil {
		return errors.Wrapf(ErrNodeNotFound, "node %d", id)
	}
	p.bumpKM()
	p.rescan(n)
	return p.ComputeShortestPath()
}

// SetBlocked changes whether a node may be traversed and repairs the search.
func (p *Planner) SetBlocked(id octree.NodeID, blocked bool) error {
	n := p.graph.Node(id)
	if n == nil {
		return errors.Wrapf(ErrNodeNotFound, "node %d", id)
	}
	if n.Blocked == blocked {
		return nil
	}
	n.Blocked = blocked
	return p.RecalculateNode(id)
}

// MoveStart moves the start to another node. The key modifier is raised by
// the distance moved on the next recalculation.
func (p *Planner) MoveStart(id octree.NodeID) error {
	n := p.graph.Node(id)
	if n == nil {
		return errors.Wrapf(ErrNodeNotFound, "node %d", id)
	}
	p.start = n
	return nil
}

// Sync applies a navigation graph update: removed nodes are blocked, added
// nodes are linked to their neighbours in nav, and the search is repaired
// once for all of them.
func (p *Planner) Sync(nav *builder.NavigationGraph, update builder.Update) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	if update.Empty() {
		return nil
	}
	p.bumpKM()

	changed := make([]*ReplanNode, 0, len(update.Removed)+len(update.Added))
	for _, id := range update.Removed {
		if n := p.graph.Node(id); n != nil && !n.Blocked {
			n.Blocked = true
			changed = append(changed, n)
		}
	}
	for _, id := range update.Added {
		gn := nav.Node(id)
		if gn == nil {
			continue
		}
		n := p.graph.AddNode(id, gn.Center)
		n.Blocked = false
		for _, neighbor := range gn.Neighbors() {
			p.graph.Connect(id, neighbor.ID)
		}
		changed = append(changed, n)
	}

	for _, n := range changed {
		p.rescan(n)
	}
	p.opts.Logger.WithFields(log.Fields{
		"removed": len(update.Removed),
		"added":   len(update.Added),
		"km":      p.km,
	}).Debug("replanner synced")
	return p.ComputeShortestPath()
}
