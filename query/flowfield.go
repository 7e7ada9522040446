package query

import (
	"slices"

	"github.com/o0olele/octree-nav/builder"
	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// flowRecord extends the search scratch with the successor pointer.
type flowRecord struct {
	record
	to int32
}

// FlowField is an A* search whose open and closed sets survive between
// queries. The search tree is rooted at the start of the first query after a
// reset; every closed node holds its optimal cost from the root, so later
// queries that end on closed nodes are answered without expansion.
type FlowField struct {
	graph   *builder.NavigationGraph
	opts    SearchOptions
	root    octree.NodeID
	target  octree.NodeID
	records map[int32]*flowRecord
	open    openSet
	closed  math32.Bitmap

	expansions  int
	relaxations int
}

// NewFlowField creates an empty cache over g.
func NewFlowField(g *builder.NavigationGraph, opts ...Option) *FlowField {
	return &FlowField{
		graph:   g,
		opts:    newOptions(DefaultMaxIterations, opts),
		root:    octree.NoNode,
		target:  octree.NoNode,
		records: make(map[int32]*flowRecord),
	}
}

// Root returns the node the cached search started from, or NoNode.
func (ff *FlowField) Root() octree.NodeID {
	return ff.root
}

// Expansions counts nodes moved to the closed set since creation.
func (ff *FlowField) Expansions() int {
	return ff.expansions
}

// Relaxations counts edges examined since creation.
func (ff *FlowField) Relaxations() int {
	return ff.relaxations
}

// Closed reports whether id has a settled cost.
func (ff *FlowField) Closed(id octree.NodeID) bool {
	return id >= 0 && ff.closed.Contains(uint32(id))
}

// Reset drops all cached state.
func (ff *FlowField) Reset() {
	ff.open.Clear()
	ff.closed.Clear()
	clear(ff.records)
	ff.root = octree.NoNode
	ff.target = octree.NoNode
}

// RemoveNode detaches a node from the graph. Cached state that reached the
// node is discarded.
func (ff *FlowField) RemoveNode(id octree.NodeID) bool {
	removed := ff.graph.RemoveNode(id)
	if _, touched := ff.records[int32(id)]; touched {
		ff.opts.Logger.WithField("node", id).Debug("flow field reset by node removal")
		ff.Reset()
	}
	return removed
}

// FindPath returns a shortest path from start to goal, reusing earlier
// expansion where it can. When both ends are already closed but neither is
// the root, the path joins them through their common ancestor in the search
// tree; it is valid but may be longer than a fresh search would give.
func (ff *FlowField) FindPath(start, goal octree.NodeID) (*Path, error) {
	if ff.graph.Node(start) == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "start %d", start)
	}
	if ff.graph.Node(goal) == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "goal %d", goal)
	}

	if ff.root != octree.NoNode {
		switch {
		case start == ff.root && ff.Closed(goal):
			return ff.buildPath(ff.trace, goal, false)
		case goal == ff.root && ff.Closed(start):
			return ff.buildPath(ff.trace, start, true)
		case ff.Closed(start) && ff.Closed(goal):
			return ff.join(start, goal)
		case start == ff.root:
			ff.retarget(goal)
			return ff.expand(goal)
		}
	}

	ff.Reset()
	ff.root = start
	ff.target = goal
	f := ff.heuristic(int32(start), goal)
	ff.records[int32(start)] = &flowRecord{
		record: record{f: f, from: noParent, item: ff.open.push(int32(start), f)},
		to:     noParent,
	}
	return ff.expand(goal)
}

func (ff *FlowField) heuristic(id int32, goal octree.NodeID) float32 {
	return ff.graph.Node(octree.NodeID(id)).Center.Distance(ff.graph.Node(goal).Center)
}

// retarget rescores the open set for a new goal.
func (ff *FlowField) retarget(goal octree.NodeID) {
	if goal == ff.target {
		return
	}
	ff.target = goal
	ff.open.reorder(func(id int32) float32 {
		rec := ff.records[id]
		rec.f = rec.g + ff.heuristic(id, goal)
		return rec.f
	})
}

func (ff *FlowField) expand(goal octree.NodeID) (*Path, error) {
	iterations := 0
	for ff.open.Len() > 0 {
		if iterations >= ff.opts.MaxIterations {
			err := errors.Wrapf(ErrIterationLimit, "after %d iterations", iterations)
			return nil, ff.abort(err, goal)
		}
		iterations++

		item := ff.open.pop()
		current := item.nodeID
		releaseHeapNode(item)

		rec, ok := ff.records[current]
		node := ff.graph.Node(octree.NodeID(current))
		if !ok || node == nil {
			err := errors.Wrapf(ErrCorruptState, "popped node %d is not tracked", current)
			return nil, ff.abort(err, goal)
		}
		rec.item = nil
		ff.closed.Set(uint32(current))
		ff.expansions++

		for _, e := range node.Edges {
			neighbor := int32(e.Other(node).ID)
			if ff.closed.Contains(uint32(neighbor)) {
				continue
			}
			ff.relaxations++

			tentative := rec.g + e.Cost
			nrec, seen := ff.records[neighbor]
			if seen && tentative >= nrec.g {
				continue
			}
			if !seen {
				nrec = &flowRecord{to: noParent}
				ff.records[neighbor] = nrec
			}

			nrec.g = tentative
			nrec.f = tentative + ff.heuristic(neighbor, goal)
			nrec.from = current
			rec.to = neighbor
			if nrec.item != nil {
				if err := ff.open.rekey(nrec.item, nrec.f); err != nil {
					return nil, ff.abort(err, goal)
				}
			} else {
				nrec.item = ff.open.push(neighbor, nrec.f)
			}
		}

		if octree.NodeID(current) == goal {
			ff.opts.Logger.WithFields(log.Fields{
				"root":       ff.root,
				"goal":       goal,
				"iterations": iterations,
				"expansions": ff.expansions,
			}).Debug("flow field expanded to goal")
			path, err := ff.buildPath(ff.trace, goal, false)
			if path != nil {
				path.Iterations = iterations
			}
			return path, err
		}
	}

	err := errors.Wrapf(ErrNoPath, "open set exhausted after %d iterations", iterations)
	return nil, ff.abort(err, goal)
}

// abort logs a failed query. Corrupt state is dropped so later queries
// start over.
func (ff *FlowField) abort(err error, goal octree.NodeID) error {
	root := ff.root
	if errors.Is(err, ErrCorruptState) {
		ff.Reset()
	}
	return logFailure(ff.opts.Logger, err, root, goal)
}

// trace returns root..id along predecessor pointers.
func (ff *FlowField) trace(id int32) ([]int32, error) {
	var ids []int32
	for cur := id; cur != noParent; {
		if len(ids) > len(ff.records) {
			return nil, errors.Wrapf(ErrCorruptState, "predecessor cycle through node %d", cur)
		}
		rec, ok := ff.records[cur]
		if !ok {
			return nil, errors.Wrapf(ErrCorruptState, "node %d on the path has no record", cur)
		}
		ids = append(ids, cur)
		cur = rec.from
	}
	slices.Reverse(ids)
	return ids, nil
}

// join links start and goal through their lowest common ancestor.
func (ff *FlowField) join(start, goal octree.NodeID) (*Path, error) {
	return ff.buildPath(func(int32) ([]int32, error) {
		up, err := ff.trace(int32(start))
		if err != nil {
			return nil, err
		}
		down, err := ff.trace(int32(goal))
		if err != nil {
			return nil, err
		}

		// both chains begin at the root; skip their shared prefix but keep
		// the last shared node
		common := 0
		for common < len(up) && common < len(down) && up[common] == down[common] {
			common++
		}
		slices.Reverse(up)
		ids := append(up[:len(up)-common+1], down[common:]...)
		return ids, nil
	}, goal, false)
}

// buildPath converts traced ids to graph nodes, rewrites successor pointers
// along the path and sums the edge costs.
func (ff *FlowField) buildPath(trace func(int32) ([]int32, error), id octree.NodeID, reverse bool) (*Path, error) {
	ids, err := trace(int32(id))
	if err != nil {
		return nil, ff.abort(err, id)
	}
	if reverse {
		slices.Reverse(ids)
	}

	path := &Path{Nodes: make([]*builder.GraphNode, len(ids))}
	for i, nid := range ids {
		path.Nodes[i] = ff.graph.Node(octree.NodeID(nid))
		if path.Nodes[i] == nil {
			err := errors.Wrapf(ErrCorruptState, "node %d on the path left the graph", nid)
			return nil, ff.abort(err, id)
		}
		if i > 0 {
			path.Cost += path.Nodes[i-1].Center.Distance(path.Nodes[i].Center)
			ff.records[ids[i-1]].to = nid
		}
	}
	return path, nil
}

// NextHop returns the recorded successor of id, or NoNode.
func (ff *FlowField) NextHop(id octree.NodeID) octree.NodeID {
	rec, ok := ff.records[int32(id)]
	if !ok || rec.to == noParent {
		return octree.NoNode
	}
	return octree.NodeID(rec.to)
}

// Parent returns the predecessor of id in the search tree, or NoNode.
func (ff *FlowField) Parent(id octree.NodeID) octree.NodeID {
	rec, ok := ff.records[int32(id)]
	if !ok || rec.from == noParent {
		return octree.NoNode
	}
	return octree.NodeID(rec.from)
}

// Cost returns the settled cost of a closed node from the root.
func (ff *FlowField) Cost(id octree.NodeID) (float32, bool) {
	if !ff.Closed(id) {
		return 0, false
	}
	return ff.records[int32(id)].g, true
}

// Field maps every closed node except the root to its next hop toward the
// root.
func (ff *FlowField) Field() map[octree.NodeID]octree.NodeID {
	field := make(map[octree.NodeID]octree.NodeID)
	ff.closed.Range(func(x uint32) bool {
		if rec := ff.records[int32(x)]; rec != nil && rec.from != noParent {
			field[octree.NodeID(x)] = octree.NodeID(rec.from)
		}
		return true
	})
	return field
}
