package query

import (
	"slices"
	"time"

	"github.com/o0olele/octree-nav/builder"
	"github.com/o0olele/octree-nav/octree"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Path is the result of a graph search, start and goal inclusive.
type Path struct {
	Nodes      []*builder.GraphNode `json:"-"`
	Cost       float32              `json:"cost"`
	Iterations int                  `json:"iterations"`
}

// IDs returns the node ids along the path.
func (p *Path) IDs() []octree.NodeID {
	ids := make([]octree.NodeID, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// record is the per-node scratch of one search.
type record struct {
	g      float32
	f      float32
	from   int32
	item   *heapNode
	closed bool
}

const noParent int32 = -1

// neighborFunc calls visit for every neighbour of id with the step cost.
type neighborFunc func(id int32, visit func(neighbor int32, cost float32) error) error

// runAStar searches from start to goal and returns the scratch table. The
// goal record holds the path cost and its from chain leads back to start.
func runAStar(start, goal int32, maxIterations int, h func(int32) float32, neighbors neighborFunc) (map[int32]*record, int, error) {
	var open openSet
	defer open.Clear()

	records := make(map[int32]*record)
	startF := h(start)
	records[start] = &record{f: startF, from: noParent, item: open.push(start, startF)}

	iterations := 0
	for open.Len() > 0 {
		if iterations >= maxIterations {
			return records, iterations, errors.Wrapf(ErrIterationLimit, "after %d iterations", iterations)
		}
		iterations++

		item := open.pop()
		current := item.nodeID
		releaseHeapNode(item)

		rec, ok := records[current]
		if !ok {
			return records, iterations, errors.Wrapf(ErrCorruptState, "popped node %d has no record", current)
		}
		rec.item = nil

		if current == goal {
			return records, iterations, nil
		}
		rec.closed = true

		err := neighbors(current, func(neighbor int32, cost float32) error {
			nrec, seen := records[neighbor]
			if seen && nrec.closed {
				return nil
			}

			tentative := rec.g + cost
			if seen && tentative >= nrec.g {
				return nil
			}
			if !seen {
				nrec = &record{}
				records[neighbor] = nrec
			}

			nrec.g = tentative
			nrec.f = tentative + h(neighbor)
			nrec.from = current
			if nrec.item != nil {
				return open.rekey(nrec.item, nrec.f)
			}
			nrec.item = open.push(neighbor, nrec.f)
			return nil
		})
		if err != nil {
			return records, iterations, err
		}
	}
	return records, iterations, errors.Wrapf(ErrNoPath, "open set exhausted after %d iterations", iterations)
}

// tracePath follows from pointers back from goal and returns start..goal.
func tracePath(records map[int32]*record, goal int32) ([]int32, error) {
	var ids []int32
	for id := goal; id != noParent; {
		if len(ids) > len(records) {
			return nil, errors.Wrapf(ErrCorruptState, "predecessor cycle through node %d", id)
		}
		ids = append(ids, id)
		rec, ok := records[id]
		if !ok {
			return nil, errors.Wrapf(ErrCorruptState, "node %d on the path has no record", id)
		}
		id = rec.from
	}
	slices.Reverse(ids)
	return ids, nil
}

// FindPath runs A* over the navigation graph between two graph nodes. The
// heuristic and the edge costs are distances between leaf centres.
func FindPath(g *builder.NavigationGraph, start, goal octree.NodeID, opts ...Option) (*Path, error) {
	o := newOptions(DefaultMaxIterations, opts)

	startNode, goalNode := g.Node(start), g.Node(goal)
	if startNode == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "start %d", start)
	}
	if goalNode == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "goal %d", goal)
	}

	startTime := time.Now()
	heuristic := func(id int32) float32 {
		return g.Node(octree.NodeID(id)).Center.Distance(goalNode.Center)
	}
	neighbors := func(id int32, visit func(int32, float32) error) error {
		node := g.Node(octree.NodeID(id))
		if node == nil {
			return errors.Wrapf(ErrCorruptState, "node %d left the graph during the search", id)
		}
		for _, e := range node.Edges {
			if err := visit(int32(e.Other(node).ID), e.Cost); err != nil {
				return err
			}
		}
		return nil
	}

	records, iterations, err := runAStar(int32(start), int32(goal), o.MaxIterations, heuristic, neighbors)
	if err != nil {
		return nil, logFailure(o.Logger, err, start, goal)
	}

	ids, err := tracePath(records, int32(goal))
	if err != nil {
		return nil, logFailure(o.Logger, err, start, goal)
	}

	path := &Path{
		Nodes:      make([]*builder.GraphNode, len(ids)),
		Cost:       records[int32(goal)].g,
		Iterations: iterations,
	}
	for i, id := range ids {
		path.Nodes[i] = g.Node(octree.NodeID(id))
	}

	o.Logger.WithFields(log.Fields{
		"start":      start,
		"goal":       goal,
		"length":     len(ids),
		"iterations": iterations,
		"elapsed":    time.Since(startTime),
	}).Debug("path found")
	return path, nil
}

// logFailure logs corrupt state at error level and exhaustion at debug level.
func logFailure(logger log.FieldLogger, err error, start, goal any) error {
	entry := logger.WithFields(log.Fields{"start": start, "goal": goal})
	if errors.Is(err, ErrCorruptState) {
		entry.WithError(err).Error("search aborted")
	} else {
		entry.WithError(err).Debug("no path")
	}
	return err
}
