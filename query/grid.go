package query

import (
	"time"

	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// GridNode is a free cell of a uniform grid.
type GridNode struct {
	ID       int32           `json:"id"`
	Position math32.Vector3i `json:"position"`
}

// Grid is a set of free cells inside a map size, indexed by the Morton code
// of their coordinate.
type Grid struct {
	size  math32.Vector3i
	cells map[octree.MortonCode]*GridNode
	nodes []*GridNode
}

// NewGrid creates an empty grid covering [0, size) on every axis.
func NewGrid(size math32.Vector3i) *Grid {
	return &Grid{
		size:  size,
		cells: make(map[octree.MortonCode]*GridNode),
	}
}

// GridFromCells creates a grid holding the given free cells.
func GridFromCells(size math32.Vector3i, cells []math32.Vector3i) (*Grid, error) {
	g := NewGrid(size)
	for _, c := range cells {
		if _, err := g.AddCell(c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddCell marks pos as free. Adding an existing cell returns it unchanged.
func (g *Grid) AddCell(pos math32.Vector3i) (*GridNode, error) {
	if !pos.Within(g.size) {
		return nil, errors.Wrapf(ErrCellOutOfRange, "cell %v, size %v", pos, g.size)
	}
	key, err := octree.GridKey(pos)
	if err != nil {
		return nil, err
	}
	if node, ok := g.cells[key]; ok {
		return node, nil
	}

	node := &GridNode{ID: int32(len(g.nodes)), Position: pos}
	g.cells[key] = node
	g.nodes = append(g.nodes, node)
	return node, nil
}

// Cell returns the free cell at pos, or nil.
func (g *Grid) Cell(pos math32.Vector3i) *GridNode {
	if !pos.Within(g.size) {
		return nil
	}
	key, err := octree.GridKey(pos)
	if err != nil {
		return nil
	}
	return g.cells[key]
}

func (g *Grid) Size() math32.Vector3i {
	return g.size
}

// Len returns the number of free cells.
func (g *Grid) Len() int {
	return len(g.nodes)
}

// neighborOffsets holds the 26 moves of the 3x3x3 neighbourhood with their
// Euclidean lengths.
var neighborOffsets = func() []gridMove {
	moves := make([]gridMove, 0, 26)
	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				off := math32.Vector3i{X: dx, Y: dy, Z: dz}
				moves = append(moves, gridMove{offset: off, cost: stepCost(off)})
			}
		}
	}
	return moves
}()

type gridMove struct {
	offset math32.Vector3i
	cost   float32
}

func stepCost(off math32.Vector3i) float32 {
	switch math32.AbsInt(off.X) + math32.AbsInt(off.Y) + math32.AbsInt(off.Z) {
	case 1:
		return 1
	case 2:
		return math32.Sqrt2
	default:
		return math32.Sqrt3
	}
}

// octile is the exact cost of the cheapest 26-connected move sequence
// between a and b on an open grid.
func octile(a, b math32.Vector3i) float32 {
	d := a.Sub(b).Abs()
	lo := math32.Min(d.X, math32.Min(d.Y, d.Z))
	hi := math32.Max(d.X, math32.Max(d.Y, d.Z))
	mid := d.X + d.Y + d.Z - lo - hi
	return float32(lo)*(math32.Sqrt3-math32.Sqrt2) + float32(mid)*(math32.Sqrt2-1) + float32(hi)
}

// GridPath is the result of a grid search, start and goal inclusive.
type GridPath struct {
	Cells      []*GridNode `json:"cells"`
	Cost       float32     `json:"cost"`
	Iterations int         `json:"iterations"`
}

// Positions returns the coordinates along the path.
func (p *GridPath) Positions() []math32.Vector3i {
	positions := make([]math32.Vector3i, len(p.Cells))
	for i, c := range p.Cells {
		positions[i] = c.Position
	}
	return positions
}

// FindGridPath runs A* over the free cells of grid with 26-connectivity and
// the octile heuristic.
func FindGridPath(grid *Grid, start, goal math32.Vector3i, opts ...Option) (*GridPath, error) {
	o := newOptions(DefaultGridMaxIterations, opts)

	startCell, goalCell := grid.Cell(start), grid.Cell(goal)
	if startCell == nil {
		return nil, errors.Wrapf(ErrCellNotFound, "start %v", start)
	}
	if goalCell == nil {
		return nil, errors.Wrapf(ErrCellNotFound, "goal %v", goal)
	}

	startTime := time.Now()
	heuristic := func(id int32) float32 {
		return octile(grid.nodes[id].Position, goal)
	}
	neighbors := func(id int32, visit func(int32, float32) error) error {
		pos := grid.nodes[id].Position
		for _, m := range neighborOffsets {
			cell := grid.Cell(pos.Add(m.offset))
			if cell == nil {
				continue
			}
			if err := visit(cell.ID, m.cost); err != nil {
				return err
			}
		}
		return nil
	}

	records, iterations, err := runAStar(startCell.ID, goalCell.ID, o.MaxIterations, heuristic, neighbors)
	if err != nil {
		return nil, logFailure(o.Logger, err, start, goal)
	}

	ids, err := tracePath(records, goalCell.ID)
	if err != nil {
		return nil, logFailure(o.Logger, err, start, goal)
	}

	path := &GridPath{
		Cells:      make([]*GridNode, len(ids)),
		Cost:       records[goalCell.ID].g,
		Iterations: iterations,
	}
	for i, id := range ids {
		path.Cells[i] = grid.nodes[id]
	}

	o.Logger.WithFields(log.Fields{
		"start":      start,
		"goal":       goal,
		"length":     len(ids),
		"iterations": iterations,
		"elapsed":    time.Since(startTime),
	}).Debug("grid path found")
	return path, nil
}
