package octree

import (
	"github.com/o0olele/octree-nav/geometry"
	"github.com/o0olele/octree-nav/math32"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// boundsMargin is the half side of the root cube relative to the largest
// extent of the input.
const boundsMargin = 0.6

var (
	ErrInvalidMinSize = errors.New("octree: min node size must be positive")
	ErrOutOfBounds    = errors.New("octree: point outside root bounds")
)

// Octree partitions space around a set of obstacle points. Nodes live in a
// single arena slice; the root is always node 0.
type Octree struct {
	nodes    []OctreeNode
	minSize  float32
	maxDepth uint8
	logger   log.FieldLogger
}

// Delta lists the nodes touched by a dynamic insertion.
type Delta struct {
	Split    []NodeID // leaves that were subdivided
	Occupied []NodeID // leaves that received their first marker
	Created  []NodeID // nodes created by the subdivisions
}

// Empty reports whether the insertion changed the set of empty leaves.
func (d Delta) Empty() bool {
	return len(d.Split) == 0 && len(d.Occupied) == 0
}

// Build computes the root bounds from points and inserts every point.
func Build(points []math32.Vector3, minNodeSize float32) (*Octree, error) {
	if !(minNodeSize > 0) {
		return nil, errors.Wrapf(ErrInvalidMinSize, "got %v", minNodeSize)
	}

	o := &Octree{
		nodes:   make([]OctreeNode, 0, 1+8*len(points)),
		minSize: minNodeSize,
		logger:  log.StandardLogger(),
	}
	o.nodes = append(o.nodes, newNode(0, NoNode, ComputeBounds(points, minNodeSize), 0))

	for _, p := range points {
		o.Insert(p)
	}
	return o, nil
}

// ComputeBounds returns the root cube for points: centred on their tight
// bound, with a half side of 0.6 times the largest extent. An empty set gets
// a cube of side minNodeSize at the origin.
func ComputeBounds(points []math32.Vector3, minNodeSize float32) geometry.AABB {
	if len(points) == 0 {
		return geometry.NewAABB(math32.Vector3{}, math32.Splat(minNodeSize))
	}

	tight := NewMarker(points[0]).Bounds
	for _, p := range points[1:] {
		tight = tight.Encapsulate(NewMarker(p).Bounds)
	}
	side := 2 * boundsMargin * tight.Size().MaxComponent()
	return geometry.NewAABB(tight.Center(), math32.Splat(side))
}

// SetLogger replaces the logger used for rejected insertions.
func (o *Octree) SetLogger(logger log.FieldLogger) {
	o.logger = logger
}

// Insert records an obstacle point, descending from the root into every child
// its marker intersects.
func (o *Octree) Insert(point math32.Vector3) {
	o.insert(0, NewMarker(point), nil)
}

// AddPosition inserts a point into an existing tree. The insertion starts at
// the deepest node holding the point's marker in its interior, which gives the
// same result as inserting from the root. Points outside the root are
// rejected with ErrOutOfBounds and the tree is left untouched.
func (o *Octree) AddPosition(point math32.Vector3) (Delta, error) {
	var d Delta
	if !o.nodes[0].Bounds.Contains(point) {
		o.logger.WithFields(log.Fields{
			"point":  point,
			"bounds": o.nodes[0].Bounds,
		}).Warn("octree: insertion outside root bounds skipped")
		return d, errors.Wrapf(ErrOutOfBounds, "point %v", point)
	}

	m := NewMarker(point)
	o.insert(o.locate(m.Bounds), m, &d)
	return d, nil
}

func (o *Octree) insert(id NodeID, m Marker, d *Delta) {
	if o.nodes[id].Extent() <= o.minSize {
		o.record(id, m, d)
		return
	}

	if o.nodes[id].IsLeaf() {
		o.subdivide(id, d)
	}

	hit := false
	for i := 0; i < 8; i++ {
		child := o.nodes[id].Children[i]
		if m.Bounds.Intersects(o.nodes[child].Bounds) {
			hit = true
			o.insert(child, m, d)
		}
	}
	if !hit {
		o.record(id, m, d)
	}
}

func (o *Octree) record(id NodeID, m Marker, d *Delta) {
	n := &o.nodes[id]
	if d != nil && n.IsEmptyLeaf() {
		d.Occupied = append(d.Occupied, id)
	}
	n.Markers = append(n.Markers, m)
	n.Flags |= FlagsOccupied
}

func (o *Octree) subdivide(id NodeID, d *Delta) {
	parent := o.nodes[id]
	depth := parent.Depth + 1
	for i := 0; i < 8; i++ {
		child := NodeID(len(o.nodes))
		o.nodes = append(o.nodes, newNode(child, id, parent.Bounds.Octant(i), depth))
		o.nodes[id].Children[i] = child
		if d != nil {
			d.Created = append(d.Created, child)
		}
	}
	o.nodes[id].Flags &^= FlagsLeaf
	o.maxDepth = max(o.maxDepth, depth)

	if d != nil {
		d.Split = append(d.Split, id)
	}
}

// locate descends from the root while some child holds box in its interior.
// Leaves outside the returned subtree cannot touch box.
func (o *Octree) locate(box geometry.AABB) NodeID {
	id := NodeID(0)
	for !o.nodes[id].IsLeaf() {
		next := NoNode
		for _, child := range o.nodes[id].Children {
			if o.nodes[child].Bounds.ContainsInterior(box) {
				next = child
				break
			}
		}
		if next == NoNode {
			break
		}
		id = next
	}
	return id
}

// Root returns the id of the root node.
func (o *Octree) Root() NodeID {
	return 0
}

// Node returns the node with the given id, or nil. The pointer is only valid
// until the next insertion.
func (o *Octree) Node(id NodeID) *OctreeNode {
	if id < 0 || int(id) >= len(o.nodes) {
		return nil
	}
	return &o.nodes[id]
}

// Len returns the number of nodes in the arena.
func (o *Octree) Len() int {
	return len(o.nodes)
}

func (o *Octree) MinSize() float32 {
	return o.minSize
}

func (o *Octree) MaxDepth() uint8 {
	return o.maxDepth
}

// Bounds returns the root bounds.
func (o *Octree) Bounds() geometry.AABB {
	return o.nodes[0].Bounds
}

// IsEmptyLeaf reports whether id is an empty leaf.
func (o *Octree) IsEmptyLeaf(id NodeID) bool {
	n := o.Node(id)
	return n != nil && n.IsEmptyLeaf()
}

// Walk visits nodes depth first. Children are skipped when fn returns false.
func (o *Octree) Walk(fn func(node *OctreeNode) bool) {
	o.walk(0, fn)
}

func (o *Octree) walk(id NodeID, fn func(node *OctreeNode) bool) {
	node := &o.nodes[id]
	if !fn(node) || node.IsLeaf() {
		return
	}
	for _, child := range node.Children {
		o.walk(child, fn)
	}
}

// EmptyLeaves collects all empty leaves in depth-first order.
func (o *Octree) EmptyLeaves() []NodeID {
	var leaves []NodeID
	o.Walk(func(node *OctreeNode) bool {
		if node.IsEmptyLeaf() {
			leaves = append(leaves, node.ID)
		}
		return true
	})
	return leaves
}

// QueryEmptyLeaves calls fn for every empty leaf whose bounds intersect box.
// Subtrees whose bounds miss box are pruned.
func (o *Octree) QueryEmptyLeaves(box geometry.AABB, fn func(id NodeID)) {
	o.Walk(func(node *OctreeNode) bool {
		if !node.Bounds.Intersects(box) {
			return false
		}
		if node.IsEmptyLeaf() {
			fn(node.ID)
		}
		return true
	})
}

// LeafAt returns the deepest leaf containing point, or NoNode when the point
// lies outside the root. On shared faces the lower-indexed child wins.
func (o *Octree) LeafAt(point math32.Vector3) NodeID {
	if !o.nodes[0].Bounds.Contains(point) {
		return NoNode
	}

	id := NodeID(0)
	for !o.nodes[id].IsLeaf() {
		next := NoNode
		for _, child := range o.nodes[id].Children {
			if o.nodes[child].Bounds.Contains(point) {
				next = child
				break
			}
		}
		if next == NoNode {
			return id
		}
		id = next
	}
	return id
}

// IsOccupied reports whether the leaf at point holds a marker. Points outside
// the root are reported as occupied.
func (o *Octree) IsOccupied(point math32.Vector3) bool {
	id := o.LeafAt(point)
	if id == NoNode {
		return true
	}
	return o.nodes[id].IsOccupied()
}

// SegmentBlocked reports whether the segment from a to b passes through the
// interior of an occupied leaf. Segments leaving the root are blocked.
func (o *Octree) SegmentBlocked(a, b math32.Vector3) bool {
	root := o.nodes[0].Bounds
	if !root.Contains(a) || !root.Contains(b) {
		return true
	}

	blocked := false
	o.Walk(func(node *OctreeNode) bool {
		if blocked {
			return false
		}
		if _, _, hit := geometry.SegmentAABB(a, b, node.Bounds); !hit {
			return false
		}
		if node.IsLeaf() && node.IsOccupied() && geometry.SegmentCrosses(a, b, node.Bounds) {
			blocked = true
		}
		return !blocked
	})
	return blocked
}
