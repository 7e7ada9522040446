package octree

import (
	"github.com/o0olele/octree-nav/geometry"
	"github.com/o0olele/octree-nav/math32"
)

// NodeID is the arena index of a node. It is assigned at creation and never
// reused while the tree lives.
type NodeID int32

// NoNode marks an absent parent or child.
const NoNode NodeID = -1

const (
	// 1bit isLeaf 1bit isOccupied
	FlagsLeaf     uint8 = 0b10
	FlagsOccupied uint8 = 0b01
)

// Marker is the unit box recorded for an obstacle point.
type Marker struct {
	Position math32.Vector3 `json:"position"`
	Bounds   geometry.AABB  `json:"bounds"`
}

// NewMarker centres a unit box on p.
func NewMarker(p math32.Vector3) Marker {
	return Marker{Position: p, Bounds: geometry.NewAABB(p, math32.Splat(1))}
}

// OctreeNode is one cubic cell of the tree. The leaf flag is the variant tag:
// a leaf has no children, an internal node has all eight.
type OctreeNode struct {
	ID       NodeID        `json:"id"`
	Parent   NodeID        `json:"parent"`
	Bounds   geometry.AABB `json:"bounds"`
	Flags    uint8         `json:"flags"`
	Depth    uint8         `json:"depth"`
	Children [8]NodeID     `json:"-"`
	Markers  []Marker      `json:"-"`
}

func newNode(id, parent NodeID, bounds geometry.AABB, depth uint8) OctreeNode {
	return OctreeNode{
		ID:       id,
		Parent:   parent,
		Bounds:   bounds,
		Flags:    FlagsLeaf,
		Depth:    depth,
		Children: [8]NodeID{NoNode, NoNode, NoNode, NoNode, NoNode, NoNode, NoNode, NoNode},
	}
}

func (node *OctreeNode) IsLeaf() bool {
	return node.Flags&FlagsLeaf == FlagsLeaf
}

func (node *OctreeNode) IsOccupied() bool {
	return node.Flags&FlagsOccupied == FlagsOccupied
}

// IsEmptyLeaf reports whether the node is navigable space.
func (node *OctreeNode) IsEmptyLeaf() bool {
	return node.Flags == FlagsLeaf
}

// Extent is the side length of the cell.
func (node *OctreeNode) Extent() float32 {
	return node.Bounds.Size().X
}
