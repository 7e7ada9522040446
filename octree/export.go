package octree

import (
	"github.com/o0olele/octree-nav/geometry"
	"github.com/segmentio/encoding/json"
)

// OctreeExport is the JSON view of a tree.
type OctreeExport struct {
	Root      *OctreeNodeExport `json:"root"`
	MaxDepth  uint8             `json:"max_depth"`
	MinSize   float32           `json:"min_size"`
	NodeCount int               `json:"node_count"`
}

type OctreeNodeExport struct {
	ID         NodeID              `json:"id"`
	Bounds     geometry.AABB       `json:"bounds"`
	Children   []*OctreeNodeExport `json:"children,omitempty"`
	IsLeaf     bool                `json:"is_leaf"`
	IsOccupied bool                `json:"is_occupied"`
	Markers    int                 `json:"markers,omitempty"`
	Depth      uint8               `json:"depth"`
}

// Export converts the tree into its exported form.
func (o *Octree) Export() *OctreeExport {
	return &OctreeExport{
		Root:      o.nodeToExport(0),
		MaxDepth:  o.maxDepth,
		MinSize:   o.minSize,
		NodeCount: len(o.nodes),
	}
}

// ToJSON 导出八叉树为JSON
func (o *Octree) ToJSON() ([]byte, error) {
	return json.Marshal(o.Export())
}

func (o *Octree) nodeToExport(id NodeID) *OctreeNodeExport {
	node := &o.nodes[id]
	export := &OctreeNodeExport{
		ID:         node.ID,
		Bounds:     node.Bounds,
		IsLeaf:     node.IsLeaf(),
		IsOccupied: node.IsOccupied(),
		Markers:    len(node.Markers),
		Depth:      node.Depth,
	}

	if !node.IsLeaf() {
		export.Children = make([]*OctreeNodeExport, 0, 8)
		for _, child := range node.Children {
			export.Children = append(export.Children, o.nodeToExport(child))
		}
	}
	return export
}
