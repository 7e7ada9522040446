package voxel

import (
	"unsafe"

	"github.com/o0olele/octree-nav/math32"
)

// VoxelType represents the occupancy of a voxel
type VoxelType uint8

const (
	VoxelEmpty VoxelType = iota // free space
	VoxelSolid                  // obstacle
)

// Voxel represents a single voxel in the grid
type Voxel VoxelType

// IsSolid returns true if the voxel is an obstacle
func (v Voxel) IsSolid() bool {
	return v == Voxel(VoxelSolid)
}

// VoxelGrid is a dense occupancy volume. Voxel (x, y, z) covers the world cube
// starting at Origin + (x, y, z) * VoxelSize.
type VoxelGrid struct {
	Size      math32.Vector3i `json:"size"`       // Grid dimensions (width, height, depth)
	VoxelSize float32         `json:"voxel_size"` // Size of each voxel in world units
	Origin    math32.Vector3  `json:"origin"`     // World position of voxel (0,0,0)
	Voxels    []Voxel         `json:"voxels"`     // Flattened 3D array, x fastest
}

// NewVoxelGrid creates an empty voxel grid
func NewVoxelGrid(size math32.Vector3i, voxelSize float32, origin math32.Vector3) *VoxelGrid {
	return &VoxelGrid{
		Size:      size,
		VoxelSize: voxelSize,
		Origin:    origin,
		Voxels:    make([]Voxel, size.Volume()),
	}
}

// Index converts 3D coordinates to the flattened index, or -1
func (g *VoxelGrid) Index(coord math32.Vector3i) int {
	if !g.IsValidCoordinate(coord) {
		return -1
	}
	return int(coord.Z*g.Size.X*g.Size.Y + coord.Y*g.Size.X + coord.X)
}

// Coordinate converts a flattened index back to 3D coordinates
func (g *VoxelGrid) Coordinate(index int) math32.Vector3i {
	if index < 0 || index >= len(g.Voxels) {
		return math32.Vector3i{X: -1, Y: -1, Z: -1}
	}

	layer := int(g.Size.X * g.Size.Y)
	z := int32(index / layer)
	remainder := int32(index % layer)
	return math32.Vector3i{X: remainder % g.Size.X, Y: remainder / g.Size.X, Z: z}
}

// IsValidCoordinate checks if the coordinate is within grid bounds
func (g *VoxelGrid) IsValidCoordinate(coord math32.Vector3i) bool {
	return coord.Within(g.Size)
}

// Get returns the voxel at coord. Coordinates outside the grid read as empty.
func (g *VoxelGrid) Get(coord math32.Vector3i) Voxel {
	index := g.Index(coord)
	if index == -1 {
		return Voxel(VoxelEmpty)
	}
	return g.Voxels[index]
}

// Set sets the voxel at coord and reports whether coord is inside the grid
func (g *VoxelGrid) Set(coord math32.Vector3i, voxel Voxel) bool {
	index := g.Index(coord)
	if index == -1 {
		return false
	}
	g.Voxels[index] = voxel
	return true
}

// IsSolid checks if a voxel coordinate holds an obstacle
func (g *VoxelGrid) IsSolid(coord math32.Vector3i) bool {
	return g.Get(coord).IsSolid()
}

// WorldToVoxel converts world coordinates to voxel coordinates
func (g *VoxelGrid) WorldToVoxel(worldPos math32.Vector3) math32.Vector3i {
	localPos := worldPos.Sub(g.Origin)
	return math32.Vector3i{
		X: int32(math32.Floor(localPos.X / g.VoxelSize)),
		Y: int32(math32.Floor(localPos.Y / g.VoxelSize)),
		Z: int32(math32.Floor(localPos.Z / g.VoxelSize)),
	}
}

// VoxelToWorld converts voxel coordinates to the world position of the voxel corner
func (g *VoxelGrid) VoxelToWorld(coord math32.Vector3i) math32.Vector3 {
	return g.Origin.Add(coord.ToVector3().Mul(g.VoxelSize))
}

// Clear resets all voxels to empty
func (g *VoxelGrid) Clear() {
	clear(g.Voxels)
}

// SolidCount returns the number of solid voxels
func (g *VoxelGrid) SolidCount() int {
	count := 0
	for _, v := range g.Voxels {
		if v.IsSolid() {
			count++
		}
	}
	return count
}

// GetMemoryUsage returns approximate memory usage in bytes
func (g *VoxelGrid) GetMemoryUsage() int {
	return len(g.Voxels) * int(unsafe.Sizeof(Voxel(0)))
}

// ToBitmap returns the flattened indices of the solid voxels
func (g *VoxelGrid) ToBitmap() math32.Bitmap {
	bitmap := math32.Bitmap{}
	for i, voxel := range g.Voxels {
		if voxel.IsSolid() {
			bitmap.Set(uint32(i))
		}
	}
	return bitmap
}
