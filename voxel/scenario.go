package voxel

import "github.com/o0olele/octree-nav/math32"

// Scenario names accepted by NewScenario.
const (
	ScenarioLowResolution = "low"
	ScenarioEmpty         = "empty"
)

// LowResolution returns a 20x20x20 unit grid holding a sphere of radius 5 at
// (5,5,5) and a wireframe box at (15,15,5) with half extents (4,4,4).
func LowResolution() *VoxelGrid {
	g := NewVoxelGrid(math32.Vector3i{X: 20, Y: 20, Z: 20}, 1, math32.Vector3{})
	g.StampSphere(math32.Vector3i{X: 5, Y: 5, Z: 5}, 5)
	g.StampWireframeBox(math32.Vector3i{X: 15, Y: 15, Z: 5}, math32.Vector3i{X: 4, Y: 4, Z: 4})
	return g
}

// NewScenario returns the named grid, or nil for an unknown name. An empty
// scenario is a unit grid of the given size with no obstacles.
func NewScenario(name string, size math32.Vector3i) *VoxelGrid {
	switch name {
	case ScenarioLowResolution:
		return LowResolution()
	case ScenarioEmpty:
		return NewVoxelGrid(size, 1, math32.Vector3{})
	}
	return nil
}
