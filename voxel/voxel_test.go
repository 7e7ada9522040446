package voxel

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/o0olele/octree-nav/math32"
	"github.com/stretchr/testify/require"
)

func v3i(x, y, z int32) math32.Vector3i {
	return math32.Vector3i{X: x, Y: y, Z: z}
}

func TestIndexCoordinate(t *testing.T) {
	g := NewVoxelGrid(v3i(3, 4, 5), 1, math32.Vector3{})
	require.Len(t, g.Voxels, 60)
	for i := range g.Voxels {
		require.Equal(t, i, g.Index(g.Coordinate(i)))
	}
	require.Equal(t, -1, g.Index(v3i(3, 0, 0)))
	require.Equal(t, v3i(-1, -1, -1), g.Coordinate(60))

	require.False(t, g.Set(v3i(0, -1, 0), Voxel(VoxelSolid)))
	require.False(t, g.IsSolid(v3i(0, -1, 0)))
	require.True(t, g.Set(v3i(2, 3, 4), Voxel(VoxelSolid)))
	require.True(t, g.IsSolid(v3i(2, 3, 4)))
	require.Equal(t, 1, g.SolidCount())
	require.Equal(t, 1, g.ToBitmap().Count())

	g.Clear()
	require.Zero(t, g.SolidCount())
}

func TestWorldConversion(t *testing.T) {
	g := NewVoxelGrid(v3i(4, 4, 4), 0.5, math32.Vector3{X: 1, Y: 2, Z: 3})
	require.Equal(t, math32.Vector3{X: 2, Y: 2.5, Z: 3}, g.VoxelToWorld(v3i(2, 1, 0)))
	require.Equal(t, v3i(2, 1, 0), g.WorldToVoxel(math32.Vector3{X: 2.1, Y: 2.6, Z: 3.2}))
}

func TestStampSphere(t *testing.T) {
	g := NewVoxelGrid(v3i(12, 12, 12), 1, math32.Vector3{})
	center := v3i(5, 5, 5)
	stamped := g.StampSphere(center, 5)

	want := 0
	for i := range g.Voxels {
		d := g.Coordinate(i).Sub(center)
		inside := d.X*d.X+d.Y*d.Y+d.Z*d.Z <= 25
		if inside {
			want++
		}
		require.Equal(t, inside, g.Voxels[i].IsSolid(), "voxel %v", g.Coordinate(i))
	}
	require.Equal(t, want, stamped)
	require.Equal(t, want, g.SolidCount())

	t.Run("clipped at the border", func(t *testing.T) {
		g := NewVoxelGrid(v3i(4, 4, 4), 1, math32.Vector3{})
		// the octant of a radius 1 ball: the centre and its three axis neighbours
		require.Equal(t, 4, g.StampSphere(v3i(0, 0, 0), 1))
	})

	t.Run("outside the grid", func(t *testing.T) {
		g := NewVoxelGrid(v3i(4, 4, 4), 1, math32.Vector3{})
		require.Zero(t, g.StampSphere(v3i(20, 20, 20), 2))
	})
}

func TestStampWireframeBox(t *testing.T) {
	g := NewVoxelGrid(v3i(20, 20, 20), 1, math32.Vector3{})
	g.StampWireframeBox(v3i(15, 15, 5), v3i(4, 4, 4))

	// 12 edges of 9 voxels sharing 8 corners
	require.Equal(t, 12*9-8*2, g.SolidCount())
	require.True(t, g.IsSolid(v3i(11, 11, 1)))
	require.True(t, g.IsSolid(v3i(15, 11, 1)))
	require.True(t, g.IsSolid(v3i(19, 19, 9)))
	require.False(t, g.IsSolid(v3i(15, 15, 1)))
	require.False(t, g.IsSolid(v3i(15, 15, 5)))
}

func TestStampBoxAndCull(t *testing.T) {
	g := NewVoxelGrid(v3i(5, 5, 5), 1, math32.Vector3{})
	require.Equal(t, 27, g.StampBox(v3i(2, 2, 2), v3i(1, 1, 1)))
	require.Equal(t, 1, g.Cull())
	require.False(t, g.IsSolid(v3i(2, 2, 2)))
	require.Equal(t, 26, g.SolidCount())
	require.Zero(t, g.Cull())
}

func TestStampLine(t *testing.T) {
	g := NewVoxelGrid(v3i(6, 6, 6), 1, math32.Vector3{})
	g.StampLine(v3i(0, 0, 0), v3i(3, 3, 3))
	require.Equal(t, 4, g.SolidCount())
	for i := int32(0); i <= 3; i++ {
		require.True(t, g.IsSolid(v3i(i, i, i)))
	}

	g.Clear()
	g.StampLine(v3i(5, 0, 1), v3i(1, 2, 1))
	require.Equal(t, 5, g.SolidCount())
	require.True(t, g.IsSolid(v3i(5, 0, 1)))
	require.True(t, g.IsSolid(v3i(1, 2, 1)))
}

func TestPoints(t *testing.T) {
	g := LowResolution()
	sortPoints := cmpopts.SortSlices(func(a, b math32.Vector3) bool {
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	serial, err := g.Points(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, serial, g.SolidCount())

	for _, workers := range []int{0, 3, 64} {
		parallel, err := g.Points(context.Background(), workers)
		require.NoError(t, err)
		if diff := cmp.Diff(serial, parallel, sortPoints); diff != "" {
			t.Errorf("workers=%d differs (-serial +parallel):\n%s", workers, diff)
		}
	}

	for _, p := range serial {
		require.True(t, g.IsSolid(g.WorldToVoxel(p)))
	}
	require.Len(t, g.FreeCells(), len(g.Voxels)-g.SolidCount())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Points(ctx, 2)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewScenario(t *testing.T) {
	require.NotNil(t, NewScenario(ScenarioLowResolution, math32.Vector3i{}))
	empty := NewScenario(ScenarioEmpty, v3i(2, 3, 4))
	require.Len(t, empty.Voxels, 24)
	require.Nil(t, NewScenario("castle", v3i(1, 1, 1)))
}
