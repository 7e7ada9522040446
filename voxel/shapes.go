package voxel

import (
	"github.com/o0olele/octree-nav/math32"
)

// clampedBox returns the voxel range of center +- extent, clipped to the grid.
// ok is false when the range misses the grid.
func (g *VoxelGrid) clampedBox(center math32.Vector3i, extent math32.Vector3i) (lo, hi math32.Vector3i, ok bool) {
	lo = center.Sub(extent).Max(math32.Vector3i{})
	hi = center.Add(extent).Min(g.Size.Sub(math32.Vector3i{X: 1, Y: 1, Z: 1}))
	return lo, hi, lo.X <= hi.X && lo.Y <= hi.Y && lo.Z <= hi.Z
}

// StampSphere marks every voxel whose squared distance to center is at most
// radius squared as solid. Voxels already solid stay solid.
func (g *VoxelGrid) StampSphere(center math32.Vector3i, radius float32) int {
	r := int32(radius + 1)
	lo, hi, ok := g.clampedBox(center, math32.Vector3i{X: r, Y: r, Z: r})
	if !ok {
		return 0
	}

	radiusSquared := radius * radius
	stamped := 0
	for z := lo.Z; z <= hi.Z; z++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				d := math32.Vector3i{X: x, Y: y, Z: z}.Sub(center)
				if float32(d.X*d.X+d.Y*d.Y+d.Z*d.Z) <= radiusSquared {
					g.Set(math32.Vector3i{X: x, Y: y, Z: z}, Voxel(VoxelSolid))
					stamped++
				}
			}
		}
	}
	return stamped
}

// StampBox fills center +- halfExtents.
func (g *VoxelGrid) StampBox(center, halfExtents math32.Vector3i) int {
	lo, hi, ok := g.clampedBox(center, halfExtents)
	if !ok {
		return 0
	}

	stamped := 0
	for z := lo.Z; z <= hi.Z; z++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				g.Set(math32.Vector3i{X: x, Y: y, Z: z}, Voxel(VoxelSolid))
				stamped++
			}
		}
	}
	return stamped
}

// StampWireframeBox marks the twelve edges of the box center +- halfExtents,
// clipped to the grid.
func (g *VoxelGrid) StampWireframeBox(center, halfExtents math32.Vector3i) {
	lo, hi, ok := g.clampedBox(center, halfExtents)
	if !ok {
		return
	}

	corner := func(i int) math32.Vector3i {
		c := lo
		if i&1 != 0 {
			c.X = hi.X
		}
		if i&2 != 0 {
			c.Y = hi.Y
		}
		if i&4 != 0 {
			c.Z = hi.Z
		}
		return c
	}
	// corners differing in exactly one bit share an edge
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				g.StampLine(corner(i), corner(i|bit))
			}
		}
	}
}

// StampLine marks the voxels of a 3D DDA line from start to end. Voxels
// outside the grid are skipped.
func (g *VoxelGrid) StampLine(start, end math32.Vector3i) {
	d := end.Sub(start).Abs()
	step := math32.Vector3i{X: sign(end.X - start.X), Y: sign(end.Y - start.Y), Z: sign(end.Z - start.Z)}

	// walk the dominant axis one voxel at a time and carry the other two
	// with error terms
	axis := [3]int32{d.X, d.Y, d.Z}
	major := 0
	if axis[1] > axis[major] {
		major = 1
	}
	if axis[2] > axis[major] {
		major = 2
	}
	steps := axis[major]
	errs := [3]int32{steps / 2, steps / 2, steps / 2}

	p := start
	for i := int32(0); ; i++ {
		g.Set(p, Voxel(VoxelSolid))
		if i == steps {
			return
		}
		for a := 0; a < 3; a++ {
			if a == major {
				continue
			}
			errs[a] -= axis[a]
			if errs[a] < 0 {
				p = advance(p, a, step)
				errs[a] += steps
			}
		}
		p = advance(p, major, step)
	}
}

func advance(p math32.Vector3i, axis int, step math32.Vector3i) math32.Vector3i {
	switch axis {
	case 0:
		p.X += step.X
	case 1:
		p.Y += step.Y
	default:
		p.Z += step.Z
	}
	return p
}

func sign(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Cull clears solid voxels whose six face neighbours are all solid, leaving
// the shell of every obstacle. Voxels on the grid border are kept. The
// decision for every voxel uses the occupancy before culling. Returns the
// number of voxels cleared.
func (g *VoxelGrid) Cull() int {
	faces := [6]math32.Vector3i{
		{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
	}

	var interior []int
	for i, v := range g.Voxels {
		if !v.IsSolid() {
			continue
		}
		coord := g.Coordinate(i)
		enclosed := true
		for _, f := range faces {
			n := coord.Add(f)
			if !g.IsValidCoordinate(n) || !g.IsSolid(n) {
				enclosed = false
				break
			}
		}
		if enclosed {
			interior = append(interior, i)
		}
	}

	for _, i := range interior {
		g.Voxels[i] = Voxel(VoxelEmpty)
	}
	return len(interior)
}
