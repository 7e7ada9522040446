package voxel

import (
	"context"
	"runtime"

	"github.com/o0olele/octree-nav/math32"
	"golang.org/x/sync/errgroup"
)

// Points returns the world corner of every solid voxel. The grid is split
// into z slabs converted concurrently by up to workers goroutines; workers <= 0
// uses GOMAXPROCS. The order of the result is not significant.
func (g *VoxelGrid) Points(ctx context.Context, workers int) ([]math32.Vector3, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	depth := int(g.Size.Z)
	if depth <= 0 {
		return nil, nil
	}
	workers = min(workers, depth)

	slabs := make([][]math32.Vector3, workers)
	layer := int(g.Size.X * g.Size.Y)
	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		eg.Go(func() error {
			for z := w; z < depth; z += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				for i := z * layer; i < (z+1)*layer; i++ {
					if g.Voxels[i].IsSolid() {
						slabs[w] = append(slabs[w], g.VoxelToWorld(g.Coordinate(i)))
					}
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, s := range slabs {
		total += len(s)
	}
	points := make([]math32.Vector3, 0, total)
	for _, s := range slabs {
		points = append(points, s...)
	}
	return points, nil
}

// FreeCells returns the coordinates of every empty voxel in index order.
func (g *VoxelGrid) FreeCells() []math32.Vector3i {
	cells := make([]math32.Vector3i, 0, len(g.Voxels))
	for i, v := range g.Voxels {
		if !v.IsSolid() {
			cells = append(cells, g.Coordinate(i))
		}
	}
	return cells
}
