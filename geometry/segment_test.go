package geometry

import (
	"testing"

	"github.com/o0olele/octree-nav/math32"
	"github.com/stretchr/testify/require"
)

func TestSegmentAABB(t *testing.T) {
	box := AABB{Max: math32.Splat(1)}
	v := func(x, y, z float32) math32.Vector3 { return math32.Vector3{X: x, Y: y, Z: z} }

	cases := []struct {
		name    string
		a, b    math32.Vector3
		hit     bool
		crosses bool
	}{
		{"through", v(-1, 0.5, 0.5), v(2, 0.5, 0.5), true, true},
		{"inside", v(0.2, 0.2, 0.2), v(0.8, 0.8, 0.8), true, true},
		{"along face", v(-1, 1, 0.5), v(2, 1, 0.5), true, false},
		{"corner", v(0, 2, 0.5), v(2, 0, 0.5), true, false},
		{"apart", v(-1, 2, 0.5), v(2, 2, 0.5), false, false},
		{"stops short", v(-2, 0.5, 0.5), v(-1, 0.5, 0.5), false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, hit := SegmentAABB(c.a, c.b, box)
			require.Equal(t, c.hit, hit)
			require.Equal(t, c.crosses, SegmentCrosses(c.a, c.b, box))
			require.Equal(t, c.crosses, SegmentCrosses(c.b, c.a, box))
		})
	}

	t.Run("clip range", func(t *testing.T) {
		tmin, tmax, ok := SegmentAABB(v(-1, 0.5, 0.5), v(2, 0.5, 0.5), box)
		require.True(t, ok)
		require.InDelta(t, 1.0/3, tmin, 1e-6)
		require.InDelta(t, 2.0/3, tmax, 1e-6)
	})
}
