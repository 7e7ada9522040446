package octree

import (
	"github.com/o0olele/octree-nav/math32"
	"github.com/pkg/errors"
)

// MortonCode interleaves the bits of a 3D integer coordinate.
type MortonCode uint64

// MaxMortonCoord is the exclusive upper bound of a coordinate on any axis.
const MaxMortonCoord = 1 << 21

// ErrMortonRange is returned for coordinates that do not fit in 21 bits.
var ErrMortonRange = errors.New("octree: coordinate out of morton range")

// EncodeMorton3D encodes a 3D coordinate to a Morton code
func EncodeMorton3D(x, y, z uint32) MortonCode {
	return MortonCode(splitBy3(x) | (splitBy3(y) << 1) | (splitBy3(z) << 2))
}

// splitBy3 spreads the low 21 bits of v, inserting 2 zeros after each bit
func splitBy3(v uint32) uint64 {
	x := uint64(v) & 0x1fffff
	x = (x | x<<32) & 0x1f00000000ffff
	x = (x | x<<16) & 0x1f0000ff0000ff
	x = (x | x<<8) & 0x100f00f00f00f00f
	x = (x | x<<4) & 0x10c30c30c30c30c3
	x = (x | x<<2) & 0x1249249249249249
	return x
}

// DecodeMorton3D decodes a Morton code to a 3D coordinate
func DecodeMorton3D(morton MortonCode) (uint32, uint32, uint32) {
	x := compact1By2(uint64(morton))
	y := compact1By2(uint64(morton) >> 1)
	z := compact1By2(uint64(morton) >> 2)
	return uint32(x), uint32(y), uint32(z)
}

// compact1By2 is the reverse of splitBy3
func compact1By2(x uint64) uint64 {
	x &= 0x1249249249249249
	x = (x ^ (x >> 2)) & 0x10c30c30c30c30c3
	x = (x ^ (x >> 4)) & 0x100f00f00f00f00f
	x = (x ^ (x >> 8)) & 0x1f0000ff0000ff
	x = (x ^ (x >> 16)) & 0x1f00000000ffff
	x = (x ^ (x >> 32)) & 0x1fffff
	return x
}

// GridKey returns the Morton code of a non-negative grid coordinate.
func GridKey(v math32.Vector3i) (MortonCode, error) {
	if v.X < 0 || v.Y < 0 || v.Z < 0 ||
		v.X >= MaxMortonCoord || v.Y >= MaxMortonCoord || v.Z >= MaxMortonCoord {
		return 0, errors.Wrapf(ErrMortonRange, "coordinate %v", v)
	}
	return EncodeMorton3D(uint32(v.X), uint32(v.Y), uint32(v.Z)), nil
}

// GridCoord is the inverse of GridKey.
func GridCoord(code MortonCode) math32.Vector3i {
	x, y, z := DecodeMorton3D(code)
	return math32.Vector3i{X: int32(x), Y: int32(y), Z: int32(z)}
}
