package math32

import "math/bits"

// Bitmap is a growable set of small non-negative integers.
type Bitmap []uint64

// Set adds x, growing the bitmap if necessary.
func (dst *Bitmap) Set(x uint32) {
	blkAt := int(x >> 6)
	if blkAt >= len(*dst) {
		dst.grow(blkAt)
	}
	(*dst)[blkAt] |= 1 << (x & 63)
}

// Remove removes x from the bitmap, but does not shrink it.
func (dst *Bitmap) Remove(x uint32) {
	if blkAt := int(x >> 6); blkAt < len(*dst) {
		(*dst)[blkAt] &^= 1 << (x & 63)
	}
}

// Contains checks whether x is in the bitmap.
func (dst Bitmap) Contains(x uint32) bool {
	blkAt := int(x >> 6)
	if blkAt >= len(dst) {
		return false
	}
	return dst[blkAt]&(1<<(x&63)) != 0
}

// Count returns the number of set bits.
func (dst Bitmap) Count() int {
	n := 0
	for _, blk := range dst {
		n += bits.OnesCount64(blk)
	}
	return n
}

// Clear unsets every bit and keeps the allocated capacity.
func (dst *Bitmap) Clear() {
	clear(*dst)
}

// Range calls fn for every set bit in ascending order until fn returns false.
func (dst Bitmap) Range(fn func(x uint32) bool) {
	for i, blk := range dst {
		for blk != 0 {
			bit := bits.TrailingZeros64(blk)
			if !fn(uint32(i<<6 + bit)) {
				return
			}
			blk &= blk - 1
		}
	}
}

func (dst *Bitmap) grow(blkAt int) {
	if cap(*dst) > blkAt {
		*dst = (*dst)[:blkAt+1]
		return
	}

	old := *dst
	*dst = make(Bitmap, blkAt+1, max(2*cap(old), blkAt+1))
	copy(*dst, old)
}
