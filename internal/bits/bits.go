// Package bits holds the size arithmetic shared by layout computation and
// array growth.
package bits

import "math/bits"

// AlignTo rounds offset up to a multiple of align, which must be a power of two.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// RoundUpPow2 returns the smallest power of two >= v. RoundUpPow2(0) is 0.
func RoundUpPow2(v uint32) uint32 {
	if v <= 1 {
		return v
	}
	return 1 << bits.Len32(v-1)
}
