// Package safeconv converts between integer types without silent overflow.
package safeconv

import "math"

// ClampToUint64 converts v to uint64, mapping negative values to 0.
func ClampToUint64(v int) uint64 {
	if v < 0 {
		return 0
	}

	return uint64(v)
}

// ClampToInt64 converts v to int64, saturating at math.MaxInt64.
func ClampToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(v)
}

// MustUint64ToInt64 converts v to int64 and panics on overflow.
// Use only when overflow is logically impossible.
func MustUint64ToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		panic("safeconv: uint64 to int64 overflow")
	}

	return int64(v)
}
