// Package genutil holds small generic numeric helpers shared by the
// skiplist and list range-clamping code, so that clamping to [0, n-1]
// style bounds isn't reimplemented with interface{} switches in each
// container package.
package genutil

import "golang.org/x/exp/constraints"

// Clamp restricts v to [lo, hi]. If lo > hi, a v below lo gives lo and
// any other v gives hi.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
