package partition

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// minOf and maxOf follow the teacher's own generic-constraint style
// (treed/types.go's Coord[F, Self]) for the handful of plain scalar
// comparisons the core needs outside of float64-specific math.Max/Min.
func minOf[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func maxOf[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// sortedKeys returns the keys of an int-keyed set in ascending order, for
// deterministic iteration over sets whose natural Go order is randomized.
func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func setEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
