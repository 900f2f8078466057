package indexing

import (
	"cmp"
	"slices"
)

// SortByLength returns the stable permutation that orders lengths
// descending, or ascending when asked. Equal lengths keep input order.
func SortByLength(lengths []int, ascending bool) []int {
	perm := make([]int, len(lengths))
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		if ascending {
			return cmp.Compare(lengths[a], lengths[b])
		}
		return cmp.Compare(lengths[b], lengths[a])
	})
	return perm
}

// IsSorted reports whether lengths already follow the given direction.
func IsSorted(lengths []int, ascending bool) bool {
	for i := 1; i < len(lengths); i++ {
		if ascending && lengths[i-1] > lengths[i] {
			return false
		}
		if !ascending && lengths[i-1] < lengths[i] {
			return false
		}
	}
	return true
}
