package sim

import (
	"cmp"
	"slices"
)

// Rank assigns race positions from total distances, indexed by driver.
// Positions are a permutation of 1..N ordered by descending distance; drivers
// with equal distance keep ascending driver-index order.
func Rank(distances []float64) []int {
	order := make([]int, len(distances))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(distances[b], distances[a])
	})
	positions := make([]int, len(distances))
	for rank, driver := range order {
		positions[driver] = rank + 1
	}
	return positions
}

// Leader returns the driver furthest ahead, using the same tiebreak as Rank.
// Returns -1 for an empty field.
func Leader(distances []float64) int {
	leader := -1
	for i, d := range distances {
		if leader == -1 || d > distances[leader] {
			leader = i
		}
	}
	return leader
}
