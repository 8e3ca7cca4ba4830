package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank_DescendingDistance(t *testing.T) {
	got := Rank([]float64{5, 30, 12})
	assert.Equal(t, []int{3, 1, 2}, got)
}

func TestRank_TiesKeepDriverOrder(t *testing.T) {
	// GIVEN drivers 1 and 3 tied, and 0 and 2 tied behind them
	got := Rank([]float64{7, 9, 7, 9})

	// THEN the lower driver index ranks ahead inside each tie
	assert.Equal(t, []int{3, 1, 4, 2}, got)
}

func TestRank_IsPermutation(t *testing.T) {
	distances := []float64{0, 0, 0, 1.5, 1.5, 99, 3, 0}
	got := Rank(distances)
	seen := make(map[int]bool)
	for _, p := range got {
		assert.GreaterOrEqual(t, p, 1)
		assert.LessOrEqual(t, p, len(distances))
		assert.False(t, seen[p], "position %d repeated", p)
		seen[p] = true
	}
}

func TestLeader(t *testing.T) {
	assert.Equal(t, -1, Leader(nil))
	assert.Equal(t, 0, Leader([]float64{0, 0, 0}))
	assert.Equal(t, 1, Leader([]float64{4, 8, 8}))
}

func TestLeader_MatchesRankFirst(t *testing.T) {
	distances := []float64{3, 11, 11, 2}
	positions := Rank(distances)
	assert.Equal(t, 1, positions[Leader(distances)])
}
