package engine

import (
	"math"
	"roachrace/game"
	"roachrace/utils"
	"sort"
)

// rank appends the cockroaches that did not finish to the finish order,
// farthest first. Ties keep index order.
func rank(finishOrder []int, finished []bool, states []game.State) []int {
	standings := make([]int, len(finishOrder), len(states))
	copy(standings, finishOrder)
	for i, done := range finished {
		if !done {
			standings = append(standings, i)
		}
	}

	rest := standings[len(finishOrder):]
	sort.SliceStable(rest, func(a, b int) bool {
		return progress(states[rest[a]]) > progress(states[rest[b]])
	})
	return standings
}

// progress is the distance covered, with NaN counted as no progress at all
// so that the ordering stays total.
func progress(s game.State) float64 {
	if math.IsNaN(s.Position.X) {
		return math.Inf(-1)
	}
	return s.Position.X
}

// Place returns the zero-based rank of the cockroach at index agent, or -1
// if the track has not finished.
func (t *Track) Place(agent int) int {
	return utils.FindIndex(t.standings, agent)
}
