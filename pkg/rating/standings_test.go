package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandings(t *testing.T) {
	changes := map[string]RatingChange{
		"Carol": {Name: "Carol", ActualScore: 2.5, PerformanceRating: 1700},
		"Alice": {Name: "Alice", ActualScore: 3.0, PerformanceRating: 1800},
		"Bob":   {Name: "Bob", ActualScore: 2.5, PerformanceRating: 1750},
		"Dave":  {Name: "Dave", ActualScore: 2.5, PerformanceRating: 1700},
	}

	ordered := Standings(changes)

	names := make([]string, len(ordered))
	for i, rc := range ordered {
		names[i] = rc.Name
	}

	// Score first, performance breaks the tie, name makes the order total.
	assert.Equal(t, []string{"Alice", "Bob", "Carol", "Dave"}, names)
}

func TestStandingsEmpty(t *testing.T) {
	assert.Empty(t, Standings(nil))
	assert.Empty(t, Standings(map[string]RatingChange{}))
}
