package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestOutcomePoints(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		pointsA float64
		pointsB float64
	}{
		{"win for a", WinA, 1, 0},
		{"win for b", WinB, 0, 1},
		{"draw", Draw, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.pointsA, tt.outcome.PointsA())
			assert.Equal(t, tt.pointsB, tt.outcome.PointsB())
		})
	}
}

func TestGameResultAccessors(t *testing.T) {
	g := GameResult{PlayerA: "Alice", PlayerB: "Bob", Outcome: WinA, Round: 3}

	assert.Equal(t, 1.0, g.Points("Alice"))
	assert.Equal(t, 0.0, g.Points("Bob"))
	assert.Equal(t, "Bob", g.Opponent("Alice"))
	assert.Equal(t, "Alice", g.Opponent("Bob"))
}

func TestBuildRecords(t *testing.T) {
	games := []GameResult{
		{PlayerA: "Alice", PlayerB: "Bob", Outcome: WinA, Round: 1},
		{PlayerA: "Carol", PlayerB: "Alice", Outcome: Draw, Round: 2},
	}

	records := BuildRecords(games)
	require.Len(t, records, 3)

	alice := records["Alice"]
	require.NotNil(t, alice)
	assert.Equal(t, 2, alice.Games())
	assert.Equal(t, 1.5, alice.Score())
	assert.Equal(t, []string{"Bob", "Carol"}, alice.Opponents)
	assert.Equal(t, []int{1, 2}, alice.Rounds)

	bob := records["Bob"]
	require.NotNil(t, bob)
	assert.Equal(t, 1, bob.Games())
	assert.Equal(t, 0.0, bob.Score())
}

func TestAddMissingPlayers(t *testing.T) {
	players := map[string]Player{
		"Alice": {Name: "Alice", Rating: intPtr(1500)},
	}
	games := []GameResult{
		{PlayerA: "Alice", PlayerB: "Bob", Outcome: WinA, Round: 1},
	}

	AddMissingPlayers(players, games)

	require.Contains(t, players, "Bob")
	assert.False(t, players["Bob"].Rated())
	assert.Equal(t, 0, players["Bob"].LifetimeGames)
	// Existing entries are untouched.
	assert.True(t, players["Alice"].Rated())
}

func TestValidate(t *testing.T) {
	valid := map[string]Player{
		"Alice": {Name: "Alice", Rating: intPtr(1500), LifetimeGames: 40},
		"Bob":   {Name: "Bob"},
	}

	t.Run("valid input", func(t *testing.T) {
		games := []GameResult{{PlayerA: "Alice", PlayerB: "Bob", Outcome: WinA, Round: 1}}
		assert.NoError(t, Validate(valid, games))
	})

	t.Run("self play", func(t *testing.T) {
		games := []GameResult{{PlayerA: "Alice", PlayerB: "Alice", Outcome: Draw, Round: 1}}
		err := Validate(valid, games)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown player", func(t *testing.T) {
		games := []GameResult{{PlayerA: "Alice", PlayerB: "Ghost", Outcome: WinA, Round: 1}}
		err := Validate(valid, games)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "Ghost")
	})

	t.Run("negative rating", func(t *testing.T) {
		players := map[string]Player{"Alice": {Name: "Alice", Rating: intPtr(-1)}}
		err := Validate(players, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("negative lifetime games", func(t *testing.T) {
		players := map[string]Player{"Alice": {Name: "Alice", LifetimeGames: -3}}
		err := Validate(players, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestParseErrorMatchesFormatSentinel(t *testing.T) {
	err := ParseError{File: "league.dat", Row: 7, Message: "bad rating"}

	assert.ErrorIs(t, err, ErrFormat)
	assert.Equal(t, "league.dat:7: bad rating", err.Error())
}
