package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// datLine builds one fixed-column rating row: nickname, name, lifetime game
// count, rating and last-played date in their historical positions.
func datLine(nick, name, games, rating, date string) string {
	return fmt.Sprintf("%-9s%-20s %4s %4s %s", nick, name, games, rating, date)
}

func TestReadRatingListDat(t *testing.T) {
	content := strings.Join([]string{
		"NICKNAME PLAYER NAME          GMS  RAT DATE",
		datLine("champ", "MIKKELSEN ARNE", "142", "1712", "03/15/24"),
		datLine("newkid", "BERG SOLVEIG", "4", "", ""),
		"",
	}, "\n")
	path := writeTestFile(t, "league.dat", content)

	players, err := ReadRatingList(path)
	require.NoError(t, err)
	require.Len(t, players, 2)

	arne := players["MIKKELSEN ARNE"]
	require.True(t, arne.Rated())
	assert.Equal(t, 1712, *arne.Rating)
	assert.Equal(t, 142, arne.LifetimeGames)
	assert.Equal(t, 2024, arne.LastPlayed.Year())

	solveig := players["BERG SOLVEIG"]
	assert.False(t, solveig.Rated())
	assert.Equal(t, 4, solveig.LifetimeGames)
	assert.Equal(t, datFallbackDate, solveig.LastPlayed)
}

func TestReadRatingListDatErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "short row",
			content: strings.Join([]string{
				"HEADER",
				"too short",
			}, "\n"),
		},
		{
			name: "duplicate player",
			content: strings.Join([]string{
				"HEADER",
				datLine("a", "MIKKELSEN ARNE", "10", "1500", ""),
				datLine("b", "MIKKELSEN ARNE", "12", "1480", ""),
			}, "\n"),
		},
		{
			name: "non-numeric rating",
			content: strings.Join([]string{
				"HEADER",
				datLine("a", "MIKKELSEN ARNE", "10", "15xx", ""),
			}, "\n"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestFile(t, "league.dat", tt.content)
			_, err := ReadRatingList(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormat)

			var parseErr ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, 2, parseErr.Row)
		})
	}
}

func TestReadRatingListCSV(t *testing.T) {
	content := strings.Join([]string{
		"Name,Rating,Games,Lastplayed",
		"MIKKELSEN ARNE,1712,142,2024-03-15",
		"BERG SOLVEIG,,4,",
		"",
	}, "\n")
	path := writeTestFile(t, "league.csv", content)

	players, err := ReadRatingList(path)
	require.NoError(t, err)
	require.Len(t, players, 2)

	arne := players["MIKKELSEN ARNE"]
	require.True(t, arne.Rated())
	assert.Equal(t, 1712, *arne.Rating)
	assert.Equal(t, 142, arne.LifetimeGames)
	assert.Equal(t, 2024, arne.LastPlayed.Year())

	assert.False(t, players["BERG SOLVEIG"].Rated())
}

func TestReadRatingListCSVHeaderCaseInsensitive(t *testing.T) {
	content := strings.Join([]string{
		"NAME,RATING,GAMES,LASTPLAYED",
		"MIKKELSEN ARNE,1712,142,2024-03-15",
	}, "\n")
	path := writeTestFile(t, "league.csv", content)

	players, err := ReadRatingList(path)
	require.NoError(t, err)
	assert.Len(t, players, 1)
}

func TestReadRatingListCSVErrors(t *testing.T) {
	t.Run("missing name column", func(t *testing.T) {
		path := writeTestFile(t, "league.csv", "Rating,Games\n1500,10\n")
		_, err := ReadRatingList(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("duplicate player", func(t *testing.T) {
		content := strings.Join([]string{
			"Name,Rating",
			"MIKKELSEN ARNE,1712",
			"MIKKELSEN ARNE,1700",
		}, "\n")
		path := writeTestFile(t, "league.csv", content)
		_, err := ReadRatingList(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("bad rating", func(t *testing.T) {
		path := writeTestFile(t, "league.csv", "Name,Rating\nMIKKELSEN ARNE,high\n")
		_, err := ReadRatingList(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFormat)
	})
}

func TestReadRatingListUnknownExtension(t *testing.T) {
	path := writeTestFile(t, "league.xls", "whatever")

	_, err := ReadRatingList(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestReadRatingListMissingFile(t *testing.T) {
	_, err := ReadRatingList(filepath.Join(t.TempDir(), "nope.dat"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormat)
}
