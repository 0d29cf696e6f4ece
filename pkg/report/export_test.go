package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourating/tourating/pkg/data"
	"github.com/tourating/tourating/pkg/rating"
)

func intPtr(v int) *int {
	return &v
}

func testTournament() *data.Tournament {
	return &data.Tournament{
		Name: "Spring Open",
		Date: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Games: []data.GameResult{
			{PlayerA: "MIKKELSEN ARNE", PlayerB: "BERG SOLVEIG", Outcome: data.WinA, Round: 1},
			{PlayerA: "MIKKELSEN ARNE", PlayerB: "HANSEN KARI", Outcome: data.Draw, Round: 2},
		},
	}
}

func testPlayers() map[string]data.Player {
	return map[string]data.Player{
		"MIKKELSEN ARNE": {Name: "MIKKELSEN ARNE", Rating: intPtr(1712), LifetimeGames: 142},
		"BERG SOLVEIG":   {Name: "BERG SOLVEIG", Rating: intPtr(1500), LifetimeGames: 40},
		"HANSEN KARI":    {Name: "HANSEN KARI"},
	}
}

func testChanges() map[string]rating.RatingChange {
	return map[string]rating.RatingChange{
		"MIKKELSEN ARNE": {
			Name: "MIKKELSEN ARNE", OldRating: intPtr(1712), NewRating: 1716,
			PerformanceRating: 1850, ExpectedScore: 1.22, ActualScore: 1.5,
			GamesPlayed: 2, Wins: 1, Draws: 1,
		},
		"BERG SOLVEIG": {
			Name: "BERG SOLVEIG", OldRating: intPtr(1500), NewRating: 1496,
			PerformanceRating: 1312, ExpectedScore: 0.23, ActualScore: 0,
			GamesPlayed: 1, Losses: 1,
		},
		"HANSEN KARI": {
			Name: "HANSEN KARI", NewRating: 1712,
			PerformanceRating: 1712, ExpectedScore: 0.5, ActualScore: 0.5,
			GamesPlayed: 1, Draws: 1,
		},
	}
}

func TestWriteReport(t *testing.T) {
	exporter := NewExporter(data.DefaultReportConfig())

	var buf bytes.Buffer
	err := exporter.WriteReport(&buf, testTournament(), rating.Standings(testChanges()))
	require.NoError(t, err)

	out := buf.String()
	lines := strings.Split(out, "\n")

	assert.Equal(t, "Spring Open", lines[0])
	assert.Equal(t, "2024-03-15", lines[1])

	// Standings order: score, then performance.
	arneIdx := strings.Index(out, "MIKKELSEN ARNE")
	kariIdx := strings.Index(out, "HANSEN KARI")
	solveigIdx := strings.Index(out, "BERG SOLVEIG")
	assert.Less(t, arneIdx, kariIdx)
	assert.Less(t, kariIdx, solveigIdx)

	assert.Contains(t, out, "1-1-0")
	assert.Contains(t, out, "+4")
	assert.Contains(t, out, "unrated")
	assert.Contains(t, out, "1: W vs BERG SOLVEIG")
	assert.Contains(t, out, "2: D vs MIKKELSEN ARNE")
	assert.Contains(t, out, "HANSEN KARI entered unrated; initial rating 1712")
}

func TestWriteTable(t *testing.T) {
	exporter := NewExporter(data.DefaultReportConfig())

	var buf bytes.Buffer
	err := exporter.WriteTable(&buf, testPlayers(), rating.Standings(testChanges()))
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"Name", "OldRating", "NewRating", "Games", "Score", "Expected", "Performance", "LifetimeGames"}, records[0])

	arne := records[1]
	assert.Equal(t, "MIKKELSEN ARNE", arne[0])
	assert.Equal(t, "1712", arne[1])
	assert.Equal(t, "1716", arne[2])
	assert.Equal(t, "1.5", arne[4])
	// Lifetime games include this tournament.
	assert.Equal(t, "144", arne[7])

	kari := records[2]
	assert.Equal(t, "HANSEN KARI", kari[0])
	assert.Equal(t, "", kari[1], "unrated entrants have no old rating")
	assert.Equal(t, "1", kari[7])
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(data.DefaultReportConfig())

	err := exporter.WriteAll(dir, testTournament(), testPlayers(), testChanges())
	require.NoError(t, err)

	report, err := os.ReadFile(filepath.Join(dir, "tournament-report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "Spring Open")

	table, err := os.ReadFile(filepath.Join(dir, "new-ratings.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(table), "MIKKELSEN ARNE")

	// No staging leftovers.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), "stale temp file %s", entry.Name())
	}
}

func TestWriteAllCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	exporter := NewExporter(data.DefaultReportConfig())

	err := exporter.WriteAll(dir, testTournament(), testPlayers(), testChanges())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "new-ratings.csv"))
	assert.NoError(t, err)
}

func TestWriteAllLeavesNothingOnFailure(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

	exporter := NewExporter(data.DefaultReportConfig())
	err := exporter.WriteAll(dir, testTournament(), testPlayers(), testChanges())
	require.Error(t, err)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}
