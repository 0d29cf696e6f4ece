// Rating-list adapters. Two input formats produce the same canonical
// map[name]Player: the fixed-column .dat layout used by AUPAIR-era rating
// files, and a CSV list with a header row. The format is selected by file
// extension; all layout quirks stay inside this file.
package data

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Fixed-column offsets of the .dat rating file. The first nine columns hold
// a nickname field this tool does not use.
const (
	datNameStart   = 9
	datNameEnd     = 29
	datGamesStart  = 30
	datGamesEnd    = 34
	datRatingStart = 35
	datRatingEnd   = 39
	datDateLen     = 8
)

// datDateColumns lists the starting columns where rating files have been
// observed to place the last-played date. Sloppy hand-edited files shift it
// by one in either direction.
var datDateColumns = [...]int{40, 39, 41}

// datFallbackDate is used when no last-played date can be parsed.
var datFallbackDate = time.Date(2006, time.January, 1, 0, 0, 0, 0, time.UTC)

// ReadRatingList parses a prior rating list, dispatching on file extension.
// Supported: .dat (fixed-column) and .csv.
func ReadRatingList(path string) (map[string]Player, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open rating list %s: %v", ErrFormat, path, err)
	}
	defer func() { _ = file.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".dat":
		return parseDatRatingList(file, filepath.Base(path))
	case ".csv":
		return parseCSVRatingList(file, filepath.Base(path))
	default:
		return nil, fmt.Errorf("%w: unrecognized rating list extension %q (want .dat or .csv)", ErrFormat, filepath.Ext(path))
	}
}

// parseDatRatingList reads the fixed-column format. The first line is a
// heading and is skipped.
func parseDatRatingList(r io.Reader, name string) (map[string]Player, error) {
	players := make(map[string]Player)
	scanner := bufio.NewScanner(r)

	row := 0
	for scanner.Scan() {
		row++
		line := scanner.Text()
		if row == 1 || strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < datRatingEnd {
			return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("row has %d columns, need at least %d", len(line), datRatingEnd)}
		}

		playerName := strings.TrimSpace(line[datNameStart:datNameEnd])
		if playerName == "" {
			return nil, ParseError{File: name, Row: row, Message: "empty player name"}
		}
		if _, ok := players[playerName]; ok {
			return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("duplicate player %q", playerName)}
		}

		games, err := parseDatInt(line[datGamesStart:datGamesEnd])
		if err != nil {
			return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("bad lifetime game count: %v", err)}
		}

		p := Player{
			Name:          playerName,
			LifetimeGames: games,
			LastPlayed:    parseDatDate(line),
		}

		ratingField := strings.TrimSpace(line[datRatingStart:datRatingEnd])
		if ratingField != "" {
			rating, err := strconv.Atoi(ratingField)
			if err != nil {
				return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("bad rating %q: %v", ratingField, err)}
			}
			p.Rating = &rating
		}

		players[playerName] = p
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFormat, name, err)
	}

	return players, nil
}

// parseDatInt parses a right-aligned integer field; an all-blank field
// counts as zero.
func parseDatInt(field string) (int, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, nil
	}
	return strconv.Atoi(field)
}

// parseDatDate probes the known date columns and returns the first value
// that parses. Rows without a recognizable date get the fallback date
// rather than failing the whole file.
func parseDatDate(line string) time.Time {
	for _, col := range datDateColumns {
		if len(line) < col+datDateLen {
			continue
		}
		field := strings.TrimSpace(line[col : col+datDateLen])
		if field == "" {
			continue
		}
		if t, err := dateparse.ParseAny(field); err == nil {
			return t
		}
	}
	return datFallbackDate
}

// parseCSVRatingList reads the CSV rating list format. Required header
// column: Name. Optional: Rating (empty means unrated), Games, Lastplayed.
func parseCSVRatingList(r io.Reader, name string) (map[string]Player, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrFormat, name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: rating list %s is empty", ErrFormat, name)
	}

	nameCol := findColumn(records[0], "name")
	ratingCol := findColumn(records[0], "rating")
	gamesCol := findColumn(records[0], "games")
	dateCol := findColumn(records[0], "lastplayed")
	if nameCol == -1 {
		return nil, fmt.Errorf("%w: rating list %s has no Name column", ErrFormat, name)
	}

	players := make(map[string]Player)
	for i, record := range records[1:] {
		row := i + 2
		if isEmptyRow(record) {
			continue
		}
		if nameCol >= len(record) {
			return nil, ParseError{File: name, Row: row, Message: "row is missing the name column"}
		}

		playerName := strings.TrimSpace(record[nameCol])
		if playerName == "" {
			return nil, ParseError{File: name, Row: row, Message: "empty player name"}
		}
		if _, ok := players[playerName]; ok {
			return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("duplicate player %q", playerName)}
		}

		p := Player{Name: playerName, LastPlayed: datFallbackDate}

		if field := csvField(record, ratingCol); field != "" {
			rating, err := strconv.Atoi(field)
			if err != nil {
				return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("bad rating %q: %v", field, err)}
			}
			p.Rating = &rating
		}
		if field := csvField(record, gamesCol); field != "" {
			games, err := strconv.Atoi(field)
			if err != nil {
				return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("bad lifetime game count %q: %v", field, err)}
			}
			p.LifetimeGames = games
		}
		if field := csvField(record, dateCol); field != "" {
			if t, err := dateparse.ParseAny(field); err == nil {
				p.LastPlayed = t
			}
		}

		players[playerName] = p
	}

	return players, nil
}

// findColumn locates a header column by name, case-insensitive.
func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// csvField fetches a trimmed optional field, tolerating short rows.
func csvField(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

// isEmptyRow checks whether a CSV row contains only whitespace.
func isEmptyRow(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
