// Result adapters. Two input formats produce the same canonical Tournament:
// the AUPAIR .tou results file, which carries the tournament name and date
// inline, and a CSV export of per-game results, which needs them supplied by
// the caller. Format is selected by file extension.
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

// TournamentMeta carries externally supplied tournament metadata for result
// formats that do not encode it themselves.
type TournamentMeta struct {
	Name string
	Date time.Time
}

// Score prefixes of the .tou format: a win is recorded as 2000+score, a tie
// as 1000+score, a loss as the bare score.
const (
	touPrefixLoss = 0
	touPrefixTie  = 1
	touPrefixWin  = 2
)

const touEndMarker = "*** END OF FILE ***"

// touEntry is one game on a player's result row: the player's score field
// prefix and the opponent's 1-based row position within the section.
type touEntry struct {
	prefix int
	opp    int
}

// touRow is one player's parsed result line.
type touRow struct {
	name    string
	row     int
	entries []touEntry
}

// touSection is one tournament section: players are cross-referenced by row
// position only within their own section.
type touSection struct {
	name string
	rows []touRow
}

// ReadResults parses a tournament result file, dispatching on file
// extension. Supported: .tou and .csv. The meta argument is required for the
// CSV format, which does not carry tournament name or date inline; for .tou
// the inline header wins and meta is ignored.
func ReadResults(path string, meta TournamentMeta) (*Tournament, error) {
	ext := strings.ToLower(filepath.Ext(path))

	// The CSV format cannot proceed without externally supplied metadata,
	// and the check must fire before any parsing starts.
	if ext == ".csv" {
		if meta.Name == "" {
			return nil, fmt.Errorf("%w: tournament name is required for CSV results", ErrConfig)
		}
		if meta.Date.IsZero() {
			return nil, fmt.Errorf("%w: tournament date is required for CSV results", ErrConfig)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open result file %s: %v", ErrFormat, path, err)
	}
	defer func() { _ = file.Close() }()

	switch ext {
	case ".tou":
		return parseTouResults(file, filepath.Base(path))
	case ".csv":
		return parseCSVResults(file, filepath.Base(path), meta)
	default:
		return nil, fmt.Errorf("%w: unrecognized result file extension %q (want .tou or .csv)", ErrFormat, filepath.Ext(path))
	}
}

// parseTouResults reads the AUPAIR results format: a header line
// "*Mdd.mm.yyyy Tournament Name", then sections opened by "*SectionName",
// each holding one result row per player.
func parseTouResults(r io.Reader, name string) (*Tournament, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrFormat, name, err)
		}
		return nil, fmt.Errorf("%w: result file %s is empty", ErrFormat, name)
	}
	tournament, err := parseTouHeader(scanner.Text(), name)
	if err != nil {
		return nil, err
	}

	var sections []touSection
	row := 1
	for scanner.Scan() {
		row++
		line := scanner.Text()
		if len(line) == 0 || strings.HasPrefix(line, " ") {
			continue
		}
		line = strings.TrimSpace(line)
		if line == touEndMarker {
			break
		}
		if strings.HasPrefix(line, "*") {
			sections = append(sections, touSection{name: line[1:]})
			continue
		}
		if len(line) < 3 {
			continue
		}
		if len(sections) == 0 {
			return nil, ParseError{File: name, Row: row, Message: "result row before any section header"}
		}

		parsed, ok, err := parseTouResultRow(line, name, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			// High-score line; ignored like the rest of the decorations.
			continue
		}
		s := &sections[len(sections)-1]
		for _, existing := range s.rows {
			if existing.name == parsed.name {
				return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("duplicate player %q in section %q", parsed.name, s.name)}
			}
		}
		s.rows = append(s.rows, parsed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFormat, name, err)
	}

	for _, s := range sections {
		games, err := touSectionGames(s, name)
		if err != nil {
			return nil, err
		}
		tournament.Games = append(tournament.Games, games...)
	}

	return tournament, nil
}

// parseTouHeader splits "*Mdd.mm.yyyy Tournament Name" into date and name.
// Headers with an unparseable date fall back to today, matching how ratings
// officers have historically patched up sloppy files by hand.
func parseTouHeader(header, file string) (*Tournament, error) {
	datePart, title, found := strings.Cut(header, " ")
	if !found || title == "" {
		return nil, ParseError{File: file, Row: 1, Message: "header must be \"*Mdd.mm.yyyy Tournament Name\""}
	}

	raw := strings.TrimPrefix(strings.TrimPrefix(datePart, "*M"), "*")
	date, err := time.Parse("02.01.2006", raw)
	if err != nil {
		if parsed, perr := dateparse.ParseAny(raw); perr == nil {
			date = parsed
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %s: unparseable tournament date %q, using today\n", file, raw)
			date = time.Now()
		}
	}

	return &Tournament{Name: strings.TrimSpace(title), Date: date}, nil
}

// parseTouResultRow parses one "Name  s1 o1  s2 o2 ..." line. The leading
// tokens that contain a letter form the name; the rest alternate between
// score fields and opponent positions. A row with fewer than two numeric
// fields is a high-score annotation and reports ok=false.
func parseTouResultRow(line, file string, row int) (touRow, bool, error) {
	fields := strings.Fields(line)

	nameLen := 0
	for _, f := range fields {
		if !containsLetter(f) {
			break
		}
		nameLen++
	}
	if nameLen == 0 {
		return touRow{}, false, ParseError{File: file, Row: row, Message: "result row has no player name"}
	}

	scores := fields[nameLen:]
	if len(scores) < 2 {
		return touRow{}, false, nil
	}
	if len(scores)%2 != 0 {
		return touRow{}, false, ParseError{File: file, Row: row, Message: "odd number of score fields"}
	}

	parsed := touRow{name: strings.Join(fields[:nameLen], " "), row: row}
	for i := 0; i < len(scores); i += 2 {
		score, err := strconv.Atoi(scores[i])
		if err != nil {
			return touRow{}, false, ParseError{File: file, Row: row, Message: fmt.Sprintf("score field contained a non-digit: %q", scores[i])}
		}
		opp, err := strconv.Atoi(strings.TrimPrefix(scores[i+1], "+"))
		if err != nil {
			return touRow{}, false, ParseError{File: file, Row: row, Message: fmt.Sprintf("opponent field contained a non-digit: %q", scores[i+1])}
		}
		prefix := score / 1000
		if prefix > touPrefixWin {
			return touRow{}, false, ParseError{File: file, Row: row, Message: fmt.Sprintf("score %d has invalid result prefix", score)}
		}
		parsed.entries = append(parsed.entries, touEntry{prefix: prefix, opp: opp})
	}

	return parsed, true, nil
}

// touSectionGames converts one section into canonical games. Every game
// appears on both players' rows; the two halves are paired per round and
// must agree, and each pair is emitted exactly once. A row referencing its
// own position is a bye and produces no game.
func touSectionGames(s touSection, file string) ([]GameResult, error) {
	var games []GameResult
	for i, r := range s.rows {
		for round, e := range r.entries {
			if e.opp < 1 || e.opp > len(s.rows) {
				return nil, ParseError{File: file, Row: r.row, Message: fmt.Sprintf("invalid opponent position %d for player %q in section %q", e.opp, r.name, s.name)}
			}
			oppIdx := e.opp - 1
			if oppIdx == i {
				continue // bye
			}

			opp := s.rows[oppIdx]
			if round >= len(opp.entries) {
				return nil, ParseError{File: file, Row: opp.row, Message: fmt.Sprintf("player %q is missing the round %d result against %q", opp.name, round+1, r.name)}
			}
			reciprocal := opp.entries[round]
			if reciprocal.opp-1 != i {
				return nil, ParseError{File: file, Row: opp.row, Message: fmt.Sprintf("round %d pairing mismatch between %q and %q", round+1, r.name, opp.name)}
			}
			if !touPrefixesAgree(e.prefix, reciprocal.prefix) {
				return nil, ParseError{File: file, Row: r.row, Message: fmt.Sprintf("round %d result for %q disagrees with %q's row", round+1, r.name, opp.name)}
			}

			if i < oppIdx {
				games = append(games, GameResult{
					PlayerA: r.name,
					PlayerB: opp.name,
					Outcome: touOutcome(e.prefix),
					Round:   round + 1,
				})
			}
		}
	}
	return games, nil
}

// touPrefixesAgree checks the two halves of a game for consistency: a win
// pairs with a loss, a tie with a tie.
func touPrefixesAgree(a, b int) bool {
	switch a {
	case touPrefixWin:
		return b == touPrefixLoss
	case touPrefixTie:
		return b == touPrefixTie
	default:
		return b == touPrefixWin
	}
}

func touOutcome(prefix int) Outcome {
	switch prefix {
	case touPrefixWin:
		return WinA
	case touPrefixTie:
		return Draw
	default:
		return WinB
	}
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// CSV result column positions. The header row is skipped; the first column
// is a submission timestamp this tool does not use.
const (
	csvResultRound    = 1
	csvResultWinner   = 2
	csvResultWinScore = 3
	csvResultOpponent = 4
	csvResultOppScore = 5
	csvResultColumns  = 6
)

// parseCSVResults reads the spreadsheet export format with columns
// "Submitted On, Round, Winner, Score, Opponent, Score". Equal scores mean
// a draw; otherwise the Winner column names the winner.
func parseCSVResults(r io.Reader, name string, meta TournamentMeta) (*Tournament, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrFormat, name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: result file %s is empty", ErrFormat, name)
	}

	tournament := &Tournament{Name: meta.Name, Date: meta.Date}
	for i, record := range records[1:] {
		row := i + 2
		if isEmptyRow(record) {
			continue
		}
		if len(record) < csvResultColumns {
			return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("row has %d columns, need %d", len(record), csvResultColumns)}
		}

		round, err := strconv.Atoi(strings.TrimSpace(record[csvResultRound]))
		if err != nil {
			return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("bad round %q: %v", record[csvResultRound], err)}
		}
		winner := strings.TrimSpace(record[csvResultWinner])
		opponent := strings.TrimSpace(record[csvResultOpponent])
		if winner == "" || opponent == "" {
			return nil, ParseError{File: name, Row: row, Message: "empty player name"}
		}
		winScore, err := strconv.Atoi(strings.TrimSpace(record[csvResultWinScore]))
		if err != nil {
			return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("bad score %q: %v", record[csvResultWinScore], err)}
		}
		oppScore, err := strconv.Atoi(strings.TrimSpace(record[csvResultOppScore]))
		if err != nil {
			return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("bad score %q: %v", record[csvResultOppScore], err)}
		}
		if oppScore > winScore {
			return nil, ParseError{File: name, Row: row, Message: fmt.Sprintf("winner %q has the lower score", winner)}
		}

		outcome := WinA
		if winScore == oppScore {
			outcome = Draw
		}
		tournament.Games = append(tournament.Games, GameResult{
			PlayerA: winner,
			PlayerB: opponent,
			Outcome: outcome,
			Round:   round,
		})
	}

	return tournament, nil
}
