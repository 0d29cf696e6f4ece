// Package data provides the canonical in-memory model for tournament rating
// runs together with input validation, configuration management, and the
// format adapters that read rating lists and tournament results from disk.
// The rating engine consumes only the types defined here and never touches
// file formats directly.
package data

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Error taxonomy shared by the model and the format adapters. Format errors
// abort before the engine runs, validation errors are raised by the model
// cross-reference checks, and config errors cover missing or inconsistent
// run parameters.
var (
	ErrFormat     = errors.New("format error")
	ErrValidation = errors.New("validation error")
	ErrConfig     = errors.New("config error")
)

// ParseError describes a malformed row in an input file.
type ParseError struct {
	File    string
	Row     int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Row, e.Message)
}

// Unwrap makes ParseError match ErrFormat with errors.Is.
func (e ParseError) Unwrap() error {
	return ErrFormat
}

// Outcome is the result of a single game, directional with respect to the
// two players of a GameResult.
type Outcome int

const (
	WinA Outcome = iota // PlayerA won
	WinB                // PlayerB won
	Draw
)

func (o Outcome) String() string {
	switch o {
	case WinA:
		return "win-a"
	case WinB:
		return "win-b"
	case Draw:
		return "draw"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// PointsA returns the tournament points PlayerA earned from this outcome.
func (o Outcome) PointsA() float64 {
	switch o {
	case WinA:
		return 1
	case Draw:
		return 0.5
	}
	return 0
}

// PointsB returns the tournament points PlayerB earned from this outcome.
func (o Outcome) PointsB() float64 {
	switch o {
	case WinB:
		return 1
	case Draw:
		return 0.5
	}
	return 0
}

// Player is one entry of the prior rating list. A nil Rating marks an
// unrated entrant; LifetimeGames counts career games before this tournament
// and decides provisional status. LastPlayed is provenance only and never
// feeds the rating algorithm.
type Player struct {
	Name          string
	Rating        *int
	LifetimeGames int
	LastPlayed    time.Time
}

// Rated reports whether the player carries a prior rating.
func (p Player) Rated() bool {
	return p.Rating != nil
}

// GameResult is one game of the tournament. The pair is unordered but the
// outcome is directional. Round is provenance for per-round report lines.
type GameResult struct {
	PlayerA string
	PlayerB string
	Outcome Outcome
	Round   int
}

// Points returns the tournament points the named participant earned from
// this game. The name must be one of the two players.
func (g GameResult) Points(name string) float64 {
	if name == g.PlayerA {
		return g.Outcome.PointsA()
	}
	return g.Outcome.PointsB()
}

// Opponent returns the other participant of the game.
func (g GameResult) Opponent(name string) string {
	if name == g.PlayerA {
		return g.PlayerB
	}
	return g.PlayerA
}

// Tournament aggregates one event: metadata plus the full game list.
type Tournament struct {
	Name  string
	Date  time.Time
	Games []GameResult
}

// PlayerRecord is the per-player view of a tournament, derived from the game
// list: opponents faced and points earned, in game order.
type PlayerRecord struct {
	Opponents []string
	Points    []float64
	Rounds    []int
}

// Games returns the number of games the player completed in the tournament.
func (r *PlayerRecord) Games() int {
	return len(r.Opponents)
}

// Score returns the player's total tournament points.
func (r *PlayerRecord) Score() float64 {
	total := 0.0
	for _, p := range r.Points {
		total += p
	}
	return total
}

// BuildRecords derives the per-player tournament records from a game list.
// Each game contributes one entry to both participants.
func BuildRecords(games []GameResult) map[string]*PlayerRecord {
	records := make(map[string]*PlayerRecord)
	add := func(name, opponent string, points float64, round int) {
		rec := records[name]
		if rec == nil {
			rec = &PlayerRecord{}
			records[name] = rec
		}
		rec.Opponents = append(rec.Opponents, opponent)
		rec.Points = append(rec.Points, points)
		rec.Rounds = append(rec.Rounds, round)
	}
	for _, g := range games {
		add(g.PlayerA, g.PlayerB, g.Outcome.PointsA(), g.Round)
		add(g.PlayerB, g.PlayerA, g.Outcome.PointsB(), g.Round)
	}
	return records
}

// AddMissingPlayers fills in unrated entries for participants that appear in
// the game list but not in the rating list, so that every game references a
// known player by the time validation runs.
func AddMissingPlayers(players map[string]Player, games []GameResult) {
	for _, g := range games {
		for _, name := range []string{g.PlayerA, g.PlayerB} {
			if _, ok := players[name]; !ok {
				players[name] = Player{Name: name}
			}
		}
	}
}

// Validate is the single admission point for engine input. It checks that
// every game references known players, that nobody plays themselves, and
// that prior ratings are non-negative. Adapters reject duplicate names
// earlier, while row order still exists; by the time input reaches the map
// form checked here the engine may assume well-formed data.
func Validate(players map[string]Player, games []GameResult) error {
	names := make([]string, 0, len(players))
	for name := range players {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := players[name]
		if p.Rating != nil && *p.Rating < 0 {
			return fmt.Errorf("%w: player %q has negative prior rating %d", ErrValidation, name, *p.Rating)
		}
		if p.LifetimeGames < 0 {
			return fmt.Errorf("%w: player %q has negative lifetime game count %d", ErrValidation, name, p.LifetimeGames)
		}
	}

	for i, g := range games {
		if g.PlayerA == g.PlayerB {
			return fmt.Errorf("%w: game %d: player %q paired against themselves", ErrValidation, i+1, g.PlayerA)
		}
		for _, name := range []string{g.PlayerA, g.PlayerB} {
			if _, ok := players[name]; !ok {
				return fmt.Errorf("%w: game %d references unknown player %q", ErrValidation, i+1, name)
			}
		}
	}

	return nil
}
