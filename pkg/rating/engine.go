// Package rating implements the Norwegian-system rating update for one
// tournament: logistic expected scores, a two-level development coefficient,
// performance ratings for new entrants, and a configurable rating floor.
// The engine is a pure function over the canonical model; every player's
// update reads only the immutable pre-tournament rating snapshot, so the
// result is identical no matter what order players are processed in.
package rating

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tourating/tourating/pkg/data"
)

// ErrInvalidConfig reports unusable engine constants.
var ErrInvalidConfig = errors.New("rating engine misconfigured")

// RatingChange is the engine's per-player output.
type RatingChange struct {
	Name              string
	OldRating         *int    // nil for unrated entrants
	NewRating         int
	PerformanceRating int     // rating implied solely by this tournament's results
	ExpectedScore     float64 // sum of per-game logistic expectations
	ActualScore       float64 // sum of per-game points
	GamesPlayed       int
	Wins              int
	Draws             int
	Losses            int
}

// Delta returns the rating change, or zero for players with no prior rating.
func (rc RatingChange) Delta() int {
	if rc.OldRating == nil {
		return 0
	}
	return rc.NewRating - *rc.OldRating
}

// Engine computes new ratings from a prior rating list and one tournament's
// games. Construct with NewEngine; the zero value is not usable.
type Engine struct {
	cfg data.RatingConfig
}

// NewEngine validates the rating constants and returns an engine.
func NewEngine(cfg data.RatingConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the constants the engine was built with.
func (e *Engine) Config() data.RatingConfig {
	return e.cfg
}

// ExpectedScore returns the logistic expectation for a player rated
// ratingP against an opponent rated ratingO.
func ExpectedScore(ratingP, ratingO float64) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, (ratingO-ratingP)/400.0))
}

// ComputeNewRatings runs the rating update for every player. Input is
// validated first and consumed immutably: all expectations are computed
// against the pre-tournament rating list, never against another player's
// fresh result. Per-player updates are independent and run concurrently.
func (e *Engine) ComputeNewRatings(players map[string]data.Player, games []data.GameResult) (map[string]RatingChange, error) {
	if err := data.Validate(players, games); err != nil {
		return nil, err
	}

	records := data.BuildRecords(games)
	for name, rec := range records {
		score := rec.Score()
		if score < 0 || score > float64(rec.Games()) {
			return nil, fmt.Errorf("%w: player %q has impossible score %.1f in %d games", data.ErrValidation, name, score, rec.Games())
		}
	}

	names := make([]string, 0, len(players))
	for name := range players {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]RatingChange, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name // per-iteration copies; required while go.mod targets go < 1.22
		g.Go(func() error {
			results[i] = e.ratePlayer(players[name], records[name], players)
			return nil
		})
	}
	// ratePlayer cannot fail; the group only provides the join point.
	_ = g.Wait()

	changes := make(map[string]RatingChange, len(results))
	for _, rc := range results {
		changes[rc.Name] = rc
	}
	return changes, nil
}

// ratePlayer computes one player's RatingChange against the read-only prior
// snapshot.
func (e *Engine) ratePlayer(p data.Player, rec *data.PlayerRecord, snapshot map[string]data.Player) RatingChange {
	change := RatingChange{Name: p.Name, OldRating: p.Rating}

	prior := float64(e.cfg.DefaultRating)
	if p.Rated() {
		prior = float64(*p.Rating)
	}

	if rec == nil || rec.Games() == 0 {
		// No games, no update.
		change.NewRating = e.roundAndFloor(prior)
		change.PerformanceRating = change.NewRating
		return change
	}

	var expected, opponentSum float64
	for _, oppName := range rec.Opponents {
		oppRating := float64(e.cfg.DefaultRating)
		if opp := snapshot[oppName]; opp.Rated() {
			oppRating = float64(*opp.Rating)
		}
		expected += ExpectedScore(prior, oppRating)
		opponentSum += oppRating
	}

	actual := rec.Score()
	for _, points := range rec.Points {
		switch points {
		case 1:
			change.Wins++
		case 0.5:
			change.Draws++
		default:
			change.Losses++
		}
	}

	games := rec.Games()
	perf := performanceRating(opponentSum/float64(games), actual/float64(games))
	change.GamesPlayed = games
	change.ExpectedScore = expected
	change.ActualScore = actual
	change.PerformanceRating = e.roundAndFloor(perf)

	if !p.Rated() {
		// Brand-new entrant: the performance rating becomes the rating.
		change.NewRating = change.PerformanceRating
		return change
	}

	k := float64(e.cfg.KStandard)
	if p.LifetimeGames < e.cfg.ProvisionalThreshold {
		k = float64(e.cfg.KProvisional)
	}
	change.NewRating = e.roundAndFloor(prior + k*(actual-expected))
	return change
}

// performanceRating inverts the expectation curve at the average opponent
// rating: the rating whose expected score against that average equals the
// achieved percentage. Perfect and zero scores sit outside the invertible
// range and saturate at 400 points from the opponent average.
func performanceRating(avgOpponent, percentage float64) float64 {
	switch {
	case percentage <= 0:
		return avgOpponent - 400
	case percentage >= 1:
		return avgOpponent + 400
	default:
		return avgOpponent - 400*math.Log10(1/percentage-1)
	}
}

// roundAndFloor converts an intermediate rating to the integer scale. All
// arithmetic stays in floating point until this single rounding step;
// half-values round to even so the worked examples of the system document
// reproduce exactly. The configured floor applies after rounding.
func (e *Engine) roundAndFloor(rating float64) int {
	rounded := int(math.RoundToEven(rating))
	if rounded < e.cfg.RatingFloor {
		return e.cfg.RatingFloor
	}
	return rounded
}
