// Package main provides the command-line interface of tourating. It reads a
// prior rating list and a tournament result file, recalculates ratings, and
// writes a human-readable report plus a machine-readable rating table.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/jessevdk/go-flags"

	"github.com/tourating/tourating/pkg/data"
	"github.com/tourating/tourating/pkg/rating"
	"github.com/tourating/tourating/pkg/report"
	"github.com/tourating/tourating/pkg/tui"
)

// Version information - set by build process
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Exit codes. Format errors, validation errors and configuration errors are
// distinguished so scripts can react to each class.
const (
	ExitSuccess = iota
	ExitFormatError
	ExitValidationError
	ExitConfigError
	ExitOtherError
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit code via the sentinel it wraps.
func exitCode(err error) int {
	switch {
	case errors.Is(err, data.ErrFormat):
		return ExitFormatError
	case errors.Is(err, data.ErrValidation):
		return ExitValidationError
	case errors.Is(err, data.ErrConfig):
		return ExitConfigError
	}
	return ExitOtherError
}

func run(args []string) error {
	config, opts, err := data.ParseCLI(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	if opts.Version {
		return showVersion()
	}

	if opts.Interactive {
		app := tui.NewApp(func(req tui.RunRequest) (string, error) {
			outcome, err := execute(config, runRequest{
				RatingsFile:    req.RatingsFile,
				ResultsFile:    req.ResultsFile,
				TournamentName: req.TournamentName,
				TournamentDate: req.TournamentDate,
				OutputDir:      req.OutputDir,
			})
			if err != nil {
				return "", err
			}
			return outcome.Summary(), nil
		})
		return app.Run()
	}

	outcome, err := execute(config, runRequest{
		RatingsFile:    opts.RatingsFile,
		ResultsFile:    opts.ResultsFile,
		TournamentName: opts.TournamentName,
		TournamentDate: opts.TournamentDate,
		OutputDir:      opts.OutputDir,
	})
	if err != nil {
		return err
	}

	fmt.Println(outcome.Summary())
	if opts.Verbose {
		printChanges(outcome.Ordered)
	}

	return nil
}

// runRequest carries the per-run inputs, whether they came from flags or from
// the interactive setup screen.
type runRequest struct {
	RatingsFile    string
	ResultsFile    string
	TournamentName string
	TournamentDate string
	OutputDir      string
}

// runOutcome holds the results of a completed run.
type runOutcome struct {
	Tournament *data.Tournament
	Ordered    []rating.RatingChange
	ReportPath string
	TablePath  string
}

func (o *runOutcome) Summary() string {
	return fmt.Sprintf("Rated %d players over %d games in %q; wrote %s and %s",
		len(o.Ordered), len(o.Tournament.Games), o.Tournament.Name,
		o.ReportPath, o.TablePath)
}

// execute runs the whole pipeline: read both inputs, recalculate ratings and
// write both output files. No output file is touched unless every stage
// succeeds.
func execute(config *data.Config, req runRequest) (*runOutcome, error) {
	meta := data.TournamentMeta{Name: req.TournamentName}
	if req.TournamentDate != "" {
		when, err := dateparse.ParseAny(req.TournamentDate)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot parse tournament date %q", data.ErrConfig, req.TournamentDate)
		}
		meta.Date = when
	}

	players, err := data.ReadRatingList(req.RatingsFile)
	if err != nil {
		return nil, err
	}

	tournament, err := data.ReadResults(req.ResultsFile, meta)
	if err != nil {
		return nil, err
	}

	data.AddMissingPlayers(players, tournament.Games)

	engine, err := rating.NewEngine(config.Rating)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrConfig, err)
	}

	changes, err := engine.ComputeNewRatings(players, tournament.Games)
	if err != nil {
		return nil, err
	}

	exporter := report.NewExporter(config.Report)
	if err := exporter.WriteAll(req.OutputDir, tournament, players, changes); err != nil {
		return nil, err
	}

	return &runOutcome{
		Tournament: tournament,
		Ordered:    rating.Standings(changes),
		ReportPath: filepath.Join(req.OutputDir, config.Report.ReportFile),
		TablePath:  filepath.Join(req.OutputDir, config.Report.TableFile),
	}, nil
}

func printChanges(ordered []rating.RatingChange) {
	fmt.Printf("%-24s %-8s %-8s %-8s %s\n", "NAME", "OLD", "NEW", "CHANGE", "PERF")
	fmt.Println(strings.Repeat("-", 58))
	for _, rc := range ordered {
		old := "unrated"
		change := ""
		if rc.OldRating != nil {
			old = fmt.Sprintf("%d", *rc.OldRating)
			change = fmt.Sprintf("%+d", rc.Delta())
		}
		fmt.Printf("%-24s %-8s %-8d %-8s %d\n", rc.Name, old, rc.NewRating, change, rc.PerformanceRating)
	}
}

func showVersion() error {
	fmt.Printf("tourating version %s\n", Version)
	fmt.Printf("Build date: %s\n", BuildDate)
	fmt.Printf("Git commit: %s\n", GitCommit)
	return nil
}
