// Package report renders the engine output into the two delivery formats:
// a human-readable tournament report and a machine-readable CSV rating
// table. Both files are rendered in memory first and written via temp file
// plus rename, so a failed run leaves no partial output behind.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/tourating/tourating/pkg/data"
	"github.com/tourating/tourating/pkg/rating"
)

// Error types for export operations
var (
	ErrExport      = errors.New("export failed")
	ErrAtomicWrite = errors.New("atomic write operation failed")
)

// Exporter renders rating run results to files.
type Exporter struct {
	cfg data.ReportConfig
}

// NewExporter creates an exporter with the given output settings.
func NewExporter(cfg data.ReportConfig) *Exporter {
	return &Exporter{cfg: cfg}
}

// WriteAll renders both output files into dir. Rendering happens fully in
// memory before anything touches the filesystem; the files then land via
// atomic renames.
func (e *Exporter) WriteAll(dir string, t *data.Tournament, players map[string]data.Player, changes map[string]rating.RatingChange) error {
	ordered := rating.Standings(changes)

	var reportBuf, tableBuf bytes.Buffer
	if err := e.WriteReport(&reportBuf, t, ordered); err != nil {
		return err
	}
	if err := e.WriteTable(&tableBuf, players, ordered); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: cannot create output directory %s: %v", ErrExport, dir, err)
	}

	files := []struct {
		name string
		body []byte
	}{
		{filepath.Join(dir, e.cfg.ReportFile), reportBuf.Bytes()},
		{filepath.Join(dir, e.cfg.TableFile), tableBuf.Bytes()},
	}

	// Stage both temp files before renaming either, keeping the run as
	// close to all-or-nothing as the filesystem allows.
	var staged []string
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}
	for _, f := range files {
		tmp := f.name + ".tmp"
		if err := os.WriteFile(tmp, f.body, 0644); err != nil {
			cleanup()
			return fmt.Errorf("%w: cannot stage %s: %v", ErrAtomicWrite, f.name, err)
		}
		staged = append(staged, tmp)
	}
	for i, f := range files {
		if err := os.Rename(staged[i], f.name); err != nil {
			cleanup()
			return fmt.Errorf("%w: rename to %s failed: %v", ErrAtomicWrite, f.name, err)
		}
	}

	return nil
}

// WriteReport renders the human-readable tournament report: standings with
// old and new ratings, per-round results, and the list of first-time
// entrants.
func (e *Exporter) WriteReport(w io.Writer, t *data.Tournament, ordered []rating.RatingChange) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", t.Name, t.Date.Format("2006-01-02")); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tRECORD\tSCORE\tOLD RAT\tNEW RAT\tCHANGE\tPERF")
	for _, rc := range ordered {
		old := "unrated"
		delta := ""
		if rc.OldRating != nil {
			old = strconv.Itoa(*rc.OldRating)
			delta = fmt.Sprintf("%+d", rc.Delta())
		}
		fmt.Fprintf(tw, "%s\t%d-%d-%d\t%s\t%s\t%d\t%s\t%d\n",
			rc.Name,
			rc.Wins, rc.Draws, rc.Losses,
			formatScore(rc.ActualScore),
			old,
			rc.NewRating,
			delta,
			rc.PerformanceRating,
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}

	records := data.BuildRecords(t.Games)
	fmt.Fprintln(w)
	for _, rc := range ordered {
		rec := records[rc.Name]
		if rec == nil {
			continue
		}
		fmt.Fprintf(w, "%s\n", rc.Name)
		for i, opponent := range rec.Opponents {
			fmt.Fprintf(w, "  %2d: %s vs %s\n", rec.Rounds[i], resultLetter(rec.Points[i]), opponent)
		}
	}

	newcomers := make([]string, 0)
	for _, rc := range ordered {
		if rc.OldRating == nil {
			newcomers = append(newcomers, rc.Name)
		}
	}
	if len(newcomers) > 0 {
		sort.Strings(newcomers)
		fmt.Fprintln(w)
		for _, name := range newcomers {
			fmt.Fprintf(w, "%s entered unrated; initial rating %d\n", name, changeFor(ordered, name).NewRating)
		}
	}

	return nil
}

// WriteTable renders the machine-readable rating table, one row per player
// in standings order. OldRating stays empty for unrated entrants; the
// lifetime game count includes this tournament.
func (e *Exporter) WriteTable(w io.Writer, players map[string]data.Player, ordered []rating.RatingChange) error {
	writer := csv.NewWriter(w)

	header := []string{"Name", "OldRating", "NewRating", "Games", "Score", "Expected", "Performance", "LifetimeGames"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}

	for _, rc := range ordered {
		old := ""
		if rc.OldRating != nil {
			old = strconv.Itoa(*rc.OldRating)
		}
		lifetime := players[rc.Name].LifetimeGames + rc.GamesPlayed
		row := []string{
			rc.Name,
			old,
			strconv.Itoa(rc.NewRating),
			strconv.Itoa(rc.GamesPlayed),
			formatScore(rc.ActualScore),
			strconv.FormatFloat(rc.ExpectedScore, 'f', 2, 64),
			strconv.Itoa(rc.PerformanceRating),
			strconv.Itoa(lifetime),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("%w: %v", ErrExport, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}

// formatScore renders tournament points with a single decimal place, the
// convention of published crosstables.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}

func resultLetter(points float64) string {
	switch points {
	case 1:
		return "W"
	case 0.5:
		return "D"
	default:
		return "L"
	}
}

func changeFor(ordered []rating.RatingChange, name string) rating.RatingChange {
	for _, rc := range ordered {
		if rc.Name == name {
			return rc
		}
	}
	return rating.RatingChange{}
}
