// Package tui provides the interactive setup screen of tourating. It lets the
// operator pick the input files and tournament details, runs the rating
// calculation, and shows the outcome without leaving the terminal.
package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// RunRequest carries the values gathered from the setup form.
type RunRequest struct {
	RatingsFile    string
	ResultsFile    string
	TournamentName string
	TournamentDate string
	OutputDir      string
}

// RunFunc executes a rating run and returns a one-line summary of what was
// written, or an error describing why nothing was.
type RunFunc func(req RunRequest) (string, error)

// App represents the interactive setup application.
type App struct {
	tviewApp *tview.Application
	form     *tview.Form
	status   *tview.TextView
	run      RunFunc

	req RunRequest
}

// NewApp creates the setup screen around the given run callback.
func NewApp(run RunFunc) *App {
	app := &App{
		tviewApp: tview.NewApplication(),
		form:     tview.NewForm(),
		status:   tview.NewTextView(),
		run:      run,
		req:      RunRequest{OutputDir: "."},
	}

	app.setupUI()

	return app
}

// setupUI initializes the form, status area and layout.
func (a *App) setupUI() {
	a.form.AddInputField("Rating List (.dat/.csv)", "", 50, nil, func(text string) {
		a.req.RatingsFile = text
	})
	a.form.AddInputField("Result File (.tou/.csv)", "", 50, nil, func(text string) {
		a.req.ResultsFile = text
	})
	a.form.AddInputField("Tournament Name", "", 50, nil, func(text string) {
		a.req.TournamentName = text
	})
	a.form.AddInputField("Tournament Date", "", 20, nil, func(text string) {
		a.req.TournamentDate = text
	})
	a.form.AddInputField("Output Directory", ".", 50, nil, func(text string) {
		a.req.OutputDir = text
	})

	a.form.AddButton("Calculate", a.onCalculate)
	a.form.AddButton("Quit", func() {
		a.tviewApp.Stop()
	})

	a.form.SetBorder(true).
		SetTitle("Tournament Rating Setup").
		SetTitleAlign(tview.AlignCenter)

	a.status.SetDynamicColors(true).
		SetBorder(true).
		SetTitle("Status").
		SetTitleAlign(tview.AlignCenter)
	a.status.SetText("Fill in the files above and press Calculate.")

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.form, 0, 3, true).
		AddItem(a.status, 0, 1, false)

	layout.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			a.tviewApp.Stop()
			return nil
		}
		return event
	})

	a.tviewApp.SetRoot(layout, true)
	a.tviewApp.EnableMouse(true)
}

// onCalculate validates the form and executes the run callback. The callback
// runs off the UI goroutine so a slow disk does not freeze the screen.
func (a *App) onCalculate() {
	req := a.req

	if req.RatingsFile == "" || req.ResultsFile == "" {
		a.showStatus("[red]Both a rating list and a result file are required.")
		return
	}

	a.showStatus("[yellow]Calculating...")

	go func() {
		summary, err := a.run(req)
		a.tviewApp.QueueUpdateDraw(func() {
			if err != nil {
				a.showStatus(fmt.Sprintf("[red]Failed: %v", err))
				return
			}
			a.showStatus("[green]" + summary)
		})
	}()
}

func (a *App) showStatus(text string) {
	a.status.SetText(text)
}

// Run starts the setup screen and blocks until the operator quits.
func (a *App) Run() error {
	return a.tviewApp.Run()
}

// Stop terminates the application.
func (a *App) Stop() {
	a.tviewApp.Stop()
}
