// Package tui implements the interactive history picker. It draws on stderr
// so stdout stays clean for the selected command, which the shell widget
// splices back into its edit buffer.
package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spideyz0r/corvus/pkg/query"
	"github.com/spideyz0r/corvus/pkg/storage"
)

// Outcome is the terminal state of a picker session.
type Outcome int

const (
	// OutcomeCancelled means the user backed out (or the picker failed);
	// the shell buffer is left untouched.
	OutcomeCancelled Outcome = iota
	// OutcomeSelected means exactly one command was chosen.
	OutcomeSelected
)

// quickPickKeys map alt+digit to a result slot.
var quickPickKeys = map[string]int{
	"alt+1": 0,
	"alt+2": 1,
	"alt+3": 2,
	"alt+4": 3,
	"alt+5": 4,
}

// Model holds all picker state. The session is a strict loop: edit the query,
// re-fetch on every change, and end in exactly one of Selected or Cancelled.
type Model struct {
	engine *query.Engine
	db     *storage.DB

	Input   textinput.Model
	Results []*storage.HistoryEntry
	Cursor  int
	Scroll  int
	Width   int
	Height  int

	// ScopeCwd restricts results to the directory the picker was opened in.
	ScopeCwd bool
	Cwd      string
	Limit    int

	// ConfirmDelete is set while waiting for y/n on alt+d.
	ConfirmDelete bool

	Outcome  Outcome
	Selected string
	Err      error
}

// New creates a picker over the given store, seeded with the shell's current
// buffer contents.
func New(db *storage.DB, initialQuery, cwd string, limit int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.SetValue(initialQuery)
	ti.CursorEnd()
	ti.Focus()

	m := Model{
		engine: query.New(db),
		db:     db,
		Input:  ti,
		Cwd:    cwd,
		Limit:  limit,
	}
	m.refresh()
	return m
}

// Init satisfies tea.Model; the initial result set is fetched in New.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// refresh re-runs the search for the current query and scope. A store error
// abandons the session as Cancelled: the picker must never strand the shell.
func (m *Model) refresh() {
	opts := query.Options{Limit: m.Limit}
	if m.ScopeCwd {
		opts.Cwd = m.Cwd
	}

	results, err := m.engine.Search(m.Input.Value(), opts)
	if err != nil {
		m.Err = err
		m.Results = nil
		return
	}

	m.Results = results
	if m.Cursor >= len(m.Results) {
		m.Cursor = 0
		m.Scroll = 0
	}
}

// Run drives a picker session to completion and returns the selected command.
// ok is false when the session was cancelled.
func Run(db *storage.DB, initialQuery, cwd string, limit int) (selected string, ok bool, err error) {
	m := New(db, initialQuery, cwd, limit)
	if m.Err != nil {
		return "", false, fmt.Errorf("interactive search failed: %w", m.Err)
	}

	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return "", false, fmt.Errorf("interactive search failed: %w", err)
	}

	fm, ok := final.(Model)
	if !ok {
		return "", false, fmt.Errorf("interactive search failed: unexpected model type")
	}
	if fm.Err != nil {
		return "", false, fmt.Errorf("interactive search failed: %w", fm.Err)
	}
	if fm.Outcome != OutcomeSelected {
		return "", false, nil
	}
	return fm.Selected, true, nil
}
