package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.ConfirmDelete {
			return m.handleConfirmKeys(msg.String())
		}
		return m.handleKeys(msg)
	}

	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {

	case "esc", "ctrl+c":
		m.Outcome = OutcomeCancelled
		return m, tea.Quit

	case "enter":
		if len(m.Results) == 0 {
			m.Outcome = OutcomeCancelled
			return m, tea.Quit
		}
		return m.pick(m.Cursor)

	case "tab":
		m.ScopeCwd = !m.ScopeCwd
		m.Cursor = 0
		m.Scroll = 0
		m.refresh()
		return m.checkErr()

	case "up", "ctrl+p":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Scroll {
				m.Scroll = m.Cursor
			}
		}
		return m, nil

	case "down", "ctrl+n":
		if m.Cursor < len(m.Results)-1 {
			m.Cursor++
			if m.Cursor >= m.Scroll+m.visibleItems() {
				m.Scroll = m.Cursor - m.visibleItems() + 1
			}
		}
		return m, nil

	case "alt+d":
		if len(m.Results) > 0 {
			m.ConfirmDelete = true
		}
		return m, nil

	default:
		if idx, ok := quickPickKeys[key]; ok {
			if idx < len(m.Results) {
				return m.pick(idx)
			}
			return m, nil
		}

		// Everything else edits the query.
		before := m.Input.Value()
		var cmd tea.Cmd
		m.Input, cmd = m.Input.Update(msg)
		if m.Input.Value() != before {
			m.Cursor = 0
			m.Scroll = 0
			m.refresh()
			if model, quit := m.errQuit(); quit != nil {
				return model, quit
			}
		}
		return m, cmd
	}
}

// handleConfirmKeys resolves the alt+d y/n prompt. Only an explicit y
// deletes; anything else returns to editing.
func (m Model) handleConfirmKeys(key string) (tea.Model, tea.Cmd) {
	m.ConfirmDelete = false

	if key != "y" && key != "Y" {
		return m, nil
	}

	if m.Cursor < len(m.Results) {
		if err := m.db.Delete(m.Results[m.Cursor].ID); err != nil {
			m.Err = err
			m.Outcome = OutcomeCancelled
			return m, tea.Quit
		}
		m.refresh()
		return m.checkErr()
	}
	return m, nil
}

func (m Model) pick(idx int) (tea.Model, tea.Cmd) {
	m.Selected = m.Results[idx].Command
	m.Outcome = OutcomeSelected
	return m, tea.Quit
}

func (m Model) checkErr() (tea.Model, tea.Cmd) {
	if model, quit := m.errQuit(); quit != nil {
		return model, quit
	}
	return m, nil
}

func (m Model) errQuit() (tea.Model, tea.Cmd) {
	if m.Err != nil {
		m.Outcome = OutcomeCancelled
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) visibleItems() int {
	// Header, input, status and help lines eat into the viewport.
	v := m.Height - 6
	if v < 5 {
		v = 5
	}
	return v
}
