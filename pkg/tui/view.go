package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	scopeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("57"))
	ageStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func (m Model) View() string {
	var b strings.Builder

	scope := "all directories"
	if m.ScopeCwd {
		scope = m.Cwd
	}
	b.WriteString(headerStyle.Render("corvus search"))
	b.WriteString("  ")
	b.WriteString(scopeStyle.Render("[" + scope + "]"))
	b.WriteString("\n")

	b.WriteString(m.Input.View())
	b.WriteString("\n\n")

	if len(m.Results) == 0 {
		b.WriteString(ageStyle.Render("  no matches"))
		b.WriteString("\n")
	}

	visible := m.visibleItems()
	end := m.Scroll + visible
	if end > len(m.Results) {
		end = len(m.Results)
	}

	for i := m.Scroll; i < end; i++ {
		entry := m.Results[i]
		line := m.formatEntry(i)

		if i == m.Cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		if entry.ExitCode != 0 && i != m.Cursor {
			// Trailing marker keeps failed commands visible without
			// recoloring the whole line.
			b.WriteString(failStyle.Render(fmt.Sprintf(" [exit %d]", entry.ExitCode)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.ConfirmDelete && m.Cursor < len(m.Results) {
		b.WriteString(confirmStyle.Render(fmt.Sprintf("delete %q? (y/n)", m.Results[m.Cursor].Command)))
	} else {
		b.WriteString(helpStyle.Render("enter select · tab scope · alt+1-5 quick pick · alt+d delete · esc cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

// formatEntry renders one result row: quick-pick slot, age, command.
func (m Model) formatEntry(i int) string {
	entry := m.Results[i]

	slot := "   "
	if i < len(quickPickKeys) {
		slot = fmt.Sprintf("%d: ", i+1)
	}

	age := humanize.Time(time.Unix(entry.Timestamp, 0))

	command := entry.Command
	maxWidth := m.Width - len(slot) - len(age) - 8
	if maxWidth > 0 && len(command) > maxWidth {
		command = command[:maxWidth-1] + "…"
	}

	return fmt.Sprintf("%s%s  %s", slot, command, ageStyle.Render(age))
}
