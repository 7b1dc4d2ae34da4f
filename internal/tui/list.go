package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// linesPerItem is the number of terminal lines each transcript occupies.
const linesPerItem = 2

// renderList renders the left panel: recorded chats with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.rows) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No transcripts")
		return empty
	}

	var lines []string
	for i, r := range m.rows {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatRow(r, width, i == m.cursor)...)
	}

	// Pad remaining lines
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatRow formats one transcript as two lines:
//
//	line 1: [>] #id  MM-DD  server
//	line 2:    context or search snippet (dimmed)
func formatRow(r row, width int, selected bool) []string {
	// Short date from StartedAt (e.g. "2026-08-28T10:11:12" -> "08-28")
	date := r.started
	if len(date) >= 10 {
		date = date[5:10]
	}

	server := styleServer.Render(r.server)

	line1 := fmt.Sprintf("#%-4d %s %s", r.chatID, date, server)
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	detail := r.snippet
	if detail == "" {
		detail = fmt.Sprintf("%s, %d messages", r.context, r.messages)
	}
	detail = strings.ReplaceAll(detail, "\n", " ")
	detail = strings.ReplaceAll(detail, ">>>", "")
	detail = strings.ReplaceAll(detail, "<<<", "")
	detailMax := width - 4
	if detailMax < 0 {
		detailMax = 0
	}
	if runewidth.StringWidth(detail) > detailMax {
		detail = runewidth.Truncate(detail, detailMax, "")
	}
	line2 := "    " + lipgloss.NewStyle().Foreground(colorDim).Render(detail)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
