// Package tui is the interactive transcript browser: a filterable list of
// recorded chats on the left, the selected transcript on the right.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/netxms/nxaichat/internal/history"
)

const debounceDelay = 200 * time.Millisecond

// row is one entry in the left panel: a recorded chat, optionally with a
// search snippet when a filter query is active.
type row struct {
	chatID   int64
	started  string
	server   string
	context  string
	messages int
	snippet  string
}

// message types

type filterResultMsg struct {
	query string
	rows  []row
	err   error
}

type debounceTickMsg struct {
	query string
}

type model struct {
	db         *history.DB
	query      string
	rows       []row
	cursor     int
	listOffset int
	filter     textinput.Model
	preview    viewport.Model
	previewID  int64 // chat id currently shown, to avoid duplicate renders
	width      int
	height     int
	ready      bool
	quitting   bool
}

func initialModel(db *history.DB) model {
	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Focus()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		db:        db,
		filter:    ti,
		preview:   viewport.New(0, 0),
		previewID: -1,
	}
}

// Run starts the transcript browser and blocks until it exits.
func Run(db *history.DB) error {
	p := tea.NewProgram(initialModel(db), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Init triggers the initial list load.
func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.doFilter(""))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewID = -1
		if len(m.rows) > 0 && m.cursor < len(m.rows) {
			cmds = append(cmds, loadPreviewCmd(m.db, m.rows[m.cursor].chatID, m.previewWidth()))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		// Pass remaining keys to the filter input
		var tiCmd tea.Cmd
		m.filter, tiCmd = m.filter.Update(msg)
		cmds = append(cmds, tiCmd)

		if newQuery := m.filter.Value(); newQuery != m.query {
			m.query = newQuery
			cmds = append(cmds, m.scheduleDebouncedFilter(newQuery))
		}
		return m, tea.Batch(cmds...)

	case debounceTickMsg:
		// Only fire if the query hasn't changed since the debounce started
		if msg.query == m.query {
			cmds = append(cmds, m.doFilter(msg.query))
		}
		return m, tea.Batch(cmds...)

	case filterResultMsg:
		if msg.query != m.query {
			return m, nil
		}
		if msg.err != nil {
			m.rows = nil
			m.cursor = 0
			m.listOffset = 0
			m.preview.SetContent("Error: " + msg.err.Error())
			m.previewID = -1
			return m, nil
		}
		m.rows = msg.rows
		m.cursor = 0
		m.listOffset = 0
		if len(m.rows) > 0 {
			cmds = append(cmds, m.loadCurrentPreview())
		} else {
			m.preview.SetContent("")
			m.previewID = -1
		}
		return m, tea.Batch(cmds...)

	case previewRenderedMsg:
		if msg.chatID == m.previewID {
			return m, nil
		}
		if len(m.rows) > 0 && m.cursor < len(m.rows) && msg.chatID != m.rows[m.cursor].chatID {
			return m, nil // stale preview
		}
		if msg.err != nil {
			m.preview.SetContent("Preview error: " + msg.err.Error())
		} else {
			m.preview.SetContent(msg.content)
			m.preview.GotoTop()
		}
		m.previewID = msg.chatID
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	inputRow := m.filter.View()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)

	return lipgloss.JoinVertical(lipgloss.Left, inputRow, panels, m.statusBar())
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	w := m.width*40/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	w := m.width*60/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// Subtract input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d transcripts", len(m.rows)),
		"up/dn navigate",
		"C-u/C-d transcript",
		"Esc quit",
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) doFilter(query string) tea.Cmd {
	db := m.db
	return func() tea.Msg {
		if query == "" {
			chats, err := db.ListChats(0)
			if err != nil {
				return filterResultMsg{query: query, err: err}
			}
			rows := make([]row, 0, len(chats))
			for _, c := range chats {
				rows = append(rows, row{
					chatID:   c.ID,
					started:  c.StartedAt,
					server:   c.Server,
					context:  c.Context,
					messages: c.Messages,
				})
			}
			return filterResultMsg{query: query, rows: rows}
		}

		hits, err := db.Search(query, 0)
		if err != nil {
			return filterResultMsg{query: query, err: err}
		}
		// Keep only the best hit per chat
		seen := make(map[int64]bool)
		var rows []row
		for _, h := range hits {
			if seen[h.ChatID] {
				continue
			}
			seen[h.ChatID] = true
			rows = append(rows, row{
				chatID:  h.ChatID,
				started: h.StartedAt,
				server:  h.Server,
				snippet: h.Snippet,
			})
		}
		return filterResultMsg{query: query, rows: rows}
	}
}

func (m model) scheduleDebouncedFilter(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	if len(m.rows) == 0 || m.cursor >= len(m.rows) {
		return nil
	}
	id := m.rows[m.cursor].chatID
	if id == m.previewID {
		return nil
	}
	return loadPreviewCmd(m.db, id, m.previewWidth())
}
