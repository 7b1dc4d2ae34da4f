package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/netxms/nxaichat/internal/history"
)

// previewRenderedMsg is sent when an async transcript render completes.
type previewRenderedMsg struct {
	chatID  int64
	content string
	err     error
}

// loadPreviewCmd returns a tea.Cmd that renders the transcript async.
func loadPreviewCmd(db *history.DB, chatID int64, width int) tea.Cmd {
	return func() tea.Msg {
		chat, err := db.GetChat(chatID)
		if err != nil {
			return previewRenderedMsg{chatID: chatID, err: err}
		}
		if chat == nil {
			return previewRenderedMsg{chatID: chatID, err: fmt.Errorf("chat #%d not found", chatID)}
		}
		messages, err := db.Messages(chatID)
		if err != nil {
			return previewRenderedMsg{chatID: chatID, err: err}
		}
		return previewRenderedMsg{
			chatID:  chatID,
			content: history.Transcript(chat, messages, width),
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
