package render

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type waitDoneMsg struct {
	err error
}

// waitModel shows a spinner while a call is in flight. Ctrl+C cancels the
// call's context; the program exits when the call returns.
type waitModel struct {
	sp      spinner.Model
	message string
	cancel  context.CancelFunc
	err     error
	done    bool
}

func newWaitModel(message string, cancel context.CancelFunc) waitModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleSpinner
	return waitModel{sp: sp, message: message, cancel: cancel}
}

func (m waitModel) Init() tea.Cmd {
	return m.sp.Tick
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case waitDoneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.cancel()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m waitModel) View() string {
	if m.done {
		return ""
	}
	return m.sp.View() + " " + styleInfo.Render(m.message)
}

// Wait runs fn while showing a spinner on stderr. Interrupting cancels the
// context passed to fn; Wait still waits for fn to return before exiting so
// the terminal is never left mid-call.
func Wait(message string, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(newWaitModel(message, cancel), tea.WithOutput(os.Stderr))
	go func() {
		p.Send(waitDoneMsg{err: fn(ctx)})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("spinner: %w", err)
	}
	return final.(waitModel).err
}
