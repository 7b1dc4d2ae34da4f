package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorSecondary = lipgloss.Color("10")  // bright green
	colorDim       = lipgloss.Color("240") // gray
	colorWarn      = lipgloss.Color("214") // orange
	colorErr       = lipgloss.Color("196") // red
	colorBorder    = lipgloss.Color("238") // dark gray

	styleInfo = lipgloss.NewStyle().
			Foreground(colorDim)

	styleError = lipgloss.NewStyle().
			Foreground(colorErr).
			Bold(true)

	styleQuestionTitle = lipgloss.NewStyle().
				Foreground(colorWarn).
				Bold(true)

	styleQuestionContext = lipgloss.NewStyle().
				Foreground(colorDim)

	styleOptionNumber = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true)

	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder).
				Padding(0, 1)

	styleQuestionBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorWarn).
				Padding(0, 1)

	styleStatusLabel = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				Width(9)

	styleSpinner = lipgloss.NewStyle().
			Foreground(colorPrimary)
)

// Rich renders styled output for interactive terminals: markdown for
// assistant replies, bordered panels for questions and status.
type Rich struct {
	out   io.Writer
	width int
	md    *glamour.TermRenderer
}

func NewRich(out io.Writer, width int) *Rich {
	if width <= 0 {
		width = 80
	}
	// A nil renderer falls back to wrapped plain text.
	md, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	return &Rich{out: out, width: width, md: md}
}

func (r *Rich) Response(text string) {
	if r.md != nil {
		if rendered, err := r.md.Render(text); err == nil {
			fmt.Fprint(r.out, rendered)
			return
		}
	}
	writeLines(r.out, Wrap(text, r.width))
	fmt.Fprintln(r.out)
}

func (r *Rich) Info(msg string) {
	fmt.Fprintln(r.out, styleInfo.Render(msg))
}

func (r *Rich) Error(msg string) {
	fmt.Fprintln(r.out, styleError.Render("✗ ")+msg)
}

func (r *Rich) Question(text, context string, options []string) {
	var b strings.Builder
	b.WriteString(styleQuestionTitle.Render("Question"))
	b.WriteString("\n")
	b.WriteString(strings.Join(Wrap(text, r.panelWidth()), "\n"))
	if context != "" {
		b.WriteString("\n")
		b.WriteString(styleQuestionContext.Render(strings.Join(Wrap(context, r.panelWidth()), "\n")))
	}
	for i, opt := range options {
		b.WriteString("\n")
		b.WriteString(styleOptionNumber.Render(fmt.Sprintf("%2d.", i+1)))
		b.WriteString(" " + opt)
	}
	fmt.Fprintln(r.out, styleQuestionBorder.Render(b.String()))
}

func (r *Rich) Status(fields []Field) {
	var rows []string
	for _, f := range fields {
		rows = append(rows, styleStatusLabel.Render(f.Label)+" "+f.Value)
	}
	fmt.Fprintln(r.out, stylePanelBorder.Render(strings.Join(rows, "\n")))
}

func (r *Rich) panelWidth() int {
	w := r.width - 6 // border + padding
	if w < 20 {
		w = 20
	}
	return w
}
