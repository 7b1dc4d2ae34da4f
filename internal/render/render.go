// Package render is the terminal output capability of the chat client. The
// session logic only sees the Renderer interface; the styled and plain
// implementations are selected once at startup.
package render

import (
	"io"
	"os"
)

// Field is one row of the /status panel.
type Field struct {
	Label string
	Value string
}

// Renderer renders everything the chat session shows the user.
type Renderer interface {
	// Response renders an assistant reply.
	Response(text string)
	// Info prints a single informational line.
	Info(msg string)
	// Error prints a single error line.
	Error(msg string)
	// Question presents a server-posed question with its context and, for
	// multiple choice, the numbered options.
	Question(text, context string, options []string)
	// Status renders the session status fields.
	Status(fields []Field)
}

// New selects the implementation: styled panels and markdown on interactive
// terminals, wrapped raw text otherwise.
func New(plain bool, width int) Renderer {
	if plain {
		return NewPlain(os.Stdout, os.Stderr, width)
	}
	return NewRich(os.Stdout, width)
}

// writer helpers shared by both implementations

func writeLines(w io.Writer, lines []string) {
	for _, line := range lines {
		io.WriteString(w, line)
		io.WriteString(w, "\n")
	}
}
