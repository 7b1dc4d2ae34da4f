package render

import (
	"fmt"
	"io"
)

// Plain writes unstyled text, for pipes and --plain mode.
type Plain struct {
	out   io.Writer
	err   io.Writer
	width int
}

func NewPlain(out, errOut io.Writer, width int) *Plain {
	return &Plain{out: out, err: errOut, width: width}
}

func (p *Plain) Response(text string) {
	writeLines(p.out, Wrap(text, p.width))
	fmt.Fprintln(p.out)
}

func (p *Plain) Info(msg string) {
	fmt.Fprintln(p.out, msg)
}

func (p *Plain) Error(msg string) {
	fmt.Fprintf(p.err, "Error: %s\n", msg)
}

func (p *Plain) Question(text, context string, options []string) {
	fmt.Fprintln(p.out)
	writeLines(p.out, Wrap("QUESTION: "+text, p.width))
	if context != "" {
		writeLines(p.out, Wrap(context, p.width))
	}
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, opt)
	}
}

func (p *Plain) Status(fields []Field) {
	for _, f := range fields {
		fmt.Fprintf(p.out, "%s: %s\n", f.Label, f.Value)
	}
}
