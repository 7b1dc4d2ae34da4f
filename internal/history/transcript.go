package history

import (
	"fmt"
	"strings"

	"github.com/netxms/nxaichat/internal/render"
)

const (
	colorReset  = "\033[0m"
	colorUser   = "\033[1;34m" // bold blue
	colorAssist = "\033[1;32m" // bold green
	colorDim    = "\033[2m"
)

// Transcript renders a stored chat as colored text, one block per message.
func Transcript(chat *ChatRow, messages []MessageRow, width int) string {
	var b strings.Builder
	writeLine := func(s string) {
		for _, w := range render.Wrap(s, width) {
			b.WriteString(w)
			b.WriteString("\n")
		}
	}

	header := fmt.Sprintf("%s--- chat #%d [%s] %s ---%s",
		colorDim, chat.ID, chat.Server, chat.StartedAt, colorReset)
	writeLine(header)
	if chat.Context != "" && chat.Context != "none" {
		writeLine(fmt.Sprintf("%scontext: %s%s", colorDim, chat.Context, colorReset))
	}

	separator := colorDim + "--------------------------------------------------" + colorReset
	for i, m := range messages {
		if i > 0 {
			writeLine(separator)
		}

		var roleColor, roleLabel string
		switch m.Role {
		case "user":
			roleColor = colorUser
			roleLabel = "USER"
		case "assistant":
			roleColor = colorAssist
			roleLabel = "ASST"
		default:
			roleColor = colorDim
			roleLabel = strings.ToUpper(m.Role)
		}

		writeLine(fmt.Sprintf("%s%s >%s %s%s%s", roleColor, roleLabel, colorReset, colorDim, m.Ts, colorReset))
		for _, tl := range strings.Split(m.Text, "\n") {
			writeLine("  " + tl)
		}
		writeLine("")
	}

	if len(messages) == 0 {
		writeLine("(empty transcript)")
	}

	return b.String()
}
