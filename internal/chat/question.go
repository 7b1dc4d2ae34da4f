package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/netxms/nxaichat/internal/api"
	"github.com/netxms/nxaichat/internal/render"
)

// confirmLabels maps the server's confirmation phrasing style to its
// positive/negative word pair. Unknown styles fall back to confirm/cancel.
func confirmLabels(subtype int) (string, string) {
	switch subtype {
	case api.ConfirmApproveReject:
		return "approve", "reject"
	case api.ConfirmYesNo:
		return "yes", "no"
	default:
		return "confirm", "cancel"
	}
}

// Resolver turns a server-posed question into a validated answer and
// submits it. Exactly one answer is sent per question.
type Resolver struct {
	client Client
	in     Input
	out    render.Renderer
}

func NewResolver(client Client, in Input, out render.Renderer) *Resolver {
	return &Resolver{client: client, in: in, out: out}
}

// Resolve prompts for the answer and submits it, then emits one status line
// with the resolved outcome, which it also returns for transcript recording.
// A failed submission is reported, never propagated: the chat loop must
// survive it.
func (r *Resolver) Resolve(ctx context.Context, chatID int64, q *api.Question) string {
	r.out.Question(q.Text, q.Context, q.Options)

	var positive bool
	option := -1
	var outcome string
	if q.IsMultipleChoice() {
		option = r.promptChoice(q.Options)
		positive = option >= 0
		if positive {
			outcome = "Selected: " + q.Options[option]
		} else {
			outcome = "No selection made"
		}
	} else {
		pos, neg := confirmLabels(q.ConfirmationType)
		positive = r.promptConfirm(pos, neg)
		if positive {
			outcome = "Answer: " + pos
		} else {
			outcome = "Answer: " + neg
		}
	}

	if err := r.client.AnswerQuestion(ctx, chatID, q.ID, positive, option); err != nil {
		r.out.Error("Failed to send answer: " + err.Error())
		return ""
	}
	r.out.Info(outcome)
	return outcome
}

// promptConfirm loops until the user enters one of the two labels or its
// first letter, case-insensitively. Interrupt or end of input resolves to
// the negative answer. When both labels share a first letter the positive
// reading wins.
func (r *Resolver) promptConfirm(pos, neg string) bool {
	prompt := fmt.Sprintf("[%s/%s]: ", pos, neg)
	for {
		line, err := r.in.ReadLine(prompt)
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case pos, pos[:1]:
			return true
		case neg, neg[:1]:
			return false
		}
		r.out.Error(fmt.Sprintf("Please answer %q or %q", pos, neg))
	}
}

// promptChoice loops until the user enters a number in [1, len(options)],
// returning the zero-based index. Interrupt or end of input returns -1. An
// empty option list resolves to -1 without prompting.
func (r *Resolver) promptChoice(options []string) int {
	if len(options) == 0 {
		return -1
	}
	prompt := fmt.Sprintf("Select option [1-%d]: ", len(options))
	for {
		line, err := r.in.ReadLine(prompt)
		if err != nil {
			return -1
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr == nil && n >= 1 && n <= len(options) {
			return n - 1
		}
		r.out.Error(fmt.Sprintf("Enter a number between 1 and %d", len(options)))
	}
}
