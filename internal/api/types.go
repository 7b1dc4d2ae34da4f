package api

// Question kinds as reported by the server.
const (
	QuestionConfirmation   = "confirmation"
	QuestionMultipleChoice = "multipleChoice"
)

// Confirmation phrasing styles. Anything outside this set falls back to
// confirm/cancel wording on the client side.
const (
	ConfirmApproveReject = 0
	ConfirmYesNo         = 1
)

// Question is a server-initiated request for user input delivered inside a
// chat response. Immutable once received; exactly one answer is sent per id.
type Question struct {
	ID               int64    `json:"id"`
	Type             string   `json:"type"`
	ConfirmationType int      `json:"confirmationType"`
	Text             string   `json:"text"`
	Context          string   `json:"context"`
	Options          []string `json:"options"`
	ExpiresAt        string   `json:"expiresAt"`
}

func (q *Question) IsMultipleChoice() bool { return q.Type == QuestionMultipleChoice }

// ChatResponse is the server's reply to one message: optional response text
// and at most one pending question.
type ChatResponse struct {
	Response        string    `json:"response"`
	PendingQuestion *Question `json:"pendingQuestion"`
}

// Object is a management object returned by the search endpoint.
type Object struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Class string `json:"class"`
}
