package domain

import "time"

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleUser  MessageRole = "user"
	RoleModel MessageRole = "model"
)

// ChatMessage is one entry in a fortune chat transcript. Error marks the
// visibly-distinct inline notices appended when generation fails; such
// messages never count against the turn budget and are excluded from the
// history sent to the generator.
type ChatMessage struct {
	Role  MessageRole `json:"role"`
	Text  string      `json:"text"`
	Error bool        `json:"error,omitempty"`
}

// ChatSession is a bounded fortune chat. MessagesUsed counts successful
// user turns and never exceeds the configured cap.
type ChatSession struct {
	ID               string
	AccountID        string
	Messages         []ChatMessage
	MessagesUsed     int
	IsPremiumSession bool
	CreditCost       int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// History returns the ordered messages eligible for generation input.
func (s *ChatSession) History() []ChatMessage {
	out := make([]ChatMessage, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.Error {
			continue
		}
		out = append(out, m)
	}
	return out
}
