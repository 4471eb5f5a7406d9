package models

import "strings"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// MessagePart is one element of a structured message body. Only parts with
// Type "text" carry query content.
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is a single conversation turn. Clients send one of two shapes:
// a flat {role, content} message or a structured {role, parts} message.
// Both resolve to the same logical text through Text.
type Message struct {
	Role    string        `json:"role"`
	Content string        `json:"content,omitempty"`
	Parts   []MessagePart `json:"parts,omitempty"`
}

// Text resolves the message body to plain text. For structured messages the
// text parts are concatenated in order; parts of any other type are skipped.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// LatestUserText returns the text of the most recent user message, or the
// empty string when the conversation holds none.
func LatestUserText(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Text()
		}
	}
	return ""
}
