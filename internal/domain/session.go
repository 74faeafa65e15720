package domain

import (
	"strings"
	"time"
	"unicode"
)

// ChatSession is one conversational thread. Messages are ordered newest first.
type ChatSession struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	FullPrompt string        `json:"fullPrompt"`
	Messages   []ChatMessage `json:"messages"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// ChatMessage is a single question/answer exchange. Immutable once created.
type ChatMessage struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Response  ChatResponse `json:"response"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Clone returns a deep copy so callers can never mutate manager-owned state.
func (s *ChatSession) Clone() *ChatSession {
	c := *s
	c.Messages = make([]ChatMessage, len(s.Messages))
	copy(c.Messages, s.Messages)
	return &c
}

// DeriveTitle truncates a question to at most maxLen runes at a word boundary,
// appending an ellipsis when truncated.
func DeriveTitle(question string, maxLen int) string {
	q := strings.TrimSpace(question)
	runes := []rune(q)
	if len(runes) <= maxLen {
		return q
	}

	cut := maxLen - 1 // room for the ellipsis
	boundary := -1
	for i := cut; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			boundary = i
			break
		}
	}
	if boundary > 0 {
		cut = boundary
	}
	return strings.TrimRight(string(runes[:cut]), " \t") + "…"
}
