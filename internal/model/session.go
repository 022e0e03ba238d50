package model

import (
	"time"
)

// ChatSession is one conversation thread tied to a single category and an
// optional owner. The category is fixed at creation.
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Category  Category  `json:"category"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy whose message slice does not alias the receiver's.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = CloneMessages(s.Messages)
	return &c
}

// CloneMessages copies a message slice. A nil input yields an empty slice so
// sessions always serialize "messages" as an array.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
