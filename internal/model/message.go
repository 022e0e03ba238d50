package model

import (
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	// SenderAI is the assistant. The wire value is "ai".
	SenderAI Sender = "ai"
)

// Message is a single utterance inside a chat session. Messages are created
// once and never mutated; their order in the session is the conversation order.
type Message struct {
	ID        string    `json:"id" firestore:"id"`
	Content   string    `json:"content" firestore:"content"`
	Sender    Sender    `json:"sender" firestore:"sender"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
	Category  Category  `json:"category,omitempty" firestore:"category,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string   `json:"message"`
	Category  Category `json:"category"`
	SessionID string   `json:"sessionId,omitempty"`
	UserID    string   `json:"userId,omitempty"`
}

// ChatResponse is returned after a completed turn.
type ChatResponse struct {
	Message   *Message `json:"message"`
	SessionID string   `json:"sessionId"`
}

// CategoryInfo describes a category for clients choosing a topic.
type CategoryInfo struct {
	ID          Category `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}
