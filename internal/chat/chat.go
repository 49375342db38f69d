// Package chat holds the assistant transcript and the bot conversation logic.
package chat

import (
	"context"
	"errors"
	"time"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// WelcomeMessage seeds every new or cleared transcript.
const WelcomeMessage = "Hello! I'm your medical assistant. How can I help you today?"

var ErrEmptyMessage = errors.New("chat: message is empty")

type Message struct {
	ID        int64     `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript stores the conversation in order of arrival.
type Transcript interface {
	Append(ctx context.Context, sender Sender, content string, ts time.Time) (Message, error)
	All(ctx context.Context) ([]Message, error)
	// Clear drops every message and reseeds the welcome message as id 1.
	Clear(ctx context.Context) error
}

func welcome(ts time.Time) Message {
	return Message{ID: 1, Sender: SenderBot, Content: WelcomeMessage, Timestamp: ts.UTC()}
}
