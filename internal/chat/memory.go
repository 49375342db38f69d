package chat

import (
	"context"
	"sync"
	"time"
)

// MemoryTranscript keeps the conversation in process memory.
type MemoryTranscript struct {
	mu       sync.Mutex
	messages []Message
	nextID   int64
}

func NewMemoryTranscript() *MemoryTranscript {
	t := &MemoryTranscript{}
	t.reset(time.Now())
	return t
}

func (t *MemoryTranscript) reset(ts time.Time) {
	t.messages = []Message{welcome(ts)}
	t.nextID = 2
}

func (t *MemoryTranscript) Append(_ context.Context, sender Sender, content string, ts time.Time) (Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg := Message{ID: t.nextID, Sender: sender, Content: content, Timestamp: ts.UTC()}
	t.nextID++
	t.messages = append(t.messages, msg)
	return msg, nil
}

func (t *MemoryTranscript) All(_ context.Context) ([]Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message{}, t.messages...), nil
}

func (t *MemoryTranscript) Clear(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset(time.Now())
	return nil
}
