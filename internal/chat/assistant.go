package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Responder produces the bot's next message for a conversation.
type Responder interface {
	Reply(ctx context.Context, conversation []Message) (string, error)
}

var errNoResponder = errors.New("no bot service configured")

// Status reports whether the assistant is answering from canned replies.
type Status struct {
	Offline   bool   `json:"offline"`
	LastError string `json:"lastError,omitempty"`
}

// Exchange is the pair of messages produced by one Send.
type Exchange struct {
	User    Message `json:"user"`
	Bot     Message `json:"bot"`
	Offline bool    `json:"offline"`
}

// Assistant answers user messages through a Responder and falls back to
// offline answers once the responder fails. It stays offline until
// Reconnect is called.
type Assistant struct {
	transcript Transcript
	responder  Responder
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	offline bool
	lastErr error
}

// NewAssistant builds an assistant. A nil responder starts it offline.
func NewAssistant(transcript Transcript, responder Responder, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Assistant{
		transcript: transcript,
		responder:  responder,
		logger:     logger,
		now:        time.Now,
	}
	if responder == nil {
		a.offline = true
		a.lastErr = errNoResponder
	}
	return a
}

func (a *Assistant) Transcript() Transcript { return a.transcript }

func (a *Assistant) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Status{Offline: a.offline}
	if a.lastErr != nil {
		s.LastError = a.lastErr.Error()
	}
	return s
}

// Reconnect leaves offline mode so the next Send tries the responder again.
func (a *Assistant) Reconnect() Status {
	a.mu.Lock()
	if a.responder != nil {
		a.offline = false
		a.lastErr = nil
	}
	a.mu.Unlock()
	return a.Status()
}

func (a *Assistant) isOffline() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offline
}

func (a *Assistant) goOffline(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.offline = true
	a.lastErr = err
}

// Send records the user's message and the bot's answer.
func (a *Assistant) Send(ctx context.Context, content string) (Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Exchange{}, ErrEmptyMessage
	}

	user, err := a.transcript.Append(ctx, SenderUser, content, a.now())
	if err != nil {
		return Exchange{}, fmt.Errorf("store user message: %w", err)
	}

	answer, offline := a.answer(ctx, content)

	bot, err := a.transcript.Append(ctx, SenderBot, answer, a.now())
	if err != nil {
		return Exchange{}, fmt.Errorf("store bot message: %w", err)
	}
	return Exchange{User: user, Bot: bot, Offline: offline}, nil
}

func (a *Assistant) answer(ctx context.Context, question string) (string, bool) {
	if a.isOffline() {
		return OfflineAnswer(question), true
	}

	conversation, err := a.transcript.All(ctx)
	if err != nil {
		a.logger.Warn("load transcript for bot", zap.Error(err))
		return OfflineAnswer(question), true
	}

	reply, err := a.responder.Reply(ctx, conversation)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("bot returned an empty reply")
	}
	if err != nil && ctx.Err() != nil {
		// The caller gave up; the bot service itself may be fine.
		a.logger.Debug("bot request abandoned by caller", zap.Error(err))
		return OfflineAnswer(question), true
	}
	if err != nil {
		a.logger.Warn("bot service unavailable, switching to offline answers", zap.Error(err))
		a.goOffline(err)
		return OfflineAnswer(question), true
	}
	return reply, false
}
