// Package chat implements the rules assistant conversation. Replies come
// from an mtgrules.Asker; PlaceholderAsker stands in until a real backend
// is wired.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/mtgrules"
	"github.com/google/uuid"
)

// Greeting is the assistant's opening message.
const Greeting = "Hello! I'm your MTG Judge Assistant. Ask me anything about Magic: The Gathering rules, interactions, or game mechanics!"

// Sender identifies the author of a message.
type Sender string

// Message senders.
const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single chat message.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is an in-memory conversation. It starts with the greeting.
type Session struct {
	asker mtgrules.Asker
	now   func() time.Time

	mu       sync.Mutex
	messages []Message
}

// NewSession creates a Session answered by asker.
func NewSession(asker mtgrules.Asker) *Session {
	s := &Session{asker: asker, now: time.Now}
	s.messages = []Message{s.newMessage(Greeting, SenderAssistant)}
	return s
}

// Messages returns the conversation so far.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Send appends the user's message, asks for a reply and appends it.
// Returns EINVALID for blank input; nothing is appended in that case.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, mtgrules.Errorf(mtgrules.EINVALID, "message is empty")
	}

	s.mu.Lock()
	s.messages = append(s.messages, s.newMessage(text, SenderUser))
	s.mu.Unlock()

	answer, err := s.asker.Ask(ctx, text)
	if err != nil {
		return Message{}, err
	}

	reply := s.newMessage(answer, SenderAssistant)
	s.mu.Lock()
	s.messages = append(s.messages, reply)
	s.mu.Unlock()
	return reply, nil
}

func (s *Session) newMessage(text string, sender Sender) Message {
	return Message{
		ID:        uuid.New().String(),
		Text:      text,
		Sender:    sender,
		Timestamp: s.now().UTC(),
	}
}
