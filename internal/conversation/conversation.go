package conversation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Role tags the speaker of a message. The backend only understands these two.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

var (
	ErrEmptyContent = errors.New("message content is empty")
	ErrInvalidRole  = errors.New("message role must be user or assistant")
)

// Message is one turn of a conversation, encoded on the wire as {role, content}.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Store holds the ordered, append-only message history of one view.
type Store struct {
	mu       sync.RWMutex
	messages []Message
}

// NewStore returns a store pre-filled with a copy of seed.
func NewStore(seed ...Message) *Store {
	return &Store{messages: append([]Message(nil), seed...)}
}

// Append adds msg to the end of the conversation. Only the role is checked;
// assistant replies may legitimately be empty when the backend omits them.
func (s *Store) Append(msg Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, msg.Role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// AppendInput is the path for text typed by a person. The content is trimmed
// and rejected when nothing is left.
func (s *Store) AppendInput(role Role, text string) (Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Message{}, ErrEmptyContent
	}
	msg := Message{Role: role, Content: trimmed}
	if err := s.Append(msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Snapshot returns a copy of the conversation in append order. The result is
// never nil so it encodes as [] rather than null.
func (s *Store) Snapshot() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// DefaultCopilotSeed is the sample case loaded into the copilot view when the
// configuration does not provide one. Each call returns a fresh slice.
func DefaultCopilotSeed() []Message {
	return []Message{
		UserMessage("Hi, I ordered headphones last week and they still have not arrived."),
		AssistantMessage("I am sorry to hear that. Can you please share your order number?"),
		UserMessage("The order number is #12345, and the tracking has not updated for 5 days."),
	}
}
