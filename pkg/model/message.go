package model

import (
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidRole = goerr.New("invalid role")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Validate checks if the role is valid
func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAgent:
		return nil
	default:
		return goerr.Wrap(ErrInvalidRole, "unknown role", goerr.V("role", r))
	}
}

// MessageID orders messages by creation. IDs are strictly increasing within a process.
type MessageID int64

var (
	lastMessageID   MessageID
	lastMessageIDMu sync.Mutex
)

// NewMessageID returns the current time in nanoseconds, bumped past the last issued ID
// when the clock did not advance
func NewMessageID() MessageID {
	lastMessageIDMu.Lock()
	defer lastMessageIDMu.Unlock()

	id := MessageID(time.Now().UnixNano())
	if id <= lastMessageID {
		id = lastMessageID + 1
	}
	lastMessageID = id
	return id
}

// Source is a document excerpt the agent used for an answer
type Source struct {
	Content string `json:"content" yaml:"content"`
	Origin  string `json:"source" yaml:"source"`
}

// Message is one turn of a conversation
type Message struct {
	ID          MessageID `json:"id" yaml:"id"`
	Role        Role      `json:"role" yaml:"role"`
	Content     string    `json:"content" yaml:"content"`
	Sources     []Source  `json:"sources" yaml:"sources"`
	Suggestions []string  `json:"suggestions" yaml:"suggestions"`
	Feedback    Feedback  `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`

	// Errored marks the placeholder reply of a failed exchange. Feedback is pinned to none.
	Errored bool `json:"errored,omitempty" yaml:"errored,omitempty"`
}

// NewUserMessage creates a user turn
func NewUserMessage(content string) *Message {
	return &Message{
		ID:          NewMessageID(),
		Role:        RoleUser,
		Content:     content,
		Sources:     []Source{},
		Suggestions: []string{},
		CreatedAt:   time.Now(),
	}
}

// NewAgentMessage creates an agent turn from a normalized agent response
func NewAgentMessage(resp *AgentResponse) *Message {
	msg := &Message{
		ID:          NewMessageID(),
		Role:        RoleAgent,
		Sources:     []Source{},
		Suggestions: []string{},
		Feedback:    FeedbackNone,
		CreatedAt:   time.Now(),
	}
	if resp != nil {
		msg.Content = resp.Answer
		msg.Sources = append(msg.Sources, resp.Sources...)
		msg.Suggestions = append(msg.Suggestions, resp.Suggestions...)
	}
	return msg
}

// AgentErrorText is shown in place of an answer when the agent exchange fails
const AgentErrorText = "Error: Could not connect to the Agent."

// NewErrorMessage creates the synthetic agent turn of a failed exchange
func NewErrorMessage() *Message {
	msg := NewAgentMessage(nil)
	msg.Content = AgentErrorText
	msg.Errored = true
	return msg
}

// AcceptsFeedback reports whether a rating can be applied to the message
func (m *Message) AcceptsFeedback() bool {
	return m.Role == RoleAgent && !m.Errored
}

// Clone returns a deep copy of the message
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cloned := *m
	if m.Sources != nil {
		cloned.Sources = append([]Source{}, m.Sources...)
	}
	if m.Suggestions != nil {
		cloned.Suggestions = append([]string{}, m.Suggestions...)
	}
	return &cloned
}

// CloneMessages deep-copies a message sequence
func CloneMessages(messages []*Message) []*Message {
	cloned := make([]*Message, len(messages))
	for i, m := range messages {
		cloned[i] = m.Clone()
	}
	return cloned
}
